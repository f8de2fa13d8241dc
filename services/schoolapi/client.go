// Package schoolapi is the client of the school administration REST API.
package schoolapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
)

const LoginFailure = "Login failed. Please check your credentials."

// TokenStore keeps the session between runs.
type TokenStore interface {
	Load(ctx context.Context) (school.Session, error)
	Save(ctx context.Context, sess school.Session) error
	Clear(ctx context.Context) error
}

// APIError is a non-2xx response of the API.
// Message is the backend's `message` (or `error`) field; it is empty when the body has neither.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) UserMessage() string { return e.Message }

func newAPIError(resp *rest.Response) *APIError {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal([]byte(resp.Body), &body)
	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// StatusCode returns the status of the APIError behind err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether the API rejected the session.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

type Client struct {
	http    *rest.Client
	baseURL string
	tokens  TokenStore
	log     core.Logger
}

func NewClient(conf *core.Config, tokens TokenStore, logger core.Logger) *Client {
	return &Client{
		http:    &rest.Client{HTTPClient: &http.Client{Timeout: conf.API.Timeout}},
		baseURL: strings.TrimRight(conf.API.BaseURL, "/"),
		tokens:  tokens,
		log:     logger,
	}
}

// do sends a JSON request and decodes the JSON response into `out` (when not nil).
// The session's access token is attached when there is one.
func (c *Client) do(ctx context.Context, method rest.Method, path string, query map[string]string, in, out interface{}) error {
	req := rest.Request{
		Method:      method,
		BaseURL:     c.baseURL + path,
		QueryParams: query,
		Headers: map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		},
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "json.Marshal()")
		}
		req.Body = body
	}

	sess, err := c.tokens.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "loading session")
	}
	if sess.AccessToken != "" {
		req.Headers["Authorization"] = "Bearer " + sess.AccessToken
	}

	hreq, err := rest.BuildRequestObject(req)
	if err != nil {
		return errors.Wrapf(err, "building %s %s", method, path)
	}
	hres, err := c.http.MakeRequest(hreq.WithContext(ctx))
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	resp, err := rest.BuildResponse(hres)
	if err != nil {
		return errors.Wrapf(err, "reading %s %s", method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp)
		c.log.Debug(fmt.Sprintf("schoolapi: %s %s", method, path), apiErr)
		return apiErr
	}
	if out != nil && strings.TrimSpace(resp.Body) != "" {
		if err = json.Unmarshal([]byte(resp.Body), out); err != nil {
			return errors.Wrapf(err, "decoding %s %s", method, path)
		}
	}
	return nil
}

// Login exchanges credentials for tokens and stores them.
func (c *Client) Login(ctx context.Context, email, password string) (school.Session, error) {
	var resp school.LoginResponse
	in := school.LoginRequest{Email: core.CleanString(email, true /* lower */), Password: password}
	if err := c.do(ctx, rest.Post, "/auth/login", nil, in, &resp); err != nil {
		return school.Session{}, err
	}
	sess := school.Session{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken, User: resp.User}
	if err := c.tokens.Save(ctx, sess); err != nil {
		return school.Session{}, errors.Wrap(err, "saving session")
	}
	return sess, nil
}

// Me resolves the user of the current session.
func (c *Client) Me(ctx context.Context) (school.User, error) {
	var resp struct {
		Data school.User `json:"data"`
	}
	if err := c.do(ctx, rest.Get, "/auth/me", nil, nil, &resp); err != nil {
		return school.User{}, err
	}
	return resp.Data, nil
}

// Session returns the stored session.
func (c *Client) Session(ctx context.Context) (school.Session, error) {
	return c.tokens.Load(ctx)
}

// Logout forgets the stored tokens.
func (c *Client) Logout(ctx context.Context) error {
	return errors.Wrap(c.tokens.Clear(ctx), "clearing session")
}

// School returns the API of a school.
func (c *Client) School(schoolID string) *School {
	return &School{client: c, id: schoolID}
}

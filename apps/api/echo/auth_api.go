package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edudesk/portal/core/school"
	inmemdb "github.com/edudesk/portal/storage/database/inmem"
)

type authApi struct {
	*Server
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *Server) {
	api := authApi{Server: s}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)
	ag.POST("/refresh", api.refresh)

	// authed endpoints
	ag.GET("/me", api.me, jwt)
}

func (api authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.deps.DB.Authenticate(data.Email, data.Password)
	if err != nil {
		if errors.Cause(err) == inmemdb.ErrInvalidCredentials {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "authenticating")
	}
	access, refresh, err := api.auth.tokens(usr)
	if err != nil {
		return errors.Wrap(err, "generating tokens")
	}
	return ctx.JSON(http.StatusOK, school.LoginResponse{AccessToken: access, RefreshToken: refresh, User: usr})
}

func (api authApi) refresh(ctx echo.Context) error {
	var data RefreshRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RefreshRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := api.auth.parseRefreshToken(data.RefreshToken)
	if err != nil {
		return err
	}
	// the account may be gone since the token was issued
	usr, err := api.deps.DB.GetUser(claims.Subject)
	if err != nil {
		if inmemdb.IsNotFound(err) {
			return errInvalidRefresh
		}
		return errors.Wrap(err, "finding user by ID")
	}
	access, err := api.auth.GenerateToken(api.auth.UserClaims(usr, accessToken, claims.OrigIssuedAt))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, school.LoginResponse{AccessToken: access, RefreshToken: data.RefreshToken, User: usr})
}

func (api authApi) me(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	usr, err := api.deps.DB.GetUser(claims.Subject)
	if err != nil {
		if inmemdb.IsNotFound(err) {
			return errUnauthorized
		}
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"data": usr})
}

package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
)

const (
	accessToken  = "access"
	refreshToken = "refresh"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Kind         string `json:"kind"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
	SchoolID     string `json:"schoolId,omitempty"`
}

type authenticator struct {
	appName      string
	expiration   time.Duration
	refreshDelta time.Duration
	jwtConfig    middleware.JWTConfig
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{
		appName:      conf.AppName,
		expiration:   conf.Server.JWTExpirationDelta,
		refreshDelta: conf.Server.JWTRefreshExpirationDelta,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    "userToken",
			Claims:        new(Claims),
		},
	}
}

// UserClaims returns the claims of a token of the given kind issued to usr.
func (a *authenticator) UserClaims(usr school.User, kind string, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}
	delta := a.expiration
	if kind == refreshToken {
		delta = a.refreshDelta
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.appName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(delta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Kind:         kind,
		Email:        usr.Email,
		Role:         usr.Role,
		SchoolID:     usr.SchoolID,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func (a *authenticator) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// tokens issues a fresh access token along with a refresh token.
func (a *authenticator) tokens(usr school.User) (access, refresh string, err error) {
	if access, err = a.GenerateToken(a.UserClaims(usr, accessToken)); err != nil {
		return "", "", err
	}
	refresh, err = a.GenerateToken(a.UserClaims(usr, refreshToken))
	return access, refresh, err
}

// parseRefreshToken validates a refresh token and returns its claims.
func (a *authenticator) parseRefreshToken(tokenString string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != a.jwtConfig.SigningMethod {
			return nil, errors.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
		}
		return a.jwtConfig.SigningKey, nil
	})
	if err != nil || !token.Valid || claims.Kind != refreshToken {
		return nil, errInvalidRefresh
	}
	return claims, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get("userToken").(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok && claims.Kind == accessToken {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func claimsUser(claims Claims) school.User {
	return school.User{ID: claims.Subject, Email: claims.Email, Role: claims.Role, SchoolID: claims.SchoolID}
}

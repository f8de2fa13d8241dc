package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
	inmemdb "github.com/edudesk/portal/storage/database/inmem"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	errInvalidRefresh       = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired refresh token")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errReadOnly             = echo.NewHTTPError(http.StatusForbidden, "read-only access")
	errNoSchool             = echo.NewHTTPError(http.StatusForbidden, "No school assigned")
)

func fieldMessages(flds []core.FieldError) map[string]string {
	msgs := make(map[string]string, len(flds))
	for _, fErr := range flds {
		msgs[fErr.Field] = fErr.Error
	}
	return msgs
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// Echo errors answer `{"error": ...}`, domain errors `{"message": ...}`.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var body echo.Map

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				body = echo.Map{"error": origErr.Message}
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			body = echo.Map{"error": origErr.Message}
		case validator.ValidationErrors:
			vErr := core.TranslateValidationErrors(origErr, translator).(*core.ValidationError)
			code = http.StatusBadRequest
			body = echo.Map{"message": vErr.Error(), "fields": fieldMessages(vErr.Fields)}
		case *core.ValidationError:
			code = http.StatusBadRequest
			body = echo.Map{"message": origErr.Error()}
			if len(origErr.Fields) > 0 {
				body["fields"] = fieldMessages(origErr.Fields)
			}
		case *inmemdb.NotFoundError:
			code = http.StatusNotFound
			body = echo.Map{"message": origErr.Error()}
		case *inmemdb.ConflictError:
			code = http.StatusConflict
			body = echo.Map{"message": origErr.Error()}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			body = echo.Map{"error": msg}

			var usr school.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr = claimsUser(claims)
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			body["error"] = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

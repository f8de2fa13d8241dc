package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edudesk/portal/core/school"
)

// schoolAccessMiddleware guards the routes of the school named by the `schoolId` path param.
// Superadmins reach any school; other users only their own, and teachers may only read.
func schoolAccessMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			switch claims.Role {
			case school.RoleSuperAdmin:
				return next(ctx)
			case school.RoleSchoolAdmin, school.RoleTeacher:
				if claims.SchoolID == "" {
					return errNoSchool
				}
				if claims.SchoolID != ctx.Param("schoolId") {
					return errHttpForbidden
				}
				if claims.Role == school.RoleTeacher && ctx.Request().Method != http.MethodGet {
					return errReadOnly
				}
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/clinic-api/internal/model"
)

const msgRoleForbidden = "Não autorizado, papel insuficiente."

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  Roles are compared
// case-insensitively.  It assumes JWTAuth already ran; a request without
// an identity is rejected with 403 like any other disallowed role.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[model.NormalizeRole(string(r))] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := CurrentIdentity(c)
			if !ok || !allowed[model.NormalizeRole(string(id.Role))] {
				return c.JSON(http.StatusForbidden, echo.Map{"message": msgRoleForbidden})
			}
			return next(c)
		}
	}
}

package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/clinic-api/internal/utils"
)

const (
	msgTokenMissing = "Não autorizado, token não fornecido ou mal formatado."
	msgTokenInvalid = "Não autorizado, o token falhou a verificação."
)

// TokenVerifier is implemented by utils.TokenService.
type TokenVerifier interface {
	Verify(raw string) (utils.Identity, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// stores the verified identity in the request context.  Handlers read it
// with CurrentIdentity.  Every failure ends the request with a single 401
// response and next is not called.
func JWTAuth(tokens TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header is "Bearer <token>".
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": msgTokenMissing})
			}

			id, err := tokens.Verify(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": msgTokenInvalid})
			}

			SetIdentity(c, id)
			return next(c)
		}
	}
}

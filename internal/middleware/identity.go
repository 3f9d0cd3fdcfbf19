package middleware

// identity.go holds the helpers that move the verified caller between
// JWTAuth, the role gate and handlers.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/utils"
)

const (
	identityKey = "identity"
	userIDKey   = "user_id"
	roleKey     = "role"
)

// SetIdentity stores id on the context.  user_id and role are also set as
// plain strings for loggers and key builders.
func SetIdentity(c echo.Context, id utils.Identity) {
	id.Role = model.NormalizeRole(string(id.Role))
	c.Set(identityKey, id)
	c.Set(userIDKey, id.UserID)
	c.Set(roleKey, string(id.Role))
}

// CurrentIdentity returns the identity stored by JWTAuth.
func CurrentIdentity(c echo.Context) (utils.Identity, bool) {
	id, ok := c.Get(identityKey).(utils.Identity)
	return id, ok && id.UserID != ""
}

// userID returns the caller id, or "anon" for unauthenticated requests.
func userID(c echo.Context) string {
	if id, ok := CurrentIdentity(c); ok {
		return id.UserID
	}
	return "anon"
}

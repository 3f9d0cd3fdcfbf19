package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/clinic-api/internal/middleware"
	"github.com/iliyamo/clinic-api/internal/service"
)

// actor returns the verified caller.  Routes using it sit behind JWTAuth,
// so a missing identity means the route was wired without it.
func actor(c echo.Context) (service.Actor, error) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return service.Actor{}, service.Authentication("Não autorizado.")
	}
	return id, nil
}

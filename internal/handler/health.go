package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger reports whether the backing database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	DB Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler { return &HealthHandler{DB: db} }

// Root is the plain-text banner clients use to check the API is up.
func (h *HealthHandler) Root(c echo.Context) error {
	return c.String(http.StatusOK, "API Clinic-App is running correctly!")
}

// Hello is the JSON smoke-test endpoint.
func (h *HealthHandler) Hello(c echo.Context) error {
	return c.JSON(http.StatusOK, messageResp{Message: "Olá do backend da Clínica!"})
}

// Healthz reports 200 "ok" when the database responds within two seconds
// and 503 otherwise.
func (h *HealthHandler) Healthz(c echo.Context) error {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			return c.String(http.StatusServiceUnavailable, "unavailable")
		}
	}
	return c.String(http.StatusOK, "ok")
}

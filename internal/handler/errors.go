package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/clinic-api/internal/service"
)

// statusOf maps a service error kind to its HTTP status.
func statusOf(k service.Kind) int {
	switch k {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindAuthentication:
		return http.StatusUnauthorized
	case service.KindAuthorization:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorHandler is the only place errors become responses.  Every
// response body is {"message": string}.  5xx causes are logged and sent to
// Sentry when a client is configured; clients only see a generic message.
func HTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := service.InternalMessage

		var se *service.Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &se):
			code = statusOf(se.Kind)
			if code != http.StatusInternalServerError {
				msg = se.Message
			}
		case errors.As(err, &he):
			code = he.Code
			if code < http.StatusInternalServerError {
				msg = httpErrorMessage(he)
			}
		}

		if code >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			log.Error().Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
			if hub := sentry.CurrentHub(); hub.Client() != nil {
				hub.CaptureException(err)
			}
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, echo.Map{"message": msg})
		}
		if werr != nil {
			log.Warn().Err(werr).Msg("write error response")
		}
	}
}

func httpErrorMessage(he *echo.HTTPError) string {
	switch he.Code {
	case http.StatusNotFound:
		return "Recurso não encontrado."
	case http.StatusMethodNotAllowed:
		return "Método não permitido."
	case http.StatusRequestEntityTooLarge:
		return "Pedido demasiado grande."
	case http.StatusUnauthorized:
		return "Não autorizado."
	}
	if s, ok := he.Message.(string); ok {
		return s
	}
	return fmt.Sprint(he.Message)
}

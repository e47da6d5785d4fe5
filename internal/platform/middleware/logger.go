package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medlink/medlink/internal/platform/auth"
)

// Logger emits one structured line per request. When the session
// middleware has attached an identity, the caller's user id and role are
// included so access to patient data can be traced to an account.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP())

			if ident, ok := auth.IdentityFromContext(c.Request().Context()); ok {
				evt.
					Str("user_id", ident.UserID.String()).
					Str("role", string(ident.Role))
			}

			evt.Msg("request")
			return err
		}
	}
}

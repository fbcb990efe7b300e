package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/vitalis/vitalis/internal/platform/scope"
)

// Logger emits one structured line per request. When the request carries an
// access scope it logs the same scope fields the audit trail uses, so a
// request line can be correlated with its data_access entry.
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

			if access, ok := scope.FromContext(req.Context()); ok {
				evt.Str("caller_kind", access.Kind.String())
				switch access.Kind {
				case scope.CompositeUser:
					evt.Int64("composite_user_id", access.CompositeUserID)
				default:
					evt.Int64("tenant_id", access.TenantID)
				}
			}

			evt.Msg("request")

			return err
		}
	}
}

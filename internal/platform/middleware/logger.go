package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/auth"
)

// Logger emits one structured line per completed request. A request-scoped
// child logger carrying the request id is placed on the request context so
// downstream code logs under the same correlation id.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			reqLog := logger.With().Str("request_id", rid).Logger()
			c.SetRequest(req.WithContext(reqLog.WithContext(req.Context())))

			err := next(c)

			evt := reqLog.Info()
			if err != nil {
				evt = reqLog.Error().Err(err)
			}
			// The auth middleware runs inside this one, so the actor is only
			// known after next returns.
			if actor := auth.UserIDFromContext(c.Request().Context()); actor != uuid.Nil {
				evt = evt.Str("user_id", actor.String())
			}
			evt.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Int64("bytes_out", c.Response().Size).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}

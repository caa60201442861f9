package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"oms/internal/logging"

	"github.com/labstack/echo/v4"
)

// RequestLogger logs each request and injects a request-scoped logger
// into the request context.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get("X-Request-Id")
			if reqID == "" {
				reqID = time.Now().UTC().Format("20060102T150405.000000000")
			}
			c.Response().Header().Set("X-Request-Id", reqID)

			l := base.With(
				"req_id", reqID,
				"method", c.Request().Method,
				"path", c.Path(),
				"remote", c.RealIP(),
			)
			c.SetRequest(c.Request().WithContext(logging.WithCtx(c.Request().Context(), l)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			attrs := []any{
				"status", status,
				"dur_ms", time.Since(start).Milliseconds(),
				"resp_bytes", c.Response().Size,
			}
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			}

			if status >= http.StatusBadRequest {
				l.Error("http_request", attrs...)
			} else {
				l.Info("http_request", attrs...)
			}
			return nil
		}
	}
}

package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const requestIDHeader = "X-Request-ID"

// healthPaths are probe endpoints whose repeated successes are suppressed
// from the request log. Failures and success transitions are always logged.
var healthPaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// RequestLog returns Echo middleware that logs each request with structured
// fields. It generates a request ID if none is provided and propagates it
// through the response header and echo context. Successful health probes are
// logged once per state transition rather than on every poll.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var mu sync.Mutex
	lastProbeOK := make(map[string]bool)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Set("request_id", reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := c.Request().URL.Path
			status := c.Response().Status
			ok := status >= 200 && status < 300

			level := slog.LevelInfo
			if _, probe := healthPaths[path]; probe {
				mu.Lock()
				wasOK := lastProbeOK[path]
				lastProbeOK[path] = ok
				mu.Unlock()

				if ok && wasOK {
					return err
				}
				if !ok {
					level = slog.LevelWarn
				}
			}

			log.Log(c.Request().Context(), level, "request",
				"method", c.Request().Method,
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", c.RealIP(),
				"request_id", reqID,
			)

			return err
		}
	}
}

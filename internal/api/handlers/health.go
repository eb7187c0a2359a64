package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandler provides health and readiness endpoints.
type HealthHandler struct {
	ready func() bool
}

// NewHealthHandler creates a new HealthHandler. ready reports whether the
// service is fully wired and able to take traffic; nil means always ready.
func NewHealthHandler(ready func() bool) *HealthHandler {
	return &HealthHandler{ready: ready}
}

// Healthz returns 200 if the process is running.
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz returns 200 when the service is wired up, 503 otherwise.
func (h *HealthHandler) Readyz(c echo.Context) error {
	if h.ready != nil && !h.ready() {
		return c.JSON(
			http.StatusServiceUnavailable,
			map[string]string{"status": "unavailable"},
		)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

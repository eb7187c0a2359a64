package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mw "github.com/pkravchenko/b24-dealsync/internal/api/middleware"
	"github.com/pkravchenko/b24-dealsync/internal/metrics"
)

func TestMetricsMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		handler    echo.HandlerFunc
		wantStatus int
	}{
		{
			name:   "records webhook POST",
			method: http.MethodPost,
			path:   "/hooks/deal-update",
			handler: func(c echo.Context) error {
				return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "records 404 response",
			method: http.MethodGet,
			path:   "/notfound",
			handler: func(c echo.Context) error {
				return c.NoContent(http.StatusNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "records admin POST",
			method: http.MethodPost,
			path:   "/api/v1/roll-dates",
			handler: func(c echo.Context) error {
				return c.NoContent(http.StatusAccepted)
			},
			wantStatus: http.StatusAccepted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.Use(mw.Metrics())
			e.Add(tt.method, tt.path, tt.handler)

			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			statusStr := strconv.Itoa(tt.wantStatus)

			// Verify the counter was incremented.
			counter, err := metrics.HTTPRequestsTotal.GetMetricWithLabelValues(
				tt.method, tt.path, statusStr,
			)
			require.NoError(t, err)

			m := &io_prometheus_client.Metric{}
			require.NoError(t, counter.Write(m))
			assert.Greater(t, m.GetCounter().GetValue(), float64(0))

			// Verify histogram was observed.
			observer, err := metrics.HTTPRequestDuration.GetMetricWithLabelValues(
				tt.method, tt.path, statusStr,
			)
			require.NoError(t, err)

			hm := &io_prometheus_client.Metric{}
			require.NoError(t, observer.(prometheus.Metric).Write(hm))
			assert.Positive(t, hm.GetHistogram().GetSampleCount())
		})
	}
}

func TestMetricsMiddlewareSkipsProbePaths(t *testing.T) {
	e := echo.New()
	e.Use(mw.Metrics())
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	// The probe updates the gauge, not the request histogram.
	gm := &io_prometheus_client.Metric{}
	require.NoError(t, metrics.HealthzUp.Write(gm))
	assert.Equal(t, float64(1), gm.GetGauge().GetValue())

	counter, err := metrics.HTTPRequestsTotal.GetMetricWithLabelValues(
		http.MethodGet, "/healthz", "200",
	)
	require.NoError(t, err)
	m := &io_prometheus_client.Metric{}
	require.NoError(t, counter.Write(m))
	assert.Zero(t, m.GetCounter().GetValue())
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	// Setup
	e := echo.New()
	e.Use(MetricsMiddleware())
	e.GET("/dashboard/devices", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	before := testutil.ToFloat64(TotalRequests.WithLabelValues(http.MethodGet, "/dashboard/devices", "200"))

	// Execute
	req := httptest.NewRequest(http.MethodGet, "/dashboard/devices?search=laptop", nil)
	e.ServeHTTP(httptest.NewRecorder(), req)

	// Assert
	after := testutil.ToFloat64(TotalRequests.WithLabelValues(http.MethodGet, "/dashboard/devices", "200"))
	assert.Equal(t, before+1, after)
}

func TestObserveBackendRequest(t *testing.T) {
	before := testutil.ToFloat64(BackendRequests.WithLabelValues("/api/stats", "502"))

	ObserveBackendRequest("/api/stats", "502", 20*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(BackendRequests.WithLabelValues("/api/stats", "502")))
}

func TestSetNetwork(t *testing.T) {
	SetNetwork(true, 4, 2048, 512)
	assert.Equal(t, 1.0, testutil.ToFloat64(BackendOnline))
	assert.Equal(t, 4.0, testutil.ToFloat64(ActiveDevices))
	assert.Equal(t, 2048.0, testutil.ToFloat64(DownloadRate))

	SetBackendOffline()
	assert.Equal(t, 0.0, testutil.ToFloat64(BackendOnline))
}

package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TotalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netdash_http_requests_total",
			Help: "Total number of dashboard HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netdash_http_request_duration_seconds",
			Help:    "Dashboard request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	BackendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netdash_backend_requests_total",
			Help: "Calls made to the monitoring backend by outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	BackendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netdash_backend_request_duration_seconds",
			Help:    "Monitoring backend call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	DeviceActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netdash_device_actions_total",
			Help: "Confirmed device commands by action and result",
		},
		[]string{"action", "status"},
	)

	Exports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netdash_exports_total",
			Help: "Completed exports by kind",
		},
		[]string{"kind"},
	)

	BackendOnline = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "netdash_backend_online",
			Help: "1 when the last stats poll succeeded",
		},
	)

	ActiveDevices = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "netdash_active_devices",
			Help: "Active devices reported by the last stats poll",
		},
	)

	DownloadRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "netdash_download_bytes_per_second",
			Help: "Download rate reported by the last stats poll",
		},
	)

	UploadRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "netdash_upload_bytes_per_second",
			Help: "Upload rate reported by the last stats poll",
		},
	)
)

func init() {
	prometheus.MustRegister(TotalRequests)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(BackendRequests)
	prometheus.MustRegister(BackendDuration)
	prometheus.MustRegister(DeviceActions)
	prometheus.MustRegister(Exports)
	prometheus.MustRegister(BackendOnline)
	prometheus.MustRegister(ActiveDevices)
	prometheus.MustRegister(DownloadRate)
	prometheus.MustRegister(UploadRate)
}

// MetricsMiddleware records every request against its route pattern, not the raw path
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			method := c.Request().Method
			RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			TotalRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			return err
		}
	}
}

func ObserveBackendRequest(endpoint, outcome string, d time.Duration) {
	BackendRequests.WithLabelValues(endpoint, outcome).Inc()
	BackendDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func IncrementDeviceAction(action, status string) {
	DeviceActions.WithLabelValues(action, status).Inc()
}

func IncrementExport(kind string) {
	Exports.WithLabelValues(kind).Inc()
}

// SetNetwork updates the gauges that mirror the overview card
func SetNetwork(online bool, activeDevices int, downloadRate, uploadRate float64) {
	if online {
		BackendOnline.Set(1)
	} else {
		BackendOnline.Set(0)
	}
	ActiveDevices.Set(float64(activeDevices))
	DownloadRate.Set(downloadRate)
	UploadRate.Set(uploadRate)
}

func SetBackendOffline() {
	BackendOnline.Set(0)
}

package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts every dashboard endpoint on e. Nil handler groups are skipped.
func RegisterRoutes(e *echo.Echo, h *Handler, eh *ExportHandlers, ch *CacheHandlers, hh *HistoryHandlers) {
	e.GET("/health", h.GetHealth)
	e.GET("/status", h.GetStatus)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	d := e.Group("/dashboard")
	d.GET("", h.GetDashboard)
	d.GET("/stats", h.GetStats)
	d.GET("/devices", h.GetDevices)
	d.GET("/chart", h.GetChart)
	d.GET("/system", h.GetSystem)
	d.GET("/notifications", h.GetNotifications)
	d.POST("/refresh", h.Refresh)
	d.POST("/scan", h.Scan)
	d.POST("/devices/scan", h.ScanDevices)
	d.POST("/range", h.SetRange)
	d.POST("/realtime", h.SetRealtime)
	d.POST("/settings", h.SaveSettings)

	d.GET("/actions", h.GetAction)
	d.POST("/actions", h.RequestAction)
	d.POST("/actions/confirm", h.ConfirmAction)
	d.POST("/actions/cancel", h.CancelAction)

	if eh != nil {
		x := e.Group("/export")
		x.GET("/csv", eh.ExportCSV)
		x.GET("/chart.csv", eh.ExportChartCSV)
		x.GET("/chart.png", eh.ExportChartPNG)
		x.GET("/report.png", eh.ExportReportPNG)
	}

	if ch != nil {
		e.GET("/cache/status", ch.GetCacheStatus)
		e.POST("/cache/clear", ch.ClearCache)
	}

	if hh != nil {
		e.GET("/export/history", hh.GetExportHistory)
		d.GET("/actions/history", hh.GetActionHistory)
	}
}

package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"netdash/utils"
)

var startedAt = time.Now()

// GetHealth returns OK
func (h *Handler) GetHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// GetStatus returns service status
func (h *Handler) GetStatus(c echo.Context) error {
	snap := h.Scheduler.Snapshot()

	lastUpdate := ""
	if !snap.LastUpdate.IsZero() {
		lastUpdate = snap.LastUpdate.Format(time.RFC3339)
	}

	status := map[string]interface{}{
		"status":        "running",
		"uptime":        utils.FormatUptime(int64(time.Since(startedAt).Seconds())),
		"backend":       h.Cfg.Backend.BaseURL,
		"backendOnline": snap.Online,
		"knownDevices":  len(snap.Devices),
		"autoRefresh":   snap.AutoRefresh,
		"scanInterval":  snap.Interval,
		"lastUpdate":    lastUpdate,
		"timestamp":     time.Now(),
	}
	return c.JSON(http.StatusOK, status)
}

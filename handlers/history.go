package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"netdash/models"
)

// AuditHistory is the read side of the export and action audit log
type AuditHistory interface {
	Enabled() bool
	RecentExports(ctx context.Context, limit int64) ([]models.ExportRecord, error)
	ExportCounts(ctx context.Context, daysBack int) ([]models.KindCount, error)
	RecentActions(ctx context.Context, deviceIP string, limit int64) ([]models.ActionRecord, error)
}

// HistoryHandlers manages audit log endpoints
type HistoryHandlers struct {
	store AuditHistory
}

func NewHistoryHandlers(store AuditHistory) *HistoryHandlers {
	return &HistoryHandlers{
		store: store,
	}
}

func parseLimit(c echo.Context) int64 {
	limit := int64(50) // Default 50 records
	if v, err := strconv.ParseInt(c.QueryParam("limit"), 10, 64); err == nil && v > 0 {
		limit = v
	}
	if limit > 500 {
		limit = 500
	}
	return limit
}

// GetExportHistory returns recent exports and per-kind totals
func (hh *HistoryHandlers) GetExportHistory(c echo.Context) error {
	if !hh.store.Enabled() {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Audit log is disabled"})
	}

	days := 7
	if d, err := strconv.Atoi(c.QueryParam("days")); err == nil && d > 0 {
		days = d
	}

	ctx := c.Request().Context()
	exports, err := hh.store.RecentExports(ctx, parseLimit(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	counts, err := hh.store.ExportCounts(ctx, days)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"exports": exports,
		"totals":  counts,
		"days":    days,
	})
}

// GetActionHistory returns recent device commands, optionally for ?ip=
func (hh *HistoryHandlers) GetActionHistory(c echo.Context) error {
	if !hh.store.Enabled() {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Audit log is disabled"})
	}

	actions, err := hh.store.RecentActions(c.Request().Context(), c.QueryParam("ip"), parseLimit(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, actions)
}

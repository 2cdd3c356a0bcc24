package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"netdash/config"
	"netdash/models"
	"netdash/services"
)

type Handler struct {
	Cfg        *config.Config
	Scheduler  *services.Scheduler
	Dispatcher *services.Dispatcher
	Notifier   *services.Notifier
}

func NewHandler(cfg *config.Config, scheduler *services.Scheduler, dispatcher *services.Dispatcher, notifier *services.Notifier) *Handler {
	return &Handler{
		Cfg:        cfg,
		Scheduler:  scheduler,
		Dispatcher: dispatcher,
		Notifier:   notifier,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

type RangeRequest struct {
	Range string `json:"range"`
}

type RealtimeRequest struct {
	Enabled bool `json:"enabled"`
}

// errorStatus maps service errors to HTTP status codes
func errorStatus(err error) int {
	var validationErr *services.ValidationError
	var requestErr *services.RequestError
	var renderErr *services.RenderError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &renderErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &requestErr):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrNothingPending):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnknownDevice):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func respondError(c echo.Context, err error) error {
	return c.JSON(errorStatus(err), ErrorResponse{Error: err.Error()})
}

// GetDashboard godoc
// @Summary Full dashboard view
// @Tags dashboard
// @Produce json
// @Success 200 {object} models.DashboardView
// @Router /dashboard [get]
func (h *Handler) GetDashboard(c echo.Context) error {
	snap := h.Scheduler.Snapshot()

	view := models.DashboardView{
		Stats:          h.Scheduler.StatsCard(),
		Chart:          h.Scheduler.ChartView(),
		Devices:        h.Scheduler.CurrentDeviceTable(),
		System:         h.Scheduler.SystemCard(),
		Confirmation:   h.Dispatcher.Current(),
		Notifications:  h.Notifier.Active(),
		Loading:        snap.Loading,
		AutoRefresh:    snap.AutoRefresh,
		ScanInterval:   snap.Interval,
		NotificationMS: h.Notifier.TTL().Milliseconds(),
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) GetStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Scheduler.StatsCard())
}

// GetDevices renders the device table. The search term is remembered for later renders.
func (h *Handler) GetDevices(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Scheduler.DeviceTable(c.QueryParam("search")))
}

func (h *Handler) GetChart(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Scheduler.ChartView())
}

func (h *Handler) GetSystem(c echo.Context) error {
	card := h.Scheduler.SystemCard()
	if card == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "System information not yet available",
		})
	}
	return c.JSON(http.StatusOK, card)
}

// GetNotifications returns unexpired notifications, or the whole feed with ?all=true
func (h *Handler) GetNotifications(c echo.Context) error {
	items := h.Notifier.Active()
	if c.QueryParam("all") == "true" {
		items = h.Notifier.Recent()
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": items,
		"ttl_ms":        h.Notifier.TTL().Milliseconds(),
	})
}

func (h *Handler) Refresh(c echo.Context) error {
	if err := h.Scheduler.Refresh(c.Request().Context()); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, h.Scheduler.StatsCard())
}

// Scan triggers a backend scan and reloads the dashboard
func (h *Handler) Scan(c echo.Context) error {
	ack, err := h.Scheduler.Scan(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ack)
}

// ScanDevices triggers a backend scan and reloads the device list only
func (h *Handler) ScanDevices(c echo.Context) error {
	ack, err := h.Scheduler.ScanDevices(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ack)
}

func (h *Handler) SetRange(c echo.Context) error {
	var req RangeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}
	if err := h.Scheduler.SetRange(c.Request().Context(), req.Range); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, h.Scheduler.ChartView())
}

// SetRealtime toggles automatic refresh
func (h *Handler) SetRealtime(c echo.Context) error {
	var req RealtimeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}
	h.Scheduler.SetAutoRefresh(req.Enabled)
	return c.JSON(http.StatusOK, map[string]bool{"auto_refresh": h.Scheduler.AutoRefresh()})
}

func (h *Handler) SaveSettings(c echo.Context) error {
	var req models.SettingsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}

	result, err := h.Scheduler.SaveSettings(c.Request().Context(), req.ScanInterval)
	if err != nil {
		return respondError(c, err)
	}
	if !result.Success() {
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: result.Message})
	}
	return c.JSON(http.StatusOK, result)
}

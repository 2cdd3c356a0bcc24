package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"netdash/services"
)

type DeviceActionRequest struct {
	Action string `json:"action"`
	IP     string `json:"ip"`
}

// RequestAction opens the confirmation dialog. Nothing is sent to the backend yet.
func (h *Handler) RequestAction(c echo.Context) error {
	var req DeviceActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}
	if _, ok := services.ActionEndpoint(req.Action); !ok {
		return respondError(c, fmt.Errorf("%w: %s", services.ErrUnknownAction, req.Action))
	}

	device, ok := h.Scheduler.Device(req.IP)
	if !ok {
		return respondError(c, fmt.Errorf("%w: %s", services.ErrUnknownDevice, req.IP))
	}

	confirmation, err := h.Dispatcher.Request(req.Action, device)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, confirmation)
}

// ConfirmAction submits whatever action is pending
func (h *Handler) ConfirmAction(c echo.Context) error {
	outcome, err := h.Dispatcher.Confirm(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, outcome)
}

func (h *Handler) CancelAction(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Dispatcher.Cancel())
}

func (h *Handler) GetAction(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Dispatcher.Current())
}

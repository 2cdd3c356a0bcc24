package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"netdash/services"
)

// ExportHandlers serves CSV and PNG downloads
type ExportHandlers struct {
	exporter *services.Exporter
}

func NewExportHandlers(exporter *services.Exporter) *ExportHandlers {
	return &ExportHandlers{
		exporter: exporter,
	}
}

func (eh *ExportHandlers) ExportCSV(c echo.Context) error {
	return eh.serve(c, eh.exporter.ExportCSV)
}

func (eh *ExportHandlers) ExportChartCSV(c echo.Context) error {
	return eh.serve(c, eh.exporter.ChartCSV)
}

func (eh *ExportHandlers) ExportChartPNG(c echo.Context) error {
	return eh.serve(c, eh.exporter.ExportChartPNG)
}

func (eh *ExportHandlers) ExportReportPNG(c echo.Context) error {
	return eh.serve(c, eh.exporter.ExportReportPNG)
}

func (eh *ExportHandlers) serve(c echo.Context, build func(context.Context) (*services.ExportFile, error)) error {
	file, err := build(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Filename))
	return c.Blob(http.StatusOK, file.ContentType, file.Data)
}

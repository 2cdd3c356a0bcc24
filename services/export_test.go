package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netdash/models"
)

func exportBackend() *fakeBackend {
	return &fakeBackend{
		stats: &models.NetworkStats{ActiveDevices: 2, BlockedDevices: 1, DownloadRate: 1024, LocalIP: "192.168.1.2"},
		devices: []models.Device{
			{IP: "192.168.1.10", Hostname: "alpha", MAC: "AA", Status: "up"},
			{IP: "192.168.1.11", Status: "up", Blocked: true},
		},
		traffic: &models.TrafficHistory{
			Timestamps: []string{"2024-01-01 10:00:00", "2024-01-01 10:00:01", "2024-01-01 10:00:02"},
			Download:   []uint64{100, 150, 250},
			Upload:     []uint64{0, 1024, 2048},
		},
		system: &models.SystemInfo{Hostname: "router", Platform: "Linux", Uptime: 3600},
	}
}

func newTestExporter(t *testing.T, backend *fakeBackend) (*Exporter, *Scheduler, *fakeAudit) {
	t.Helper()
	s, notifier := newTestScheduler(t, backend, nil)
	audit := &fakeAudit{}
	e := NewExporter(s, backend, s.cache, audit, notifier)
	e.now = func() time.Time { return time.Unix(1700000000, 0) }
	return e, s, audit
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestExportCSV_FromBackend(t *testing.T) {
	// Setup
	backend := exportBackend()
	e, _, audit := newTestExporter(t, backend)

	// Execute
	file, err := e.ExportCSV(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "network_data_1700000000.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	records := readCSV(t, file.Data)
	assert.Equal(t, []string{"Traffic History"}, records[0])
	assert.Equal(t, []string{"2024-01-01 10:00:00", "100", "0", "0.05", "1.00"}, records[2])

	text := string(file.Data)
	assert.Contains(t, text, "Devices\n")
	assert.Contains(t, text, "192.168.1.11,Unknown,Unknown,Blocked,Unknown")
	assert.Contains(t, text, "Active Devices,2")
	assert.Contains(t, text, "Hostname,router")
	assert.Contains(t, text, "Uptime,1h 0m")

	summary := summaryRows(&exportSnapshot{stats: backend.stats, system: backend.system}, e.now())
	assert.Equal(t, 3+2+len(summary), file.Rows)
	require.Len(t, audit.exports, 1)
	assert.Equal(t, "csv", audit.exports[0].Kind)
}

func TestExportCSV_PrefersCache(t *testing.T) {
	backend := exportBackend()
	e, s, _ := newTestExporter(t, backend)
	require.NoError(t, s.Refresh(context.Background()))
	require.NoError(t, s.RefreshSystem(context.Background()))
	before := len(backend.Calls())

	_, err := e.ExportCSV(context.Background())

	require.NoError(t, err)
	assert.Equal(t, before, len(backend.Calls()), "everything was served from cache")
}

func TestExportCSV_NothingAvailable(t *testing.T) {
	down := errors.New("connection refused")
	backend := &fakeBackend{statsErr: down, devicesErr: down, trafficErr: down, systemErr: down}
	e, _, audit := newTestExporter(t, backend)

	_, err := e.ExportCSV(context.Background())

	assert.ErrorIs(t, err, down)
	assert.Empty(t, audit.exports)
}

func TestExportCSV_PartialData(t *testing.T) {
	down := errors.New("connection refused")
	backend := exportBackend()
	backend.trafficErr = down
	backend.systemErr = down
	e, _, _ := newTestExporter(t, backend)

	file, err := e.ExportCSV(context.Background())

	require.NoError(t, err)
	assert.Contains(t, string(file.Data), "alpha")
	assert.NotContains(t, string(file.Data), "Hostname,router")
}

func TestChartCSV(t *testing.T) {
	e, s, _ := newTestExporter(t, exportBackend())
	require.NoError(t, s.RefreshTraffic(context.Background(), ""))

	file, err := e.ChartCSV(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ChartCSVFilename, file.Filename)
	records := readCSV(t, file.Data)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Time", "Download (KB/s)", "Upload (KB/s)"}, records[0])
	assert.Equal(t, []string{"2024-01-01 10:00:02", "0.10", "1.00"}, records[3])
}

func TestExportChartPNG(t *testing.T) {
	e, s, audit := newTestExporter(t, exportBackend())
	require.NoError(t, s.RefreshTraffic(context.Background(), ""))

	file, err := e.ExportChartPNG(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ChartPNGFilename, file.Filename)
	img, err := png.Decode(bytes.NewReader(file.Data))
	require.NoError(t, err)
	assert.Equal(t, chartWidth, img.Bounds().Dx())
	assert.Equal(t, chartHeight, img.Bounds().Dy())
	require.Len(t, audit.exports, 1)
	assert.Equal(t, "chart_png", audit.exports[0].Kind)
}

func TestExportChartPNG_EmptyChart(t *testing.T) {
	// Setup: chart never populated
	e, _, audit := newTestExporter(t, exportBackend())

	// Execute
	file, err := e.ExportChartPNG(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, ChartPNGFilename, file.Filename)
	assert.Equal(t, 0, file.Rows)
	img, err := png.Decode(bytes.NewReader(file.Data))
	require.NoError(t, err)
	assert.Equal(t, chartWidth, img.Bounds().Dx())
	assert.Equal(t, chartHeight, img.Bounds().Dy())
	assert.Len(t, audit.exports, 1)
}

func TestRenderChartPNG_SinglePoint(t *testing.T) {
	data, err := RenderChartPNG([]models.ChartPoint{{Label: "2024-01-01 10:00:00", Download: 3, Upload: 1}}, 320, 200)

	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
}

func TestExportReportPNG_EmptyChart(t *testing.T) {
	// Setup: snapshots come from the backend, the chart has no points
	e, s, _ := newTestExporter(t, exportBackend())
	require.Zero(t, s.Chart().Len())

	// Execute
	file, err := e.ExportReportPNG(context.Background())

	// Assert
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(file.Data))
	require.NoError(t, err)
	assert.Equal(t, chartWidth+2*reportMargin, img.Bounds().Dx())
	assert.Greater(t, img.Bounds().Dy(), chartHeight)
}

func TestExportReportPNG(t *testing.T) {
	e, s, _ := newTestExporter(t, exportBackend())
	require.NoError(t, s.Refresh(context.Background()))

	file, err := e.ExportReportPNG(context.Background())

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(file.Filename, "network_report_1700000000"))
	img, err := png.Decode(bytes.NewReader(file.Data))
	require.NoError(t, err)
	assert.Equal(t, chartWidth+2*reportMargin, img.Bounds().Dx())
	assert.Greater(t, img.Bounds().Dy(), chartHeight)
}

func TestReportLines(t *testing.T) {
	snap := &exportSnapshot{
		devices: exportBackend().devices,
		system:  &models.SystemInfo{Hostname: "router", Uptime: 120},
	}

	lines := reportLines(snap, BuildStatsCard(nil, false, time.Time{}), time.Unix(0, 0))

	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "Hostname: router")
	assert.Contains(t, joined, "Status:   Offline")
	assert.Contains(t, joined, "Total: 2  Online: 1  Blocked: 1")
}

func TestChartTicks(t *testing.T) {
	points := make([]models.ChartPoint, 20)
	for i := range points {
		points[i].Label = "2024-01-01 10:00:00"
	}

	ticks := chartTicks(points)

	assert.LessOrEqual(t, len(ticks), maxTickCount+1)
	assert.Equal(t, "10:00", ticks[0].Label)
}

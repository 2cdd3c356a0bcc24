package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"netdash/metrics"
	"netdash/models"
	"netdash/utils"
)

const (
	ChartCSVFilename = "network_traffic_data.csv"
	ChartPNGFilename = "network_traffic_chart.png"

	chartWidth   = 960
	chartHeight  = 400
	reportMargin = 24
	lineHeight   = 18
	maxTickCount = 8

	emptyChartLabel = "No traffic data yet"
)

// ExportFile is one downloadable artifact
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// Exporter builds CSV and PNG downloads from the current dashboard state.
// Nothing it produces is kept after the call returns.
type Exporter struct {
	scheduler *Scheduler
	backend   Backend
	cache     *SnapshotCache
	audit     AuditLog
	notifier  *Notifier
	now       func() time.Time
}

func NewExporter(scheduler *Scheduler, backend Backend, cache *SnapshotCache, audit AuditLog, notifier *Notifier) *Exporter {
	return &Exporter{
		scheduler: scheduler,
		backend:   backend,
		cache:     cache,
		audit:     audit,
		notifier:  notifier,
		now:       time.Now,
	}
}

type exportSnapshot struct {
	traffic *models.TrafficHistory
	devices []models.Device
	stats   *models.NetworkStats
	system  *models.SystemInfo
}

// gather reads each snapshot from the cache and falls back to the backend.
// It only fails when nothing at all could be collected.
func (e *Exporter) gather(ctx context.Context) (*exportSnapshot, error) {
	snap := &exportSnapshot{}
	rangeKey := e.scheduler.Range()
	var errs []error

	if e.cache != nil {
		snap.traffic, _ = e.cache.GetTraffic(rangeKey)
		snap.devices, _ = e.cache.GetDevices()
		snap.stats, _ = e.cache.GetStats()
		snap.system, _ = e.cache.GetSystemInfo()
	}

	if snap.traffic == nil {
		history, err := e.backend.GetTrafficHistory(ctx, rangeKey)
		if err != nil {
			errs = append(errs, err)
		}
		snap.traffic = history
	}
	if snap.devices == nil {
		devices, err := e.backend.GetDevices(ctx)
		if err != nil {
			errs = append(errs, err)
		}
		snap.devices = devices
	}
	if snap.stats == nil {
		stats, err := e.backend.GetStats(ctx)
		if err != nil {
			errs = append(errs, err)
		}
		snap.stats = stats
	}
	if snap.system == nil {
		info, err := e.backend.GetSystemInfo(ctx)
		if err != nil {
			errs = append(errs, err)
		}
		snap.system = info
	}

	if snap.traffic == nil && snap.devices == nil && snap.stats == nil && snap.system == nil {
		return nil, fmt.Errorf("no data to export: %w", errors.Join(errs...))
	}
	for _, err := range errs {
		log.Printf("⚠️  Export continuing without a section: %v", err)
	}
	return snap, nil
}

// ExportCSV writes traffic, device and summary sections into one document
func (e *Exporter) ExportCSV(ctx context.Context) (*ExportFile, error) {
	snap, err := e.gather(ctx)
	if err != nil {
		e.notify(models.LevelError, "Failed to export data")
		return nil, err
	}

	now := e.now()
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	rows := 0

	cw.Write([]string{"Traffic History"})
	cw.Write([]string{"Time", "Download (bytes)", "Upload (bytes)", "Download (KB/s)", "Upload (KB/s)"})
	if snap.traffic != nil {
		rates := DeriveRates(*snap.traffic)
		for i, p := range rates {
			cw.Write([]string{
				p.Label,
				strconv.FormatUint(snap.traffic.Download[i], 10),
				strconv.FormatUint(snap.traffic.Upload[i], 10),
				fmt.Sprintf("%.2f", p.Download),
				fmt.Sprintf("%.2f", p.Upload),
			})
			rows++
		}
	}
	cw.Write(nil)

	cw.Write([]string{"Devices"})
	cw.Write([]string{"IP", "Hostname", "MAC", "Status", "Last Seen"})
	for _, d := range snap.devices {
		cw.Write([]string{d.IP, orUnknown(d.Hostname), orUnknown(d.MAC), StatusLabel(d), orUnknown(d.LastSeen)})
		rows++
	}
	cw.Write(nil)

	cw.Write([]string{"Summary"})
	cw.Write([]string{"Metric", "Value"})
	for _, kv := range summaryRows(snap, now) {
		cw.Write(kv)
		rows++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}

	file := &ExportFile{
		Filename:    fmt.Sprintf("network_data_%d.csv", now.Unix()),
		ContentType: "text/csv",
		Data:        buf.Bytes(),
		Rows:        rows,
	}
	e.record(ctx, "csv", file)
	e.notify(models.LevelSuccess, "CSV exported successfully")
	return file, nil
}

func summaryRows(snap *exportSnapshot, now time.Time) [][]string {
	var out [][]string
	if s := snap.stats; s != nil {
		out = append(out,
			[]string{"Active Devices", strconv.Itoa(s.ActiveDevices)},
			[]string{"Blocked Devices", strconv.Itoa(s.BlockedDevices)},
			[]string{"Download Rate", utils.FormatBandwidth(s.DownloadRate)},
			[]string{"Upload Rate", utils.FormatBandwidth(s.UploadRate)},
			[]string{"Bytes Received", utils.FormatBytes(float64(s.BytesRecv), 2)},
			[]string{"Bytes Sent", utils.FormatBytes(float64(s.BytesSent), 2)},
			[]string{"Local IP", valueOrMissing(s.LocalIP)},
			[]string{"Gateway IP", valueOrMissing(s.GatewayIP)},
			[]string{"Interface", valueOrMissing(s.Interface)},
		)
	}
	if info := snap.system; info != nil {
		out = append(out,
			[]string{"Hostname", valueOrMissing(info.Hostname)},
			[]string{"Platform", valueOrMissing(info.Platform)},
			[]string{"Uptime", utils.FormatUptime(info.Uptime)},
		)
	}
	out = append(out, []string{"Exported At", now.Format(models.TimestampLayout)})
	return out
}

// ChartCSV writes the series the chart currently shows
func (e *Exporter) ChartCSV(ctx context.Context) (*ExportFile, error) {
	points := e.scheduler.Chart().Points()

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Write([]string{"Time", "Download (KB/s)", "Upload (KB/s)"})
	for _, p := range points {
		cw.Write([]string{p.Label, fmt.Sprintf("%.2f", p.Download), fmt.Sprintf("%.2f", p.Upload)})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}

	file := &ExportFile{
		Filename:    ChartCSVFilename,
		ContentType: "text/csv",
		Data:        buf.Bytes(),
		Rows:        len(points),
	}
	e.record(ctx, "chart_csv", file)
	e.notify(models.LevelSuccess, "CSV exported successfully")
	return file, nil
}

// ExportChartPNG rasterises the current chart series
func (e *Exporter) ExportChartPNG(ctx context.Context) (*ExportFile, error) {
	points := e.scheduler.Chart().Points()

	data, err := RenderChartPNG(points, chartWidth, chartHeight)
	if err != nil {
		e.notify(models.LevelError, "Failed to export PNG")
		return nil, err
	}

	file := &ExportFile{
		Filename:    ChartPNGFilename,
		ContentType: "image/png",
		Data:        data,
		Rows:        len(points),
	}
	e.record(ctx, "chart_png", file)
	e.notify(models.LevelSuccess, "PNG exported successfully")
	return file, nil
}

// RenderChartPNG draws download and upload lines. Fewer than two points give
// an empty chart with axes and a placeholder label.
func RenderChartPNG(points []models.ChartPoint, width, height int) ([]byte, error) {
	if len(points) < 2 {
		return renderEmptyChartPNG(points, width, height)
	}

	xs := make([]float64, len(points))
	down := make([]float64, len(points))
	up := make([]float64, len(points))
	maxY := 0.0
	for i, p := range points {
		xs[i] = float64(i)
		down[i] = p.Download
		up[i] = p.Upload
		maxY = math.Max(maxY, math.Max(p.Download, p.Upload))
	}

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Name:  "Time",
			Ticks: chartTicks(points),
		},
		YAxis: chart.YAxis{
			Name:  "KB/s",
			Range: &chart.ContinuousRange{Min: 0, Max: math.Max(maxY*1.1, 1)},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Download (KB/s)",
				XValues: xs,
				YValues: down,
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("4e73df"),
					StrokeWidth: 2,
				},
			},
			chart.ContinuousSeries{
				Name:    "Upload (KB/s)",
				XValues: xs,
				YValues: up,
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("1cc88a"),
					StrokeWidth: 2,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return renderGraph(graph)
}

// renderEmptyChartPNG keeps the axes of a real chart so a download before the
// first samples still yields an image
func renderEmptyChartPNG(points []models.ChartPoint, width, height int) ([]byte, error) {
	ticks := []chart.Tick{{Value: 0, Label: ""}, {Value: 1, Label: ""}}
	if len(points) == 1 {
		ticks[0].Label = shortLabel(points[0].Label)
	}

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Name:  "Time",
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  "KB/s",
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Download (KB/s)",
				XValues: []float64{0, 1},
				YValues: []float64{0, 0},
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("dddddd"),
					StrokeWidth: 1,
				},
			},
			chart.AnnotationSeries{
				Annotations: []chart.Value2{
					{XValue: 0.5, YValue: 0.5, Label: emptyChartLabel},
				},
			},
		},
	}

	return renderGraph(graph)
}

func renderGraph(graph chart.Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, &RenderError{Target: "chart", Cause: err}
	}
	return buf.Bytes(), nil
}

// chartTicks labels at most maxTickCount evenly spaced points
func chartTicks(points []models.ChartPoint) []chart.Tick {
	step := (len(points) + maxTickCount - 1) / maxTickCount
	if step < 1 {
		step = 1
	}
	ticks := make([]chart.Tick, 0, maxTickCount+1)
	for i := 0; i < len(points); i += step {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: shortLabel(points[i].Label)})
	}
	return ticks
}

// shortLabel keeps the clock part of a backend timestamp
func shortLabel(label string) string {
	if t, ok := parseTimestamp(label); ok {
		return t.Format("15:04")
	}
	return label
}

// ExportReportPNG renders a one-page report: system, traffic and device summaries above the chart
func (e *Exporter) ExportReportPNG(ctx context.Context) (*ExportFile, error) {
	snap, err := e.gather(ctx)
	if err != nil {
		e.notify(models.LevelError, "Failed to export report")
		return nil, err
	}

	now := e.now()
	lines := reportLines(snap, e.scheduler.StatsCard(), now)

	chartPNG, err := RenderChartPNG(e.scheduler.Chart().Points(), chartWidth, chartHeight)
	if err != nil {
		e.notify(models.LevelError, "Failed to export report")
		return nil, err
	}
	chartImg, err := png.Decode(bytes.NewReader(chartPNG))
	if err != nil {
		e.notify(models.LevelError, "Failed to export report")
		return nil, &RenderError{Target: "report", Cause: err}
	}

	textHeight := reportMargin*2 + len(lines)*lineHeight
	width := chartWidth + reportMargin*2
	height := textHeight + chartHeight + reportMargin

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}),
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(reportMargin, reportMargin+(i+1)*lineHeight)
		drawer.DrawString(line)
	}

	chartOrigin := image.Pt(reportMargin, textHeight)
	draw.Draw(canvas, image.Rectangle{Min: chartOrigin, Max: chartOrigin.Add(chartImg.Bounds().Size())}, chartImg, chartImg.Bounds().Min, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		e.notify(models.LevelError, "Failed to export report")
		return nil, &RenderError{Target: "report", Cause: err}
	}

	file := &ExportFile{
		Filename:    fmt.Sprintf("network_report_%d.png", now.Unix()),
		ContentType: "image/png",
		Data:        buf.Bytes(),
		Rows:        len(lines),
	}
	e.record(ctx, "report_png", file)
	e.notify(models.LevelSuccess, "Report exported successfully")
	return file, nil
}

func reportLines(snap *exportSnapshot, card models.StatsCard, now time.Time) []string {
	lines := []string{
		"Network Monitoring Report",
		"Generated " + now.Format(models.TimestampLayout),
		"",
		"System",
	}
	if info := snap.system; info != nil {
		lines = append(lines,
			"  Hostname: "+valueOrMissing(info.Hostname),
			"  Platform: "+valueOrMissing(info.Platform),
			"  Uptime:   "+utils.FormatUptime(info.Uptime),
		)
	} else {
		lines = append(lines, "  unavailable")
	}

	lines = append(lines, "", "Traffic")
	lines = append(lines,
		"  Status:   "+card.NetworkStatus,
		"  Download: "+card.Download,
		"  Upload:   "+card.Upload,
	)
	if snap.traffic != nil {
		lines = append(lines, fmt.Sprintf("  Samples:  %d", snap.traffic.Len()))
	}

	lines = append(lines, "", "Devices")
	online, blocked := 0, 0
	for _, d := range snap.devices {
		switch StatusLabel(d) {
		case "Online":
			online++
		case "Blocked":
			blocked++
		}
	}
	lines = append(lines, fmt.Sprintf("  Total: %d  Online: %d  Blocked: %d", len(snap.devices), online, blocked))
	return lines
}

func (e *Exporter) record(ctx context.Context, kind string, file *ExportFile) {
	metrics.IncrementExport(kind)
	if e.audit == nil {
		return
	}
	rec := &models.ExportRecord{
		Kind:      kind,
		Filename:  file.Filename,
		Bytes:     len(file.Data),
		Rows:      file.Rows,
		CreatedAt: e.now().UTC(),
	}
	if err := e.audit.RecordExport(ctx, rec); err != nil {
		log.Printf("⚠️  Failed to record %s export: %v", kind, err)
	}
}

func (e *Exporter) notify(level, msg string) {
	if e.notifier != nil {
		e.notifier.Notify(level, msg)
	}
}

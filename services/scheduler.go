package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"netdash/config"
	"netdash/metrics"
	"netdash/models"
)

const (
	ChartModeHistory = "history"
	ChartModeRolling = "rolling"
)

// DashboardState is the dashboard's application state. Every field is guarded
// by the owning Scheduler's mutex.
type DashboardState struct {
	Stats        *models.NetworkStats
	Online       bool
	Devices      []models.Device
	System       *models.SystemInfo
	Traffic      *models.TrafficHistory
	PrevCounters CounterSample
	Search       string
	Range        string
	LastUpdate   time.Time
	Loading      models.LoadingState
	Interval     int
	AutoRefresh  bool
}

// Scheduler runs the periodic refresh and the manual refresh/scan/settings
// operations. Overlapping fetches are not de-duplicated; whichever response
// lands last is what the dashboard shows.
type Scheduler struct {
	cfg      *config.Config
	backend  Backend
	cache    *SnapshotCache
	notifier *Notifier
	chart    *ChartBuffer
	geo      Locator

	mutex sync.RWMutex
	state DashboardState

	// loading generation per control so an old timer can't clear a newer spinner
	scanSeq       uint64
	deviceScanSeq uint64

	resetChan chan time.Duration
	stopChan  chan struct{}
	stopOnce  sync.Once
	now       func() time.Time
}

func NewScheduler(cfg *config.Config, backend Backend, cache *SnapshotCache, notifier *Notifier, geo Locator) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		backend:  backend,
		cache:    cache,
		notifier: notifier,
		chart:    NewChartBuffer(cfg.Chart.Capacity),
		geo:      geo,
		state: DashboardState{
			Range:       cfg.Chart.Range,
			Interval:    cfg.Polling.RefreshInterval,
			AutoRefresh: cfg.Polling.AutoRefresh,
			Devices:     []models.Device{},
		},
		resetChan: make(chan time.Duration, 1),
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}
}

// Start does an initial load and launches the refresh loop
func (s *Scheduler) Start() {
	log.Printf("Starting refresh scheduler (interval %ds, chart mode %s)...", s.Interval(), s.cfg.Chart.Mode)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.requestBudget())
		defer cancel()
		if err := s.refreshAll(ctx, true); err != nil {
			log.Printf("⚠️  Initial dashboard load incomplete: %v", err)
		} else {
			log.Println("✓ Initial dashboard load complete")
		}
	}()

	go s.runRefreshLoop()
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

func (s *Scheduler) runRefreshLoop() {
	ticker := time.NewTicker(time.Duration(s.Interval()) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.AutoRefresh() {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), s.requestBudget())
			if err := s.Refresh(ctx); err != nil {
				log.Printf("⚠️  Scheduled refresh failed: %v", err)
			}
			cancel()
		case interval := <-s.resetChan:
			ticker.Reset(interval)
			log.Printf("Refresh interval changed to %s", interval)
		case <-s.stopChan:
			return
		}
	}
}

func (s *Scheduler) requestBudget() time.Duration {
	budget := 3 * s.cfg.BackendTimeoutDuration()
	if budget <= 0 {
		budget = 30 * time.Second
	}
	return budget
}

// Refresh is one scheduled cycle: stats and traffic, plus devices when configured
func (s *Scheduler) Refresh(ctx context.Context) error {
	return s.refreshAll(ctx, false)
}

func (s *Scheduler) refreshAll(ctx context.Context, initial bool) error {
	errs := []error{
		s.RefreshStats(ctx),
		s.RefreshTraffic(ctx, ""),
	}
	if s.cfg.Polling.RefreshDevices || initial {
		errs = append(errs, s.RefreshDevices(ctx))
	}
	if initial {
		errs = append(errs, s.RefreshSystem(ctx))
	}
	return errors.Join(errs...)
}

// RefreshStats polls /api/stats. In rolling chart mode it also pushes the
// rate since the previous poll.
func (s *Scheduler) RefreshStats(ctx context.Context) error {
	stats, err := s.backend.GetStats(ctx)
	if err != nil {
		s.mutex.Lock()
		s.state.Online = false
		s.mutex.Unlock()
		metrics.SetBackendOffline()
		s.notifyError("Error fetching network stats")
		return fmt.Errorf("refresh stats: %w", err)
	}

	now := s.now()
	sample := SampleFromStats(stats, now)

	s.mutex.Lock()
	prev := s.state.PrevCounters
	s.state.Stats = stats
	s.state.Online = true
	s.state.LastUpdate = now
	s.state.PrevCounters = sample
	s.mutex.Unlock()
	metrics.SetNetwork(true, stats.ActiveDevices, stats.DownloadRate, stats.UploadRate)

	if s.cfg.Chart.Mode == ChartModeRolling {
		if point, ok := CounterRate(prev, sample); ok {
			s.chart.Push(point)
		}
	}

	if s.cache != nil {
		s.cache.SetStats(stats)
	}
	return nil
}

// RefreshDevices replaces the device snapshot
func (s *Scheduler) RefreshDevices(ctx context.Context) error {
	devices, err := s.backend.GetDevices(ctx)
	if err != nil {
		s.notifyError("Error fetching device list")
		return fmt.Errorf("refresh devices: %w", err)
	}

	s.mutex.Lock()
	s.state.Devices = devices
	s.mutex.Unlock()

	if s.cache != nil {
		s.cache.SetDevices(devices)
	}
	return nil
}

// RefreshTraffic fetches traffic history for rangeKey, or the current range
// when rangeKey is empty. In history mode the chart is replaced.
func (s *Scheduler) RefreshTraffic(ctx context.Context, rangeKey string) error {
	if rangeKey == "" {
		rangeKey = s.Range()
	}
	if err := ValidateRange(rangeKey); err != nil {
		return err
	}

	s.setLoading(func(l *models.LoadingState) { l.TrafficLoad = true })
	defer s.setLoading(func(l *models.LoadingState) { l.TrafficLoad = false })

	history, err := s.backend.GetTrafficHistory(ctx, rangeKey)
	if err != nil {
		s.notifyError("Error fetching traffic data")
		return fmt.Errorf("refresh traffic: %w", err)
	}

	s.mutex.Lock()
	s.state.Traffic = history
	s.mutex.Unlock()

	if s.cfg.Chart.Mode == ChartModeHistory {
		s.chart.Replace(DeriveRates(*history))
	}
	if s.cache != nil {
		s.cache.SetTraffic(rangeKey, history)
	}
	return nil
}

// RefreshSystem fetches the system info card. A missing hostname falls back to /api/hostname.
func (s *Scheduler) RefreshSystem(ctx context.Context) error {
	info, err := s.backend.GetSystemInfo(ctx)
	if err != nil {
		return fmt.Errorf("refresh system info: %w", err)
	}

	if info.Hostname == "" {
		if hostname, err := s.backend.GetHostname(ctx); err == nil {
			info.Hostname = hostname
		}
	}

	s.mutex.Lock()
	s.state.System = info
	s.mutex.Unlock()

	if s.cache != nil {
		s.cache.SetSystemInfo(info)
	}
	return nil
}

// SetRange selects the traffic window and reloads the chart
func (s *Scheduler) SetRange(ctx context.Context, rangeKey string) error {
	if err := ValidateRange(rangeKey); err != nil {
		return err
	}
	s.mutex.Lock()
	s.state.Range = rangeKey
	s.mutex.Unlock()

	return s.RefreshTraffic(ctx, rangeKey)
}

// ValidateRange accepts the traffic ranges the backend understands
func ValidateRange(rangeKey string) error {
	for _, r := range models.TrafficRanges {
		if r == rangeKey {
			return nil
		}
	}
	return &ValidationError{Field: "range", Message: fmt.Sprintf("invalid time range %q", rangeKey)}
}

// Scan asks the backend to re-scan the network, then reloads stats, devices and traffic.
// The scan spinner stays up for at least the configured minimum.
func (s *Scheduler) Scan(ctx context.Context) (*models.ScanAck, error) {
	seq := s.beginLoading(&s.scanSeq, func(l *models.LoadingState) { l.Scan = true })
	started := s.now()
	defer s.endLoading(started, &s.scanSeq, seq, func(l *models.LoadingState) { l.Scan = false })

	ack, err := s.backend.Scan(ctx)
	if err != nil {
		s.notifyError("Failed to refresh dashboard")
		return nil, fmt.Errorf("scan: %w", err)
	}

	if err := errors.Join(s.RefreshStats(ctx), s.RefreshDevices(ctx), s.RefreshTraffic(ctx, "")); err != nil {
		return ack, err
	}

	s.notify(models.LevelSuccess, "Dashboard refreshed")
	return ack, nil
}

// ScanDevices is the device-tab variant: scan, then reload devices only
func (s *Scheduler) ScanDevices(ctx context.Context) (*models.ScanAck, error) {
	seq := s.beginLoading(&s.deviceScanSeq, func(l *models.LoadingState) { l.DeviceScan = true })
	started := s.now()
	defer s.endLoading(started, &s.deviceScanSeq, seq, func(l *models.LoadingState) { l.DeviceScan = false })

	ack, err := s.backend.Scan(ctx)
	if err != nil {
		s.notifyError("Failed to refresh device list")
		return nil, fmt.Errorf("scan: %w", err)
	}

	if err := s.RefreshDevices(ctx); err != nil {
		return ack, err
	}

	s.notify(models.LevelSuccess, "Device list refreshed")
	return ack, nil
}

// SaveSettings validates and stores a new scan interval. Intervals under
// config.MinScanInterval are rejected locally and never sent.
func (s *Scheduler) SaveSettings(ctx context.Context, interval int) (*models.ActionResult, error) {
	if interval < config.MinScanInterval {
		msg := fmt.Sprintf("Scan interval must be at least %d seconds", config.MinScanInterval)
		s.notify(models.LevelWarning, msg)
		return nil, &ValidationError{Field: "scan_interval", Message: msg}
	}

	s.setLoading(func(l *models.LoadingState) { l.Settings = true })
	defer s.setLoading(func(l *models.LoadingState) { l.Settings = false })

	result, err := s.backend.UpdateSettings(ctx, interval)
	if err != nil {
		msg := "Failed to save settings"
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.Message != "" {
			msg = reqErr.Message
		}
		s.notifyError(msg)
		return nil, fmt.Errorf("save settings: %w", err)
	}
	if !result.Success() {
		s.notifyError(result.Message)
		return result, nil
	}

	s.mutex.Lock()
	s.state.Interval = interval
	s.mutex.Unlock()
	s.resetTicker(time.Duration(interval) * time.Second)

	s.notify(models.LevelSuccess, "Settings saved successfully")
	return result, nil
}

func (s *Scheduler) resetTicker(interval time.Duration) {
	// keep only the newest pending interval
	select {
	case <-s.resetChan:
	default:
	}
	s.resetChan <- interval
}

// SetAutoRefresh toggles the periodic refresh. In-flight requests are left alone.
func (s *Scheduler) SetAutoRefresh(enabled bool) {
	s.mutex.Lock()
	s.state.AutoRefresh = enabled
	s.mutex.Unlock()

	if enabled {
		s.notify(models.LevelInfo, "Real-time updates enabled")
	} else {
		s.notify(models.LevelInfo, "Real-time updates disabled")
	}
}

// ============================================
// Loading flags
// ============================================

func (s *Scheduler) setLoading(fn func(*models.LoadingState)) {
	s.mutex.Lock()
	fn(&s.state.Loading)
	s.mutex.Unlock()
}

func (s *Scheduler) beginLoading(seq *uint64, fn func(*models.LoadingState)) uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	*seq++
	fn(&s.state.Loading)
	return *seq
}

// endLoading clears the flag once minLoading has passed since started
func (s *Scheduler) endLoading(started time.Time, seq *uint64, mine uint64, fn func(*models.LoadingState)) {
	done := func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		if *seq == mine {
			fn(&s.state.Loading)
		}
	}

	remaining := s.cfg.ScanMinLoadingDuration() - s.now().Sub(started)
	if remaining <= 0 {
		done()
		return
	}
	time.AfterFunc(remaining, done)
}

// ============================================
// Read accessors
// ============================================

// Snapshot returns a copy of the state
func (s *Scheduler) Snapshot() DashboardState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	snap := s.state
	snap.Devices = append([]models.Device(nil), s.state.Devices...)
	if s.state.Stats != nil {
		stats := *s.state.Stats
		snap.Stats = &stats
	}
	if s.state.System != nil {
		info := *s.state.System
		snap.System = &info
	}
	return snap
}

func (s *Scheduler) Devices() []models.Device {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]models.Device(nil), s.state.Devices...)
}

// Device looks up a device in the current snapshot
func (s *Scheduler) Device(ip string) (models.Device, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return FindDevice(s.state.Devices, ip)
}

func (s *Scheduler) Range() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state.Range
}

func (s *Scheduler) Interval() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state.Interval
}

func (s *Scheduler) AutoRefresh() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state.AutoRefresh
}

func (s *Scheduler) Chart() *ChartBuffer {
	return s.chart
}

// StatsCard renders the overview card from the current state
func (s *Scheduler) StatsCard() models.StatsCard {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return BuildStatsCard(s.state.Stats, s.state.Online, s.state.LastUpdate)
}

// SystemCard renders the system card, nil until system info has loaded
func (s *Scheduler) SystemCard() *models.SystemCard {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return BuildSystemCard(s.state.System, s.cfg.Backend.MinVersion)
}

// DeviceTable stores term as the current search and renders the table for it
func (s *Scheduler) DeviceTable(term string) models.DeviceTable {
	s.mutex.Lock()
	s.state.Search = term
	devices := s.state.Devices
	s.mutex.Unlock()

	return RenderDeviceTable(devices, term, s.geo)
}

// CurrentDeviceTable renders with the last search term
func (s *Scheduler) CurrentDeviceTable() models.DeviceTable {
	s.mutex.RLock()
	term := s.state.Search
	devices := s.state.Devices
	s.mutex.RUnlock()

	return RenderDeviceTable(devices, term, s.geo)
}

func (s *Scheduler) ChartView() models.ChartView {
	view := models.ChartView{
		Mode:     s.cfg.Chart.Mode,
		Capacity: s.chart.Capacity(),
		Points:   s.chart.Points(),
	}
	if s.cfg.Chart.Mode == ChartModeHistory {
		view.Range = s.Range()
	}
	return view
}

// StatusSummary is a one-line status for chat commands
func (s *Scheduler) StatusSummary() string {
	card := s.StatsCard()
	return fmt.Sprintf("Network %s | Devices %s (%d blocked) | Down %s | Up %s | Updated %s",
		card.NetworkStatus, card.ActiveDevices, card.BlockedDevices, card.Download, card.Upload, card.LastUpdate)
}

func (s *Scheduler) notify(level, msg string) {
	if s.notifier != nil {
		s.notifier.Notify(level, msg)
	}
}

func (s *Scheduler) notifyError(msg string) {
	s.notify(models.LevelError, msg)
}

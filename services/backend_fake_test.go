package services

import (
	"context"
	"sync"

	"netdash/models"
)

// fakeBackend is a hand-written Backend double. Unset responses succeed with zero values.
type fakeBackend struct {
	mutex sync.Mutex
	calls []string

	stats      *models.NetworkStats
	statsErr   error
	devices    []models.Device
	devicesErr error
	traffic    *models.TrafficHistory
	trafficErr error
	scanErr    error
	action     *models.ActionResult
	actionErr  error
	settings   *models.ActionResult
	system     *models.SystemInfo
	systemErr  error
	hostname   string
	// runs inside DeviceAction, before it returns
	actionHook func()

	lastAction     string
	lastIdentifier string
	lastRange      string
	lastInterval   int
}

func (f *fakeBackend) record(call string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) Calls() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeBackend) GetStats(ctx context.Context) (*models.NetworkStats, error) {
	f.record(EndpointStats)
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	if f.stats == nil {
		return &models.NetworkStats{}, nil
	}
	s := *f.stats
	return &s, nil
}

func (f *fakeBackend) GetDevices(ctx context.Context) ([]models.Device, error) {
	f.record(EndpointDevices)
	if f.devicesErr != nil {
		return nil, f.devicesErr
	}
	return append([]models.Device{}, f.devices...), nil
}

func (f *fakeBackend) GetTrafficHistory(ctx context.Context, rangeKey string) (*models.TrafficHistory, error) {
	f.record(EndpointTrafficHistory)
	f.mutex.Lock()
	f.lastRange = rangeKey
	f.mutex.Unlock()
	if f.trafficErr != nil {
		return nil, f.trafficErr
	}
	if f.traffic == nil {
		return &models.TrafficHistory{}, nil
	}
	h := *f.traffic
	return &h, nil
}

func (f *fakeBackend) Scan(ctx context.Context) (*models.ScanAck, error) {
	f.record(EndpointScan)
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	return &models.ScanAck{Status: "success", Time: "2024-01-01 10:00:00"}, nil
}

func (f *fakeBackend) DeviceAction(ctx context.Context, action, identifier string) (*models.ActionResult, error) {
	endpoint, _ := ActionEndpoint(action)
	f.record(endpoint)
	f.mutex.Lock()
	f.lastAction = action
	f.lastIdentifier = identifier
	f.mutex.Unlock()
	if f.actionHook != nil {
		f.actionHook()
	}
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	if f.action == nil {
		return &models.ActionResult{Status: "success", Message: "ok"}, nil
	}
	return f.action, nil
}

func (f *fakeBackend) UpdateSettings(ctx context.Context, scanInterval int) (*models.ActionResult, error) {
	f.record(EndpointUpdateSettings)
	f.mutex.Lock()
	f.lastInterval = scanInterval
	f.mutex.Unlock()
	if f.settings == nil {
		return &models.ActionResult{Status: "success", Message: "Settings updated"}, nil
	}
	return f.settings, nil
}

func (f *fakeBackend) GetSystemInfo(ctx context.Context) (*models.SystemInfo, error) {
	f.record(EndpointSystemInfo)
	if f.systemErr != nil {
		return nil, f.systemErr
	}
	if f.system == nil {
		return &models.SystemInfo{}, nil
	}
	s := *f.system
	return &s, nil
}

func (f *fakeBackend) GetHostname(ctx context.Context) (string, error) {
	f.record(EndpointHostname)
	return f.hostname, nil
}

package models

// LoadingState tracks controls that show a spinner
type LoadingState struct {
	Scan        bool `json:"scan"`
	DeviceScan  bool `json:"device_scan"`
	Settings    bool `json:"settings"`
	TrafficLoad bool `json:"traffic"`
}

// DashboardView is everything a client needs to draw the dashboard
type DashboardView struct {
	Stats          StatsCard      `json:"stats"`
	Chart          ChartView      `json:"chart"`
	Devices        DeviceTable    `json:"devices"`
	System         *SystemCard    `json:"system,omitempty"`
	Confirmation   Confirmation   `json:"confirmation"`
	Notifications  []Notification `json:"notifications"`
	Loading        LoadingState   `json:"loading"`
	AutoRefresh    bool           `json:"auto_refresh"`
	ScanInterval   int            `json:"scan_interval"`
	NotificationMS int64          `json:"notification_ttl_ms"`
}

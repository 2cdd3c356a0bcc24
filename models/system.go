package models

// SystemInfo is the /api/system-info payload
type SystemInfo struct {
	Hostname        string  `json:"hostname"`
	Platform        string  `json:"platform"`
	PlatformVersion string  `json:"platform_version,omitempty"`
	Processor       string  `json:"processor,omitempty"`
	Architecture    string  `json:"architecture,omitempty"`
	Version         string  `json:"version,omitempty"`
	Uptime          int64   `json:"uptime"` // seconds
	MemoryTotal     uint64  `json:"memory_total,omitempty"`
	MemoryAvailable uint64  `json:"memory_available,omitempty"`
	MemoryPercent   float64 `json:"memory_percent,omitempty"`
	DiskTotal       uint64  `json:"disk_total,omitempty"`
	DiskFree        uint64  `json:"disk_free,omitempty"`
	DiskPercent     float64 `json:"disk_percent,omitempty"`
}

// Hostname is the /api/hostname payload
type Hostname struct {
	Hostname string `json:"hostname"`
}

// SystemCard is the text projection of SystemInfo
type SystemCard struct {
	Hostname       string `json:"hostname"`
	Platform       string `json:"platform"`
	Uptime         string `json:"uptime"`
	Memory         string `json:"memory,omitempty"`
	Disk           string `json:"disk,omitempty"`
	BackendVersion string `json:"backend_version"`
	VersionStatus  string `json:"version_status"`
	VersionMessage string `json:"version_message,omitempty"`
}

package models

// TimestampLayout is the backend's timestamp format for stats, devices and traffic samples
const TimestampLayout = "2006-01-02 15:04:05"

// NetworkStats is the /api/stats payload. Superseded by the next poll.
type NetworkStats struct {
	ActiveDevices  int     `json:"active_devices"`
	BlockedDevices int     `json:"blocked_devices"`
	TotalDevices   int     `json:"total_devices"`
	DownloadRate   float64 `json:"download_rate"` // Bytes/sec
	UploadRate     float64 `json:"upload_rate"`   // Bytes/sec
	BytesSent      uint64  `json:"bytes_sent"`
	BytesRecv      uint64  `json:"bytes_recv"`
	PacketsSent    uint64  `json:"packets_sent,omitempty"`
	PacketsRecv    uint64  `json:"packets_recv,omitempty"`
	LocalIP        string  `json:"local_ip"`
	GatewayIP      string  `json:"gateway_ip"`
	Interface      string  `json:"interface"`
	Hostname       string  `json:"hostname,omitempty"`
	Timestamp      string  `json:"timestamp"`
}

// StatsCard is the text projection of NetworkStats shown on the overview
type StatsCard struct {
	NetworkStatus  string `json:"network_status"`
	ActiveDevices  string `json:"active_devices"`
	BlockedDevices int    `json:"blocked_devices"`
	Download       string `json:"download"`
	Upload         string `json:"upload"`
	LocalIP        string `json:"local_ip"`
	GatewayIP      string `json:"gateway_ip"`
	Interface      string `json:"interface"`
	LastUpdate     string `json:"last_update"`
}

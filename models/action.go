package models

// ActionRequest is the body for block/unblock/kick
type ActionRequest struct {
	Identifier string `json:"identifier"`
}

// SettingsRequest is the body for /api/update-settings
type SettingsRequest struct {
	ScanInterval int `json:"scan_interval"`
}

// ActionResult is the backend's reply to commands and settings updates
type ActionResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (r ActionResult) Success() bool {
	return r.Status == "success"
}

// ScanAck is the /api/scan acknowledgement
type ScanAck struct {
	Status   string `json:"status"`
	Time     string `json:"time"`
	Hostname string `json:"hostname,omitempty"`
}

// Confirmation is the state of the single confirmation modal
type Confirmation struct {
	State    string `json:"state"`
	Action   string `json:"action,omitempty"`
	Title    string `json:"title,omitempty"`
	Message  string `json:"message,omitempty"`
	DeviceIP string `json:"device_ip,omitempty"`
	Hostname string `json:"hostname,omitempty"`
	Result   string `json:"result,omitempty"`
}

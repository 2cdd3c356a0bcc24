package models

// Device is a host observed on the monitored network. IP is the identity.
type Device struct {
	IP        string `json:"ip"`
	Hostname  string `json:"hostname"`
	MAC       string `json:"mac"`
	Status    string `json:"status"` // "up" or "down"
	Blocked   bool   `json:"blocked"`
	FirstSeen string `json:"first_seen,omitempty"`
	LastSeen  string `json:"last_seen"`
}

// DeviceAction is a row button. Clicking it opens a confirmation, nothing else.
type DeviceAction struct {
	Action string `json:"action"` // "block", "unblock", "kick"
	Label  string `json:"label"`
	Target string `json:"target"` // device IP
}

// DeviceRow is one rendered line of the device table
type DeviceRow struct {
	Status      string         `json:"status"`
	StatusClass string         `json:"status_class"`
	Hostname    string         `json:"hostname"`
	IP          string         `json:"ip"`
	MAC         string         `json:"mac"`
	LastSeen    string         `json:"last_seen"`
	Location    string         `json:"location,omitempty"`
	Actions     []DeviceAction `json:"actions"`
}

// DeviceTable is the rendered device list for one search term
type DeviceTable struct {
	Search string      `json:"search"`
	Rows   []DeviceRow `json:"rows"`
	Total  int         `json:"total"`
	Empty  bool        `json:"empty"`
}

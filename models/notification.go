package models

import "time"

const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Notification is a transient toast
type Notification struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportRecord is one entry of the optional export audit log
type ExportRecord struct {
	Kind      string    `json:"kind" bson:"kind"` // "csv", "chart_csv", "chart_png", "report_png"
	Filename  string    `json:"filename" bson:"filename"`
	Bytes     int       `json:"bytes" bson:"bytes"`
	Rows      int       `json:"rows" bson:"rows"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// ActionRecord is one confirmed device command in the audit log
type ActionRecord struct {
	Action    string    `json:"action" bson:"action"`
	DeviceIP  string    `json:"device_ip" bson:"device_ip"`
	Hostname  string    `json:"hostname" bson:"hostname"`
	Status    string    `json:"status" bson:"status"`
	Message   string    `json:"message" bson:"message"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// KindCount is an aggregated count of export records
type KindCount struct {
	Kind  string `json:"kind" bson:"_id"`
	Count int    `json:"count" bson:"count"`
	Bytes int64  `json:"bytes" bson:"bytes"`
}

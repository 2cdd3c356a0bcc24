package services

import (
	"strings"

	"netdash/models"
)

const unknownField = "Unknown"

// Locator resolves a device IP to a display location
type Locator interface {
	Lookup(ip string) string
}

// StatusLabel gives blocked precedence over the reachability status
func StatusLabel(d models.Device) string {
	if d.Blocked {
		return "Blocked"
	}
	if d.Status == "up" {
		return "Online"
	}
	return "Offline"
}

func statusClass(d models.Device) string {
	if d.Blocked {
		return "status-blocked"
	}
	if d.Status == "up" {
		return "status-online"
	}
	return "status-offline"
}

func orUnknown(s string) string {
	if s == "" {
		return unknownField
	}
	return s
}

// FilterDevices keeps devices whose hostname, IP or MAC contains term, ignoring case.
// An empty term keeps everything; whitespace is matched as typed.
func FilterDevices(devices []models.Device, term string) []models.Device {
	term = strings.ToLower(term)
	if term == "" {
		out := make([]models.Device, len(devices))
		copy(out, devices)
		return out
	}

	out := make([]models.Device, 0, len(devices))
	for _, d := range devices {
		if strings.Contains(strings.ToLower(orUnknown(d.Hostname)), term) ||
			strings.Contains(strings.ToLower(d.IP), term) ||
			strings.Contains(strings.ToLower(orUnknown(d.MAC)), term) {
			out = append(out, d)
		}
	}
	return out
}

// DeviceActions returns the row buttons: a block/unblock toggle and kick
func DeviceActions(d models.Device) []models.DeviceAction {
	toggle := models.DeviceAction{Action: "block", Label: "Block", Target: d.IP}
	if d.Blocked {
		toggle = models.DeviceAction{Action: "unblock", Label: "Unblock", Target: d.IP}
	}
	return []models.DeviceAction{
		toggle,
		{Action: "kick", Label: "Kick", Target: d.IP},
	}
}

// RenderDeviceTable projects the device snapshot for one search term. loc may be nil.
func RenderDeviceTable(devices []models.Device, term string, loc Locator) models.DeviceTable {
	matched := FilterDevices(devices, term)

	table := models.DeviceTable{
		Search: term,
		Rows:   make([]models.DeviceRow, 0, len(matched)),
		Total:  len(devices),
		Empty:  len(matched) == 0,
	}

	for _, d := range matched {
		row := models.DeviceRow{
			Status:      StatusLabel(d),
			StatusClass: statusClass(d),
			Hostname:    orUnknown(d.Hostname),
			IP:          d.IP,
			MAC:         orUnknown(d.MAC),
			LastSeen:    orUnknown(d.LastSeen),
			Actions:     DeviceActions(d),
		}
		if loc != nil {
			row.Location = loc.Lookup(d.IP)
		}
		table.Rows = append(table.Rows, row)
	}

	return table
}

// FindDevice looks a device up by IP
func FindDevice(devices []models.Device, ip string) (models.Device, bool) {
	for _, d := range devices {
		if d.IP == ip {
			return d, true
		}
	}
	return models.Device{}, false
}

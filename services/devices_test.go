package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netdash/models"
)

type fakeLocator map[string]string

func (f fakeLocator) Lookup(ip string) string {
	return f[ip]
}

func sampleDevices() []models.Device {
	return []models.Device{
		{IP: "192.168.1.10", Hostname: "alpha", MAC: "AA:BB:CC:00:00:01", Status: "up", LastSeen: "2024-01-01 10:00:00"},
		{IP: "192.168.1.11", Hostname: "beta", MAC: "AA:BB:CC:00:00:02", Status: "down"},
		{IP: "10.0.0.5", Status: "up", Blocked: true},
	}
}

func TestFilterDevices(t *testing.T) {
	devices := sampleDevices()

	got := FilterDevices(devices, "al")
	require.Len(t, got, 1)
	assert.Equal(t, "alpha", got[0].Hostname)

	assert.Len(t, FilterDevices(devices, ""), 3)
	assert.Len(t, FilterDevices(devices, "ALPHA"), 1)
	assert.Len(t, FilterDevices(devices, "aa:bb:cc:00:00:02"), 1)
	assert.Len(t, FilterDevices(devices, "192.168"), 2)
	assert.Empty(t, FilterDevices(devices, "gamma"))
}

func TestFilterDevices_WhitespaceIsLiteral(t *testing.T) {
	devices := []models.Device{
		{IP: "192.168.1.20", Hostname: "living room", Status: "up"},
		{IP: "192.168.1.21", Hostname: "kitchen", Status: "up"},
	}

	got := FilterDevices(devices, " ")
	require.Len(t, got, 1)
	assert.Equal(t, "living room", got[0].Hostname)

	assert.Empty(t, FilterDevices(devices, " kitchen"))
}

func TestFilterDevices_MissingFieldsMatchUnknown(t *testing.T) {
	got := FilterDevices(sampleDevices(), "unknown")
	require.Len(t, got, 1)
	assert.Equal(t, "10.0.0.5", got[0].IP)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Blocked", StatusLabel(models.Device{Status: "up", Blocked: true}))
	assert.Equal(t, "Online", StatusLabel(models.Device{Status: "up"}))
	assert.Equal(t, "Offline", StatusLabel(models.Device{Status: "down"}))
	assert.Equal(t, "Offline", StatusLabel(models.Device{}))
}

func TestRenderDeviceTable(t *testing.T) {
	// Setup
	loc := fakeLocator{"192.168.1.10": "LAN"}

	// Execute
	table := RenderDeviceTable(sampleDevices(), "", loc)

	// Assert
	require.Len(t, table.Rows, 3)
	assert.Equal(t, 3, table.Total)
	assert.False(t, table.Empty)

	alpha := table.Rows[0]
	assert.Equal(t, "Online", alpha.Status)
	assert.Equal(t, "LAN", alpha.Location)
	assert.Equal(t, []models.DeviceAction{
		{Action: "block", Label: "Block", Target: "192.168.1.10"},
		{Action: "kick", Label: "Kick", Target: "192.168.1.10"},
	}, alpha.Actions)

	blocked := table.Rows[2]
	assert.Equal(t, "Blocked", blocked.Status)
	assert.Equal(t, "Unknown", blocked.Hostname)
	assert.Equal(t, "Unknown", blocked.MAC)
	assert.Equal(t, "unblock", blocked.Actions[0].Action)
}

func TestRenderDeviceTable_Empty(t *testing.T) {
	table := RenderDeviceTable(nil, "", nil)
	assert.True(t, table.Empty)
	assert.NotNil(t, table.Rows)
	assert.Equal(t, 0, table.Total)

	table = RenderDeviceTable(sampleDevices(), "nomatch", nil)
	assert.True(t, table.Empty)
	assert.Equal(t, 3, table.Total)
}

func TestRenderDeviceTable_DoesNotMutateInput(t *testing.T) {
	devices := sampleDevices()
	_ = RenderDeviceTable(devices, "beta", nil)
	assert.Equal(t, sampleDevices(), devices)
}

package services

import (
	"fmt"
	"time"

	"netdash/models"
	"netdash/utils"
)

const missingValue = "--"

// BuildStatsCard renders the overview card. stats may be nil before the first successful poll.
func BuildStatsCard(stats *models.NetworkStats, online bool, lastUpdate time.Time) models.StatsCard {
	card := models.StatsCard{
		NetworkStatus: "Offline",
		ActiveDevices: missingValue,
		Download:      utils.FormatBandwidth(0),
		Upload:        utils.FormatBandwidth(0),
		LocalIP:       missingValue,
		GatewayIP:     missingValue,
		Interface:     missingValue,
		LastUpdate:    missingValue,
	}
	if online {
		card.NetworkStatus = "Online"
	}
	if !lastUpdate.IsZero() {
		card.LastUpdate = lastUpdate.Format(models.TimestampLayout)
	}
	if stats == nil {
		return card
	}

	total := stats.TotalDevices
	if total < stats.ActiveDevices {
		total = stats.ActiveDevices
	}
	card.ActiveDevices = fmt.Sprintf("%d / %d", stats.ActiveDevices, total)
	card.BlockedDevices = stats.BlockedDevices
	card.Download = utils.FormatBandwidth(stats.DownloadRate)
	card.Upload = utils.FormatBandwidth(stats.UploadRate)
	card.LocalIP = valueOrMissing(stats.LocalIP)
	card.GatewayIP = valueOrMissing(stats.GatewayIP)
	card.Interface = valueOrMissing(stats.Interface)
	return card
}

// BuildSystemCard renders the system info card and checks the backend version against minVersion
func BuildSystemCard(info *models.SystemInfo, minVersion string) *models.SystemCard {
	if info == nil {
		return nil
	}

	platform := info.Platform
	if info.PlatformVersion != "" {
		platform += " " + info.PlatformVersion
	}

	card := &models.SystemCard{
		Hostname:       valueOrMissing(info.Hostname),
		Platform:       valueOrMissing(platform),
		Uptime:         utils.FormatUptime(info.Uptime),
		BackendVersion: "unknown",
	}
	if info.MemoryTotal > 0 {
		card.Memory = fmt.Sprintf("%s of %s", utils.FormatPercent(info.MemoryPercent), utils.FormatBytes(float64(info.MemoryTotal), 1))
	}
	if info.DiskTotal > 0 {
		card.Disk = fmt.Sprintf("%s of %s", utils.FormatPercent(info.DiskPercent), utils.FormatBytes(float64(info.DiskTotal), 1))
	}
	if info.Version != "" {
		card.BackendVersion = info.Version
	}

	status := utils.CheckBackendVersion(info.Version, minVersion)
	card.VersionStatus = status.Status
	card.VersionMessage = status.Message
	return card
}

func valueOrMissing(s string) string {
	if s == "" {
		return missingValue
	}
	return s
}

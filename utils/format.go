package utils

import (
	"fmt"
	"math"
	"strconv"
)

var byteUnits = []string{"Bytes", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// FormatBytes renders n with the largest binary unit whose value is at least 1.
// Trailing zeros are trimmed, so 1024 is "1 KB" and 1536 with one decimal is "1.5 KB".
func FormatBytes(n float64, decimals int) string {
	if math.IsNaN(n) || n == 0 {
		return "0 Bytes"
	}
	if decimals < 0 {
		decimals = 0
	}

	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	i := 0
	if n >= 1 {
		i = int(math.Floor(math.Log(n) / math.Log(1024)))
	}
	if i < 0 {
		i = 0
	}
	if i >= len(byteUnits) {
		i = len(byteUnits) - 1
	}

	value := n / math.Pow(1024, float64(i))
	// log rounding can land one unit short on exact powers
	for value >= 1024 && i < len(byteUnits)-1 {
		i++
		value = n / math.Pow(1024, float64(i))
	}
	text := strconv.FormatFloat(value, 'f', decimals, 64)
	// strip trailing zeros the way parseFloat(x.toFixed(d)) would
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		text = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return sign + text + " " + byteUnits[i]
}

// FormatBandwidth formats a bytes-per-second rate.
func FormatBandwidth(n float64) string {
	return FormatBytes(n, 2) + "/s"
}

func FormatKBps(v float64) string {
	return fmt.Sprintf("%.2f KB/s", v)
}

// FormatUptime renders seconds as "3d 4h 5m". Anything under a minute is "0m".
func FormatUptime(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// FormatPercent renders a usage percentage with one decimal.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

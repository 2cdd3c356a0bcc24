package services

import (
	"log"
	"sync"
	"time"

	"netdash/models"
)

const DefaultChartCapacity = 20

// backend timestamps: the Flask format first, then ISO-8601 shapes
var timestampLayouts = []string{
	models.TimestampLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

var badTimestampOnce sync.Once

// ChartBuffer holds the points the traffic chart currently shows.
// In rolling mode it keeps the most recent Capacity pushes.
type ChartBuffer struct {
	mutex    sync.RWMutex
	capacity int
	points   []models.ChartPoint
}

func NewChartBuffer(capacity int) *ChartBuffer {
	if capacity <= 0 {
		capacity = DefaultChartCapacity
	}
	return &ChartBuffer{
		capacity: capacity,
		points:   make([]models.ChartPoint, 0, capacity),
	}
}

// Push appends p, evicting the oldest points beyond capacity
func (b *ChartBuffer) Push(p models.ChartPoint) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.points = append(b.points, p)
	if len(b.points) > b.capacity {
		b.points = append(b.points[:0:0], b.points[len(b.points)-b.capacity:]...)
	}
}

// Replace installs a full-history series. Capacity does not apply.
func (b *ChartBuffer) Replace(series []models.ChartPoint) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.points = append(make([]models.ChartPoint, 0, len(series)), series...)
}

// Points returns a copy in insertion order
func (b *ChartBuffer) Points() []models.ChartPoint {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	out := make([]models.ChartPoint, len(b.points))
	copy(out, b.points)
	return out
}

func (b *ChartBuffer) Len() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.points)
}

func (b *ChartBuffer) Capacity() int {
	return b.capacity
}

// DeriveRates turns cumulative counters into KB/s rates between consecutive samples.
// Slot 0 has no predecessor and repeats the rate of slot 1.
func DeriveRates(history models.TrafficHistory) []models.ChartPoint {
	n := history.Len()
	points := make([]models.ChartPoint, n)
	for i := 0; i < n; i++ {
		points[i].Label = history.Timestamps[i]
	}
	if n < 2 {
		return points
	}

	for i := 1; i < n; i++ {
		seconds := elapsedSeconds(history.Timestamps[i-1], history.Timestamps[i])
		points[i].Download = kbPerSecond(history.Download[i-1], history.Download[i], seconds)
		points[i].Upload = kbPerSecond(history.Upload[i-1], history.Upload[i], seconds)
	}
	points[0].Download = points[1].Download
	points[0].Upload = points[1].Upload

	return points
}

// CounterSample is one stats poll worth of cumulative interface counters
type CounterSample struct {
	At        time.Time
	BytesRecv uint64
	BytesSent uint64
}

// SampleFromStats prefers the backend timestamp and falls back to receivedAt
func SampleFromStats(stats *models.NetworkStats, receivedAt time.Time) CounterSample {
	at := receivedAt
	if t, ok := parseTimestamp(stats.Timestamp); ok {
		at = t
	}
	return CounterSample{At: at, BytesRecv: stats.BytesRecv, BytesSent: stats.BytesSent}
}

// CounterRate computes the rolling-chart point between two polls. It reports false
// when there is no usable previous sample.
func CounterRate(prev, cur CounterSample) (models.ChartPoint, bool) {
	if prev.BytesRecv == 0 && prev.BytesSent == 0 {
		return models.ChartPoint{}, false
	}

	seconds := cur.At.Sub(prev.At).Seconds()
	return models.ChartPoint{
		Label:    cur.At.Format("15:04:05"),
		Download: kbPerSecond(prev.BytesRecv, cur.BytesRecv, seconds),
		Upload:   kbPerSecond(prev.BytesSent, cur.BytesSent, seconds),
	}, true
}

// kbPerSecond is 0 for a non-positive interval or a counter that went backwards
func kbPerSecond(prev, cur uint64, seconds float64) float64 {
	if seconds <= 0 || cur < prev {
		return 0
	}
	return float64(cur-prev) / seconds / 1024
}

func elapsedSeconds(from, to string) float64 {
	start, ok := parseTimestamp(from)
	if !ok {
		warnBadTimestamp(from)
		return 0
	}
	end, ok := parseTimestamp(to)
	if !ok {
		warnBadTimestamp(to)
		return 0
	}
	return end.Sub(start).Seconds()
}

func warnBadTimestamp(s string) {
	badTimestampOnce.Do(func() {
		log.Printf("⚠️  Unrecognised traffic timestamp %q, rates around it will read 0", s)
	})
}

// parseTimestamp reads naive timestamps as local time
func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

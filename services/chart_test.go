package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netdash/models"
)

func TestChartBuffer_RollingWindow(t *testing.T) {
	// Setup
	buf := NewChartBuffer(20)

	// Execute
	for i := 1; i <= 25; i++ {
		buf.Push(models.ChartPoint{Label: fmt.Sprintf("p%d", i), Download: float64(i)})
	}

	// Assert
	points := buf.Points()
	require.Len(t, points, 20)
	for i, p := range points {
		assert.Equal(t, fmt.Sprintf("p%d", i+6), p.Label)
	}
}

func TestChartBuffer_StartsEmpty(t *testing.T) {
	buf := NewChartBuffer(0)
	assert.Equal(t, DefaultChartCapacity, buf.Capacity())
	assert.Empty(t, buf.Points())
}

func TestChartBuffer_PointsIsACopy(t *testing.T) {
	buf := NewChartBuffer(3)
	buf.Push(models.ChartPoint{Label: "a"})

	points := buf.Points()
	points[0].Label = "changed"

	assert.Equal(t, "a", buf.Points()[0].Label)
}

func TestChartBuffer_ReplaceIgnoresCapacity(t *testing.T) {
	buf := NewChartBuffer(2)
	series := []models.ChartPoint{{Label: "a"}, {Label: "b"}, {Label: "c"}}

	buf.Replace(series)

	assert.Equal(t, 3, buf.Len())
	assert.Equal(t, series, buf.Points())
}

func TestDeriveRates(t *testing.T) {
	history := models.TrafficHistory{
		Timestamps: []string{"2024-01-01 10:00:00", "2024-01-01 10:00:01", "2024-01-01 10:00:02"},
		Download:   []uint64{100, 150, 250},
		Upload:     []uint64{0, 1024, 3072},
	}

	points := DeriveRates(history)

	require.Len(t, points, 3)
	assert.InDelta(t, 50.0/1024, points[0].Download, 1e-9)
	assert.InDelta(t, 50.0/1024, points[1].Download, 1e-9)
	assert.InDelta(t, 100.0/1024, points[2].Download, 1e-9)
	assert.InDelta(t, 1.0, points[0].Upload, 1e-9)
	assert.InDelta(t, 2.0, points[2].Upload, 1e-9)
	assert.Equal(t, "2024-01-01 10:00:02", points[2].Label)
}

func TestDeriveRates_ZeroElapsedIsZero(t *testing.T) {
	history := models.TrafficHistory{
		Timestamps: []string{"2024-01-01 10:00:00", "2024-01-01 10:00:00", "2024-01-01 10:00:02"},
		Download:   []uint64{100, 200, 400},
		Upload:     []uint64{100, 200, 400},
	}

	points := DeriveRates(history)

	require.Len(t, points, 3)
	assert.Equal(t, 0.0, points[1].Download)
	assert.Equal(t, 0.0, points[0].Download)
	assert.InDelta(t, 100.0/1024, points[2].Download, 1e-9)
}

func TestDeriveRates_ISOTimestamps(t *testing.T) {
	tests := []struct {
		name       string
		timestamps []string
	}{
		{"naive iso", []string{"2024-01-01T10:00:00", "2024-01-01T10:00:01", "2024-01-01T10:00:02"}},
		{"iso with fraction", []string{"2024-01-01T10:00:00.250000", "2024-01-01T10:00:01.250000", "2024-01-01T10:00:02.250000"}},
		{"rfc3339", []string{"2024-01-01T10:00:00Z", "2024-01-01T10:00:01Z", "2024-01-01T10:00:02Z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := models.TrafficHistory{
				Timestamps: tt.timestamps,
				Download:   []uint64{0, 1024, 3072},
				Upload:     []uint64{0, 2048, 2048},
			}

			points := DeriveRates(history)

			require.Len(t, points, 3)
			assert.InDelta(t, 1.0, points[1].Download, 1e-9)
			assert.InDelta(t, 2.0, points[2].Download, 1e-9)
			assert.InDelta(t, 2.0, points[1].Upload, 1e-9)
		})
	}
}

func TestDeriveRates_UnparseableTimestampIsZero(t *testing.T) {
	history := models.TrafficHistory{
		Timestamps: []string{"yesterday", "today", "2024-01-01 10:00:02"},
		Download:   []uint64{0, 1024, 2048},
		Upload:     []uint64{0, 1024, 2048},
	}

	points := DeriveRates(history)

	require.Len(t, points, 3)
	assert.Equal(t, 0.0, points[1].Download)
	assert.Equal(t, 0.0, points[2].Download)
}

func TestDeriveRates_CounterReset(t *testing.T) {
	history := models.TrafficHistory{
		Timestamps: []string{"2024-01-01 10:00:00", "2024-01-01 10:00:10"},
		Download:   []uint64{5000, 100},
		Upload:     []uint64{5000, 100},
	}

	points := DeriveRates(history)
	assert.Equal(t, 0.0, points[1].Download)
	assert.Equal(t, 0.0, points[1].Upload)
}

func TestDeriveRates_ShortHistory(t *testing.T) {
	assert.Empty(t, DeriveRates(models.TrafficHistory{}))

	points := DeriveRates(models.TrafficHistory{
		Timestamps: []string{"2024-01-01 10:00:00"},
		Download:   []uint64{10},
		Upload:     []uint64{10},
	})
	require.Len(t, points, 1)
	assert.Equal(t, "2024-01-01 10:00:00", points[0].Label)
	assert.Equal(t, 0.0, points[0].Download)
}

func TestDeriveRates_MismatchedArrays(t *testing.T) {
	history := models.TrafficHistory{
		Timestamps: []string{"2024-01-01 10:00:00", "2024-01-01 10:00:01", "2024-01-01 10:00:02"},
		Download:   []uint64{0, 1024},
		Upload:     []uint64{0, 1024, 2048},
	}

	assert.Len(t, DeriveRates(history), 2)
}

func TestCounterRate(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	_, ok := CounterRate(CounterSample{}, CounterSample{At: t0, BytesRecv: 10})
	assert.False(t, ok, "first poll has no previous sample")

	prev := CounterSample{At: t0, BytesRecv: 10240, BytesSent: 2048}
	cur := CounterSample{At: t0.Add(5 * time.Second), BytesRecv: 10240 + 5*2048, BytesSent: 2048 + 5*1024}

	point, ok := CounterRate(prev, cur)
	require.True(t, ok)
	assert.InDelta(t, 2.0, point.Download, 1e-9)
	assert.InDelta(t, 1.0, point.Upload, 1e-9)
	assert.Equal(t, "10:00:05", point.Label)

	point, ok = CounterRate(prev, CounterSample{At: t0, BytesRecv: 20480})
	require.True(t, ok)
	assert.Equal(t, 0.0, point.Download)
}

func TestSampleFromStats(t *testing.T) {
	received := time.Date(2024, 5, 5, 12, 0, 0, 0, time.Local)

	sample := SampleFromStats(&models.NetworkStats{BytesRecv: 1, BytesSent: 2, Timestamp: "2024-05-05 11:59:58"}, received)
	assert.Equal(t, 58, sample.At.Second())
	assert.Equal(t, uint64(1), sample.BytesRecv)

	sample = SampleFromStats(&models.NetworkStats{Timestamp: "garbage"}, received)
	assert.Equal(t, received, sample.At)
}

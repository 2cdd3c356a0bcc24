package models

// TrafficHistory is the /api/traffic-history payload: parallel arrays of cumulative byte counters
type TrafficHistory struct {
	Timestamps []string `json:"timestamps"`
	Download   []uint64 `json:"download"`
	Upload     []uint64 `json:"upload"`
}

// Len returns the number of complete samples (shortest of the three arrays)
func (h TrafficHistory) Len() int {
	n := len(h.Timestamps)
	if len(h.Download) < n {
		n = len(h.Download)
	}
	if len(h.Upload) < n {
		n = len(h.Upload)
	}
	return n
}

// ChartPoint is one labelled sample of the traffic chart, rates in KB/s
type ChartPoint struct {
	Label    string  `json:"label"`
	Download float64 `json:"download"`
	Upload   float64 `json:"upload"`
}

// ChartView is the chart as served to dashboard clients
type ChartView struct {
	Mode     string       `json:"mode"` // "history" or "rolling"
	Range    string       `json:"range,omitempty"`
	Capacity int          `json:"capacity"`
	Points   []ChartPoint `json:"points"`
}

// Valid traffic history ranges
var TrafficRanges = []string{"1h", "6h", "24h", "7d"}

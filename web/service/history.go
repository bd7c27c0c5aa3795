package service

import (
	"sync"
	"time"

	"github.com/vaiolabs/vaio-board/util/common"
)

// HistorySize caps how many samples each metric ring keeps (5 minutes at 1s).
const HistorySize = 300

// Metric names with history buffers.
var HistoryMetrics = []string{"cpu", "memory", "disk", "network", "gpu"}

// Sample is one recorded metric point.
type Sample struct {
	T     int64   `json:"t"`
	Value float64 `json:"value"`
}

// MetricsHistory keeps a bounded ring of samples per metric for the history
// API. Samples are recorded by a single cron job, one per metric per tick.
type MetricsHistory struct {
	mu      sync.Mutex
	samples map[string][]Sample
}

func NewMetricsHistory() *MetricsHistory {
	samples := make(map[string][]Sample, len(HistoryMetrics))
	for _, metric := range HistoryMetrics {
		samples[metric] = []Sample{}
	}
	return &MetricsHistory{samples: samples}
}

// LogMetric appends a sample, evicting the oldest past HistorySize.
func (h *MetricsHistory) LogMetric(metric string, value float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	buf, ok := h.samples[metric]
	if !ok {
		return common.NewErrorf("unknown metric: %s", metric)
	}
	if len(buf) >= HistorySize {
		buf = buf[1:]
	}
	h.samples[metric] = append(buf, Sample{T: time.Now().Unix(), Value: value})
	return nil
}

// History returns a copy of the samples for a metric.
func (h *MetricsHistory) History(metric string) ([]Sample, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	buf, ok := h.samples[metric]
	if !ok {
		return nil, common.NewErrorf("unknown metric: %s", metric)
	}
	out := make([]Sample, len(buf))
	copy(out, buf)
	return out, nil
}

// Reset clears all history buffers. Invoked periodically by a cron job so
// graphs always show a recent window.
func (h *MetricsHistory) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for metric := range h.samples {
		h.samples[metric] = []Sample{}
	}
}

// MetricValue extracts the headline sample value for one history metric from
// a status snapshot.
func MetricValue(status *Status, metric string) float64 {
	switch metric {
	case "cpu":
		return status.Cpu
	case "memory":
		return status.Mem.Percent
	case "disk":
		return status.Disk.Percent
	case "network":
		return float64(status.NetIO.Up + status.NetIO.Down)
	case "gpu":
		return status.Gpu.Utilization
	}
	return 0
}

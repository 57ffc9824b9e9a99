package core

import (
	"sync"
	"time"
)

const AVG_COUNT uint8 = 30

// MetricsState tracks parse counts and a rolling average of parse times.
type MetricsState struct {
	mu sync.Mutex

	ParseAVGCounter uint8
	MStimes         [AVG_COUNT]float64
	MSavg           float64
	Parses          uint64
	Failures        uint64
	BytesRead       uint64
}

// MetricsSnapshot is a copy of the metrics at a point in time.
type MetricsSnapshot struct {
	Parses    uint64
	Failures  uint64
	BytesRead uint64
	AvgMS     float64
}

var onceMetrics sync.Once
var metricsState *MetricsState = nil

func getMetrics() *MetricsState {
	onceMetrics.Do(func() {
		metricsState = &MetricsState{
			MStimes: [AVG_COUNT]float64{0},
		}
	})
	return metricsState
}

// MetricsRecordParse records one finished parse.
func MetricsRecordParse(elapsed time.Duration, bytesRead int64, failed bool) {
	m := getMetrics()
	m.mu.Lock()
	defer m.mu.Unlock()

	parseMS := float64(elapsed) / float64(time.Millisecond)
	m.MStimes[m.ParseAVGCounter] = parseMS
	m.ParseAVGCounter++
	m.ParseAVGCounter %= AVG_COUNT

	m.Parses++
	if failed {
		m.Failures++
	}
	if bytesRead > 0 {
		m.BytesRead += uint64(bytesRead)
	}

	// Average over the samples collected so far, up to the window size.
	samples := m.Parses
	if samples > uint64(AVG_COUNT) {
		samples = uint64(AVG_COUNT)
	}
	total := 0.0
	for i := uint64(0); i < samples; i++ {
		total += m.MStimes[i]
	}
	m.MSavg = total / float64(samples)
}

func MetricsParseTime() float64 {
	m := getMetrics()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.MSavg
}

func MetricsSnapshotNow() MetricsSnapshot {
	m := getMetrics()
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Parses:    m.Parses,
		Failures:  m.Failures,
		BytesRead: m.BytesRead,
		AvgMS:     m.MSavg,
	}
}

// MetricsReset clears all counters.
func MetricsReset() {
	m := getMetrics()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ParseAVGCounter = 0
	m.MStimes = [AVG_COUNT]float64{0}
	m.MSavg = 0
	m.Parses = 0
	m.Failures = 0
	m.BytesRead = 0
}

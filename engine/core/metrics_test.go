package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordParse(t *testing.T) {
	MetricsReset()
	defer MetricsReset()

	MetricsRecordParse(10*time.Millisecond, 100, false)
	MetricsRecordParse(30*time.Millisecond, 50, true)

	snap := MetricsSnapshotNow()
	assert.Equal(t, uint64(2), snap.Parses)
	assert.Equal(t, uint64(1), snap.Failures)
	assert.Equal(t, uint64(150), snap.BytesRead)
	assert.InDelta(t, 20.0, snap.AvgMS, 0.001)
	assert.InDelta(t, 20.0, MetricsParseTime(), 0.001)
}

func TestMetricsWindow(t *testing.T) {
	MetricsReset()
	defer MetricsReset()

	for i := 0; i < int(AVG_COUNT); i++ {
		MetricsRecordParse(100*time.Millisecond, 0, false)
	}
	// a full window of faster parses replaces every sample
	for i := 0; i < int(AVG_COUNT); i++ {
		MetricsRecordParse(time.Millisecond, 0, false)
	}
	assert.InDelta(t, 1.0, MetricsParseTime(), 0.001)
}

func TestClock(t *testing.T) {
	c := NewClock()
	c.Update()
	assert.Zero(t, c.Elapsed())

	c.Start()
	time.Sleep(2 * time.Millisecond)
	c.Stop()
	elapsed := c.Elapsed()
	assert.GreaterOrEqual(t, elapsed, 2*time.Millisecond)

	// stopped clocks do not advance
	c.Update()
	assert.Equal(t, elapsed, c.Elapsed())
}

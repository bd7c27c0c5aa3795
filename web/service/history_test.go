package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryCapAndReset(t *testing.T) {
	history := NewMetricsHistory()

	for i := 0; i < HistorySize+50; i++ {
		assert.NoError(t, history.LogMetric("cpu", float64(i)))
	}

	samples, err := history.History("cpu")
	assert.NoError(t, err)
	assert.Len(t, samples, HistorySize)
	// oldest samples evicted
	assert.Equal(t, float64(50), samples[0].Value)
	assert.Equal(t, float64(HistorySize+49), samples[len(samples)-1].Value)

	history.Reset()
	samples, err = history.History("cpu")
	assert.NoError(t, err)
	assert.Len(t, samples, 0)
}

func TestHistoryUnknownMetric(t *testing.T) {
	history := NewMetricsHistory()

	assert.Error(t, history.LogMetric("bogus", 1))
	_, err := history.History("bogus")
	assert.Error(t, err)
}

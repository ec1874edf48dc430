package metrics

import (
	"testing"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics(t *testing.T) {
	registry := gometrics.NewRegistry()
	m := NewMetrics(registry)

	m.RecordStoredResponseFetch(250 * time.Millisecond)
	m.RecordStoredResponseError()
	m.RecordBlockedBids(3)

	assert.Equal(t, int64(1), m.StoredResponseFetchTimer.Count())
	assert.Equal(t, int64(1), m.StoredResponseErrorMeter.Count())
	assert.Equal(t, int64(3), m.BlockedBidsMeter.Count())
}

func TestRecordBlockedBidsZeroCount(t *testing.T) {
	m := NewMetrics(gometrics.NewRegistry())

	m.RecordBlockedBids(0)

	assert.Zero(t, m.BlockedBidsMeter.Count())
}

func TestNilMetricsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordStoredResponseFetch(time.Second)
		m.RecordStoredResponseError()
		m.RecordBlockedBids(5)
	})
}

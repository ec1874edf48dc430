package metrics

import (
	"time"

	gometrics "github.com/rcrowley/go-metrics"
)

// Metrics holds the reconciliation metrics. All record helpers are nil-safe so
// library users who do not care about metrics may pass a nil *Metrics around.
type Metrics struct {
	StoredResponseFetchTimer gometrics.Timer
	StoredResponseErrorMeter gometrics.Meter
	BlockedBidsMeter         gometrics.Meter
}

// NewMetrics registers and returns the reconciliation metrics on the given registry.
func NewMetrics(registry gometrics.Registry) *Metrics {
	return &Metrics{
		StoredResponseFetchTimer: gometrics.GetOrRegisterTimer("stored_responses.fetch_time", registry),
		StoredResponseErrorMeter: gometrics.GetOrRegisterMeter("stored_responses.fetch_errors", registry),
		BlockedBidsMeter:         gometrics.GetOrRegisterMeter("blocking.blocked_bids", registry),
	}
}

func (m *Metrics) RecordStoredResponseFetch(length time.Duration) {
	if m == nil {
		return
	}
	m.StoredResponseFetchTimer.Update(length)
}

func (m *Metrics) RecordStoredResponseError() {
	if m == nil {
		return
	}
	m.StoredResponseErrorMeter.Mark(1)
}

func (m *Metrics) RecordBlockedBids(count int64) {
	if m == nil || count == 0 {
		return
	}
	m.BlockedBidsMeter.Mark(count)
}

package exchange

import (
	"github.com/prebid/auction-reconciler/exchange/entities"
)

// BidRejectionNotifier is the capability reconciliation stages use to report
// excluded bids. Implementations must be idempotent with respect to repeated
// identical rejections of the same bid/reason pair.
type BidRejectionNotifier interface {
	RejectBid(bid *entities.BidderBid, reason NonBidReason)
	RestoreFromRejection(bids []*entities.BidderBid)
}

// Rejection records why a specific bid was excluded from the final auction result.
type Rejection struct {
	BidID  string
	Reason NonBidReason
}

// BidRejectionTracker accumulates rejections for a single bidder. It is owned
// by that bidder's reconciliation path and is not safe for concurrent use.
type BidRejectionTracker struct {
	bidder     string
	rejections map[string][]Rejection // imp id -> rejections
}

func NewBidRejectionTracker(bidder string) *BidRejectionTracker {
	return &BidRejectionTracker{
		bidder:     bidder,
		rejections: make(map[string][]Rejection),
	}
}

func (t *BidRejectionTracker) Bidder() string {
	return t.bidder
}

// RejectBid records a rejection of the given bid. Repeated identical
// bid/reason pairs collapse into one record.
func (t *BidRejectionTracker) RejectBid(bid *entities.BidderBid, reason NonBidReason) {
	if t == nil || bid == nil || bid.Bid == nil {
		return
	}

	impID := bid.Bid.ImpID
	for _, rejection := range t.rejections[impID] {
		if rejection.BidID == bid.Bid.ID && rejection.Reason == reason {
			return
		}
	}

	t.rejections[impID] = append(t.rejections[impID], Rejection{
		BidID:  bid.Bid.ID,
		Reason: reason,
	})
}

// RestoreFromRejection re-evaluates earlier rejections against the bid set as
// it stands after a merge. Impressions that have bids again drop their
// provisional rejections.
func (t *BidRejectionTracker) RestoreFromRejection(bids []*entities.BidderBid) {
	if t == nil {
		return
	}

	for _, bid := range bids {
		if bid == nil || bid.Bid == nil {
			continue
		}
		delete(t.rejections, bid.Bid.ImpID)
	}
}

// Rejections returns a copy of the accumulated rejections keyed by impression id.
func (t *BidRejectionTracker) Rejections() map[string][]Rejection {
	rejections := make(map[string][]Rejection, len(t.rejections))
	for impID, impRejections := range t.rejections {
		rejections[impID] = append([]Rejection(nil), impRejections...)
	}
	return rejections
}

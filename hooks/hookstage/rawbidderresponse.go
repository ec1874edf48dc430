package hookstage

import (
	"context"

	"github.com/prebid/auction-reconciler/exchange"
	"github.com/prebid/auction-reconciler/exchange/entities"
	"github.com/prebid/auction-reconciler/openrtb_ext"
)

// RawBidderResponse hooks are invoked for each bidder response, after the
// stored seat bids were merged in but before the bids enter the auction.
//
// Rejection results in ignoring the bidder's response.
type RawBidderResponse interface {
	HandleRawBidderResponseHook(
		context.Context,
		ModuleInvocationContext,
		RawBidderResponsePayload,
	) (HookResult[RawBidderResponsePayload], error)
}

// RawBidderResponsePayload consists of a bidder's bids as returned from its
// reconciliation path. Hooks are allowed to modify the bid list using mutations.
type RawBidderResponsePayload struct {
	Bidder string
	Bids   []*entities.BidderBid

	// OrtbVersion is the OpenRTB version the incoming request declared.
	// Hooks gate version-dependent enforcement on it.
	OrtbVersion openrtb_ext.OrtbVersion

	// RejectionTracker, when set, is notified about every bid a hook
	// removes from the response.
	RejectionTracker exchange.BidRejectionNotifier
}

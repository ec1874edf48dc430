package hookstage

import (
	"context"

	"github.com/prebid/openrtb/v20/openrtb2"
)

// BidderRequest hooks are invoked for each bidder participating in an auction.
//
// At this stage the account-level module config is available and is passed to
// the hook through the invocation context.
//
// Rejection results in skipping the bidder's request.
type BidderRequest interface {
	HandleBidderRequestHook(
		context.Context,
		ModuleInvocationContext,
		BidderRequestPayload,
	) (HookResult[BidderRequestPayload], error)
}

// BidderRequestPayload consists of the openrtb2.BidRequest object distilled
// for the particular bidder. Hooks are allowed to modify it using mutations.
type BidderRequestPayload struct {
	Request *openrtb2.BidRequest
	Bidder  string
}

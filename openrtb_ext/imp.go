package openrtb_ext

import (
	"encoding/json"

	"github.com/prebid/openrtb/v20/openrtb2"
)

// ExtImp defines the contract for bidrequest.imp[i].ext. Only the well-known
// prebid section is decoded; bidder-specific keys pass through untouched.
type ExtImp struct {
	Prebid *ExtImpPrebid `json:"prebid,omitempty"`
}

// ExtImpPrebid defines the contract for bidrequest.imp[i].ext.prebid.
type ExtImpPrebid struct {
	// StoredAuctionResponse specifies a pre-recorded seat bid set which
	// replaces live bidding for this impression entirely.
	StoredAuctionResponse *ExtStoredAuctionResponse `json:"storedauctionresponse,omitempty"`

	// StoredBidResponse specifies pre-recorded bidder responses substituted
	// for individual bidder calls on this impression.
	StoredBidResponse []ExtStoredBidResponse `json:"storedbidresponse,omitempty"`

	// Bidder is bidder-specific params keyed by bidder name.
	Bidder map[string]json.RawMessage `json:"bidder,omitempty"`
}

// ExtStoredAuctionResponse defines the contract for
// bidrequest.imp[i].ext.prebid.storedauctionresponse. An inline SeatBid takes
// precedence over the ID reference.
type ExtStoredAuctionResponse struct {
	ID      string             `json:"id,omitempty"`
	SeatBid []openrtb2.SeatBid `json:"seatbid,omitempty"`
}

// ExtStoredBidResponse defines the contract for
// bidrequest.imp[i].ext.prebid.storedbidresponse.
type ExtStoredBidResponse struct {
	ID           string `json:"id"`
	Bidder       string `json:"bidder"`
	ReplaceImpId *bool  `json:"replaceimpid,omitempty"`
}

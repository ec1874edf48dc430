package entities

import (
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/prebid/auction-reconciler/openrtb_ext"
)

// BidderBid wraps a wire-level bid with the auction-side attributes resolved
// for it. A BidderBid is owned exclusively by its BidderSeatBid.
type BidderBid struct {
	Bid         *openrtb2.Bid
	BidType     openrtb_ext.BidType
	Seat        string
	BidCurrency string
}

// BidderSeatBid is the ordered set of bids a single bidder returned.
type BidderSeatBid struct {
	Bids []*BidderBid
}

// BidderResponse is the result of one bidder's participation in an auction.
type BidderResponse struct {
	Bidder             string
	SeatBid            BidderSeatBid
	ResponseTimeMillis int
}

// WithSeatBid returns a copy of the response carrying the given seat bid.
// Replacing the seat bid is the only mutation reconciliation performs on a
// response, and it always produces a new value.
func (r BidderResponse) WithSeatBid(seatBid BidderSeatBid) BidderResponse {
	r.SeatBid = seatBid
	return r
}

// BidderRequest is the outgoing request slice prepared for a single bidder.
type BidderRequest struct {
	BidRequest *openrtb2.BidRequest
	BidderName openrtb_ext.BidderName

	// StoredResponse marks the request as backed by a stored bid response;
	// bids coming back for it may carry the impression id macro.
	StoredResponse string
}

// AuctionParticipation is one bidder's slice of an auction.
type AuctionParticipation struct {
	Bidder         string
	BidderRequest  BidderRequest
	BidderResponse BidderResponse

	// RequestBlocked is set upstream when the whole bidder was excluded from
	// the auction. Reconciliation never modifies it.
	RequestBlocked bool
}

// WithResponse returns a copy of the participation carrying the given response.
func (p AuctionParticipation) WithResponse(response BidderResponse) AuctionParticipation {
	p.BidderResponse = response
	return p
}

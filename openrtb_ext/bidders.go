package openrtb_ext

// BidderName refers to a participating bidder (equivalently, a seat) in the auction.
type BidderName string

func (name BidderName) String() string {
	return string(name)
}

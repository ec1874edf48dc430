package ortb2blocking

import (
	"github.com/prebid/openrtb/v20/adcom1"

	"github.com/prebid/auction-reconciler/openrtb_ext"
)

// blockedAttributes is the snapshot of blocked values the bidder request hook
// applied to an outgoing request. The raw bidder response hook reads it back
// from the module context to evaluate that bidder's bids against the very
// values the bidder was told about.
type blockedAttributes struct {
	bAdv []string
	bCat []string
	bApp []string

	// bAttr is keyed by media type, then by impression id. A missing
	// impression entry means no creative attribute is blocked for it.
	bAttr map[openrtb_ext.BidType]map[string][]int

	// catTaxComplement is the single taxonomy version bids are expected to
	// declare. Nil falls back to the protocol default at evaluation time.
	catTaxComplement *adcom1.CategoryTaxonomy
}

func (a blockedAttributes) battrFor(mediaType openrtb_ext.BidType, impID string) []int {
	byImp, ok := a.bAttr[mediaType]
	if !ok {
		return nil
	}
	return byImp[impID]
}

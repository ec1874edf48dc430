package exchange

// NonBidReason lists the reasons why a bid did not result in a positive bid.
// Reference: https://github.com/InteractiveAdvertisingBureau/openrtb/blob/master/extensions/community_extensions/seat-non-bid.md#list-non-bid-status-codes
type NonBidReason int

const (
	NoBidUnknownError               NonBidReason = 0
	ErrorGeneral                    NonBidReason = 100
	ErrorTimeout                    NonBidReason = 101 // Error - Timeout
	ResponseRejectedGeneral         NonBidReason = 300
	ResponseRejectedInvalidCreative NonBidReason = 350 // Response Rejected - Invalid Creative
	// ResponseRejectedAdvertiserBlocked marks bids whose advertiser domain hit
	// the blocked set.
	ResponseRejectedAdvertiserBlocked NonBidReason = 356
	// ResponseRejectedAppBundleBlocked marks bids whose app bundle hit the
	// blocked set.
	ResponseRejectedAppBundleBlocked NonBidReason = 357
)

// Ptr returns pointer to own value.
func (n NonBidReason) Ptr() *NonBidReason {
	return &n
}

// Val safely dereferences pointer, returning default value (NoBidUnknownError) for nil.
func (n *NonBidReason) Val() NonBidReason {
	if n == nil {
		return NoBidUnknownError
	}
	return *n
}

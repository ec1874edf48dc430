package ortb2blocking

import (
	"github.com/prebid/auction-reconciler/exchange/entities"
	"github.com/prebid/auction-reconciler/hooks/hookstage"
	"github.com/prebid/auction-reconciler/metrics"
)

func handleRawBidderResponseHook(
	me *metrics.Metrics,
	miCtx hookstage.ModuleInvocationContext,
	payload hookstage.RawBidderResponsePayload,
) (result hookstage.HookResult[hookstage.RawBidderResponsePayload], err error) {
	result.AnalyticsTags = newEnforceBlockingTags()

	blocker := bidsBlocker{
		bids:              payload.Bids,
		bidder:            payload.Bidder,
		ortbVersion:       payload.OrtbVersion,
		accountConfig:     miCtx.AccountConfig,
		blockedAttributes: blockedAttributesFor(miCtx.ModuleContext, payload.Bidder),
		rejectionTracker:  payload.RejectionTracker,
		debugEnabled:      miCtx.DebugEnabled,
	}

	blockingResult := blocker.block()
	result.Warnings = mergeStrings(result.Warnings, blockingResult.Warnings...)
	result.DebugMessages = blockingResult.DebugMessages
	addAnalyticTags(&result, blockingResult.AnalyticsResults)

	if blockingResult.hasErrors() {
		addFailedStatusTag(&result)
		result.Errors = blockingResult.Errors
		return result, nil
	}

	if !blockingResult.hasValue() {
		return result, nil
	}

	blocked := *blockingResult.Value
	remaining := remainingBids(payload.Bids, blocked)
	result.ChangeSet.RawBidderResponse().Bids().Update(remaining)
	me.RecordBlockedBids(int64(len(blocked.Indexes)))

	return result, nil
}

func blockedAttributesFor(moduleCtx hookstage.ModuleContext, bidder string) blockedAttributes {
	if attributes, ok := moduleCtx[bidder].(blockedAttributes); ok {
		return attributes
	}
	return blockedAttributes{}
}

func remainingBids(bids []*entities.BidderBid, blocked blockedBids) []*entities.BidderBid {
	remaining := make([]*entities.BidderBid, 0, len(bids)-len(blocked.Indexes))
	for i, bid := range bids {
		if blocked.contains(i) {
			continue
		}
		remaining = append(remaining, bid)
	}
	return remaining
}

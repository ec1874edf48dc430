package ortb2blocking

import (
	"encoding/json"
	"testing"

	"github.com/prebid/openrtb/v20/openrtb2"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prebid/auction-reconciler/exchange/entities"
	"github.com/prebid/auction-reconciler/hooks/hookanalytics"
	"github.com/prebid/auction-reconciler/hooks/hookstage"
	"github.com/prebid/auction-reconciler/metrics"
	"github.com/prebid/auction-reconciler/openrtb_ext"
)

func TestHandleRawBidderResponseHookRemovesBlockedBids(t *testing.T) {
	me := metrics.NewMetrics(gometrics.NewRegistry())

	miCtx := hookstage.ModuleInvocationContext{
		AccountConfig: json.RawMessage(`{"attributes":{"badv":{"enforce-blocks":true}}}`),
		ModuleContext: hookstage.ModuleContext{
			"bidderA": blockedAttributes{bAdv: []string{"bad.com"}},
		},
	}
	payload := hookstage.RawBidderResponsePayload{
		Bidder: "bidderA",
		Bids: []*entities.BidderBid{
			{Bid: &openrtb2.Bid{ID: "bid1", ImpID: "imp-id1", ADomain: []string{"bad.com"}}, BidType: openrtb_ext.BidTypeBanner},
			{Bid: &openrtb2.Bid{ID: "bid2", ImpID: "imp-id1", ADomain: []string{"fine.com"}}, BidType: openrtb_ext.BidTypeBanner},
		},
	}

	result, err := handleRawBidderResponseHook(me, miCtx, payload)
	require.NoError(t, err)

	mutations := result.ChangeSet.Mutations()
	require.Len(t, mutations, 1)
	updated, err := mutations[0].Apply(payload)
	require.NoError(t, err)

	require.Len(t, updated.Bids, 1)
	assert.Equal(t, "bid2", updated.Bids[0].Bid.ID)

	require.Len(t, result.AnalyticsTags.Activities, 1)
	activity := result.AnalyticsTags.Activities[0]
	assert.Equal(t, "enforce_blocking", activity.Name)
	assert.Equal(t, hookanalytics.ActivityStatusSuccess, activity.Status)
	require.Len(t, activity.Results, 2)
	assert.Equal(t, hookanalytics.ResultStatusBlock, activity.Results[0].Status)
	assert.Equal(t, []string{"imp-id1"}, activity.Results[0].AppliedTo.ImpIds)
	assert.Equal(t, hookanalytics.ResultStatusAllow, activity.Results[1].Status)

	assert.Equal(t, int64(1), me.BlockedBidsMeter.Count())
}

func TestHandleRawBidderResponseHookNothingBlocked(t *testing.T) {
	miCtx := hookstage.ModuleInvocationContext{
		AccountConfig: json.RawMessage(`{"attributes":{"badv":{"enforce-blocks":true}}}`),
	}
	payload := hookstage.RawBidderResponsePayload{
		Bidder: "bidderA",
		Bids: []*entities.BidderBid{
			{Bid: &openrtb2.Bid{ID: "bid1", ImpID: "imp-id1", ADomain: []string{"fine.com"}}, BidType: openrtb_ext.BidTypeBanner},
		},
	}

	result, err := handleRawBidderResponseHook(nil, miCtx, payload)
	require.NoError(t, err)

	assert.Empty(t, result.ChangeSet.Mutations())
	assert.Empty(t, result.Errors)
	assert.Equal(t, hookanalytics.ActivityStatusSuccess, result.AnalyticsTags.Activities[0].Status)
}

func TestHandleRawBidderResponseHookConfigError(t *testing.T) {
	miCtx := hookstage.ModuleInvocationContext{
		AccountConfig: json.RawMessage(`{"attributes":"broken"}`),
		DebugEnabled:  true,
	}
	payload := hookstage.RawBidderResponsePayload{
		Bidder: "bidderA",
		Bids:   []*entities.BidderBid{{Bid: &openrtb2.Bid{ID: "bid1", ImpID: "imp-id1"}}},
	}

	result, err := handleRawBidderResponseHook(nil, miCtx, payload)
	require.NoError(t, err)

	assert.Equal(t, []string{"attributes field in account configuration is not an object"}, result.Errors)
	assert.Equal(t, hookanalytics.ActivityStatusError, result.AnalyticsTags.Activities[0].Status)
	assert.Empty(t, result.ChangeSet.Mutations())
}

func TestHandleRawBidderResponseHookMissingModuleContext(t *testing.T) {
	miCtx := hookstage.ModuleInvocationContext{
		AccountConfig: json.RawMessage(`{"attributes":{"badv":{"enforce-blocks":true,"block-unknown":true}}}`),
	}
	payload := hookstage.RawBidderResponsePayload{
		Bidder: "bidderA",
		Bids: []*entities.BidderBid{
			{Bid: &openrtb2.Bid{ID: "bid1", ImpID: "imp-id1"}, BidType: openrtb_ext.BidTypeBanner},
		},
	}

	result, err := handleRawBidderResponseHook(nil, miCtx, payload)
	require.NoError(t, err)

	// No snapshot means no blocked values, but block-unknown still applies.
	require.Len(t, result.ChangeSet.Mutations(), 1)
}

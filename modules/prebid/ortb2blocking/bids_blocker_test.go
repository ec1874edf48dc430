package ortb2blocking

import (
	"encoding/json"
	"testing"

	"github.com/prebid/openrtb/v20/adcom1"
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prebid/auction-reconciler/exchange"
	"github.com/prebid/auction-reconciler/exchange/entities"
	"github.com/prebid/auction-reconciler/openrtb_ext"
	"github.com/prebid/auction-reconciler/util/ptrutil"
)

type rejectionCall struct {
	bidID  string
	reason exchange.NonBidReason
}

type recordingTracker struct {
	calls []rejectionCall
}

func (r *recordingTracker) RejectBid(bid *entities.BidderBid, reason exchange.NonBidReason) {
	r.calls = append(r.calls, rejectionCall{bidID: bid.Bid.ID, reason: reason})
}

func (r *recordingTracker) RestoreFromRejection(bids []*entities.BidderBid) {}

func bannerBid(id, impID string, mutate func(*openrtb2.Bid)) *entities.BidderBid {
	bid := &openrtb2.Bid{ID: id, ImpID: impID}
	if mutate != nil {
		mutate(bid)
	}
	return &entities.BidderBid{Bid: bid, BidType: openrtb_ext.BidTypeBanner, Seat: "bidderA"}
}

func TestBlockNoConfig(t *testing.T) {
	tracker := &recordingTracker{}
	blocker := bidsBlocker{
		bids:             []*entities.BidderBid{bannerBid("bid1", "imp-id1", nil)},
		bidder:           "bidderA",
		rejectionTracker: tracker,
	}

	result := blocker.block()

	assert.False(t, result.hasValue())
	assert.False(t, result.hasErrors())
	assert.Empty(t, result.AnalyticsResults)
	assert.Empty(t, tracker.calls, "no tracker interaction without config")
}

func TestBlockMalformedConfig(t *testing.T) {
	testCases := []struct {
		description    string
		debugEnabled   bool
		expectedErrors []string
	}{
		{
			description:    "debug on surfaces the config error",
			debugEnabled:   true,
			expectedErrors: []string{"attributes field in account configuration is not an object"},
		},
		{
			description:  "debug off fails silently",
			debugEnabled: false,
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			tracker := &recordingTracker{}
			blocker := bidsBlocker{
				bids:             []*entities.BidderBid{bannerBid("bid1", "imp-id1", nil)},
				bidder:           "bidderA",
				accountConfig:    json.RawMessage(`{"attributes":[]}`),
				rejectionTracker: tracker,
				debugEnabled:     test.debugEnabled,
			}

			result := blocker.block()

			assert.False(t, result.hasValue())
			assert.Equal(t, test.expectedErrors, result.Errors)
			assert.Empty(t, tracker.calls)
		})
	}
}

func TestBlockBAdv(t *testing.T) {
	testCases := []struct {
		description     string
		config          json.RawMessage
		adomain         []string
		dealID          string
		blocked         []string
		expectedBlocked bool
		expectedReasons []exchange.NonBidReason
	}{
		{
			description: "no adomain and block-unknown off passes even when enforced",
			config:      json.RawMessage(`{"attributes":{"badv":{"enforce-blocks":true}}}`),
		},
		{
			description:     "no adomain and block-unknown on blocks",
			config:          json.RawMessage(`{"attributes":{"badv":{"enforce-blocks":true,"block-unknown":true}}}`),
			expectedBlocked: true,
			expectedReasons: []exchange.NonBidReason{exchange.ResponseRejectedAdvertiserBlocked},
		},
		{
			description: "blocked domain without enforcement passes",
			config:      json.RawMessage(`{"attributes":{"badv":{"enforce-blocks":false}}}`),
			adomain:     []string{"domain1.com"},
			blocked:     []string{"domain1.com"},
		},
		{
			description:     "blocked domain with enforcement blocks and notifies the tracker",
			config:          json.RawMessage(`{"attributes":{"badv":{"enforce-blocks":true}}}`),
			adomain:         []string{"domain1.com"},
			blocked:         []string{"domain1.com"},
			expectedBlocked: true,
			expectedReasons: []exchange.NonBidReason{exchange.ResponseRejectedAdvertiserBlocked},
		},
		{
			description: "domain matching is case insensitive",
			config:      json.RawMessage(`{"attributes":{"badv":{"enforce-blocks":true}}}`),
			adomain:     []string{"Domain1.COM"},
			blocked:     []string{"domain1.com"},

			expectedBlocked: true,
			expectedReasons: []exchange.NonBidReason{exchange.ResponseRejectedAdvertiserBlocked},
		},
		{
			description: "deal bid with all offending domains allowed for deals passes",
			config:      json.RawMessage(`{"attributes":{"badv":{"enforce-blocks":true,"allowed-for-deals":["domain1.com"]}}}`),
			adomain:     []string{"domain1.com"},
			dealID:      "deal-1",
			blocked:     []string{"domain1.com"},
		},
		{
			description:     "deal bid with offending domain outside the exceptions blocks",
			config:          json.RawMessage(`{"attributes":{"badv":{"enforce-blocks":true,"allowed-for-deals":["domain1.com"]}}}`),
			adomain:         []string{"domain2.com"},
			dealID:          "deal-1",
			blocked:         []string{"domain2.com"},
			expectedBlocked: true,
			expectedReasons: []exchange.NonBidReason{exchange.ResponseRejectedAdvertiserBlocked},
		},
		{
			description: "non deal bid ignores deal exceptions",
			config:      json.RawMessage(`{"attributes":{"badv":{"enforce-blocks":true,"allowed-for-deals":["domain1.com"]}}}`),
			adomain:     []string{"domain1.com"},
			blocked:     []string{"domain1.com"},

			expectedBlocked: true,
			expectedReasons: []exchange.NonBidReason{exchange.ResponseRejectedAdvertiserBlocked},
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			tracker := &recordingTracker{}
			blocker := bidsBlocker{
				bids: []*entities.BidderBid{bannerBid("bid1", "imp-id1", func(bid *openrtb2.Bid) {
					bid.ADomain = test.adomain
					bid.DealID = test.dealID
				})},
				bidder:            "bidderA",
				accountConfig:     test.config,
				blockedAttributes: blockedAttributes{bAdv: test.blocked},
				rejectionTracker:  tracker,
			}

			result := blocker.block()

			if test.expectedBlocked {
				require.True(t, result.hasValue())
				assert.Equal(t, []int{0}, result.Value.Indexes)
			} else {
				assert.False(t, result.hasValue())
			}

			var reasons []exchange.NonBidReason
			for _, call := range tracker.calls {
				reasons = append(reasons, call.reason)
			}
			assert.Equal(t, test.expectedReasons, reasons)
		})
	}
}

func TestBlockBattrKeyedByMediaTypeAndImp(t *testing.T) {
	config := json.RawMessage(`{"attributes":{"battr":{"enforce-blocks":true}}}`)
	blocked := blockedAttributes{
		bAttr: map[openrtb_ext.BidType]map[string][]int{
			openrtb_ext.BidTypeBanner: {"imp-id1": {1, 2}},
		},
	}

	withAttr := func(bid *openrtb2.Bid) {
		bid.Attr = []adcom1.CreativeAttribute{2}
	}

	testCases := []struct {
		description     string
		bid             *entities.BidderBid
		expectedBlocked bool
	}{
		{
			description:     "matching media type and imp blocks",
			bid:             bannerBid("bid1", "imp-id1", withAttr),
			expectedBlocked: true,
		},
		{
			description: "unlisted imp passes",
			bid:         bannerBid("bid1", "imp-id2", withAttr),
		},
		{
			description: "different media type passes",
			bid: &entities.BidderBid{
				Bid:     &openrtb2.Bid{ID: "bid1", ImpID: "imp-id1", Attr: []adcom1.CreativeAttribute{2}},
				BidType: openrtb_ext.BidTypeVideo,
			},
		},
		{
			description: "bid without creative attributes passes",
			bid:         bannerBid("bid1", "imp-id1", nil),
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			blocker := bidsBlocker{
				bids:              []*entities.BidderBid{test.bid},
				bidder:            "bidderA",
				accountConfig:     config,
				blockedAttributes: blocked,
			}

			result := blocker.block()
			assert.Equal(t, test.expectedBlocked, result.hasValue())
		})
	}
}

func TestBlockCatTax(t *testing.T) {
	bcatEnforced := json.RawMessage(`{"attributes":{"bcat":{"enforce-blocks":true}}}`)

	testCases := []struct {
		description     string
		ortbVersion     openrtb_ext.OrtbVersion
		config          json.RawMessage
		catTax          adcom1.CategoryTaxonomy
		complement      *adcom1.CategoryTaxonomy
		expectedBlocked bool
	}{
		{
			description: "skipped entirely below 2.6",
			ortbVersion: openrtb_ext.OrtbVersion25,
			config:      bcatEnforced,
			catTax:      5,
		},
		{
			description: "declared taxonomy matching default complement passes",
			ortbVersion: openrtb_ext.OrtbVersion26,
			config:      bcatEnforced,
			catTax:      1,
		},
		{
			description:     "declared taxonomy differing from default complement blocks",
			ortbVersion:     openrtb_ext.OrtbVersion26,
			config:          bcatEnforced,
			catTax:          2,
			expectedBlocked: true,
		},
		{
			description: "explicit complement inverts which value passes",
			ortbVersion: openrtb_ext.OrtbVersion26,
			config:      bcatEnforced,
			catTax:      2,
			complement:  ptrutil.ToPtr(adcom1.CategoryTaxonomy(2)),
		},
		{
			description:     "explicit complement blocks the former default",
			ortbVersion:     openrtb_ext.OrtbVersion26,
			config:          bcatEnforced,
			catTax:          1,
			complement:      ptrutil.ToPtr(adcom1.CategoryTaxonomy(2)),
			expectedBlocked: true,
		},
		{
			description: "bid without taxonomy always passes",
			ortbVersion: openrtb_ext.OrtbVersion26,
			config:      bcatEnforced,
		},
		{
			description: "skipped without bcat enforcement",
			ortbVersion: openrtb_ext.OrtbVersion26,
			config:      json.RawMessage(`{"attributes":{"bcat":{"enforce-blocks":false},"badv":{"enforce-blocks":true}}}`),
			catTax:      5,
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			tracker := &recordingTracker{}
			blocker := bidsBlocker{
				bids: []*entities.BidderBid{bannerBid("bid1", "imp-id1", func(bid *openrtb2.Bid) {
					bid.CatTax = test.catTax
				})},
				bidder:            "bidderA",
				ortbVersion:       test.ortbVersion,
				accountConfig:     test.config,
				blockedAttributes: blockedAttributes{catTaxComplement: test.complement},
				rejectionTracker:  tracker,
			}

			result := blocker.block()

			assert.Equal(t, test.expectedBlocked, result.hasValue())
			if test.expectedBlocked {
				require.Len(t, tracker.calls, 1)
				assert.Equal(t, exchange.ResponseRejectedInvalidCreative, tracker.calls[0].reason)
			} else {
				assert.Empty(t, tracker.calls)
			}
		})
	}
}

func TestBlockCombinedScenario(t *testing.T) {
	config := json.RawMessage(`{"attributes":{
		"badv":{"enforce-blocks":true},
		"bcat":{"enforce-blocks":true},
		"bapp":{"enforce-blocks":true},
		"battr":{"enforce-blocks":true}
	}}`)

	bids := []*entities.BidderBid{
		bannerBid("bid1", "imp-id1", func(bid *openrtb2.Bid) {
			bid.ADomain = []string{"bad.com"}
			bid.Cat = []string{"IAB-1"}
		}),
		bannerBid("bid2", "imp-id2", func(bid *openrtb2.Bid) {
			bid.Bundle = "badapp"
			bid.Attr = []adcom1.CreativeAttribute{1}
		}),
		bannerBid("bid3", "imp-id1", nil),
	}

	tracker := &recordingTracker{}
	blocker := bidsBlocker{
		bids:          bids,
		bidder:        "bidderA",
		accountConfig: config,
		blockedAttributes: blockedAttributes{
			bAdv: []string{"bad.com"},
			bCat: []string{"IAB-1"},
			bApp: []string{"badapp"},
			bAttr: map[openrtb_ext.BidType]map[string][]int{
				openrtb_ext.BidTypeBanner: {"imp-id2": {1}},
			},
		},
		rejectionTracker: tracker,
		debugEnabled:     true,
	}

	result := blocker.block()

	require.True(t, result.hasValue())
	assert.Equal(t, []int{0, 1}, result.Value.Indexes)

	assert.Equal(t, []string{
		"Bid 0 from bidder bidderA has been rejected, failed checks: [badv, bcat]",
		"Bid 1 from bidder bidderA has been rejected, failed checks: [bapp, battr]",
	}, result.DebugMessages)

	require.Len(t, result.AnalyticsResults, 3)

	blocked1 := result.AnalyticsResults[0]
	assert.Equal(t, analyticsResultStatusBlocked, blocked1.Status)
	assert.Equal(t, "imp-id1", blocked1.ImpID)
	assert.Equal(t, map[string]interface{}{
		"attributes": []string{"badv", "bcat"},
		"adomain":    []string{"bad.com"},
		"bcat":       []string{"IAB-1"},
	}, blocked1.Values)

	blocked2 := result.AnalyticsResults[1]
	assert.Equal(t, analyticsResultStatusBlocked, blocked2.Status)
	assert.Equal(t, "imp-id2", blocked2.ImpID)
	assert.Equal(t, map[string]interface{}{
		"attributes": []string{"bapp", "battr"},
		"bundle":     "badapp",
		"attr":       []int{1},
	}, blocked2.Values)

	allowed := result.AnalyticsResults[2]
	assert.Equal(t, analyticsResultStatusAllowed, allowed.Status)
	assert.Equal(t, "imp-id1", allowed.ImpID)
	assert.Nil(t, allowed.Values)

	assert.ElementsMatch(t, []rejectionCall{
		{bidID: "bid1", reason: exchange.ResponseRejectedAdvertiserBlocked},
		{bidID: "bid1", reason: exchange.ResponseRejectedInvalidCreative},
		{bidID: "bid2", reason: exchange.ResponseRejectedAppBundleBlocked},
		{bidID: "bid2", reason: exchange.ResponseRejectedInvalidCreative},
	}, tracker.calls, "exactly one call per bid and distinct reason")
}

func TestBlockDebugMessagesOnlyInDebugMode(t *testing.T) {
	config := json.RawMessage(`{"attributes":{"badv":{"enforce-blocks":true}}}`)
	blocker := bidsBlocker{
		bids: []*entities.BidderBid{bannerBid("bid1", "imp-id1", func(bid *openrtb2.Bid) {
			bid.ADomain = []string{"bad.com"}
		})},
		bidder:            "bidderA",
		accountConfig:     config,
		blockedAttributes: blockedAttributes{bAdv: []string{"bad.com"}},
	}

	result := blocker.block()

	require.True(t, result.hasValue())
	assert.Empty(t, result.DebugMessages)
	assert.NotEmpty(t, result.AnalyticsResults, "analytics stay on without debug")
}

func TestBlockSameReasonRaisedOncePerBid(t *testing.T) {
	// bcat and battr both map to the invalid creative reason.
	config := json.RawMessage(`{"attributes":{
		"bcat":{"enforce-blocks":true},
		"battr":{"enforce-blocks":true}
	}}`)

	tracker := &recordingTracker{}
	blocker := bidsBlocker{
		bids: []*entities.BidderBid{bannerBid("bid1", "imp-id1", func(bid *openrtb2.Bid) {
			bid.Cat = []string{"IAB-1"}
			bid.Attr = []adcom1.CreativeAttribute{1}
		})},
		bidder:        "bidderA",
		accountConfig: config,
		blockedAttributes: blockedAttributes{
			bCat: []string{"IAB-1"},
			bAttr: map[openrtb_ext.BidType]map[string][]int{
				openrtb_ext.BidTypeBanner: {"imp-id1": {1}},
			},
		},
		rejectionTracker: tracker,
	}

	result := blocker.block()

	require.True(t, result.hasValue())
	assert.Equal(t, []rejectionCall{
		{bidID: "bid1", reason: exchange.ResponseRejectedInvalidCreative},
	}, tracker.calls)
}

package ortb2blocking

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/prebid/openrtb/v20/adcom1"

	"github.com/prebid/auction-reconciler/exchange"
	"github.com/prebid/auction-reconciler/exchange/entities"
	"github.com/prebid/auction-reconciler/openrtb_ext"
	"github.com/prebid/auction-reconciler/util/sliceutil"
)

// checkedAttributes is the fixed evaluation and reporting order.
var checkedAttributes = [5]string{
	attributeBadv,
	attributeBcat,
	attributeBapp,
	attributeBattr,
	attributeCattax,
}

const (
	attributeBadv   = "badv"
	attributeBcat   = "bcat"
	attributeBapp   = "bapp"
	attributeBattr  = "battr"
	attributeCattax = "cattax"
)

// Bids with no declared taxonomy version pass; declared versions must match
// the account complement, which defaults to taxonomy 1.
const defaultCategoryTaxonomy = adcom1.CategoryTaxonomy(1)

var attributeRejectionReasons = map[string]exchange.NonBidReason{
	attributeBadv:   exchange.ResponseRejectedAdvertiserBlocked,
	attributeBcat:   exchange.ResponseRejectedInvalidCreative,
	attributeBapp:   exchange.ResponseRejectedAppBundleBlocked,
	attributeBattr:  exchange.ResponseRejectedInvalidCreative,
	attributeCattax: exchange.ResponseRejectedInvalidCreative,
}

// bidsBlocker evaluates one bidder's bids against the account's attribute
// policies. Every check runs for every bid even after one already failed, so
// the analytics picture stays complete.
type bidsBlocker struct {
	bids              []*entities.BidderBid
	bidder            string
	ortbVersion       openrtb_ext.OrtbVersion
	accountConfig     json.RawMessage
	blockedAttributes blockedAttributes
	rejectionTracker  exchange.BidRejectionNotifier
	debugEnabled      bool
}

func (b bidsBlocker) block() executionResult[blockedBids] {
	cfg, err := newConfig(b.accountConfig)
	if err != nil {
		if b.debugEnabled {
			return executionResult[blockedBids]{Errors: []string{err.Error()}}
		}
		return emptyExecutionResult[blockedBids]()
	}

	if !cfg.hasBlockingAttributes() {
		return emptyExecutionResult[blockedBids]()
	}

	var result executionResult[blockedBids]
	var blockedIndexes []int
	blockedImps := map[string]struct{}{}

	for i, bid := range b.bids {
		if bid == nil || bid.Bid == nil {
			continue
		}

		verdict := b.checkBid(cfg, bid)
		if len(verdict.failedAttributes) == 0 {
			continue
		}

		blockedIndexes = append(blockedIndexes, i)
		blockedImps[bid.Bid.ImpID] = struct{}{}

		b.notifyRejections(bid, verdict.failedAttributes)
		result.AnalyticsResults = append(result.AnalyticsResults,
			blockedAnalyticsResult(b.bidder, bid.Bid.ImpID, verdict.analyticValues()))

		if b.debugEnabled {
			result.DebugMessages = append(result.DebugMessages, fmt.Sprintf(
				"Bid %d from bidder %s has been rejected, failed checks: [%s]",
				i, b.bidder, strings.Join(verdict.failedAttributes, ", ")))
		}
	}

	if len(blockedIndexes) == 0 {
		return emptyExecutionResult[blockedBids]()
	}

	result.AnalyticsResults = append(result.AnalyticsResults,
		b.allowedResults(blockedIndexes, blockedImps)...)
	result.Value = &blockedBids{Indexes: blockedIndexes}
	return result
}

// bidVerdict collects the outcome of all attribute checks for a single bid.
type bidVerdict struct {
	failedAttributes []string
	values           map[string]interface{}
}

func (v *bidVerdict) fail(attribute string) {
	v.failedAttributes = append(v.failedAttributes, attribute)
}

func (v *bidVerdict) failWithValue(attribute, analyticKey string, value interface{}) {
	v.fail(attribute)
	if v.values == nil {
		v.values = map[string]interface{}{}
	}
	v.values[analyticKey] = value
}

// analyticValues returns the per-attribute offending values plus the sorted
// list of failed attribute names under the "attributes" key.
func (v bidVerdict) analyticValues() map[string]interface{} {
	values := make(map[string]interface{}, len(v.values)+1)
	for key, value := range v.values {
		values[key] = value
	}

	attributes := append([]string(nil), v.failedAttributes...)
	sort.Strings(attributes)
	values[attributesAnalyticKey] = attributes

	return values
}

func (b bidsBlocker) checkBid(cfg config, bid *entities.BidderBid) bidVerdict {
	verdict := bidVerdict{}

	b.checkStrings(&verdict, attributeBadv, cfg.Attributes.Badv,
		bid.Bid.ADomain, b.blockedAttributes.bAdv, bid.Bid.DealID)

	var bcat *attribute[string]
	if cfg.Attributes.Bcat != nil {
		bcat = &cfg.Attributes.Bcat.attribute
	}
	b.checkStrings(&verdict, attributeBcat, bcat,
		bid.Bid.Cat, b.blockedAttributes.bCat, bid.Bid.DealID)

	b.checkBundle(&verdict, cfg.Attributes.Bapp, bid)
	b.checkCreativeAttributes(&verdict, cfg.Attributes.Battr, bid)
	b.checkCategoryTaxonomy(&verdict, cfg, bid)

	return verdict
}

// checkStrings covers badv and bcat: list-valued bid attributes with a
// block-unknown rule and a deal exemption.
func (b bidsBlocker) checkStrings(
	verdict *bidVerdict,
	attrName string,
	policy *attribute[string],
	bidValues []string,
	blocked []string,
	dealID string,
) {
	if policy == nil || !policy.EnforceBlocks {
		return
	}

	if len(bidValues) == 0 {
		if policy.BlockUnknown {
			verdict.fail(attrName)
		}
		return
	}

	var offending []string
	for _, value := range bidValues {
		if sliceutil.ContainsStringIgnoreCase(blocked, value) {
			offending = append(offending, value)
		}
	}
	if len(offending) == 0 {
		return
	}

	if dealID != "" && allStringsAllowed(offending, policy.AllowedForDeals) {
		return
	}

	verdict.failWithValue(attrName, analyticKeyFor(attrName), offending)
}

func (b bidsBlocker) checkBundle(verdict *bidVerdict, policy *attribute[string], bid *entities.BidderBid) {
	if policy == nil || !policy.EnforceBlocks {
		return
	}

	bundle := bid.Bid.Bundle
	if bundle == "" {
		if policy.BlockUnknown {
			verdict.fail(attributeBapp)
		}
		return
	}

	if !sliceutil.ContainsStringIgnoreCase(b.blockedAttributes.bApp, bundle) {
		return
	}

	if bid.Bid.DealID != "" && sliceutil.ContainsStringIgnoreCase(policy.AllowedForDeals, bundle) {
		return
	}

	verdict.failWithValue(attributeBapp, bappAnalyticKey, bundle)
}

func (b bidsBlocker) checkCreativeAttributes(verdict *bidVerdict, policy *attribute[int], bid *entities.BidderBid) {
	if policy == nil || !policy.EnforceBlocks {
		return
	}

	// No unknown concept: a bid without creative attributes passes.
	if len(bid.Bid.Attr) == 0 {
		return
	}

	blocked := b.blockedAttributes.battrFor(bid.BidType, bid.Bid.ImpID)
	if len(blocked) == 0 {
		return
	}

	var offending []int
	for _, attr := range bid.Bid.Attr {
		if sliceutil.ContainsInt(blocked, int(attr)) {
			offending = append(offending, int(attr))
		}
	}
	if len(offending) == 0 {
		return
	}

	if bid.Bid.DealID != "" && allIntsAllowed(offending, policy.AllowedForDeals) {
		return
	}

	verdict.failWithValue(attributeBattr, battrAnalyticKey, offending)
}

// checkCategoryTaxonomy is tied to the bcat policy: it only runs when bcat
// enforcement is on, and only for protocol versions that carry bid.cattax.
func (b bidsBlocker) checkCategoryTaxonomy(verdict *bidVerdict, cfg config, bid *entities.BidderBid) {
	if !b.ortbVersion.SupportsCatTax() {
		return
	}
	if cfg.Attributes.Bcat == nil || !cfg.Attributes.Bcat.EnforceBlocks {
		return
	}

	if bid.Bid.CatTax == 0 {
		return
	}

	complement := defaultCategoryTaxonomy
	if b.blockedAttributes.catTaxComplement != nil {
		complement = *b.blockedAttributes.catTaxComplement
	}

	if bid.Bid.CatTax != complement {
		verdict.failWithValue(attributeCattax, cattaxAnalyticKey, int(bid.Bid.CatTax))
	}
}

// notifyRejections raises each distinct rejection reason at most once per bid.
func (b bidsBlocker) notifyRejections(bid *entities.BidderBid, failedAttributes []string) {
	if b.rejectionTracker == nil {
		return
	}

	raised := map[exchange.NonBidReason]struct{}{}
	for _, attribute := range failedAttributes {
		reason, ok := attributeRejectionReasons[attribute]
		if !ok {
			continue
		}
		if _, done := raised[reason]; done {
			continue
		}
		raised[reason] = struct{}{}
		b.rejectionTracker.RejectBid(bid, reason)
	}
}

// allowedResults reports surviving bids, one record per impression, but only
// for impressions where blocking activity actually occurred.
func (b bidsBlocker) allowedResults(blockedIndexes []int, blockedImps map[string]struct{}) []analyticsResult {
	blocked := blockedBids{Indexes: blockedIndexes}
	reported := map[string]struct{}{}

	var results []analyticsResult
	for i, bid := range b.bids {
		if bid == nil || bid.Bid == nil || blocked.contains(i) {
			continue
		}

		impID := bid.Bid.ImpID
		if _, ok := blockedImps[impID]; !ok {
			continue
		}
		if _, ok := reported[impID]; ok {
			continue
		}

		reported[impID] = struct{}{}
		results = append(results, allowedAnalyticsResult(b.bidder, impID))
	}
	return results
}

func allStringsAllowed(values, allowed []string) bool {
	for _, value := range values {
		if !sliceutil.ContainsStringIgnoreCase(allowed, value) {
			return false
		}
	}
	return true
}

func allIntsAllowed(values, allowed []int) bool {
	for _, value := range values {
		if !sliceutil.ContainsInt(allowed, value) {
			return false
		}
	}
	return true
}

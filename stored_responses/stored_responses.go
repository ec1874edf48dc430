// Package stored_responses resolves stored response directives from the
// incoming request, retrieves the referenced payloads from the settings store
// and merges them with live bidder responses.
package stored_responses

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/prebid/auction-reconciler/errortypes"
	"github.com/prebid/auction-reconciler/metrics"
	"github.com/prebid/auction-reconciler/openrtb_ext"
	"github.com/prebid/auction-reconciler/settings"
	"github.com/prebid/auction-reconciler/util/jsonutil"
)

// storedResponse is a per-impression stored response directive: either an
// inline seat bid set or a reference to a stored response id. Exactly one
// variant exists per directive.
type storedResponse interface {
	isStoredResponse()
}

type storedResponseID struct {
	id string
}

type storedResponseObject struct {
	seatBids []openrtb2.SeatBid
}

func (storedResponseID) isStoredResponse()     {}
func (storedResponseObject) isStoredResponse() {}

// BidderKeyedResponses maps bidder names to raw stored response payloads.
// Keys are normalized to lower case at insert and lookup, so bidder name
// casing in the request never matters.
type BidderKeyedResponses struct {
	responses map[string]json.RawMessage
}

func NewBidderKeyedResponses() *BidderKeyedResponses {
	return &BidderKeyedResponses{responses: make(map[string]json.RawMessage)}
}

func (r *BidderKeyedResponses) Set(bidder string, data json.RawMessage) {
	r.responses[strings.ToLower(bidder)] = data
}

func (r *BidderKeyedResponses) Get(bidder string) (json.RawMessage, bool) {
	data, ok := r.responses[strings.ToLower(bidder)]
	return data, ok
}

func (r *BidderKeyedResponses) Len() int {
	if r == nil {
		return 0
	}
	return len(r.responses)
}

// ImpBidderStoredResp maps impression ids to per-bidder stored response payloads.
type ImpBidderStoredResp map[string]*BidderKeyedResponses

// StoredResponseResult is the outcome of stored response resolution for one auction.
type StoredResponseResult struct {
	// RequiredImps are the impressions still requiring live bidding.
	RequiredImps []openrtb2.Imp
	// StoredSeatBids are the resolved auction-level seat bids, coalesced per seat.
	StoredSeatBids []openrtb2.SeatBid
	// StoredBidResponses maps impressions to per-bidder stored bid response payloads.
	StoredBidResponses ImpBidderStoredResp
}

type impDirectives struct {
	auctionResponses map[string]storedResponse            // imp id -> auction-level directive
	bidResponseIDs   map[string]map[string]string         // imp id -> bidder -> stored response id
	requiredImps     []openrtb2.Imp                       // imps without an auction-level directive
	orderedImpIDs    []string                             // imp ids with auction-level directives, in request order
	storedIDs        []string                             // deduplicated ids referenced by either directive kind
}

// extractStoredResponses decodes per-impression extensions and partitions the
// stored response directives they declare. Bid-level directives are only
// honored when the original request carries exactly one impression; stored bid
// response merge is undefined for multi-impression requests and relaxing that
// restriction must happen here, not in the merge code.
func extractStoredResponses(imps []openrtb2.Imp) (*impDirectives, error) {
	directives := &impDirectives{
		auctionResponses: make(map[string]storedResponse),
		bidResponseIDs:   make(map[string]map[string]string),
	}

	seenIDs := make(map[string]struct{})
	addID := func(id string) {
		if _, ok := seenIDs[id]; !ok {
			seenIDs[id] = struct{}{}
			directives.storedIDs = append(directives.storedIDs, id)
		}
	}

	singleImp := len(imps) == 1

	for _, imp := range imps {
		var impExt openrtb_ext.ExtImp
		if len(imp.Ext) > 0 {
			if err := jsonutil.UnmarshalValid(imp.Ext, &impExt); err != nil {
				return nil, &errortypes.BadInput{
					Message: fmt.Sprintf("Error decoding bidRequest.imp.ext for impId = %s : %v", imp.ID, err),
				}
			}
		}

		impExtPrebid := impExt.Prebid
		if impExtPrebid == nil {
			directives.requiredImps = append(directives.requiredImps, imp)
			continue
		}

		if stored := impExtPrebid.StoredAuctionResponse; stored != nil {
			if len(stored.SeatBid) > 0 {
				directives.auctionResponses[imp.ID] = storedResponseObject{seatBids: stored.SeatBid}
			} else if len(stored.ID) > 0 {
				directives.auctionResponses[imp.ID] = storedResponseID{id: stored.ID}
				addID(stored.ID)
			} else {
				return nil, &errortypes.BadInput{
					Message: fmt.Sprintf(`imp %s has ext.prebid.storedauctionresponse specified, but "id" field is missing`, imp.ID),
				}
			}
			directives.orderedImpIDs = append(directives.orderedImpIDs, imp.ID)
		} else {
			directives.requiredImps = append(directives.requiredImps, imp)
		}

		if singleImp && len(impExtPrebid.StoredBidResponse) > 0 {
			bidderIDs := make(map[string]string, len(impExtPrebid.StoredBidResponse))
			for _, stored := range impExtPrebid.StoredBidResponse {
				if len(stored.ID) == 0 || len(stored.Bidder) == 0 {
					return nil, &errortypes.BadInput{
						Message: fmt.Sprintf(`imp %s has ext.prebid.storedbidresponse specified, but "id" or/and "bidder" fields are missing`, imp.ID),
					}
				}
				bidderIDs[stored.Bidder] = stored.ID
				addID(stored.ID)
			}
			directives.bidResponseIDs[imp.ID] = bidderIDs
		}
	}

	return directives, nil
}

// ProcessStoredResponses scans the request for stored auction response and
// stored bid response directives, retrieves all referenced payloads in a
// single batched fetch and resolves them into seat bids ready for merging.
//
// When the request references no stored responses, no fetch call is made.
func ProcessStoredResponses(
	ctx context.Context,
	req *openrtb2.BidRequest,
	fetcher settings.Fetcher,
	me *metrics.Metrics,
) (*StoredResponseResult, error) {

	directives, err := extractStoredResponses(req.Imp)
	if err != nil {
		return nil, err
	}

	if len(directives.auctionResponses) == 0 && len(directives.bidResponseIDs) == 0 {
		return &StoredResponseResult{RequiredImps: req.Imp}, nil
	}

	fetched, err := fetchStoredResponses(ctx, fetcher, directives.storedIDs, me)
	if err != nil {
		return nil, err
	}

	storedSeatBids, err := resolveAuctionSeatBids(directives, fetched)
	if err != nil {
		return nil, err
	}

	storedBidResponses, err := mapStoredBidResponses(directives, fetched)
	if err != nil {
		return nil, err
	}

	return &StoredResponseResult{
		RequiredImps:       directives.requiredImps,
		StoredSeatBids:     storedSeatBids,
		StoredBidResponses: storedBidResponses,
	}, nil
}

// ProcessStoredAuctionResponse resolves a single externally supplied stored
// auction response id, bypassing per-impression directives.
func ProcessStoredAuctionResponse(
	ctx context.Context,
	storedID string,
	fetcher settings.Fetcher,
	me *metrics.Metrics,
) ([]openrtb2.SeatBid, error) {

	fetched, err := fetchStoredResponses(ctx, fetcher, []string{storedID}, me)
	if err != nil {
		return nil, err
	}

	rawSeatBids, ok := fetched[storedID]
	if !ok || len(rawSeatBids) == 0 {
		return nil, &errortypes.BadInput{
			Message: fmt.Sprintf("Failed to fetch stored auction response for storedAuctionResponse id = %s.", storedID),
		}
	}

	seatBids, err := parseSeatBids(storedID, rawSeatBids)
	if err != nil {
		return nil, err
	}
	if err := validateStoredSeatBids(seatBids); err != nil {
		return nil, err
	}

	return mergeSameSeatSeatBids(seatBids), nil
}

// fetchStoredResponses issues the one batched settings store call for the auction.
func fetchStoredResponses(
	ctx context.Context,
	fetcher settings.Fetcher,
	ids []string,
	me *metrics.Metrics,
) (map[string]json.RawMessage, error) {

	if len(ids) == 0 {
		return nil, nil
	}

	start := time.Now()
	data, errs := fetcher.FetchResponses(ctx, ids)
	me.RecordStoredResponseFetch(time.Since(start))

	if len(errs) > 0 {
		me.RecordStoredResponseError()
		glog.Warningf("Stored response fetch failed for ids %v: %v", ids, errs)
		return nil, &errortypes.BadInput{
			Message: fmt.Sprintf("Stored response fetching failed with reason: %s", flattenErrors(errs)),
		}
	}

	return data, nil
}

func flattenErrors(errs []error) string {
	messages := make([]string, len(errs))
	for i, err := range errs {
		messages[i] = err.Error()
	}
	return strings.Join(messages, "; ")
}

// resolveAuctionSeatBids turns auction-level directives into validated seat
// bids. Impressions are processed in request order so that same-seat fragments
// coalesce deterministically.
func resolveAuctionSeatBids(directives *impDirectives, fetched map[string]json.RawMessage) ([]openrtb2.SeatBid, error) {
	if len(directives.auctionResponses) == 0 {
		return nil, nil
	}

	var resolved []openrtb2.SeatBid
	for _, impID := range directives.orderedImpIDs {
		seatBids, err := resolveSeatBids(directives.auctionResponses[impID], fetched, impID)
		if err != nil {
			return nil, err
		}
		if err := validateStoredSeatBids(seatBids); err != nil {
			return nil, err
		}

		// Stored payloads are impression-agnostic templates, so every bid is
		// re-pointed at the impression that referenced it.
		for i := range seatBids {
			for j := range seatBids[i].Bid {
				seatBids[i].Bid[j].ImpID = impID
			}
		}
		resolved = append(resolved, seatBids...)
	}

	return mergeSameSeatSeatBids(resolved), nil
}

func resolveSeatBids(directive storedResponse, fetched map[string]json.RawMessage, impID string) ([]openrtb2.SeatBid, error) {
	switch stored := directive.(type) {
	case storedResponseObject:
		// The inline payload is copied so impid rewriting never mutates the request.
		seatBids := make([]openrtb2.SeatBid, len(stored.seatBids))
		copy(seatBids, stored.seatBids)
		for i := range seatBids {
			seatBids[i].Bid = append([]openrtb2.Bid(nil), seatBids[i].Bid...)
		}
		return seatBids, nil
	case storedResponseID:
		rawSeatBids, ok := fetched[stored.id]
		if !ok || len(rawSeatBids) == 0 {
			return nil, &errortypes.BadInput{
				Message: fmt.Sprintf("Failed to fetch stored auction response for impId = %s and storedAuctionResponse id = %s.", impID, stored.id),
			}
		}
		return parseSeatBids(stored.id, rawSeatBids)
	default:
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("Unknown stored response directive for impId = %s.", impID)}
	}
}

func parseSeatBids(id string, rawSeatBids json.RawMessage) ([]openrtb2.SeatBid, error) {
	var seatBids []openrtb2.SeatBid
	if err := jsonutil.UnmarshalValid(rawSeatBids, &seatBids); err != nil {
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("Can't parse Json for stored response with id %s", id)}
	}
	return seatBids, nil
}

func validateStoredSeatBids(seatBids []openrtb2.SeatBid) error {
	for _, seatBid := range seatBids {
		if len(seatBid.Seat) == 0 {
			return &errortypes.BadInput{Message: "Seat can't be empty in stored response seatBid"}
		}
		if len(seatBid.Bid) == 0 {
			return &errortypes.BadInput{Message: "There must be at least one bid in stored response seatBid"}
		}
	}
	return nil
}

// mergeSameSeatSeatBids coalesces seat bid fragments sharing a seat into one
// SeatBid: bids concatenate in encounter order and ext is taken from the first
// fragment carrying one. A stored directive split across impressions for the
// same bidder lands in a single SeatBid this way.
func mergeSameSeatSeatBids(seatBids []openrtb2.SeatBid) []openrtb2.SeatBid {
	merged := make([]openrtb2.SeatBid, 0, len(seatBids))
	seatIndex := make(map[string]int)

	for _, seatBid := range seatBids {
		i, ok := seatIndex[seatBid.Seat]
		if !ok {
			seatIndex[seatBid.Seat] = len(merged)
			merged = append(merged, openrtb2.SeatBid{
				Seat: seatBid.Seat,
				Bid:  append([]openrtb2.Bid(nil), seatBid.Bid...),
				Ext:  seatBid.Ext,
			})
			continue
		}

		merged[i].Bid = append(merged[i].Bid, seatBid.Bid...)
		if merged[i].Ext == nil {
			merged[i].Ext = seatBid.Ext
		}
	}

	return merged
}

// mapStoredBidResponses resolves bid-level directive ids against the fetch
// result, producing per-impression bidder-keyed payload maps.
func mapStoredBidResponses(directives *impDirectives, fetched map[string]json.RawMessage) (ImpBidderStoredResp, error) {
	if len(directives.bidResponseIDs) == 0 {
		return nil, nil
	}

	storedBidResponses := make(ImpBidderStoredResp, len(directives.bidResponseIDs))
	for impID, bidderIDs := range directives.bidResponseIDs {
		bidderResponses := NewBidderKeyedResponses()
		for bidder, id := range bidderIDs {
			data, ok := fetched[id]
			if !ok || len(data) == 0 {
				return nil, &errortypes.BadInput{
					Message: fmt.Sprintf("Failed to fetch stored bid response for impId = %s, bidder = %s and storedBidResponse id = %s.", impID, bidder, id),
				}
			}
			bidderResponses.Set(bidder, data)
		}
		storedBidResponses[impID] = bidderResponses
	}

	return storedBidResponses, nil
}

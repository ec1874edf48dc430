package stored_responses

import (
	"strings"

	"github.com/buger/jsonparser"
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/prebid/auction-reconciler/errortypes"
	"github.com/prebid/auction-reconciler/exchange"
	"github.com/prebid/auction-reconciler/exchange/entities"
	"github.com/prebid/auction-reconciler/openrtb_ext"
	"github.com/prebid/auction-reconciler/util/jsonutil"
)

const (
	defaultBidCurrency = "USD"

	// ImpIDMacro is the placeholder stored bid response payloads use in place
	// of a concrete impression id.
	ImpIDMacro = "##PBSIMPID##"
)

// UpdateStoredBidResponse substitutes the impression id macro in bids coming
// from stored bid responses. It applies only to participations whose bidder
// request carries a stored response marker and exactly one impression; all
// other participations pass through unchanged.
func UpdateStoredBidResponse(participations []entities.AuctionParticipation) []entities.AuctionParticipation {
	updated := make([]entities.AuctionParticipation, len(participations))
	for i, participation := range participations {
		updated[i] = substituteImpID(participation)
	}
	return updated
}

func substituteImpID(participation entities.AuctionParticipation) entities.AuctionParticipation {
	bidderRequest := participation.BidderRequest
	if bidderRequest.BidRequest == nil || len(bidderRequest.StoredResponse) == 0 {
		return participation
	}

	imps := bidderRequest.BidRequest.Imp
	if len(imps) != 1 {
		return participation
	}
	impID := imps[0].ID

	seatBid := participation.BidderResponse.SeatBid
	bids := make([]*entities.BidderBid, len(seatBid.Bids))
	for i, bidderBid := range seatBid.Bids {
		bids[i] = resolveBidImpID(bidderBid, impID)
	}

	return participation.WithResponse(
		participation.BidderResponse.WithSeatBid(entities.BidderSeatBid{Bids: bids}))
}

func resolveBidImpID(bidderBid *entities.BidderBid, impID string) *entities.BidderBid {
	if bidderBid == nil || bidderBid.Bid == nil || !strings.Contains(bidderBid.Bid.ImpID, ImpIDMacro) {
		return bidderBid
	}

	bid := *bidderBid.Bid
	bid.ImpID = strings.ReplaceAll(bid.ImpID, ImpIDMacro, impID)

	updated := *bidderBid
	updated.Bid = &bid
	return &updated
}

// MergeWithBidderResponses merges resolved stored seat bids into the live
// auction participations. Bidders present only in the stored set get a
// synthesized participation; participations blocked upstream pass through
// untouched. After the merge, every bidder's rejection tracker re-evaluates
// its provisional rejections against the enlarged bid set.
func MergeWithBidderResponses(
	participations []entities.AuctionParticipation,
	storedSeatBids []openrtb2.SeatBid,
	imps []openrtb2.Imp,
	trackers map[string]exchange.BidRejectionNotifier,
) ([]entities.AuctionParticipation, error) {

	if len(storedSeatBids) == 0 {
		return participations, nil
	}

	seatBidsByBidder := make(map[string]*openrtb2.SeatBid, len(storedSeatBids))
	for i := range storedSeatBids {
		seatBidsByBidder[storedSeatBids[i].Seat] = &storedSeatBids[i]
	}

	impTypes := make(map[string]openrtb_ext.BidType, len(imps))
	for _, imp := range imps {
		impTypes[imp.ID] = resolveBidType(imp)
	}

	// Live participations keep their order; stored-only bidders follow in
	// stored seat bid order.
	merged := make([]entities.AuctionParticipation, 0, len(participations)+len(storedSeatBids))
	seenBidders := make(map[string]struct{}, len(participations))

	for _, participation := range participations {
		seenBidders[participation.Bidder] = struct{}{}
		updated, err := mergeParticipation(participation, seatBidsByBidder[participation.Bidder], impTypes)
		if err != nil {
			return nil, err
		}
		merged = append(merged, updated)
	}

	for i := range storedSeatBids {
		seat := storedSeatBids[i].Seat
		if _, ok := seenBidders[seat]; ok {
			continue
		}
		synthesized, err := synthesizeParticipation(&storedSeatBids[i], impTypes)
		if err != nil {
			return nil, err
		}
		merged = append(merged, synthesized)
	}

	for i := range merged {
		if tracker, ok := trackers[merged[i].Bidder]; ok && tracker != nil {
			tracker.RestoreFromRejection(merged[i].BidderResponse.SeatBid.Bids)
		}
	}

	return merged, nil
}

func mergeParticipation(
	participation entities.AuctionParticipation,
	storedSeatBid *openrtb2.SeatBid,
	impTypes map[string]openrtb_ext.BidType,
) (entities.AuctionParticipation, error) {

	if participation.RequestBlocked || storedSeatBid == nil {
		return participation, nil
	}

	liveBids := participation.BidderResponse.SeatBid.Bids
	currency := sharedBidCurrency(liveBids)

	storedBids, err := makeBidderBids(storedSeatBid, currency, impTypes)
	if err != nil {
		return participation, err
	}

	bids := append(storedBids, liveBids...)
	return participation.WithResponse(
		participation.BidderResponse.WithSeatBid(entities.BidderSeatBid{Bids: bids})), nil
}

func synthesizeParticipation(
	storedSeatBid *openrtb2.SeatBid,
	impTypes map[string]openrtb_ext.BidType,
) (entities.AuctionParticipation, error) {

	bids, err := makeBidderBids(storedSeatBid, defaultBidCurrency, impTypes)
	if err != nil {
		return entities.AuctionParticipation{}, err
	}

	bidder := storedSeatBid.Seat
	return entities.AuctionParticipation{
		Bidder: bidder,
		BidderResponse: entities.BidderResponse{
			Bidder:  bidder,
			SeatBid: entities.BidderSeatBid{Bids: bids},
		},
	}, nil
}

func sharedBidCurrency(bids []*entities.BidderBid) string {
	for _, bid := range bids {
		if bid != nil && len(bid.BidCurrency) > 0 {
			return bid.BidCurrency
		}
	}
	return defaultBidCurrency
}

func makeBidderBids(seatBid *openrtb2.SeatBid, currency string, impTypes map[string]openrtb_ext.BidType) ([]*entities.BidderBid, error) {
	bids := make([]*entities.BidderBid, 0, len(seatBid.Bid))
	for i := range seatBid.Bid {
		bid := &seatBid.Bid[i]
		bidType, err := getBidType(bid.Ext, impTypes[bid.ImpID])
		if err != nil {
			return nil, err
		}
		bids = append(bids, &entities.BidderBid{
			Bid:         bid,
			BidType:     bidType,
			Seat:        seatBid.Seat,
			BidCurrency: currency,
		})
	}
	return bids, nil
}

// getBidType prefers the explicit bid.ext.prebid.type and falls back to the
// media type declared by the impression the bid answers.
func getBidType(bidExt []byte, impType openrtb_ext.BidType) (openrtb_ext.BidType, error) {
	fallback := impType
	if len(fallback) == 0 {
		fallback = openrtb_ext.BidTypeBanner
	}

	if len(bidExt) == 0 {
		return fallback, nil
	}

	prebidExt, dataType, _, err := jsonparser.Get(bidExt, "prebid")
	if dataType == jsonparser.NotExist {
		return fallback, nil
	}
	if err != nil {
		return "", &errortypes.FailedToRequestBids{Message: "Error decoding stored response bid.ext.prebid"}
	}

	var extBidPrebid openrtb_ext.ExtBidPrebid
	if err := jsonutil.UnmarshalValid(prebidExt, &extBidPrebid); err != nil {
		return "", &errortypes.FailedToRequestBids{Message: "Error decoding stored response bid.ext.prebid"}
	}

	if len(extBidPrebid.Type) > 0 {
		if _, err := openrtb_ext.ParseBidType(string(extBidPrebid.Type)); err != nil {
			return "", &errortypes.FailedToRequestBids{Message: "Error decoding stored response bid.ext.prebid"}
		}
		return extBidPrebid.Type, nil
	}
	return fallback, nil
}

// resolveBidType picks the impression's media type with a fixed fallback
// order: banner wins over video, video over native, native over audio. An
// impression with no media object defaults to banner.
func resolveBidType(imp openrtb2.Imp) openrtb_ext.BidType {
	switch {
	case imp.Banner != nil:
		return openrtb_ext.BidTypeBanner
	case imp.Video != nil:
		return openrtb_ext.BidTypeVideo
	case imp.Native != nil:
		return openrtb_ext.BidTypeNative
	case imp.Audio != nil:
		return openrtb_ext.BidTypeAudio
	default:
		return openrtb_ext.BidTypeBanner
	}
}

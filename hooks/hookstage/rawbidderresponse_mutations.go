package hookstage

import (
	"errors"

	"github.com/prebid/auction-reconciler/exchange/entities"
)

func (c *ChangeSet[T]) RawBidderResponse() ChangeSetRawBidderResponse[T] {
	return ChangeSetRawBidderResponse[T]{changeSet: c}
}

type ChangeSetRawBidderResponse[T any] struct {
	changeSet *ChangeSet[T]
}

func (c ChangeSetRawBidderResponse[T]) Bids() ChangeSetBids[T] {
	return ChangeSetBids[T]{changeSetRawBidderResponse: c}
}

func (c ChangeSetRawBidderResponse[T]) castPayload(p T) (RawBidderResponsePayload, error) {
	if payload, ok := any(p).(RawBidderResponsePayload); ok {
		return payload, nil
	}
	return RawBidderResponsePayload{}, errors.New("failed to cast RawBidderResponsePayload")
}

type ChangeSetBids[T any] struct {
	changeSetRawBidderResponse ChangeSetRawBidderResponse[T]
}

// Update replaces the list of bids present in the bidder response.
func (c ChangeSetBids[T]) Update(bids []*entities.BidderBid) {
	c.changeSetRawBidderResponse.changeSet.AddMutation(func(p T) (T, error) {
		payload, err := c.changeSetRawBidderResponse.castPayload(p)
		if err != nil {
			return p, err
		}
		payload.Bids = bids
		if updated, ok := any(payload).(T); ok {
			return updated, nil
		}
		return p, errors.New("failed to cast RawBidderResponsePayload")
	}, MutationUpdate, "bids")
}

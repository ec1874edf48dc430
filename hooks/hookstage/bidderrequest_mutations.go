package hookstage

import (
	"errors"

	"github.com/prebid/openrtb/v20/adcom1"
)

func (c *ChangeSet[T]) BidderRequest() ChangeSetBidderRequest[T] {
	return ChangeSetBidderRequest[T]{changeSet: c}
}

type ChangeSetBidderRequest[T any] struct {
	changeSet *ChangeSet[T]
}

func (c ChangeSetBidderRequest[T]) BAdv() ChangeSetBAdv[T] {
	return ChangeSetBAdv[T]{changeSetBidderRequest: c}
}

func (c ChangeSetBidderRequest[T]) BCat() ChangeSetBCat[T] {
	return ChangeSetBCat[T]{changeSetBidderRequest: c}
}

func (c ChangeSetBidderRequest[T]) BApp() ChangeSetBApp[T] {
	return ChangeSetBApp[T]{changeSetBidderRequest: c}
}

func (c ChangeSetBidderRequest[T]) CatTax() ChangeSetCatTax[T] {
	return ChangeSetCatTax[T]{changeSetBidderRequest: c}
}

func (c ChangeSetBidderRequest[T]) castPayload(p T) (BidderRequestPayload, error) {
	if payload, ok := any(p).(BidderRequestPayload); ok {
		if payload.Request == nil {
			return BidderRequestPayload{}, errors.New("payload contains a nil bid request")
		}
		return payload, nil
	}
	return BidderRequestPayload{}, errors.New("failed to cast BidderRequestPayload")
}

func (c ChangeSetBidderRequest[T]) update(key string, updater func(payload BidderRequestPayload)) {
	c.changeSet.AddMutation(func(p T) (T, error) {
		payload, err := c.castPayload(p)
		if err != nil {
			return p, err
		}
		updater(payload)
		return p, nil
	}, MutationUpdate, "bidrequest", key)
}

type ChangeSetBAdv[T any] struct {
	changeSetBidderRequest ChangeSetBidderRequest[T]
}

func (c ChangeSetBAdv[T]) Update(badv []string) {
	c.changeSetBidderRequest.update("badv", func(payload BidderRequestPayload) {
		payload.Request.BAdv = badv
	})
}

type ChangeSetBCat[T any] struct {
	changeSetBidderRequest ChangeSetBidderRequest[T]
}

func (c ChangeSetBCat[T]) Update(bcat []string) {
	c.changeSetBidderRequest.update("bcat", func(payload BidderRequestPayload) {
		payload.Request.BCat = bcat
	})
}

type ChangeSetBApp[T any] struct {
	changeSetBidderRequest ChangeSetBidderRequest[T]
}

func (c ChangeSetBApp[T]) Update(bapp []string) {
	c.changeSetBidderRequest.update("bapp", func(payload BidderRequestPayload) {
		payload.Request.BApp = bapp
	})
}

type ChangeSetCatTax[T any] struct {
	changeSetBidderRequest ChangeSetBidderRequest[T]
}

func (c ChangeSetCatTax[T]) Update(cattax adcom1.CategoryTaxonomy) {
	c.changeSetBidderRequest.update("cattax", func(payload BidderRequestPayload) {
		payload.Request.CatTax = cattax
	})
}

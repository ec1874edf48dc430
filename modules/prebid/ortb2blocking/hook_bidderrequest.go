package ortb2blocking

import (
	"errors"

	"github.com/prebid/auction-reconciler/hooks/hookstage"
	"github.com/prebid/auction-reconciler/openrtb_ext"
	"github.com/prebid/auction-reconciler/util/ptrutil"
)

// handleBidderRequestHook patches the outgoing request with the account's
// blocked values wherever the request left an attribute empty, and snapshots
// the effective values into the module context so the response stage enforces
// exactly what this bidder was told.
func handleBidderRequestHook(
	cfg config,
	payload hookstage.BidderRequestPayload,
) (result hookstage.HookResult[hookstage.BidderRequestPayload], err error) {
	if payload.Request == nil {
		return result, errors.New("payload contains a nil bid request")
	}

	changeSet := hookstage.ChangeSet[hookstage.BidderRequestPayload]{}
	attributes := blockedAttributes{}

	updateBAdv(cfg, payload, &attributes, &changeSet)
	updateBCat(cfg, payload, &attributes, &changeSet)
	updateBApp(cfg, payload, &attributes, &changeSet)
	updateBAttr(cfg, payload, &attributes, &changeSet)
	updateCatTax(cfg, payload, &attributes, &changeSet)

	result.ChangeSet = changeSet
	result.ModuleContext = hookstage.ModuleContext{payload.Bidder: attributes}

	return result, nil
}

func updateBAdv(
	cfg config,
	payload hookstage.BidderRequestPayload,
	attributes *blockedAttributes,
	changeSet *hookstage.ChangeSet[hookstage.BidderRequestPayload],
) {
	if len(payload.Request.BAdv) > 0 {
		attributes.bAdv = payload.Request.BAdv
		return
	}

	if cfg.Attributes.Badv == nil || len(cfg.Attributes.Badv.Blocked) == 0 {
		return
	}

	attributes.bAdv = cfg.Attributes.Badv.Blocked
	changeSet.BidderRequest().BAdv().Update(attributes.bAdv)
}

func updateBCat(
	cfg config,
	payload hookstage.BidderRequestPayload,
	attributes *blockedAttributes,
	changeSet *hookstage.ChangeSet[hookstage.BidderRequestPayload],
) {
	if len(payload.Request.BCat) > 0 {
		attributes.bCat = payload.Request.BCat
		return
	}

	if cfg.Attributes.Bcat == nil || len(cfg.Attributes.Bcat.Blocked) == 0 {
		return
	}

	attributes.bCat = cfg.Attributes.Bcat.Blocked
	changeSet.BidderRequest().BCat().Update(attributes.bCat)
}

func updateBApp(
	cfg config,
	payload hookstage.BidderRequestPayload,
	attributes *blockedAttributes,
	changeSet *hookstage.ChangeSet[hookstage.BidderRequestPayload],
) {
	if len(payload.Request.BApp) > 0 {
		attributes.bApp = payload.Request.BApp
		return
	}

	if cfg.Attributes.Bapp == nil || len(cfg.Attributes.Bapp.Blocked) == 0 {
		return
	}

	attributes.bApp = cfg.Attributes.Bapp.Blocked
	changeSet.BidderRequest().BApp().Update(attributes.bApp)
}

// updateBAttr handles banner creative attributes per impression. Impressions
// already declaring banner.battr keep their own values; the rest inherit the
// account's blocked set.
func updateBAttr(
	cfg config,
	payload hookstage.BidderRequestPayload,
	attributes *blockedAttributes,
	changeSet *hookstage.ChangeSet[hookstage.BidderRequestPayload],
) {
	battrByImp := map[string][]int{}
	patchedImps := map[string]struct{}{}

	for _, imp := range payload.Request.Imp {
		if imp.Banner == nil {
			continue
		}

		if len(imp.Banner.BAttr) > 0 {
			battrByImp[imp.ID] = toInt(imp.Banner.BAttr)
			continue
		}

		if cfg.Attributes.Battr != nil && len(cfg.Attributes.Battr.Blocked) > 0 {
			battrByImp[imp.ID] = cfg.Attributes.Battr.Blocked
			patchedImps[imp.ID] = struct{}{}
		}
	}

	if len(battrByImp) > 0 {
		attributes.bAttr = map[openrtb_ext.BidType]map[string][]int{
			openrtb_ext.BidTypeBanner: battrByImp,
		}
	}

	if len(patchedImps) > 0 {
		changeSet.AddMutation(
			bannerBAttrMutation(battrByImp, patchedImps),
			hookstage.MutationUpdate, "bidrequest", "imp", "banner", "battr")
	}
}

func bannerBAttrMutation(
	battrByImp map[string][]int,
	patchedImps map[string]struct{},
) hookstage.MutationFunc[hookstage.BidderRequestPayload] {
	return func(payload hookstage.BidderRequestPayload) (hookstage.BidderRequestPayload, error) {
		for i, imp := range payload.Request.Imp {
			if _, ok := patchedImps[imp.ID]; !ok {
				continue
			}
			if imp.Banner == nil {
				continue
			}

			banner := *imp.Banner
			banner.BAttr = toCreativeAttributes(battrByImp[imp.ID])
			imp.Banner = &banner
			payload.Request.Imp[i] = imp
		}
		return payload, nil
	}
}

func updateCatTax(
	cfg config,
	payload hookstage.BidderRequestPayload,
	attributes *blockedAttributes,
	changeSet *hookstage.ChangeSet[hookstage.BidderRequestPayload],
) {
	if payload.Request.CatTax > 0 {
		attributes.catTaxComplement = ptrutil.ToPtr(payload.Request.CatTax)
		return
	}

	if cfg.Attributes.Bcat == nil || cfg.Attributes.Bcat.CategoryTaxonomy == 0 {
		return
	}

	attributes.catTaxComplement = ptrutil.ToPtr(cfg.Attributes.Bcat.CategoryTaxonomy)
	changeSet.BidderRequest().CatTax().Update(cfg.Attributes.Bcat.CategoryTaxonomy)
}

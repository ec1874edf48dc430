// Package ortb2blocking stops bids with blocked attributes from entering the
// auction. The bidder request hook seeds outgoing requests with the account's
// blocked values; the raw bidder response hook enforces them on the bids that
// come back.
package ortb2blocking

import (
	"context"
	"encoding/json"

	"github.com/prebid/auction-reconciler/hooks/hookstage"
	"github.com/prebid/auction-reconciler/metrics"
)

// ModuleDeps carries the host dependencies the module needs at build time.
type ModuleDeps struct {
	Metrics *metrics.Metrics
}

func Builder(_ json.RawMessage, deps ModuleDeps) (interface{}, error) {
	return Module{metrics: deps.Metrics}, nil
}

type Module struct {
	metrics *metrics.Metrics
}

// HandleBidderRequestHook updates blocking fields on the bidder request.
func (m Module) HandleBidderRequestHook(
	_ context.Context,
	miCtx hookstage.ModuleInvocationContext,
	payload hookstage.BidderRequestPayload,
) (hookstage.HookResult[hookstage.BidderRequestPayload], error) {
	cfg, err := newConfig(miCtx.AccountConfig)
	if err != nil {
		return hookstage.HookResult[hookstage.BidderRequestPayload]{}, err
	}
	return handleBidderRequestHook(cfg, payload)
}

// HandleRawBidderResponseHook rejects bids with blocked attributes.
func (m Module) HandleRawBidderResponseHook(
	_ context.Context,
	miCtx hookstage.ModuleInvocationContext,
	payload hookstage.RawBidderResponsePayload,
) (hookstage.HookResult[hookstage.RawBidderResponsePayload], error) {
	return handleRawBidderResponseHook(m.metrics, miCtx, payload)
}

package ortb2blocking

import (
	"github.com/prebid/auction-reconciler/hooks/hookanalytics"
	"github.com/prebid/auction-reconciler/hooks/hookstage"
)

const enforceBlockingTag = "enforce_blocking"

const (
	attributesAnalyticKey = "attributes"
	badvAnalyticKey       = "adomain"
	cattaxAnalyticKey     = "bcat"
	bappAnalyticKey       = "bundle"
	battrAnalyticKey      = "attr"
)

// The module has only one activity, `enforce_blocking`, used in further result processing.
func newEnforceBlockingTags() hookanalytics.Analytics {
	return hookanalytics.Analytics{
		Activities: []hookanalytics.Activity{
			{
				Name:   enforceBlockingTag,
				Status: hookanalytics.ActivityStatusSuccess,
			},
		},
	}
}

func addFailedStatusTag(result *hookstage.HookResult[hookstage.RawBidderResponsePayload]) {
	result.AnalyticsTags.Activities[0].Status = hookanalytics.ActivityStatusError
}

func addAnalyticTags(
	result *hookstage.HookResult[hookstage.RawBidderResponsePayload],
	analyticsResults []analyticsResult,
) {
	for _, analytics := range analyticsResults {
		result.AnalyticsTags.Activities[0].Results = append(
			result.AnalyticsTags.Activities[0].Results,
			hookanalytics.Result{
				Status: toHookAnalyticsStatus(analytics.Status),
				Values: analytics.Values,
				AppliedTo: hookanalytics.AppliedTo{
					Bidder: analytics.Bidder,
					ImpIds: []string{analytics.ImpID},
				},
			})
	}
}

func toHookAnalyticsStatus(status string) hookanalytics.ResultStatus {
	if status == analyticsResultStatusBlocked {
		return hookanalytics.ResultStatusBlock
	}
	return hookanalytics.ResultStatusAllow
}

// most of the attributes have their own representation for an analytic key
func analyticKeyFor(attrName string) string {
	switch attrName {
	case attributeBadv:
		return badvAnalyticKey
	case attributeCattax:
		return cattaxAnalyticKey
	case attributeBapp:
		return bappAnalyticKey
	case attributeBattr:
		return battrAnalyticKey
	default:
		return attrName
	}
}

package ortb2blocking

const (
	analyticsResultStatusBlocked = "success-blocked"
	analyticsResultStatusAllowed = "success-allow"
)

// analyticsResult describes one enforcement decision for one bid or, for
// allow records, for one impression.
type analyticsResult struct {
	Status string
	Values map[string]interface{}
	Bidder string
	ImpID  string
}

func blockedAnalyticsResult(bidder, impID string, values map[string]interface{}) analyticsResult {
	return analyticsResult{
		Status: analyticsResultStatusBlocked,
		Values: values,
		Bidder: bidder,
		ImpID:  impID,
	}
}

func allowedAnalyticsResult(bidder, impID string) analyticsResult {
	return analyticsResult{
		Status: analyticsResultStatusAllowed,
		Bidder: bidder,
		ImpID:  impID,
	}
}

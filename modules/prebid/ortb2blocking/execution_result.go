package ortb2blocking

// executionResult is the terminal outcome of an enforcement pass. A result
// either carries a value, carries errors, or is empty; analytics records and
// debug messages ride along in every case.
type executionResult[T any] struct {
	Value            *T
	Errors           []string
	Warnings         []string
	DebugMessages    []string
	AnalyticsResults []analyticsResult
}

func emptyExecutionResult[T any]() executionResult[T] {
	return executionResult[T]{}
}

func (r executionResult[T]) hasValue() bool {
	return r.Value != nil
}

func (r executionResult[T]) hasErrors() bool {
	return len(r.Errors) > 0
}

// blockedBids is the set of bid positions, ascending, that failed enforcement
// and must be removed from the bidder's response.
type blockedBids struct {
	Indexes []int
}

func (b blockedBids) contains(index int) bool {
	for _, i := range b.Indexes {
		if i == index {
			return true
		}
	}
	return false
}

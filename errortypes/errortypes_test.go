package errortypes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadCode(t *testing.T) {
	testCases := []struct {
		description string
		err         error
		expected    int
	}{
		{
			description: "coder errors report their own code",
			err:         &BadInput{Message: "oops"},
			expected:    BadInputErrorCode,
		},
		{
			description: "timeouts have a dedicated code",
			err:         &Timeout{Message: "too slow"},
			expected:    TimeoutErrorCode,
		},
		{
			description: "bidder data failures have a dedicated code",
			err:         &FailedToRequestBids{Message: "bad ext"},
			expected:    FailedToRequestBidsErrorCode,
		},
		{
			description: "plain errors fall back to the unknown code",
			err:         errors.New("anything"),
			expected:    UnknownErrorCode,
		},
	}

	for _, test := range testCases {
		assert.Equal(t, test.expected, ReadCode(test.err), test.description)
	}
}

func TestContainsFatalError(t *testing.T) {
	assert.False(t, ContainsFatalError(nil))
	assert.True(t, ContainsFatalError([]error{errors.New("plain errors are fatal")}))
	assert.True(t, ContainsFatalError([]error{&BadInput{Message: "oops"}}))
}

func TestFatalOnly(t *testing.T) {
	errs := []error{
		&BadInput{Message: "fatal"},
		errors.New("also fatal"),
	}

	assert.Len(t, FatalOnly(errs), 2)
}

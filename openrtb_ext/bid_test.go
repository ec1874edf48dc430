package openrtb_ext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBidType(t *testing.T) {
	for _, bidType := range BidTypes() {
		parsed, err := ParseBidType(string(bidType))
		require.NoError(t, err)
		assert.Equal(t, bidType, parsed)
	}
}

func TestParseBidTypeInvalid(t *testing.T) {
	_, err := ParseBidType("unknown")

	require.Error(t, err)
	assert.Equal(t, "invalid BidType: unknown", err.Error())
}

func TestOrtbVersionSupportsCatTax(t *testing.T) {
	assert.False(t, OrtbVersion25.SupportsCatTax())
	assert.True(t, OrtbVersion26.SupportsCatTax())
}

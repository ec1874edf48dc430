package ortb2blocking

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/prebid/openrtb/v20/adcom1"

	"github.com/prebid/auction-reconciler/util/jsonutil"
)

var errAttributesNotObject = errors.New("attributes field in account configuration is not an object")

func newConfig(data json.RawMessage) (config, error) {
	var cfg config
	if len(data) == 0 {
		return cfg, nil
	}

	if _, dataType, _, err := jsonparser.Get(data, "attributes"); dataType != jsonparser.NotExist {
		if err != nil || dataType != jsonparser.Object {
			return cfg, errAttributesNotObject
		}
	}

	if err := jsonutil.UnmarshalValid(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %s", err)
	}
	return cfg, nil
}

type config struct {
	Attributes attributes `json:"attributes"`
}

// hasBlockingAttributes reports whether the account configured at least one
// attribute policy. Without any, blocking is a no-op.
func (c config) hasBlockingAttributes() bool {
	a := c.Attributes
	return a.Badv != nil || a.Bcat != nil || a.Bapp != nil || a.Battr != nil
}

type attributes struct {
	Badv  *attribute[string] `json:"badv"`
	Bcat  *bcatAttribute     `json:"bcat"`
	Bapp  *attribute[string] `json:"bapp"`
	Battr *attribute[int]    `json:"battr"`
}

// attribute is the per-attribute blocking policy. Blocked holds the values to
// patch into outgoing requests when the request left the field empty;
// enforcement on incoming bids only happens when EnforceBlocks is set.
type attribute[T string | int] struct {
	EnforceBlocks   bool `json:"enforce-blocks"`
	BlockUnknown    bool `json:"block-unknown"`
	Blocked         []T  `json:"blocked"`
	AllowedForDeals []T  `json:"allowed-for-deals"`
}

type bcatAttribute struct {
	attribute[string]
	CategoryTaxonomy adcom1.CategoryTaxonomy `json:"category-taxonomy"`
}

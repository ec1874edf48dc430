package jsonutil

import (
	jsoniter "github.com/json-iterator/go"
)

var jsonConfigValidationOn = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// UnmarshalValid unmarshals json and fails on malformed or trailing content,
// unlike encoding/json which tolerates some of it.
func UnmarshalValid(data []byte, v interface{}) error {
	return jsonConfigValidationOn.Unmarshal(data, v)
}

func Marshal(v interface{}) ([]byte, error) {
	return jsonConfigValidationOn.Marshal(v)
}

package json

import (
	jsoniter "github.com/json-iterator/go"
)

// records renders log payloads: map keys sorted so output is stable, HTML
// left alone since the output is never embedded in a page.
var records = jsoniter.Config{
	SortMapKeys:            true,
	EscapeHTML:             false,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// Marshal encodes v with sorted map keys.
func Marshal(v any) ([]byte, error) {
	return records.Marshal(v)
}

// MarshalToString encodes v with sorted map keys.
func MarshalToString(v any) (string, error) {
	return records.MarshalToString(v)
}

// Unmarshal decodes data into v. Numbers decode as jsoniter.Number when v is
// an interface.
func Unmarshal(data []byte, v any) error {
	return records.Unmarshal(data, v)
}

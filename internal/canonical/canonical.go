// Package canonical produces a deterministic, key-sorted JSON serialization.
// It is the mandatory choke point for anything that gets signed: two
// semantically equal documents must canonicalize to identical bytes, or
// signature verification becomes byte-order roulette.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Marshal serializes v to canonical JSON: object keys sorted, no
// insignificant whitespace, numbers preserved digit-for-digit.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical: marshaling input: %w", err)
	}
	return Normalize(raw)
}

// Normalize re-encodes a JSON document into canonical form. Decoding into
// generic values and re-encoding sorts object keys (encoding/json emits map
// keys sorted); json.Number keeps the original digits so 1e3 and 1000 do not
// silently collide or diverge across round trips.
func Normalize(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("canonical: decoding input: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("canonical: trailing data after JSON value")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("canonical: encoding: %w", err)
	}
	// Encoder appends a newline; canonical form has none.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// decodeOrderedObject reads a JSON object's top-level keys in declaration
// order, returning both the order and the raw value per key. The model's
// insertion order must be preserved end-to-end (spec §5 "Ordering
// guarantees"), which a plain map[string]json.RawMessage would lose.
func decodeOrderedObject(data []byte) (order []string, raw map[string]json.RawMessage, err error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected JSON object")
	}

	raw = make(map[string]json.RawMessage)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected string object key")
		}

		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, nil, fmt.Errorf("key %q: %w", key, err)
		}

		order = append(order, key)
		raw[key] = val
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}

	return order, raw, nil
}

// requireExactKeys errors if raw's key set does not equal exactly `required`
// plus any of `optional` (spec §4.2 "key set ≠ ... exact match").
func requireExactKeys(context string, raw map[string]json.RawMessage, required, optional []string) error {
	allowed := make(map[string]bool, len(required)+len(optional))
	for _, k := range required {
		allowed[k] = true
	}
	for _, k := range optional {
		allowed[k] = true
	}

	for _, k := range required {
		if _, ok := raw[k]; !ok {
			return fmt.Errorf("%s: missing required key %q", context, k)
		}
	}
	for k := range raw {
		if !allowed[k] {
			return fmt.Errorf("%s: unexpected key %q", context, k)
		}
	}
	return nil
}

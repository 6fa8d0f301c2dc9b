package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/oprouter/internal/layout"
)

// marshalLayout converts a layout to JSON TEXT for storage.
// HTML escaping is disabled so identifiers are stored as written.
func marshalLayout(l *layout.Layout) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(l); err != nil {
		return "", fmt.Errorf("marshal layout: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalLayout parses stored JSON TEXT. Unknown fields are rejected so a
// document written by a newer schema fails loudly.
func unmarshalLayout(data string) (*layout.Layout, error) {
	var l layout.Layout
	dec := json.NewDecoder(strings.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("unmarshal layout: %w", err)
	}
	return &l, nil
}

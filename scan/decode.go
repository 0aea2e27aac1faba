// Package scan decodes the remote service's JSON response envelopes into
// typed model slices. Every collection response wraps its items in an
// object keyed by the element's plural name:
//
//	{"Invoices": [ {...}, {...} ]}
package scan

import (
	"encoding/json"
	"fmt"
)

// DecodeSlice unwraps the named envelope and decodes its items into []T.
// An absent envelope key is an error: the service always echoes the
// envelope, even for empty result sets.
func DecodeSlice[T any](body []byte, envelope string) ([]T, error) {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("scan: decode envelope: %w", err)
	}
	raw, ok := wrapper[envelope]
	if !ok {
		return nil, fmt.Errorf("scan: envelope %q not in response", envelope)
	}

	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("scan: decode %q items: %w", envelope, err)
	}
	return out, nil
}

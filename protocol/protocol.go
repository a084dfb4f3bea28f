// Package protocol defines the JSON wire envelopes exchanged with clients
// and carried on the bus. Every envelope is an object with an "op"
// discriminator and a "d" payload; field names are camelCase and timestamps
// are RFC 3339 UTC.
package protocol

import (
	"encoding/json"
	"fmt"
)

type envelope struct {
	Op string          `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
}

func encode(op string, d any) ([]byte, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode %q payload: %w", op, err)
	}
	data, err := json.Marshal(envelope{Op: op, D: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %q envelope: %w", op, err)
	}
	return data, nil
}

// Package session holds the shared encoding for session store adapters.
package session

import (
	"encoding/json"
	"fmt"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

// Encode serialises session data for storage.
func Encode(data *ports.SessionData) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return raw, nil
}

// Decode restores session data; a nil or empty payload yields an empty session.
func Decode(raw []byte) (*ports.SessionData, error) {
	data := &ports.SessionData{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, data); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
	}
	if data.Cart == nil {
		data.Cart = domain.Cart{}
	}
	return data, nil
}

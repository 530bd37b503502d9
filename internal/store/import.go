package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"

	"github.com/tunermason/SC/internal/domain"
)

// ParseContacts decodes contact records from JSON or JSON with comments.
// Both a single object and an array of objects are accepted.
func ParseContacts(data []byte) ([]domain.Contact, error) {
	stripped := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(stripped) == 0 {
		return nil, fmt.Errorf("parse contacts: empty input")
	}
	if stripped[0] == '{' {
		var c domain.Contact
		if err := json.Unmarshal(stripped, &c); err != nil {
			return nil, fmt.Errorf("parse contacts: %w", err)
		}
		return []domain.Contact{c}, nil
	}
	var cs []domain.Contact
	if err := json.Unmarshal(stripped, &cs); err != nil {
		return nil, fmt.Errorf("parse contacts: %w", err)
	}
	return cs, nil
}

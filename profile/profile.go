// Package profile reads the Azure CLI subscription profile (azureProfile.json).
package profile

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/jrsteele09/azcreds/internal/errors"
)

// utf8BOM is written by the Azure CLI at the start of azureProfile.json on Windows.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Subscription is one entry of the profile's subscription list.
type Subscription struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenantId"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
}

// Profile is the ordered subscription list the Azure CLI knows about.
type Profile struct {
	Subscriptions []Subscription `json:"subscriptions"`
}

// Default returns the subscription marked as default, else the first one.
func (p *Profile) Default() (*Subscription, error) {
	if p == nil || len(p.Subscriptions) == 0 {
		return nil, errors.ErrNoSubscription
	}
	for i := range p.Subscriptions {
		if p.Subscriptions[i].IsDefault {
			return &p.Subscriptions[i], nil
		}
	}
	return &p.Subscriptions[0], nil
}

// Parse decodes a profile document. A missing or empty subscription list is an error.
func Parse(data []byte) (*Profile, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Kind(errors.ErrProfileParse, err)
	}
	if len(p.Subscriptions) == 0 {
		return nil, errors.ErrNoSubscription
	}
	return &p, nil
}

// Load reads and parses the profile at path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Kind(errors.ErrProfileRead, err)
	}
	return Parse(data)
}

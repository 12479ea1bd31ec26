// Package credentials builds and writes the artifact handed to the network phase.
package credentials

import (
	"github.com/jrsteele09/azcreds/internal/errors"
	"github.com/jrsteele09/azcreds/profile"
	"github.com/jrsteele09/azcreds/token"
)

// Bundle is the credential artifact. Every field is always serialized; an
// absent token is written as null because the consumer picks its auth
// strategy from which token is present.
type Bundle struct {
	// RefreshToken is the opaque MSAL refresh token, or nil.
	// Usage: redeemed at https://login.microsoftonline.com/<auth_tenant>/oauth2/v2.0/token
	RefreshToken *string `json:"refresh_token"`

	// AccessToken is a bearer token that outlives the safety margin, or nil.
	// Usage: "Authorization: Bearer <access_token>" against the target resource
	AccessToken *string `json:"access_token"`

	// AuthTenant is the realm the tokens were issued by, or "common".
	AuthTenant string `json:"auth_tenant"`

	// TenantID and SubID come from the default subscription of the profile.
	TenantID string `json:"tenant_id"`
	SubID    string `json:"sub_id"`

	// ClientID is the public client the tokens belong to.
	ClientID string `json:"client_id"`
}

// NewBundle assembles a Bundle from a selection and the default subscription.
func NewBundle(sel *token.Selection, sub *profile.Subscription, clientID string) (*Bundle, error) {
	if sel == nil {
		return nil, errors.Wrapf(errors.ErrNoCredential, "no selection")
	}
	if sub == nil {
		return nil, errors.ErrNoSubscription
	}
	b := &Bundle{
		RefreshToken: sel.RefreshToken,
		AccessToken:  sel.AccessToken,
		AuthTenant:   sel.AuthRealm,
		TenantID:     sub.TenantID,
		SubID:        sub.ID,
		ClientID:     clientID,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate enforces that at least one token is present.
func (b *Bundle) Validate() error {
	if b == nil || (b.AccessToken == nil && b.RefreshToken == nil) {
		return errors.Wrapf(errors.ErrNoCredential, "bundle has neither access nor refresh token")
	}
	return nil
}

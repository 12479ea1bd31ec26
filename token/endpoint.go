package token

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// Endpoint returns the Entra ID authority endpoints for realm, where a
// refresh token selected for that realm is redeemed.
func Endpoint(realm string) oauth2.Endpoint {
	if realm == "" {
		realm = CommonRealm
	}
	return endpoints.AzureAD(realm)
}

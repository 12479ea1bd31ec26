package token

import "strings"

// CommonRealm is the multi-tenant authority used when no tenant can be inferred.
const CommonRealm = "common"

// RealmSource names where a resolved realm came from.
type RealmSource string

const (
	RealmFromAccessToken RealmSource = "access_token"
	RealmFromHomeAccount RealmSource = "home_account_id"
	RealmFallback        RealmSource = "common"
)

const guidLen = 36

// ResolveRealm applies the realm priority: the realm stamped on an access
// token, then the GUID-shaped tail of the home account id, then "common".
func ResolveRealm(accessTokenRealm, homeAccountID string) (string, RealmSource) {
	if accessTokenRealm != "" {
		return accessTokenRealm, RealmFromAccessToken
	}
	if tenant, ok := TenantFromHomeAccountID(homeAccountID); ok {
		return tenant, RealmFromHomeAccount
	}
	return CommonRealm, RealmFallback
}

// TenantFromHomeAccountID returns the segment after the last '.' of an MSAL
// home account id ("<uid>.<utid>") when it has the shape of a GUID: 36
// characters with exactly four hyphens. Hex digits are not checked.
func TenantFromHomeAccountID(homeAccountID string) (string, bool) {
	i := strings.LastIndexByte(homeAccountID, '.')
	if i < 0 {
		return "", false
	}
	tail := homeAccountID[i+1:]
	if len(tail) != guidLen || strings.Count(tail, "-") != 4 {
		return "", false
	}
	return tail, true
}

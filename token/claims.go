package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of an Entra ID access token worth logging.
type Claims struct {
	TenantID  string
	Audience  []string
	Issuer    string
	ExpiresAt time.Time
}

// InspectAccessToken decodes the claims of a JWT access token without
// verifying its signature. The result is for diagnostics only.
func InspectAccessToken(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.New("empty token")
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims")
	}

	c := &Claims{}
	c.TenantID, _ = claims["tid"].(string)
	c.Issuer, _ = claims.GetIssuer()
	if aud, err := claims.GetAudience(); err == nil {
		c.Audience = aud
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

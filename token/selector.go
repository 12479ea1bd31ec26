package token

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jrsteele09/azcreds/internal/errors"
	"github.com/jrsteele09/azcreds/internal/utils"
	"github.com/jrsteele09/azcreds/msalcache"
	"github.com/rs/zerolog"
)

const (
	// DefaultSafetyMargin is the minimum remaining lifetime for an access token to be handed out.
	DefaultSafetyMargin = 30 * time.Second

	logTargetLen = 80
)

// Selection is the credential picked from a cache.
type Selection struct {
	AccessToken          *string
	AccessTokenExpiresOn time.Time
	RefreshToken         *string
	AuthRealm            string
	RealmSource          RealmSource
	// HomeAccountID of the refresh token record the scan matched, including a fallback match.
	HomeAccountID *string
	// RefreshFallback is set when no refresh token matched the client or target
	// and the first record in the cache was taken instead.
	RefreshFallback bool
}

// Selector picks the access token, refresh token and realm for one client and resource.
type Selector struct {
	clientID     string
	target       string
	safetyMargin time.Duration
	nowFunc      func() time.Time
	logger       zerolog.Logger
}

type SelectorOption func(*Selector)

func WithNowFunc(now func() time.Time) SelectorOption {
	return func(s *Selector) {
		s.nowFunc = now
	}
}

func WithSafetyMargin(margin time.Duration) SelectorOption {
	return func(s *Selector) {
		s.safetyMargin = margin
	}
}

func WithLogger(logger zerolog.Logger) SelectorOption {
	return func(s *Selector) {
		s.logger = logger
	}
}

// NewSelector returns a Selector for tokens issued to clientID whose target
// contains targetSubstring.
func NewSelector(clientID, targetSubstring string, options ...SelectorOption) *Selector {
	s := &Selector{
		clientID:     clientID,
		target:       targetSubstring,
		safetyMargin: DefaultSafetyMargin,
		logger:       zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.nowFunc == nil {
		s.nowFunc = time.Now
	}
	return s
}

// Select scans the cache once, in document order. It fails with
// errors.ErrNoCredential when neither a usable access token nor any refresh token exists.
func (s *Selector) Select(cache *msalcache.Cache) (*Selection, error) {
	if cache == nil {
		cache = &msalcache.Cache{}
	}
	sel := &Selection{}

	realm := s.scanAccessTokens(cache.AccessTokens, sel)
	matched := s.scanRefreshTokens(cache.RefreshTokens, sel)

	if sel.AccessToken == nil && sel.RefreshToken == nil {
		return nil, errors.Wrapf(errors.ErrNoCredential, "%d access and %d refresh tokens cached",
			len(cache.AccessTokens), len(cache.RefreshTokens))
	}

	var homeAccountID string
	if matched != nil {
		homeAccountID = matched.HomeAccountID
		sel.HomeAccountID = utils.NonEmpty(homeAccountID)
	}
	sel.AuthRealm, sel.RealmSource = ResolveRealm(realm, homeAccountID)
	return sel, nil
}

// scanAccessTokens records the realm of the first matching record, expired or
// not, and picks the first matching secret that outlives the safety margin.
func (s *Selector) scanAccessTokens(entries []msalcache.Entry, sel *Selection) string {
	var (
		realm      string
		realmFound bool
	)
	now := s.nowFunc().Unix()
	want := strings.ToLower(s.target)

	for _, e := range entries {
		rec := e.Record
		if rec.ClientID != s.clientID {
			continue
		}
		target := strings.ToLower(rec.Target)
		if !strings.Contains(target, want) {
			continue
		}

		expiresOn := rec.ExpiresOn.Unix()
		s.logger.Info().
			Str("realm", rec.Realm).
			Str("expires_in", fmt.Sprintf("%ds", secondsUntil(expiresOn, now))).
			Str("target", utils.Truncate(target, logTargetLen)).
			Msg("MGMT_AT")

		if !realmFound {
			realm, realmFound = rec.Realm, true
		}
		if sel.AccessToken == nil && rec.Secret != "" && expiresOn > now+int64(s.safetyMargin/time.Second) {
			sel.AccessToken = utils.Ptr(rec.Secret)
			sel.AccessTokenExpiresOn = rec.ExpiresOn.Time()
			s.logger.Info().Int("len", len(rec.Secret)).Msg("AT_VALID")
		}
	}
	return realm
}

// scanRefreshTokens takes the first record issued to the client or covering
// the target. With no such record the first cached one is used: a weak
// guess when several applications share the cache, flagged on the Selection.
func (s *Selector) scanRefreshTokens(entries []msalcache.Entry, sel *Selection) *msalcache.Record {
	var matched *msalcache.Record
	for i := range entries {
		rec := &entries[i].Record
		if rec.ClientID == s.clientID || strings.Contains(rec.Target, s.target) {
			matched = rec
			sel.RefreshToken = utils.NonEmpty(rec.Secret)
			s.logger.Info().
				Str("client", rec.ClientID).
				Str("target", utils.Truncate(rec.Target, logTargetLen)).
				Msg("FOUND_RT")
			break
		}
	}

	if sel.RefreshToken == nil && len(entries) > 0 {
		first := &entries[0].Record
		matched = first
		sel.RefreshToken = utils.NonEmpty(first.Secret)
		sel.RefreshFallback = true
		s.logger.Warn().
			Str("client", first.ClientID).
			Str("target", utils.Truncate(first.Target, 60)).
			Msg("FALLBACK_RT")
	}
	return matched
}

// secondsUntil returns expiresOn-now, clamped to the int64 range.
func secondsUntil(expiresOn, now int64) int64 {
	d := expiresOn - now
	if now > 0 && d > expiresOn {
		return math.MinInt64
	}
	if now < 0 && d < expiresOn {
		return math.MaxInt64
	}
	return d
}

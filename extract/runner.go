// Package extract runs the offline phase end to end: profile, cache,
// decryption, selection and the credential artifact, stopping at the first failure.
package extract

import (
	"time"

	"github.com/jrsteele09/azcreds/credentials"
	"github.com/jrsteele09/azcreds/internal/config"
	"github.com/jrsteele09/azcreds/internal/errors"
	"github.com/jrsteele09/azcreds/internal/utils"
	"github.com/jrsteele09/azcreds/msalcache"
	"github.com/jrsteele09/azcreds/profile"
	"github.com/jrsteele09/azcreds/protect"
	"github.com/jrsteele09/azcreds/token"
	"github.com/rs/zerolog"
)

// Config is what a run needs to know.
type Config interface {
	config.PathConfig
	config.IdentityConfig
}

type Runner struct {
	cfg       Config
	protector protect.Protector
	logger    zerolog.Logger
	nowFunc   func() time.Time
}

type RunnerOption func(*Runner)

func WithNowFunc(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.nowFunc = now
	}
}

func NewRunner(cfg Config, protector protect.Protector, logger zerolog.Logger, options ...RunnerOption) *Runner {
	r := &Runner{
		cfg:       cfg,
		protector: protector,
		logger:    logger,
	}
	for _, opt := range options {
		opt(r)
	}
	if r.nowFunc == nil {
		r.nowFunc = time.Now
	}
	return r
}

// Run executes the pipeline. The artifact is written only once a complete
// bundle exists; any error is logged under its stage key and returned.
func (r *Runner) Run() (*credentials.Bundle, error) {
	b, err := r.run()
	if err != nil {
		r.logger.Error().Str(errors.LogKey(err), err.Error()).Send()
		return nil, err
	}
	return b, nil
}

func (r *Runner) run() (*credentials.Bundle, error) {
	l := r.logger
	l.Info().Str("HOME", r.cfg.GetHomeDir()).Send()

	sub, err := r.loadSubscription()
	if err != nil {
		return nil, err
	}

	cache, err := r.loadCache()
	if err != nil {
		return nil, err
	}

	sel, err := token.NewSelector(r.cfg.GetClientID(), r.cfg.GetTargetSubstring(),
		token.WithNowFunc(r.nowFunc),
		token.WithSafetyMargin(r.cfg.GetSafetyMargin()),
		token.WithLogger(l),
	).Select(cache)
	if err != nil {
		return nil, err
	}
	r.logSelection(sel)

	b, err := credentials.NewBundle(sel, sub, r.cfg.GetClientID())
	if err != nil {
		return nil, err
	}
	out := r.cfg.GetOutputFile()
	if err := credentials.Write(out, b); err != nil {
		return nil, errors.Wrapf(err, "writing %s", out)
	}
	l.Info().Str("CREDS_WRITTEN", out).Send()
	l.Info().Msg("COMPLETE")
	return b, nil
}

func (r *Runner) loadSubscription() (*profile.Subscription, error) {
	path := r.cfg.GetProfileFile()
	r.logger.Info().Str("path", path).Msg("Reading profile")

	p, err := profile.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "profile %s", path)
	}
	sub, err := p.Default()
	if err != nil {
		return nil, err
	}
	r.logger.Info().
		Str("SUB_ID", sub.ID).
		Str("TENANT", sub.TenantID).
		Str("NAME", sub.Name).
		Send()
	return sub, nil
}

func (r *Runner) loadCache() (*msalcache.Cache, error) {
	path := r.cfg.GetCacheFile()
	r.logger.Info().Str("path", path).Msg("Reading token cache")

	raw, err := msalcache.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "token cache %s", path)
	}
	r.logger.Info().Int("CACHE_SIZE", len(raw)).Send()

	plaintext, err := r.protector.Decrypt(raw)
	if err != nil {
		if !errors.Is(err, errors.ErrDecryption) {
			err = errors.Kind(errors.ErrDecryption, err)
		}
		return nil, err
	}
	r.logger.Info().Int("len", len(plaintext)).Msg("DPAPI_OK")

	cache, err := msalcache.Parse(plaintext)
	if err != nil {
		return nil, err
	}
	r.logger.Info().Msg("CACHE_PARSED_OK")
	r.logger.Info().
		Int("AT_COUNT", len(cache.AccessTokens)).
		Int("RT_COUNT", len(cache.RefreshTokens)).
		Send()
	return cache, nil
}

func (r *Runner) logSelection(sel *token.Selection) {
	r.logger.Info().
		Str("AUTH_REALM", sel.AuthRealm).
		Str("REALM_SOURCE", string(sel.RealmSource)).
		Str("HAS_AT", utils.YesNo(sel.AccessToken != nil, "no-expired")).
		Str("HAS_RT", utils.YesNo(sel.RefreshToken != nil, "no")).
		Send()
	r.logger.Info().Str("TOKEN_ENDPOINT", token.Endpoint(sel.AuthRealm).TokenURL).Send()

	if sel.AccessToken == nil {
		return
	}
	claims, err := token.InspectAccessToken(*sel.AccessToken)
	if err != nil {
		r.logger.Debug().Err(err).Msg("access token is not a readable JWT")
		return
	}
	r.logger.Info().
		Str("AT_TID", claims.TenantID).
		Strs("AT_AUD", claims.Audience).
		Time("AT_EXP", claims.ExpiresAt).
		Send()
}

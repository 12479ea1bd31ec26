package config

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/azcreds/internal/errors"
	"github.com/spf13/viper"
)

type Config interface {
	AppConfig
	PathConfig
	IdentityConfig
	ProtectorConfig
}

type AppConfig interface {
	GetAppName() string
	GetShowBanner() bool
	GetDebug() bool
}

type PathConfig interface {
	GetHomeDir() string
	GetAzureDir() string
	GetProfileFile() string
	GetCacheFile() string
	GetOutputFile() string
	GetLogFile() string
}

type IdentityConfig interface {
	GetClientID() string
	GetTargetSubstring() string
	GetSafetyMargin() time.Duration
}

type ProtectorConfig interface {
	GetProtectorMode() string
}

type mainConfig struct {
	v *viper.Viper
}

var _ Config = mainConfig{}

// New returns a Config reading from v. Defaults and environment bindings are
// installed on v, so flags bound before or after New take precedence over both.
func New(v *viper.Viper) Config {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	return mainConfig{v: v}
}

// Validate checks the values a run cannot proceed without.
func Validate(c Config) error {
	if _, err := uuid.Parse(c.GetClientID()); err != nil {
		return errors.Kind(errors.ErrInvalidConfig, fmt.Errorf("client id %q: %w", c.GetClientID(), err))
	}
	if c.GetTargetSubstring() == "" {
		return errors.Wrapf(errors.ErrInvalidConfig, "target must not be empty")
	}
	if c.GetSafetyMargin() < 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "safety margin must not be negative")
	}
	for name, path := range map[string]string{
		KeyProfileFile: c.GetProfileFile(),
		KeyCacheFile:   c.GetCacheFile(),
		KeyOutputFile:  c.GetOutputFile(),
		KeyLogFile:     c.GetLogFile(),
	} {
		if path == "" {
			return errors.Wrapf(errors.ErrInvalidConfig, "%s must not be empty", name)
		}
	}
	return nil
}

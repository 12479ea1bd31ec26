package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "AZCREDS"

// Keys shared by viper, environment variables (AZCREDS_<KEY>) and CLI flags.
const (
	KeyAppName      = "app-name"
	KeyBanner       = "banner"
	KeyDebug        = "debug"
	KeyAzureDir     = "azure-dir"
	KeyProfileFile  = "profile-file"
	KeyCacheFile    = "cache-file"
	KeyOutputFile   = "output-file"
	KeyLogFile      = "log-file"
	KeyClientID     = "client-id"
	KeyTarget       = "target"
	KeySafetyMargin = "safety-margin"
	KeyProtector    = "protector"
)

const (
	// AzureCLIClientID is the public client id the Azure CLI signs in with.
	AzureCLIClientID = "04b07795-8ddb-461a-bbee-02f9e1bf7b46"

	defaultTarget       = "management"
	defaultSafetyMargin = 30 * time.Second
)

// SetDefaults installs defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyAppName, "azcreds")
	v.SetDefault(KeyBanner, true)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyClientID, AzureCLIClientID)
	v.SetDefault(KeyTarget, defaultTarget)
	v.SetDefault(KeySafetyMargin, defaultSafetyMargin)
	v.SetDefault(KeyProtector, "auto")
}

func (c mainConfig) GetAppName() string {
	return c.v.GetString(KeyAppName)
}

func (c mainConfig) GetShowBanner() bool {
	return c.v.GetBool(KeyBanner)
}

func (c mainConfig) GetDebug() bool {
	return c.v.GetBool(KeyDebug)
}

func (c mainConfig) GetHomeDir() string {
	return homeDir()
}

// GetAzureDir honours AZURE_CONFIG_DIR the same way the Azure CLI does.
func (c mainConfig) GetAzureDir() string {
	if dir := c.v.GetString(KeyAzureDir); dir != "" {
		return dir
	}
	return defaultAzureDir()
}

func (c mainConfig) GetProfileFile() string {
	if p := c.v.GetString(KeyProfileFile); p != "" {
		return p
	}
	return filepath.Join(c.GetAzureDir(), profileFileName)
}

func (c mainConfig) GetCacheFile() string {
	if p := c.v.GetString(KeyCacheFile); p != "" {
		return p
	}
	return filepath.Join(c.GetAzureDir(), cacheFileName())
}

func (c mainConfig) GetOutputFile() string {
	if p := c.v.GetString(KeyOutputFile); p != "" {
		return p
	}
	return filepath.Join(defaultOutputDir(), outputFileName)
}

// GetLogFile defaults to az_log.txt next to the output artifact.
func (c mainConfig) GetLogFile() string {
	if p := c.v.GetString(KeyLogFile); p != "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.GetOutputFile()), logFileName)
}

func (c mainConfig) GetClientID() string {
	return c.v.GetString(KeyClientID)
}

func (c mainConfig) GetTargetSubstring() string {
	return c.v.GetString(KeyTarget)
}

func (c mainConfig) GetSafetyMargin() time.Duration {
	return c.v.GetDuration(KeySafetyMargin)
}

func (c mainConfig) GetProtectorMode() string {
	return c.v.GetString(KeyProtector)
}

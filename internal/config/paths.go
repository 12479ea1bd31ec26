package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	profileFileName = "azureProfile.json"
	outputFileName  = "az_creds.json"
	logFileName     = "az_log.txt"
)

// homeDir resolves the user's home the way the Azure CLI does on every host:
// USERPROFILE first (Windows), then HOME, then the OS lookup.
func homeDir() string {
	for _, env := range []string{"USERPROFILE", "HOME"} {
		if dir := os.Getenv(env); dir != "" {
			return dir
		}
	}
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}

func defaultAzureDir() string {
	if dir := os.Getenv("AZURE_CONFIG_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(homeDir(), ".azure")
}

// cacheFileName is DPAPI protected on Windows; other hosts without a keyring
// store the same document in plain JSON.
func cacheFileName() string {
	if runtime.GOOS == "windows" {
		return "msal_token_cache.bin"
	}
	return "msal_token_cache.json"
}

func defaultOutputDir() string {
	if runtime.GOOS == "windows" {
		return `C:\temp`
	}
	return os.TempDir()
}

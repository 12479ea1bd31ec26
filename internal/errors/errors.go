package errors

import (
	"errors"
	"fmt"
)

// Fatal error kinds for a credential extraction run. Every stage wraps its
// failure in exactly one of these so the caller can report which step broke.
var (
	// Profile errors
	ErrProfileRead    = errors.New("profile read failed")
	ErrProfileParse   = errors.New("profile parse failed")
	ErrNoSubscription = errors.New("no subscriptions found")

	// Token cache errors
	ErrCacheRead  = errors.New("token cache read failed")
	ErrDecryption = errors.New("token cache decryption failed")
	ErrCacheParse = errors.New("token cache parse failed")

	// Selection and output errors
	ErrNoCredential = errors.New("no token found - run 'az login' to re-authenticate")
	ErrWrite        = errors.New("credential write failed")

	// General errors
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrInvalidConfig       = errors.New("invalid configuration")
)

// logKeys maps each fatal kind to the key it is reported under in the diagnostic log.
var logKeys = []struct {
	err error
	key string
}{
	{ErrProfileRead, "PROFILE_ERROR"},
	{ErrProfileParse, "PROFILE_ERROR"},
	{ErrNoSubscription, "PROFILE_ERROR"},
	{ErrCacheRead, "CACHE_ERROR"},
	{ErrDecryption, "DPAPI_ERROR"},
	{ErrCacheParse, "CACHE_ERROR"},
	{ErrNoCredential, "TOKEN_ERROR"},
	{ErrWrite, "WRITE_ERROR"},
	{ErrInvalidConfig, "CONFIG_ERROR"},
}

// LogKey returns the diagnostic key for err, or "ERROR" if err is not one of the known kinds.
func LogKey(err error) string {
	for _, k := range logKeys {
		if errors.Is(err, k.err) {
			return k.key
		}
	}
	return "ERROR"
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Kind wraps cause so that the result matches both kind and cause with Is.
func Kind(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

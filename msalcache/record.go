package msalcache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Record is one credential entry of the AccessToken or RefreshToken section.
// Only ClientID, Target, Secret, Realm, ExpiresOn and HomeAccountID drive
// selection; the rest is kept for diagnostics.
type Record struct {
	ClientID          string `json:"client_id"`
	Target            string `json:"target"`
	Secret            string `json:"secret"`
	Realm             string `json:"realm"`
	ExpiresOn         Epoch  `json:"expires_on"`
	HomeAccountID     string `json:"home_account_id"`
	Environment       string `json:"environment"`
	CredentialType    string `json:"credential_type"`
	CachedAt          Epoch  `json:"cached_at"`
	ExtendedExpiresOn Epoch  `json:"extended_expires_on"`
}

// Entry keeps a record together with its cache key.
type Entry struct {
	Key    string
	Record Record
}

// Epoch is an optional unix timestamp in seconds. MSAL writes it as a string,
// other writers as a number; both decode here once.
type Epoch struct {
	seconds int64
	valid   bool
}

// NewEpoch returns a set Epoch for t.
func NewEpoch(t time.Time) Epoch {
	return Epoch{seconds: t.Unix(), valid: true}
}

// Valid reports whether a timestamp was present.
func (e Epoch) Valid() bool {
	return e.valid
}

// Unix returns the timestamp in seconds, 0 when absent.
func (e Epoch) Unix() int64 {
	return e.seconds
}

// Time returns the timestamp, or the zero time when absent.
func (e Epoch) Time() time.Time {
	if !e.valid {
		return time.Time{}
	}
	return time.Unix(e.seconds, 0)
}

func (e *Epoch) UnmarshalJSON(data []byte) error {
	*e = Epoch{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	if raw == "" {
		return nil
	}

	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return fmt.Errorf("invalid epoch %q: %w", raw, err)
		}
		if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return fmt.Errorf("epoch %q out of range", raw)
		}
		seconds = int64(f)
	}
	*e = Epoch{seconds: seconds, valid: true}
	return nil
}

func (e Epoch) MarshalJSON() ([]byte, error) {
	if !e.valid {
		return []byte("null"), nil
	}
	return json.Marshal(strconv.FormatInt(e.seconds, 10))
}

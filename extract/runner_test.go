package extract_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/azcreds/credentials"
	"github.com/jrsteele09/azcreds/extract"
	"github.com/jrsteele09/azcreds/internal/config"
	"github.com/jrsteele09/azcreds/internal/errors"
	"github.com/jrsteele09/azcreds/internal/utils"
	"github.com/jrsteele09/azcreds/protect"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const (
	testClientID = "04b07795-8ddb-461a-bbee-02f9e1bf7b46"
	testProfile  = `{"subscriptions":[{"id":"sub-1","tenantId":"tenant-1","name":"Dev","isDefault":true}]}`
)

var testNow = time.Unix(1_700_000_000, 0)

// fakeProtector strips a fixed prefix, standing in for the host facility.
type fakeProtector struct {
	err error
}

const sealedPrefix = "sealed:"

func (f fakeProtector) Decrypt(ciphertext []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !bytes.HasPrefix(ciphertext, []byte(sealedPrefix)) {
		return nil, fmt.Errorf("bad blob")
	}
	return bytes.TrimPrefix(ciphertext, []byte(sealedPrefix)), nil
}

type testFixture struct {
	dir     string
	v       *viper.Viper
	cfg     config.Config
	logs    *bytes.Buffer
	logger  zerolog.Logger
	outPath string
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	dir := t.TempDir()
	v := viper.New()
	cfg := config.New(v)
	v.Set(config.KeyProfileFile, filepath.Join(dir, "azureProfile.json"))
	v.Set(config.KeyCacheFile, filepath.Join(dir, "msal_token_cache.bin"))
	v.Set(config.KeyOutputFile, filepath.Join(dir, "out", "az_creds.json"))

	logs := &bytes.Buffer{}
	return &testFixture{
		dir:     dir,
		v:       v,
		cfg:     cfg,
		logs:    logs,
		logger:  zerolog.New(logs),
		outPath: cfg.GetOutputFile(),
	}
}

func (f *testFixture) writeProfile(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(f.cfg.GetProfileFile(), []byte(content), 0o600))
}

func (f *testFixture) writeSealedCache(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(f.cfg.GetCacheFile(), []byte(sealedPrefix+content), 0o600))
}

func (f *testFixture) run(p protect.Protector) (*credentials.Bundle, error) {
	return extract.NewRunner(f.cfg, p, f.logger, extract.WithNowFunc(func() time.Time { return testNow })).Run()
}

func cacheDoc(accessExpiresOn int64) string {
	return fmt.Sprintf(`{
  "AccessToken": {
    "at-1": {
      "client_id": %q,
      "target": "https://management.azure.com/.default",
      "secret": "AT1",
      "realm": "tenantA",
      "expires_on": "%d"
    }
  },
  "RefreshToken": {
    "rt-1": {"client_id": %q, "target": "...", "secret": "RT1", "home_account_id": "x.tenantA"}
  }
}`, testClientID, accessExpiresOn, testClientID)
}

func TestRun_Success(t *testing.T) {
	f := setupTestFixture(t)
	f.writeProfile(t, testProfile)
	f.writeSealedCache(t, cacheDoc(testNow.Add(time.Hour).Unix()))

	b, err := f.run(fakeProtector{})
	require.NoError(t, err)
	require.Equal(t, "AT1", utils.Value(b.AccessToken))
	require.Equal(t, "RT1", utils.Value(b.RefreshToken))
	require.Equal(t, "tenantA", b.AuthTenant)
	require.Equal(t, "tenant-1", b.TenantID)
	require.Equal(t, "sub-1", b.SubID)
	require.Equal(t, testClientID, b.ClientID)

	written, err := credentials.Read(f.outPath)
	require.NoError(t, err)
	require.Equal(t, b, written)

	logs := f.logs.String()
	for _, key := range []string{"SUB_ID", "CACHE_SIZE", "DPAPI_OK", "CACHE_PARSED_OK", "AT_COUNT", "AUTH_REALM", "TOKEN_ENDPOINT", "CREDS_WRITTEN", "COMPLETE"} {
		require.Contains(t, logs, key)
	}
	require.Contains(t, logs, "https://login.microsoftonline.com/tenantA/oauth2/v2.0/token")
}

func TestRun_ExpiredAccessTokenKeepsRealm(t *testing.T) {
	f := setupTestFixture(t)
	f.writeProfile(t, testProfile)
	f.writeSealedCache(t, cacheDoc(testNow.Add(-time.Hour).Unix()))

	b, err := f.run(fakeProtector{})
	require.NoError(t, err)
	require.Nil(t, b.AccessToken)
	require.Equal(t, "RT1", utils.Value(b.RefreshToken))
	require.Equal(t, "tenantA", b.AuthTenant)

	content, err := os.ReadFile(f.outPath)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(content, &raw))
	require.Contains(t, raw, "access_token")
	require.Nil(t, raw["access_token"])
	require.Contains(t, f.logs.String(), `"HAS_AT":"no-expired"`)
}

func TestRun_PlaintextCache(t *testing.T) {
	f := setupTestFixture(t)
	f.writeProfile(t, testProfile)
	require.NoError(t, os.WriteFile(f.cfg.GetCacheFile(), []byte(cacheDoc(testNow.Add(time.Hour).Unix())), 0o600))

	b, err := f.run(protect.Plaintext{})
	require.NoError(t, err)
	require.Equal(t, "AT1", utils.Value(b.AccessToken))
}

func TestRun_Failures(t *testing.T) {
	validCache := cacheDoc(testNow.Add(time.Hour).Unix())

	for name, tc := range map[string]struct {
		profile   *string
		cache     *string
		protector protect.Protector
		want      error
		logKey    string
	}{
		"profile missing": {
			cache: &validCache, protector: fakeProtector{},
			want: errors.ErrProfileRead, logKey: "PROFILE_ERROR",
		},
		"profile malformed": {
			profile: utils.Ptr(`{"subscriptions":`), cache: &validCache, protector: fakeProtector{},
			want: errors.ErrProfileParse, logKey: "PROFILE_ERROR",
		},
		"no subscriptions": {
			profile: utils.Ptr(`{"subscriptions":[]}`), cache: &validCache, protector: fakeProtector{},
			want: errors.ErrNoSubscription, logKey: "PROFILE_ERROR",
		},
		"cache missing": {
			profile: utils.Ptr(testProfile), protector: fakeProtector{},
			want: errors.ErrCacheRead, logKey: "CACHE_ERROR",
		},
		"decryption fails": {
			profile: utils.Ptr(testProfile), cache: &validCache, protector: fakeProtector{err: fmt.Errorf("access denied")},
			want: errors.ErrDecryption, logKey: "DPAPI_ERROR",
		},
		"cache malformed": {
			profile: utils.Ptr(testProfile), cache: utils.Ptr(`{"AccessToken":`), protector: fakeProtector{},
			want: errors.ErrCacheParse, logKey: "CACHE_ERROR",
		},
		"no credential": {
			profile: utils.Ptr(testProfile), cache: utils.Ptr(`{"AccessToken":{},"RefreshToken":{}}`), protector: fakeProtector{},
			want: errors.ErrNoCredential, logKey: "TOKEN_ERROR",
		},
	} {
		t.Run(name, func(t *testing.T) {
			f := setupTestFixture(t)
			if tc.profile != nil {
				f.writeProfile(t, *tc.profile)
			}
			if tc.cache != nil {
				f.writeSealedCache(t, *tc.cache)
			}
			require.NoError(t, os.MkdirAll(filepath.Dir(f.outPath), 0o700))
			require.NoError(t, os.WriteFile(f.outPath, []byte(`{"previous":"run"}`), 0o600))

			b, err := f.run(tc.protector)
			require.Error(t, err)
			require.Nil(t, b)
			require.True(t, errors.Is(err, tc.want), "got %v", err)
			require.Contains(t, f.logs.String(), tc.logKey)
			require.NotContains(t, f.logs.String(), "COMPLETE")

			content, err := os.ReadFile(f.outPath)
			require.NoError(t, err)
			require.JSONEq(t, `{"previous":"run"}`, string(content), "a failed run leaves the artifact untouched")
		})
	}
}

func TestRun_EmptyCacheFile(t *testing.T) {
	f := setupTestFixture(t)
	f.writeProfile(t, testProfile)
	require.NoError(t, os.WriteFile(f.cfg.GetCacheFile(), nil, 0o600))

	_, err := f.run(protect.Plaintext{})
	require.True(t, errors.Is(err, errors.ErrDecryption))
	require.NoFileExists(t, f.outPath)
}

func TestRun_WriteFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.writeProfile(t, testProfile)
	f.writeSealedCache(t, cacheDoc(testNow.Add(time.Hour).Unix()))

	blocker := filepath.Join(f.dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	f.v.Set(config.KeyOutputFile, filepath.Join(blocker, "az_creds.json"))

	_, err := f.run(fakeProtector{})
	require.True(t, errors.Is(err, errors.ErrWrite))
	require.Contains(t, f.logs.String(), "WRITE_ERROR")
}

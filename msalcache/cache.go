// Package msalcache decodes the MSAL token cache document shared by the Azure
// CLI and other clients into ordered, typed credential entries.
package msalcache

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jrsteele09/azcreds/internal/errors"
	"github.com/tidwall/gjson"
)

const (
	sectionAccessToken  = "AccessToken"
	sectionRefreshToken = "RefreshToken"
)

// Cache holds the two credential sections relevant for extraction, in the
// order their keys appear in the document.
type Cache struct {
	AccessTokens  []Entry
	RefreshTokens []Entry
}

// Parse decodes a decrypted cache document. Missing sections are empty.
func Parse(plaintext []byte) (*Cache, error) {
	if !gjson.ValidBytes(plaintext) {
		return nil, errors.Wrapf(errors.ErrCacheParse, "document is not valid JSON")
	}
	root := gjson.ParseBytes(plaintext)
	if !root.IsObject() {
		return nil, errors.Wrapf(errors.ErrCacheParse, "document root is %s, not an object", root.Type)
	}

	at, err := parseSection(root, sectionAccessToken)
	if err != nil {
		return nil, err
	}
	rt, err := parseSection(root, sectionRefreshToken)
	if err != nil {
		return nil, err
	}
	return &Cache{AccessTokens: at, RefreshTokens: rt}, nil
}

// ReadFile returns the raw, still protected, cache bytes.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Kind(errors.ErrCacheRead, err)
	}
	return data, nil
}

func parseSection(root gjson.Result, name string) ([]Entry, error) {
	section := root.Get(name)
	if !section.Exists() || section.Type == gjson.Null {
		return []Entry{}, nil
	}
	if !section.IsObject() {
		return nil, errors.Wrapf(errors.ErrCacheParse, "section %s is %s, not an object", name, section.Type)
	}

	entries := []Entry{}
	var decodeErr error
	section.ForEach(func(key, value gjson.Result) bool {
		var rec Record
		if err := json.Unmarshal([]byte(value.Raw), &rec); err != nil {
			decodeErr = errors.Kind(errors.ErrCacheParse, fmt.Errorf("%s[%s]: %w", name, key.String(), err))
			return false
		}
		entries = append(entries, Entry{Key: key.String(), Record: rec})
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return entries, nil
}

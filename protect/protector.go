// Package protect unwraps the host protected blob that holds the identity cache.
// Nothing here knows about tokens; it only turns ciphertext into plaintext.
package protect

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/jrsteele09/azcreds/internal/errors"
)

// Protector decrypts a host protected blob.
type Protector interface {
	Decrypt(ciphertext []byte) ([]byte, error)
}

type Mode string

const (
	ModeAuto      Mode = "auto"
	ModeDPAPI     Mode = "dpapi"
	ModePlaintext Mode = "plaintext"
)

var (
	_ Protector = DPAPI{}
	_ Protector = Plaintext{}
)

// New returns the Protector for mode. Auto picks DPAPI on Windows and
// Plaintext everywhere else, matching where the Azure CLI encrypts its cache.
func New(mode string) (Protector, error) {
	switch Mode(strings.ToLower(mode)) {
	case ModeAuto, "":
		if runtime.GOOS == "windows" {
			return DPAPI{}, nil
		}
		return Plaintext{}, nil
	case ModeDPAPI:
		return DPAPI{}, nil
	case ModePlaintext:
		return Plaintext{}, nil
	default:
		return nil, errors.Kind(errors.ErrInvalidConfig, fmt.Errorf("unknown protector %q", mode))
	}
}

// Plaintext is used where the cache is stored unencrypted. It still refuses
// empty input so an empty file never looks like a successful decrypt.
type Plaintext struct{}

func (Plaintext) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, errors.Wrapf(errors.ErrDecryption, "empty input")
	}
	out := make([]byte, len(ciphertext))
	copy(out, ciphertext)
	return out, nil
}

//go:build !windows

package protect

import (
	"runtime"

	"github.com/jrsteele09/azcreds/internal/errors"
)

// DPAPI is only available on Windows. Elsewhere it fails every call.
type DPAPI struct{}

func (DPAPI) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, errors.Wrapf(errors.ErrDecryption, "empty input")
	}
	return nil, errors.Kind(errors.ErrDecryption, errors.Wrapf(errors.ErrUnsupportedPlatform, "DPAPI on %s", runtime.GOOS))
}

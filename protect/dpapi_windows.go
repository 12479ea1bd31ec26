//go:build windows

package protect

import (
	"fmt"
	"unsafe"

	"github.com/jrsteele09/azcreds/internal/errors"
	"golang.org/x/sys/windows"
)

// DPAPI unprotects blobs sealed to the current user with CryptProtectData.
type DPAPI struct{}

func (DPAPI) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, errors.Wrapf(errors.ErrDecryption, "empty input")
	}

	in := windows.DataBlob{
		Size: uint32(len(ciphertext)),
		Data: &ciphertext[0],
	}
	var out windows.DataBlob
	if err := windows.CryptUnprotectData(&in, nil, nil, 0, nil, 0, &out); err != nil {
		return nil, errors.Kind(errors.ErrDecryption, fmt.Errorf("CryptUnprotectData: %w", err))
	}
	// The output buffer belongs to the system allocator and is released on every path below.
	defer windows.LocalFree(windows.Handle(uintptr(unsafe.Pointer(out.Data))))

	if out.Size == 0 || out.Data == nil {
		return nil, errors.Wrapf(errors.ErrDecryption, "CryptUnprotectData returned empty")
	}
	plaintext := make([]byte, out.Size)
	copy(plaintext, unsafe.Slice(out.Data, out.Size))
	return plaintext, nil
}

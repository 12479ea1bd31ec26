package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jrsteele09/azcreds/internal/errors"
)

// Write replaces the artifact at path with b. The file is written to a temp
// file (0600) in the same directory and renamed, so readers never see a partial bundle.
func Write(path string, b *Bundle) error {
	if err := b.Validate(); err != nil {
		return err
	}
	content, err := json.Marshal(b)
	if err != nil {
		return errors.Kind(errors.ErrWrite, fmt.Errorf("failed to marshal bundle: %w", err))
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Kind(errors.ErrWrite, fmt.Errorf("failed to create output dir: %w", err))
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Kind(errors.ErrWrite, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return errors.Kind(errors.ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Kind(errors.ErrWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Kind(errors.ErrWrite, err)
	}
	return nil
}

// Read loads a previously written artifact.
func Read(path string) (*Bundle, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b Bundle
	if err := json.Unmarshal(content, &b); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return &b, nil
}

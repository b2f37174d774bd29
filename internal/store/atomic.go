package store

import (
	"os"
	"path/filepath"

	"github.com/webindex/webindex/internal/errors"
)

// writeFileAtomic writes data to a temp file in the same directory as path,
// then renames it into place, so a crash mid-write never leaves a
// half-written file visible under its real name (§4.9).
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.StorageError("failed to create directory "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.StorageError("failed to create temp file in "+dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.StorageError("failed to write temp file "+tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.StorageError("failed to sync temp file "+tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.StorageError("failed to close temp file "+tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.StorageError("failed to rename temp file into place at "+path, err)
	}
	return nil
}

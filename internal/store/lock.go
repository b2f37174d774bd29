package store

import (
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/webindex/webindex/internal/errors"
)

// DataRootLock is an advisory, cross-process lock over a data root,
// guarding against the CLI and the MCP server entrypoint mutating storage
// concurrently from two processes (§4.9). In-process concurrency is
// governed separately by the per-component mutexes/rwlocks in §5.
type DataRootLock struct {
	fl *flock.Flock
}

// NewDataRootLock builds a lock for the ".lock" file under dataRoot.
func NewDataRootLock(dataRoot string) *DataRootLock {
	return &DataRootLock{fl: flock.New(filepath.Join(dataRoot, ".lock"))}
}

// TryLock acquires the lock without blocking, returning ERR_301 if another
// process already holds it.
func (l *DataRootLock) TryLock() error {
	ok, err := l.fl.TryLock()
	if err != nil {
		return errors.StorageError("failed to acquire data root lock", err)
	}
	if !ok {
		return errors.StorageError("data root is locked by another process", nil)
	}
	return nil
}

// Unlock releases the lock.
func (l *DataRootLock) Unlock() error {
	return l.fl.Unlock()
}

package storage

import (
	"errors"
	"fmt"

	"github.com/vocdoni/zkvote-core/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// SetBlob stores raw bytes under key.
func (s *Storage) SetBlob(key string, data []byte) error {
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), blobPrefix)
	if err := wTx.Set([]byte(key), data); err != nil {
		wTx.Discard()
		return fmt.Errorf("%w: set blob: %v", types.ErrBackendUnavailable, err)
	}
	return commit(wTx)
}

// Blob returns the bytes stored under key or ErrNotFound.
func (s *Storage) Blob(key string) ([]byte, error) {
	data, err := prefixeddb.NewPrefixedReader(s.db, blobPrefix).Get([]byte(key))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get blob: %v", types.ErrBackendUnavailable, err)
	}
	return append([]byte{}, data...), nil
}

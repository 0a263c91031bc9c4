package blobstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/vocdoni/zkvote-core/storage"
	"github.com/vocdoni/zkvote-core/types"
)

// Local keeps blobs in the state database.
type Local struct {
	stg *storage.Storage
}

// NewLocal returns a blob store on top of stg. Closing it does not close
// stg.
func NewLocal(stg *storage.Storage) *Local {
	return &Local{stg: stg}
}

func (l *Local) Put(_ context.Context, data []byte) (string, error) {
	cid := ContentID(data)
	if err := l.stg.SetBlob(cid, data); err != nil {
		return "", err
	}
	return cid, nil
}

func (l *Local) Get(_ context.Context, cid string) ([]byte, error) {
	if !ValidContentID(cid) {
		return nil, fmt.Errorf("%w: invalid content id %q", types.ErrInputDomain, cid)
	}
	data, err := l.stg.Blob(cid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, verify(cid, data)
}

func (*Local) Close() error { return nil }

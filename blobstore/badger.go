package blobstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/vocdoni/zkvote-core/log"
	"github.com/vocdoni/zkvote-core/types"
)

// Badger keeps blobs in a badger database. An empty dir opens an in-memory
// database.
type Badger struct {
	db *badger.DB
}

// badgerLogger forwards badger logs to the package logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, a ...any)   { log.Errorf("badger: "+f, a...) }
func (badgerLogger) Warningf(f string, a ...any) { log.Warnf("badger: "+f, a...) }
func (badgerLogger) Infof(f string, a ...any)    { log.Debugf("badger: "+f, a...) }
func (badgerLogger) Debugf(f string, a ...any)   { log.Debugf("badger: "+f, a...) }

// NewBadger opens (or creates) the blob database at dir.
func NewBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(badgerLogger{}).
		WithLoggingLevel(badger.WARNING)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger: %v", types.ErrBackendUnavailable, err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Put(_ context.Context, data []byte) (string, error) {
	cid := ContentID(data)
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(cid), data)
	})
	if err != nil {
		return "", fmt.Errorf("%w: badger put: %v", types.ErrBackendUnavailable, err)
	}
	return cid, nil
}

func (b *Badger) Get(_ context.Context, cid string) ([]byte, error) {
	if !ValidContentID(cid) {
		return nil, fmt.Errorf("%w: invalid content id %q", types.ErrInputDomain, cid)
	}
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(cid))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: badger get: %v", types.ErrBackendUnavailable, err)
	}
	return data, verify(cid, data)
}

func (b *Badger) Close() error {
	return b.db.Close()
}

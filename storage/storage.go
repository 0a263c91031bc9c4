// Package storage is the durable state store of the voting core, built on a
// prefixed key-value database. Records are CBOR encoded. The following
// prefixes are used:
//   - 'e/' for elections, keyed by the 8 byte big-endian election id
//   - 'n/' for accepted nullifiers, keyed by election id and nullifier
//   - 'h/' for humanity verified flags, keyed by election id and address
//   - 'a/' for authority roles, keyed by address
//   - 'b/' for content addressed blobs
//   - 'k/' for counters
//
// Writes that must hold together (nullifier insertion with the tally
// update, election reset with nullifier removal) share one write
// transaction.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/vocdoni/zkvote-core/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

var (
	electionPrefix  = []byte("e/")
	nullifierPrefix = []byte("n/")
	humanityPrefix  = []byte("h/")
	authorityPrefix = []byte("a/")
	blobPrefix      = []byte("b/")
	counterPrefix   = []byte("k/")

	nextElectionIDKey = []byte("nextElectionID")
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = fmt.Errorf("%w: storage key", types.ErrNotFound)

// Storage wraps the database with typed accessors.
type Storage struct {
	db db.Database
	// counterLock serializes counter increments.
	counterLock sync.Mutex
}

// New creates a new Storage instance.
func New(database db.Database) *Storage {
	return &Storage{db: database}
}

// Close closes the storage.
func (s *Storage) Close() {
	s.db.Close()
}

func prefixWith(prefix []byte, parts ...[]byte) []byte {
	out := append([]byte{}, prefix...)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func uint64Key(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// getArtifact decodes the value at prefix+key into out, or returns
// ErrNotFound.
func (s *Storage) getArtifact(prefix, key []byte, out any) error {
	data, err := prefixeddb.NewPrefixedReader(s.db, prefix).Get(key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: get artifact: %v", types.ErrBackendUnavailable, err)
	}
	if err := decodeArtifact(data, out); err != nil {
		return fmt.Errorf("decode artifact: %w", err)
	}
	return nil
}

func (s *Storage) setArtifact(prefix, key []byte, v any) error {
	data, err := encodeArtifact(v)
	if err != nil {
		return err
	}
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), prefix)
	if err := wTx.Set(key, data); err != nil {
		wTx.Discard()
		return fmt.Errorf("%w: set artifact: %v", types.ErrBackendUnavailable, err)
	}
	return commit(wTx)
}

// iterateArtifacts calls fn with every raw value under prefix, in key order.
func (s *Storage) iterateArtifacts(prefix []byte, fn func(key, value []byte) error) error {
	var fnErr error
	err := prefixeddb.NewPrefixedReader(s.db, prefix).Iterate(nil, func(k, v []byte) bool {
		if fnErr = fn(k, v); fnErr != nil {
			return false
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("%w: iterate: %v", types.ErrBackendUnavailable, err)
	}
	return fnErr
}

func (s *Storage) has(prefix, key []byte) (bool, error) {
	_, err := prefixeddb.NewPrefixedReader(s.db, prefix).Get(key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, db.ErrKeyNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
}

func commit(tx db.WriteTx) error {
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", types.ErrBackendUnavailable, err)
	}
	return nil
}

// nextCounter increments and returns the counter stored at key, starting
// at zero.
func (s *Storage) nextCounter(key []byte) (uint64, error) {
	s.counterLock.Lock()
	defer s.counterLock.Unlock()
	var current uint64
	if err := s.getArtifact(counterPrefix, key, &current); err != nil && !errors.Is(err, ErrNotFound) {
		return 0, err
	}
	if err := s.setArtifact(counterPrefix, key, current+1); err != nil {
		return 0, err
	}
	return current, nil
}

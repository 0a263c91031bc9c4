// Package blobstore keeps off-chain election and candidate metadata in a
// content addressed key/value store. Content ids are opaque to the rest of
// the core.
package blobstore

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vocdoni/zkvote-core/types"
	"golang.org/x/crypto/blake2b"
)

// cidPrefix tags blake2b-256 content ids.
const cidPrefix = "b2-"

// ErrNotFound is returned by Get for unknown content ids.
var ErrNotFound = fmt.Errorf("%w: blob", types.ErrNotFound)

// Store is a content addressed blob store.
type Store interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, cid string) ([]byte, error)
	Close() error
}

// ContentID returns the content id of data.
func ContentID(data []byte) string {
	sum := blake2b.Sum256(data)
	return cidPrefix + hex.EncodeToString(sum[:])
}

// ValidContentID reports whether cid has the expected shape.
func ValidContentID(cid string) bool {
	raw, ok := strings.CutPrefix(cid, cidPrefix)
	if !ok {
		return false
	}
	b, err := hex.DecodeString(raw)
	return err == nil && len(b) == blake2b.Size256
}

// verify checks that data matches cid.
func verify(cid string, data []byte) error {
	if ContentID(data) != cid {
		return fmt.Errorf("%w: blob content does not match %s", types.ErrBackendUnavailable, cid)
	}
	return nil
}

// PutMetadata stores an election metadata document and returns its id.
func PutMetadata(ctx context.Context, s Store, m *types.ElectionMetadata) (string, error) {
	if m == nil || m.Title == "" {
		return "", fmt.Errorf("%w: election metadata needs a title", types.ErrInputDomain)
	}
	if m.EndTime != 0 && m.EndTime < m.StartTime {
		return "", fmt.Errorf("%w: end time before start time", types.ErrInputDomain)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return s.Put(ctx, data)
}

// GetMetadata loads and decodes an election metadata document.
func GetMetadata(ctx context.Context, s Store, cid string) (*types.ElectionMetadata, error) {
	data, err := s.Get(ctx, cid)
	if err != nil {
		return nil, err
	}
	m := &types.ElectionMetadata{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: blob %s is not election metadata: %v", types.ErrInputDomain, cid, err)
	}
	return m, nil
}

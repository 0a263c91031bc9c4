package circuits

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vocdoni/zkvote-core/log"
	"github.com/vocdoni/zkvote-core/types"
)

// ErrArtifactsNotFound means an artifact is neither cached nor downloadable.
// It is an environment misconfiguration, not a protocol error.
var ErrArtifactsNotFound = errors.New("circuit artifacts not found")

// CheckHashes controls the sha256 check of cached and downloaded artifacts.
// ZKVOTE_CHECK_HASHES=false (or 0) disables it.
var CheckHashes = true

// BaseDir is the artifact cache directory. Defaults to ZKVOTE_ARTIFACTS_DIR
// or ~/.cache/zkvote-artifacts.
var BaseDir string

func init() {
	if v := os.Getenv("ZKVOTE_CHECK_HASHES"); strings.ToLower(v) == "false" || v == "0" {
		CheckHashes = false
	}
	if dir := os.Getenv("ZKVOTE_ARTIFACTS_DIR"); dir != "" {
		BaseDir = dir
		return
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		log.Warnf("unable to access user home directory, using temporary directory: %v", err)
		BaseDir = filepath.Join(os.TempDir(), "zkvote-artifacts")
		return
	}
	BaseDir = filepath.Join(home, ".cache", "zkvote-artifacts")
}

// Artifact is a file identified by its sha256, cached under BaseDir and
// optionally downloadable from RemoteURL.
type Artifact struct {
	RemoteURL string
	Hash      []byte
	Content   []byte
}

// Load fills Content from the local cache, downloading the file first if
// it is missing and a RemoteURL is known.
func (a *Artifact) Load(ctx context.Context) error {
	if len(a.Content) != 0 {
		return nil
	}
	if len(a.Hash) == 0 {
		return fmt.Errorf("%w: artifact hash not provided", ErrArtifactsNotFound)
	}
	content, err := readCached(a.Hash)
	if err != nil {
		return err
	}
	if content == nil {
		if a.RemoteURL == "" {
			return fmt.Errorf("%w: %x not cached and no remote url", ErrArtifactsNotFound, a.Hash)
		}
		if err := download(ctx, a.Hash, a.RemoteURL); err != nil {
			return err
		}
		if content, err = readCached(a.Hash); err != nil {
			return err
		}
		if content == nil {
			return fmt.Errorf("%w: %x missing after download", ErrArtifactsNotFound, a.Hash)
		}
	}
	a.Content = content
	return nil
}

// CircuitArtifacts groups the wasm witness generator, the proving key and
// the verification key of one circuit. Any of them may be nil when the
// process only proves or only verifies.
type CircuitArtifacts struct {
	mu      sync.Mutex
	wasm    *Artifact
	zkey    *Artifact
	vkey    *Artifact
	circuit CircuitID
}

// NewCircuitArtifacts returns the artifact group of a circuit.
func NewCircuitArtifacts(circuit CircuitID, wasm, zkey, vkey *Artifact) *CircuitArtifacts {
	return &CircuitArtifacts{circuit: circuit, wasm: wasm, zkey: zkey, vkey: vkey}
}

func (ca *CircuitArtifacts) load(ctx context.Context, a *Artifact, what string) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: no %s configured for %s", ErrArtifactsNotFound, what, ca.circuit)
	}
	ca.mu.Lock()
	defer ca.mu.Unlock()
	if err := a.Load(ctx); err != nil {
		return nil, fmt.Errorf("load %s of %s: %w", what, ca.circuit, err)
	}
	return a.Content, nil
}

// Wasm returns the witness calculator of the circuit.
func (ca *CircuitArtifacts) Wasm(ctx context.Context) (types.HexBytes, error) {
	return ca.load(ctx, ca.wasm, "wasm")
}

// ProvingKey returns the zkey of the circuit.
func (ca *CircuitArtifacts) ProvingKey(ctx context.Context) (types.HexBytes, error) {
	return ca.load(ctx, ca.zkey, "proving key")
}

// VerifyingKey returns the JSON verification key of the circuit.
func (ca *CircuitArtifacts) VerifyingKey(ctx context.Context) (types.HexBytes, error) {
	return ca.load(ctx, ca.vkey, "verification key")
}

// ArtifactSet maps every circuit to its artifacts.
type ArtifactSet map[CircuitID]*CircuitArtifacts

// Get returns the artifacts of a circuit or ErrArtifactsNotFound.
func (s ArtifactSet) Get(c CircuitID) (*CircuitArtifacts, error) {
	ca, ok := s[c]
	if !ok || ca == nil {
		return nil, fmt.Errorf("%w: circuit %s", ErrArtifactsNotFound, c)
	}
	return ca, nil
}

func readCached(hash []byte) ([]byte, error) {
	path := filepath.Join(BaseDir, hex.EncodeToString(hash))
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}
	if CheckHashes {
		if sum := sha256.Sum256(content); !bytes.Equal(sum[:], hash) {
			return nil, fmt.Errorf("hash mismatch for file %s: expected %x, got %x", path, hash, sum)
		}
	}
	return content, nil
}

// countingReader tracks the number of bytes read so far.
type countingReader struct {
	reader io.Reader
	total  atomic.Int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.total.Add(int64(n))
	return n, err
}

// download fetches fileURL into the cache, resuming a previous partial
// download when the server supports ranges.
func download(ctx context.Context, expectedHash []byte, fileURL string) error {
	if _, err := url.Parse(fileURL); err != nil {
		return fmt.Errorf("error parsing the file URL provided: %w", err)
	}
	if err := os.MkdirAll(BaseDir, 0o755); err != nil {
		return fmt.Errorf("error creating the base directory: %w", err)
	}
	path := filepath.Join(BaseDir, hex.EncodeToString(expectedHash))
	partialPath := path + ".partial"

	var offset int64
	if info, err := os.Stat(partialPath); err == nil {
		offset = info.Size()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("error creating the file request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("error downloading file %s: http status: %d", fileURL, res.StatusCode)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	hasher := sha256.New()
	if offset > 0 && res.StatusCode == http.StatusPartialContent {
		flags = os.O_APPEND | os.O_WRONLY
		if existing, err := os.Open(partialPath); err == nil {
			_, _ = io.Copy(hasher, existing)
			existing.Close()
		}
	}
	fd, err := os.OpenFile(partialPath, flags, 0o644)
	if err != nil {
		return fmt.Errorf("error opening artifact file: %w", err)
	}
	defer fd.Close()

	body := &countingReader{reader: res.Body}
	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(io.MultiWriter(fd, hasher), body)
		done <- err
	}()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for waiting := true; waiting; {
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("error copying data to file: %w", err)
			}
			waiting = false
		case <-ticker.C:
			log.Debugw("downloading circuit artifact", "url", fileURL,
				"downloaded", fmt.Sprintf("%.2fMiB", float64(body.total.Load())/(1024*1024)))
		}
	}
	if CheckHashes {
		if sum := hasher.Sum(nil); !bytes.Equal(sum, expectedHash) {
			_ = os.Remove(partialPath)
			return fmt.Errorf("hash mismatch: expected %x, got %x", expectedHash, sum)
		}
	}
	if err := os.Rename(partialPath, path); err != nil {
		return fmt.Errorf("error renaming file: %w", err)
	}
	return nil
}

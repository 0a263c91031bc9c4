package circuits

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

var (
	dummyPath       = "humanity.zkey"
	dummyKeyContent = []byte("dummy content")
)

func testDummyKeyServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, dummyPath, time.Now(), bytes.NewReader(dummyKeyContent))
	}))
}

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "zkvote-artifacts")
	if err != nil {
		panic(err)
	}
	BaseDir = dir
	code := m.Run()
	if err := os.RemoveAll(dir); err != nil {
		panic(err)
	}
	os.Exit(code)
}

func TestLoadArtifact(t *testing.T) {
	c := qt.New(t)
	server := testDummyKeyServer()
	defer server.Close()

	expectedHash := sha256.Sum256(dummyKeyContent)
	remoteURL, err := url.JoinPath(server.URL, dummyPath)
	c.Assert(err, qt.IsNil)
	key := &Artifact{RemoteURL: remoteURL, Hash: expectedHash[:]}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// not cached yet, downloaded
	c.Assert(key.Load(ctx), qt.IsNil)
	c.Assert([]byte(key.Content), qt.DeepEquals, dummyKeyContent)
	// cached now, without remote
	cached := &Artifact{Hash: expectedHash[:]}
	c.Assert(cached.Load(ctx), qt.IsNil)
	c.Assert([]byte(cached.Content), qt.DeepEquals, dummyKeyContent)
	// wrong hash
	key.Content = nil
	key.Hash = []byte("wrong hash")
	c.Assert(key.Load(ctx), qt.IsNotNil)
}

func TestMissingArtifacts(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	missing := &Artifact{Hash: []byte{1, 2, 3}}
	err := missing.Load(ctx)
	c.Assert(errors.Is(err, ErrArtifactsNotFound), qt.IsTrue)

	set := ArtifactSet{Humanity: NewCircuitArtifacts(Humanity, nil, nil, missing)}
	_, err = set.Get(VoteCast)
	c.Assert(errors.Is(err, ErrArtifactsNotFound), qt.IsTrue)

	ca, err := set.Get(Humanity)
	c.Assert(err, qt.IsNil)
	_, err = ca.ProvingKey(ctx)
	c.Assert(errors.Is(err, ErrArtifactsNotFound), qt.IsTrue)
	_, err = ca.VerifyingKey(ctx)
	c.Assert(errors.Is(err, ErrArtifactsNotFound), qt.IsTrue)
}

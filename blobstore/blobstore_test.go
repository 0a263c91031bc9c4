package blobstore

import (
	"context"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-core/storage"
	"github.com/vocdoni/zkvote-core/types"
	"go.vocdoni.io/dvote/db/metadb"
)

func testStores(t *testing.T) map[string]Store {
	bdg, err := NewBadger("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = bdg.Close() })
	onDisk, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = onDisk.Close() })
	return map[string]Store{
		"local":        NewLocal(storage.New(metadb.NewTest(t))),
		"badgerMemory": bdg,
		"badgerDisk":   onDisk,
	}
}

func TestPutGet(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			c := qt.New(t)
			ctx := context.Background()

			cid, err := store.Put(ctx, []byte("candidate bio"))
			c.Assert(err, qt.IsNil)
			c.Assert(ValidContentID(cid), qt.IsTrue)
			c.Assert(cid, qt.Equals, ContentID([]byte("candidate bio")))

			again, err := store.Put(ctx, []byte("candidate bio"))
			c.Assert(err, qt.IsNil)
			c.Assert(again, qt.Equals, cid)

			data, err := store.Get(ctx, cid)
			c.Assert(err, qt.IsNil)
			c.Assert(string(data), qt.Equals, "candidate bio")

			_, err = store.Get(ctx, ContentID([]byte("other")))
			c.Assert(errors.Is(err, ErrNotFound), qt.IsTrue)

			_, err = store.Get(ctx, "QmNotOurs")
			c.Assert(errors.Is(err, types.ErrInputDomain), qt.IsTrue)
		})
	}
}

func TestMetadata(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	store := NewLocal(storage.New(metadb.NewTest(t)))

	meta := &types.ElectionMetadata{
		Title:       "City council",
		Description: "Yearly council election",
		Candidates: []types.CandidateMetadata{
			{Name: "Ada", Bio: "Engineer", Platform: "Open data"},
			{Name: "Grace", Platform: "Better transit"},
		},
		StartTime:        100,
		EndTime:          200,
		RequiresHumanity: true,
	}
	cid, err := PutMetadata(ctx, store, meta)
	c.Assert(err, qt.IsNil)
	got, err := GetMetadata(ctx, store, cid)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, meta)

	_, err = PutMetadata(ctx, store, &types.ElectionMetadata{})
	c.Assert(errors.Is(err, types.ErrInputDomain), qt.IsTrue)
	_, err = PutMetadata(ctx, store, &types.ElectionMetadata{Title: "x", StartTime: 10, EndTime: 5})
	c.Assert(errors.Is(err, types.ErrInputDomain), qt.IsTrue)

	raw, err := store.Put(ctx, []byte("not json"))
	c.Assert(err, qt.IsNil)
	_, err = GetMetadata(ctx, store, raw)
	c.Assert(errors.Is(err, types.ErrInputDomain), qt.IsTrue)
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/zkvote-core/blobstore"
	"github.com/vocdoni/zkvote-core/types"
)

// newMetadata stores an election metadata document.
// POST /metadata
func (a *API) newMetadata(w http.ResponseWriter, r *http.Request) {
	if a.blobs == nil {
		ErrNotConfigured.With("metadata store").Write(w)
		return
	}
	m := &types.ElectionMetadata{}
	if !decodeBody(w, r, m) {
		return
	}
	cid, err := blobstore.PutMetadata(r.Context(), a.blobs, m)
	if err != nil {
		errorFor(err).Write(w)
		return
	}
	httpWriteJSON(w, &ContentID{CID: cid})
}

// metadata returns a stored election metadata document.
// GET /metadata/{cid}
func (a *API) metadata(w http.ResponseWriter, r *http.Request) {
	if a.blobs == nil {
		ErrNotConfigured.With("metadata store").Write(w)
		return
	}
	cid := chi.URLParam(r, CIDURLParam)
	if !blobstore.ValidContentID(cid) {
		ErrMalformedContentID.Withf("%q", cid).Write(w)
		return
	}
	m, err := blobstore.GetMetadata(r.Context(), a.blobs, cid)
	if err != nil {
		errorFor(err).Write(w)
		return
	}
	httpWriteJSON(w, m)
}

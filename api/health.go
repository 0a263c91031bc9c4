package api

import (
	"net/http"
)

// health reports which backends answer. Storage is probed by listing the
// elections, optional backends report false when not configured.
// GET /health
func (a *API) health(w http.ResponseWriter, r *http.Request) {
	h := &Health{
		Prover:   a.dispatcher != nil,
		Metadata: a.blobs != nil,
	}
	if _, err := a.manager.ListElections(); err == nil {
		h.Storage = true
	}
	if a.audit != nil && a.audit.Ping(r.Context()) == nil {
		h.Audit = true
	}
	httpWriteJSON(w, h)
}

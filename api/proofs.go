package api

import (
	"net/http"

	"github.com/vocdoni/zkvote-core/circuits"
)

// prove generates a proof with the node prover.
// POST /proofs
func (a *API) prove(w http.ResponseWriter, r *http.Request) {
	if a.dispatcher == nil {
		ErrNotConfigured.With("prover").Write(w)
		return
	}
	req := &ProofRequest{}
	if !decodeBody(w, r, req) {
		return
	}
	inputs, err := circuits.NewInputs(req.Circuit, req.Inputs)
	if err != nil {
		errorFor(err).Write(w)
		return
	}
	res, err := a.dispatcher.Prove(r.Context(), inputs)
	if err != nil {
		errorFor(err).Write(w)
		return
	}
	httpWriteJSON(w, res)
}

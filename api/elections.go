package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/zkvote-core/types"
)

// writeElectionError reports a missing election with its own code.
func writeElectionError(w http.ResponseWriter, err error) {
	if errors.Is(err, types.ErrNotFound) {
		ErrElectionNotFound.WithErr(err).Write(w)
		return
	}
	errorFor(err).Write(w)
}

// newElection creates an election.
// POST /elections
func (a *API) newElection(w http.ResponseWriter, r *http.Request) {
	req := &NewElection{}
	if !decodeBody(w, r, req) {
		return
	}
	e, err := a.manager.CreateElection(r.Context(), req.Authorization, &req.Params)
	if err != nil {
		errorFor(err).Write(w)
		return
	}
	httpWriteJSON(w, e)
}

// elections lists every election.
// GET /elections
func (a *API) elections(w http.ResponseWriter, r *http.Request) {
	list, err := a.manager.ListElections()
	if err != nil {
		errorFor(err).Write(w)
		return
	}
	httpWriteJSON(w, list)
}

// election returns one election.
// GET /elections/{electionID}
func (a *API) election(w http.ResponseWriter, r *http.Request) {
	id, ok := electionID(w, r)
	if !ok {
		return
	}
	e, err := a.manager.Election(id)
	if err != nil {
		writeElectionError(w, err)
		return
	}
	httpWriteJSON(w, e)
}

// newCandidate adds a candidate to a pending election.
// POST /elections/{electionID}/candidates
func (a *API) newCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := electionID(w, r)
	if !ok {
		return
	}
	req := &NewCandidate{}
	if !decodeBody(w, r, req) {
		return
	}
	c, err := a.manager.AddCandidate(r.Context(), req.Authorization, id, req.Name, req.MetadataRef)
	if err != nil {
		writeElectionError(w, err)
		return
	}
	httpWriteJSON(w, c)
}

// transition moves an election to another state.
// POST /elections/{electionID}/{start|end|reset|finalize}
func (a *API) transition(w http.ResponseWriter, r *http.Request) {
	id, ok := electionID(w, r)
	if !ok {
		return
	}
	req := &AuthorizedRequest{}
	if !decodeBody(w, r, req) {
		return
	}
	var (
		e   *types.Election
		err error
	)
	switch chi.URLParam(r, TransitionURLParam) {
	case "start":
		e, err = a.manager.StartElection(r.Context(), req.Authorization, id)
	case "end":
		e, err = a.manager.EndElection(r.Context(), req.Authorization, id)
	case "reset":
		e, err = a.manager.ResetElection(r.Context(), req.Authorization, id)
	case "finalize":
		e, err = a.manager.FinalizeElection(r.Context(), req.Authorization, id)
	default:
		ErrResourceNotFound.Write(w)
		return
	}
	if err != nil {
		writeElectionError(w, err)
		return
	}
	httpWriteJSON(w, e)
}

// results returns the tally of an election.
// GET /elections/{electionID}/results
func (a *API) results(w http.ResponseWriter, r *http.Request) {
	id, ok := electionID(w, r)
	if !ok {
		return
	}
	res, err := a.manager.Results(id)
	if err != nil {
		writeElectionError(w, err)
		return
	}
	httpWriteJSON(w, res)
}

// eligibility checks an eligibility proof against an election.
// POST /elections/{electionID}/eligibility
func (a *API) eligibility(w http.ResponseWriter, r *http.Request) {
	id, ok := electionID(w, r)
	if !ok {
		return
	}
	req := &EligibilityProof{}
	if !decodeBody(w, r, req) {
		return
	}
	commitment, nullifier, err := a.manager.VerifyEligibility(r.Context(), id, req.Proof, req.PublicSignals)
	if err != nil {
		writeElectionError(w, err)
		return
	}
	httpWriteJSON(w, &Eligibility{
		Commitment: new(types.BigInt).SetBigInt(commitment),
		Nullifier:  new(types.BigInt).SetBigInt(nullifier),
	})
}

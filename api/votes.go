package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/zkvote-core/crypto/ethereum"
	"github.com/vocdoni/zkvote-core/election"
	"github.com/vocdoni/zkvote-core/log"
)

// signer recovers the address that signed msg, writing the error response
// if the signature is not valid.
func signer(w http.ResponseWriter, msg, signature []byte) (common.Address, bool) {
	addr, err := ethereum.AddrFromSignature(msg, signature)
	if err != nil {
		ErrInvalidSignature.WithErr(err).Write(w)
		return common.Address{}, false
	}
	return addr, true
}

// vote casts a vote. The voter is the signer of the request.
// POST /elections/{electionID}/votes
func (a *API) vote(w http.ResponseWriter, r *http.Request) {
	id, ok := electionID(w, r)
	if !ok {
		return
	}
	req := &Vote{}
	if !decodeBody(w, r, req) {
		return
	}
	voter, ok := signer(w, VoteMessage(id, req.CandidateID, req.Nullifier), req.Signature)
	if !ok {
		return
	}
	err := a.manager.CastVote(r.Context(), &election.Ballot{
		Voter:         voter,
		ElectionID:    id,
		CandidateID:   req.CandidateID,
		Nullifier:     req.Nullifier,
		Proof:         req.Proof,
		PublicSignals: req.PublicSignals,
	})
	if err != nil {
		writeElectionError(w, err)
		return
	}
	log.Debugw("vote accepted", "electionID", id, "voter", voter.Hex())
	httpWriteOK(w)
}

// humanity verifies the signer of the request as human for an election.
// POST /elections/{electionID}/humanity
func (a *API) humanity(w http.ResponseWriter, r *http.Request) {
	id, ok := electionID(w, r)
	if !ok {
		return
	}
	req := &HumanityProof{}
	if !decodeBody(w, r, req) {
		return
	}
	caller, ok := signer(w, HumanityMessage(id), req.Signature)
	if !ok {
		return
	}
	if err := a.manager.VerifyHumanity(r.Context(), caller, id, req.Proof, req.PublicSignals); err != nil {
		writeElectionError(w, err)
		return
	}
	httpWriteOK(w)
}

// attestHumanity lets an official vouch for a voter.
// POST /elections/{electionID}/humanity/attest
func (a *API) attestHumanity(w http.ResponseWriter, r *http.Request) {
	id, ok := electionID(w, r)
	if !ok {
		return
	}
	req := &HumanityAttestation{}
	if !decodeBody(w, r, req) {
		return
	}
	if err := a.manager.AttestHumanity(r.Context(), req.Authorization, id, req.Voter, req.Record); err != nil {
		writeElectionError(w, err)
		return
	}
	httpWriteOK(w)
}

package api

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/zkvote-core/authority"
	"github.com/vocdoni/zkvote-core/circuits"
	"github.com/vocdoni/zkvote-core/election"
	"github.com/vocdoni/zkvote-core/humanity"
	"github.com/vocdoni/zkvote-core/types"
)

// Health reports the availability of each backend.
type Health struct {
	Storage  bool `json:"storage"`
	Audit    bool `json:"audit"`
	Prover   bool `json:"prover"`
	Metadata bool `json:"metadata"`
}

// NewElection is the request to create an election.
type NewElection struct {
	Authorization *authority.Authorization `json:"authorization"`
	election.Params
}

// NewCandidate is the request to add a candidate to a pending election.
type NewCandidate struct {
	Authorization *authority.Authorization `json:"authorization"`
	Name          string                   `json:"name"`
	MetadataRef   string                   `json:"metadataRef,omitempty"`
}

// AuthorizedRequest carries only an authorization, for state transitions
// and authority removal.
type AuthorizedRequest struct {
	Authorization *authority.Authorization `json:"authorization"`
}

// Vote is the request to cast a vote. Signature is the voter's Ethereum
// signature over VoteMessage.
type Vote struct {
	CandidateID   uint32          `json:"candidateId"`
	Nullifier     types.HexBytes  `json:"nullifier"`
	Proof         *circuits.Proof `json:"proof"`
	PublicSignals []*types.BigInt `json:"publicSignals"`
	Signature     types.HexBytes  `json:"signature"`
}

// VoteMessage is what a voter signs to cast a vote.
func VoteMessage(electionID uint64, candidateID uint32, nullifier types.HexBytes) []byte {
	return fmt.Appendf(nil, "zkvote vote: election %d candidate %d nullifier %x", electionID, candidateID, []byte(nullifier))
}

// HumanityProof is the request to verify the caller as human for an
// election. Signature is the caller's Ethereum signature over
// HumanityMessage.
type HumanityProof struct {
	Proof         *circuits.Proof `json:"proof"`
	PublicSignals []*types.BigInt `json:"publicSignals"`
	Signature     types.HexBytes  `json:"signature"`
}

// HumanityMessage is what a voter signs to present a humanity proof.
func HumanityMessage(electionID uint64) []byte {
	return fmt.Appendf(nil, "zkvote humanity: election %d", electionID)
}

// HumanityAttestation is an official vouching for a voter.
type HumanityAttestation struct {
	Authorization *authority.Authorization `json:"authorization"`
	Voter         common.Address           `json:"voter"`
	Record        *humanity.Record         `json:"record"`
}

// EligibilityProof is an eligibility proof to check against an election.
type EligibilityProof struct {
	Proof         *circuits.Proof `json:"proof"`
	PublicSignals []*types.BigInt `json:"publicSignals"`
}

// Eligibility is the response to a valid eligibility proof.
type Eligibility struct {
	Commitment *types.BigInt `json:"commitment"`
	Nullifier  *types.BigInt `json:"nullifier"`
}

// Votes is the response to a vote count query.
type Votes struct {
	ElectionID uint64 `json:"electionId"`
	Votes      uint64 `json:"votes"`
}

// NewAuthority is the request to register an authority.
type NewAuthority struct {
	Authorization *authority.Authorization `json:"authorization"`
	Address       common.Address           `json:"address"`
	OfficialID    string                   `json:"officialId"`
	Level         types.AuthorityLevel     `json:"level"`
}

// Authority is an authority role with its permissions.
type Authority struct {
	*types.AuthorityRole
	Permissions []types.Action `json:"permissions"`
}

// ProofRequest asks the node to generate a proof. Inputs are keyed by the
// circuit input names.
type ProofRequest struct {
	Circuit circuits.CircuitID        `json:"circuit"`
	Inputs  map[string]*types.BigInt `json:"inputs"`
}

// ContentID is the response to a stored metadata document.
type ContentID struct {
	CID string `json:"cid"`
}

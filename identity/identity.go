// Package identity derives voter commitments, nullifiers and vote
// commitments with Poseidon over the BN254 scalar field. All functions are
// pure: inputs must already be canonical field elements, anything negative
// or out of field is rejected with types.ErrInputDomain.
package identity

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/vocdoni/zkvote-core/crypto"
	"github.com/vocdoni/zkvote-core/crypto/hash/poseidon"
	"github.com/vocdoni/zkvote-core/types"
)

// Commitment returns H(voterID, secret).
func Commitment(voterID, secret *big.Int) (*big.Int, error) {
	if err := crypto.CheckField([]string{"voter_id", "secret"}, voterID, secret); err != nil {
		return nil, err
	}
	return poseidon.Hash(voterID, secret)
}

// Nullifier returns H(voterID, electionID, secret). It is the single use
// token of a voter in an election.
func Nullifier(voterID, electionID, secret *big.Int) (*big.Int, error) {
	if err := crypto.CheckField([]string{"voter_id", "election_id", "secret"},
		voterID, electionID, secret); err != nil {
		return nil, err
	}
	return poseidon.Hash(voterID, electionID, secret)
}

// VoteCommitment returns H(voterID, candidateID, electionID, secret).
func VoteCommitment(voterID, candidateID, electionID, secret *big.Int) (*big.Int, error) {
	if err := crypto.CheckField([]string{"voter_id", "candidate_id", "election_id", "secret"},
		voterID, candidateID, electionID, secret); err != nil {
		return nil, err
	}
	return poseidon.Hash(voterID, candidateID, electionID, secret)
}

// NewSecret draws a uniformly random non-zero field element from
// crypto/rand.
func NewSecret() (*big.Int, error) {
	upper := new(big.Int).Sub(crypto.FieldModulus(), big.NewInt(1))
	s, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read randomness: %v", types.ErrBackendUnavailable, err)
	}
	return s.Add(s, big.NewInt(1)), nil
}

// Voter bundles a public voter id with its secret. It must not be
// persisted.
type Voter struct {
	ID     *big.Int
	Secret *big.Int
}

// NewVoter returns a voter with a fresh secret.
func NewVoter(id *big.Int) (*Voter, error) {
	if err := crypto.CheckField([]string{"voter_id"}, id); err != nil {
		return nil, err
	}
	secret, err := NewSecret()
	if err != nil {
		return nil, err
	}
	return &Voter{ID: new(big.Int).Set(id), Secret: secret}, nil
}

func (v *Voter) Commitment() (*big.Int, error) {
	return Commitment(v.ID, v.Secret)
}

func (v *Voter) Nullifier(electionID uint64) (*big.Int, error) {
	return Nullifier(v.ID, new(big.Int).SetUint64(electionID), v.Secret)
}

func (v *Voter) VoteCommitment(electionID uint64, candidateID uint32) (*big.Int, error) {
	return VoteCommitment(v.ID, big.NewInt(int64(candidateID)),
		new(big.Int).SetUint64(electionID), v.Secret)
}

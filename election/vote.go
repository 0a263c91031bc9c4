package election

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/zkvote-core/authority"
	"github.com/vocdoni/zkvote-core/circuits"
	"github.com/vocdoni/zkvote-core/crypto"
	"github.com/vocdoni/zkvote-core/humanity"
	"github.com/vocdoni/zkvote-core/log"
	"github.com/vocdoni/zkvote-core/metrics"
	"github.com/vocdoni/zkvote-core/types"
	"github.com/vocdoni/zkvote-core/util"
	"github.com/vocdoni/zkvote-core/verifier"
)

// Ballot is a vote cast with its vote circuit proof. The nullifier must be
// the one carried by the proof.
type Ballot struct {
	Voter         common.Address  `json:"voter"`
	ElectionID    uint64          `json:"electionId"`
	CandidateID   uint32          `json:"candidateId"`
	Nullifier     types.HexBytes  `json:"nullifier"`
	Proof         *circuits.Proof `json:"proof"`
	PublicSignals []*types.BigInt `json:"publicSignals"`
}

// nullifierKey is the fixed size encoding of a nullifier used as storage
// key, so that the same field element always maps to the same key.
func nullifierKey(n *big.Int) []byte {
	return n.FillBytes(make([]byte, 32))
}

// CastVote tallies a ballot. The proof is verified first, then, under the
// election lock, the nullifier must be unused, the election Active, the
// candidate in range and the voter humanity verified if required. A used
// nullifier is reported as types.ErrAlreadyVoted in any state. The
// nullifier insertion and the tally increment are committed together.
func (m *Manager) CastVote(ctx context.Context, b *Ballot) error {
	if err := m.castVote(ctx, b); err != nil {
		metrics.VotesRejected.WithLabelValues(rejectReason(err)).Inc()
		if b != nil {
			log.Debugw("vote rejected", "electionID", b.ElectionID, "address", b.Voter.Hex(), "reason", err.Error())
		}
		return err
	}
	metrics.VotesAccepted.Inc()
	return nil
}

func (m *Manager) castVote(ctx context.Context, b *Ballot) error {
	if b == nil || len(b.Nullifier) == 0 {
		return fmt.Errorf("%w: empty ballot", types.ErrInputDomain)
	}
	if !crypto.InField(b.Nullifier.BigInt()) {
		return fmt.Errorf("%w: nullifier is not a canonical field element", types.ErrInputDomain)
	}
	if _, err := m.Election(b.ElectionID); err != nil {
		return err
	}
	if _, err := m.gate.Verify(ctx, &verifier.Submission{
		Circuit:       circuits.VoteCast,
		Proof:         b.Proof,
		PublicSignals: b.PublicSignals,
	}); err != nil {
		return err
	}
	nullifier := b.Nullifier.BigInt()
	if err := bindSignals(circuits.VoteCast, b.PublicSignals, map[string]*big.Int{
		"nullifier":    nullifier,
		"election_id":  new(big.Int).SetUint64(b.ElectionID),
		"candidate_id": big.NewInt(int64(b.CandidateID)),
	}); err != nil {
		return err
	}

	unlock := m.lock(b.ElectionID)
	defer unlock()
	e, err := m.Election(b.ElectionID)
	if err != nil {
		return err
	}
	key := nullifierKey(nullifier)
	used, err := m.stg.HasNullifier(e.ID, key)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	if used {
		return types.ErrAlreadyVoted
	}
	if e.State != types.ElectionActive {
		return fmt.Errorf("%w: election %d is %s, votes are only accepted while %s",
			types.ErrInvalidStateTransition, e.ID, e.State, types.ElectionActive)
	}
	if b.CandidateID >= e.CandidateCount {
		return fmt.Errorf("%w: candidate %d out of range [0,%d)", types.ErrInputDomain, b.CandidateID, e.CandidateCount)
	}
	if e.RequiresHumanity {
		verified, err := m.stg.HumanityVerified(e.ID, b.Voter)
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
		}
		if !verified {
			return fmt.Errorf("%w: %s is not humanity verified for election %d",
				types.ErrUnauthorized, b.Voter.Hex(), e.ID)
		}
	}
	e.Tally[b.CandidateID]++
	e.TotalVotes++
	if err := m.stg.CommitVote(e, key); err != nil {
		if errors.Is(err, types.ErrAlreadyVoted) {
			return err
		}
		return fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	log.Debugw("vote accepted", "electionID", e.ID, "candidateID", b.CandidateID, "totalVotes", e.TotalVotes)
	return nil
}

// rejectReason labels a vote rejection for metrics.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, types.ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, types.ErrBackendUnavailable):
		return "backend"
	case errors.Is(err, types.ErrProofRejected):
		return "proof"
	case errors.Is(err, types.ErrInvalidStateTransition):
		return "state"
	case errors.Is(err, types.ErrUnauthorized):
		return "humanity"
	case errors.Is(err, types.ErrNotFound):
		return "not_found"
	}
	return "input"
}

// bindSignals checks that the named public signals hold the expected
// values.
func bindSignals(c circuits.CircuitID, signals []*types.BigInt, expected map[string]*big.Int) error {
	for name, want := range expected {
		got := circuits.Signal(c, signals, name)
		if got == nil || got.Cmp(want) != 0 {
			return fmt.Errorf("%w: %s proof %s does not match the request", types.ErrProofMalformed, c, name)
		}
	}
	return nil
}

// AddressField maps an address to the field element used as the humanity
// circuit user identifier.
func AddressField(addr common.Address) *big.Int {
	return util.BytesToFF(addr.Bytes())
}

// VerifyHumanity marks caller as humanity verified for the election after
// checking a humanity proof issued to caller. The election must require
// humanity; its state does not matter.
func (m *Manager) VerifyHumanity(ctx context.Context, caller common.Address, electionID uint64,
	proof *circuits.Proof, signals []*types.BigInt,
) error {
	e, err := m.Election(electionID)
	if err != nil {
		return err
	}
	if !e.RequiresHumanity {
		return fmt.Errorf("%w: election %d does not require humanity verification",
			types.ErrInvalidStateTransition, electionID)
	}
	if _, err := m.gate.Verify(ctx, &verifier.Submission{
		Circuit:       circuits.Humanity,
		Proof:         proof,
		PublicSignals: signals,
	}); err != nil {
		log.Debugw("humanity proof rejected", "electionID", electionID, "address", caller.Hex(), "reason", err.Error())
		return err
	}
	if err := bindSignals(circuits.Humanity, signals, map[string]*big.Int{
		"user_identifier": AddressField(caller),
	}); err != nil {
		return err
	}
	return m.markHuman(electionID, caller)
}

// AttestHumanity lets an official holding verify_humanity vouch for voter
// with a humanity record, instead of a zk humanity proof.
func (m *Manager) AttestHumanity(ctx context.Context, auth *authority.Authorization, electionID uint64,
	voter common.Address, record *humanity.Record,
) error {
	e, err := m.Election(electionID)
	if err != nil {
		return err
	}
	if !e.RequiresHumanity {
		return fmt.Errorf("%w: election %d does not require humanity verification",
			types.ErrInvalidStateTransition, electionID)
	}
	role, err := m.registry.Authorize(ctx, auth, types.ActionVerifyHumanity, electionID)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: missing humanity record", types.ErrProofMalformed)
	}
	if err := record.Verify(m.gate.Now(), m.gate.Window(circuits.Humanity)); err != nil {
		return err
	}
	if err := m.markHuman(electionID, voter); err != nil {
		return err
	}
	m.registry.Done(ctx, role, types.ActionVerifyHumanity, electionID, "attested "+voter.Hex())
	return nil
}

func (m *Manager) markHuman(electionID uint64, addr common.Address) error {
	unlock := m.lock(electionID)
	defer unlock()
	if err := m.stg.SetHumanityVerified(electionID, addr, m.now().Unix()); err != nil {
		return fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	log.Infow("humanity verified", "electionID", electionID, "address", addr.Hex())
	return nil
}

// HumanityVerified reports whether addr passed the humanity check of the
// election.
func (m *Manager) HumanityVerified(electionID uint64, addr common.Address) (bool, error) {
	return m.stg.HumanityVerified(electionID, addr)
}

// VerifyEligibility checks an eligibility proof bound to the election and
// returns the commitment and nullifier it discloses.
func (m *Manager) VerifyEligibility(ctx context.Context, electionID uint64, proof *circuits.Proof,
	signals []*types.BigInt,
) (commitment, nullifier *big.Int, err error) {
	if _, err := m.Election(electionID); err != nil {
		return nil, nil, err
	}
	if _, err := m.gate.Verify(ctx, &verifier.Submission{
		Circuit:       circuits.Eligibility,
		Proof:         proof,
		PublicSignals: signals,
	}); err != nil {
		return nil, nil, err
	}
	if err := bindSignals(circuits.Eligibility, signals, map[string]*big.Int{
		"election_id": new(big.Int).SetUint64(electionID),
	}); err != nil {
		return nil, nil, err
	}
	return circuits.Signal(circuits.Eligibility, signals, "commitment"),
		circuits.Signal(circuits.Eligibility, signals, "nullifier"), nil
}

// Expired returns the Active elections whose end time is before now.
func (m *Manager) Expired(now time.Time) ([]*types.Election, error) {
	all, err := m.stg.ListElections()
	if err != nil {
		return nil, err
	}
	expired := []*types.Election{}
	for _, e := range all {
		if e.State == types.ElectionActive && e.EndTime != 0 && e.EndTime < now.Unix() {
			expired = append(expired, e)
		}
	}
	return expired, nil
}

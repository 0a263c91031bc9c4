// Package election implements the election lifecycle: creation, candidate
// registration, the Pending -> Active -> Ended -> Finalized transitions (with
// the explicit Ended -> Pending reset), vote casting and humanity checks.
package election

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vocdoni/zkvote-core/authority"
	"github.com/vocdoni/zkvote-core/blobstore"
	"github.com/vocdoni/zkvote-core/log"
	"github.com/vocdoni/zkvote-core/metrics"
	"github.com/vocdoni/zkvote-core/storage"
	"github.com/vocdoni/zkvote-core/types"
	"github.com/vocdoni/zkvote-core/verifier"
)

// Manager is the single writer of election records. Mutations of one
// election are serialized by a per-election lock; proofs are verified
// before the lock is taken.
type Manager struct {
	stg      *storage.Storage
	registry *authority.Registry
	gate     *verifier.Gate
	blobs    blobstore.Store  // optional, checks metadata references
	locks    sync.Map         // election id -> *sync.Mutex
	now      func() time.Time // wall clock for record timestamps
}

// Option configures a Manager.
type Option func(*Manager)

// WithBlobStore makes CreateElection check that metadata references
// resolve in s.
func WithBlobStore(s blobstore.Store) Option {
	return func(m *Manager) { m.blobs = s }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager returns a manager over stg. Administrative operations are
// authorized by registry and every proof goes through gate.
func NewManager(stg *storage.Storage, registry *authority.Registry, gate *verifier.Gate, opts ...Option) (*Manager, error) {
	if stg == nil || registry == nil || gate == nil {
		return nil, fmt.Errorf("storage, registry and gate are required")
	}
	m := &Manager{
		stg:      stg,
		registry: registry,
		gate:     gate,
		now:      time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// lock takes the lock of election id and returns its release function.
func (m *Manager) lock(id uint64) func() {
	v, _ := m.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Params describe a new election.
type Params struct {
	Title            string `json:"title"`
	MetadataRef      string `json:"metadataRef,omitempty"`
	StartTime        int64  `json:"startTime"`
	EndTime          int64  `json:"endTime"`
	CandidateCount   uint32 `json:"candidateCount"`
	RequiresHumanity bool   `json:"requiresHumanity"`
}

func (p *Params) check() error {
	if p.Title == "" {
		return fmt.Errorf("%w: empty title", types.ErrInputDomain)
	}
	if p.CandidateCount == 0 {
		return fmt.Errorf("%w: an election needs at least one candidate", types.ErrInputDomain)
	}
	if p.EndTime != 0 && p.EndTime <= p.StartTime {
		return fmt.Errorf("%w: end time %d not after start time %d", types.ErrInputDomain, p.EndTime, p.StartTime)
	}
	return nil
}

// CreateElection stores a new Pending election. Creation proofs are bound
// to election id zero since the id is assigned here.
func (m *Manager) CreateElection(ctx context.Context, auth *authority.Authorization, p *Params) (*types.Election, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: missing election parameters", types.ErrInputDomain)
	}
	if err := p.check(); err != nil {
		return nil, err
	}
	role, err := m.registry.Authorize(ctx, auth, types.ActionCreateElection, 0)
	if err != nil {
		return nil, err
	}
	if p.MetadataRef != "" && m.blobs != nil {
		if _, err := blobstore.GetMetadata(ctx, m.blobs, p.MetadataRef); err != nil {
			return nil, fmt.Errorf("metadata %s: %w", p.MetadataRef, err)
		}
	}
	id, err := m.stg.NextElectionID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	e := &types.Election{
		ID:               id,
		Title:            p.Title,
		MetadataRef:      p.MetadataRef,
		StartTime:        p.StartTime,
		EndTime:          p.EndTime,
		CandidateCount:   p.CandidateCount,
		RequiresHumanity: p.RequiresHumanity,
		State:            types.ElectionPending,
		Candidates:       []*types.Candidate{},
		Tally:            make([]uint64, p.CandidateCount),
		CreatedBy:        role.Address,
		CreatedAt:        m.now().Unix(),
	}
	if err := m.stg.SetElection(e); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	metrics.ElectionTransitions.WithLabelValues(types.ElectionPending.String()).Inc()
	log.Infow("election created", "electionID", id, "title", p.Title,
		"candidates", p.CandidateCount, "address", role.Address.Hex())
	m.registry.Done(ctx, role, types.ActionCreateElection, id, "created "+p.Title)
	return e, nil
}

// AddCandidate appends a candidate to a Pending election. The candidate id
// is its position.
func (m *Manager) AddCandidate(ctx context.Context, auth *authority.Authorization, electionID uint64,
	name, metadataRef string,
) (*types.Candidate, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty candidate name", types.ErrInputDomain)
	}
	if _, err := m.Election(electionID); err != nil {
		return nil, err
	}
	role, err := m.registry.Authorize(ctx, auth, types.ActionCreateElection, electionID)
	if err != nil {
		return nil, err
	}
	unlock := m.lock(electionID)
	defer unlock()
	e, err := m.Election(electionID)
	if err != nil {
		return nil, err
	}
	if e.State != types.ElectionPending {
		return nil, fmt.Errorf("%w: candidates can only be added while pending, election %d is %s",
			types.ErrInvalidStateTransition, electionID, e.State)
	}
	if uint32(len(e.Candidates)) >= e.CandidateCount {
		return nil, fmt.Errorf("%w: election %d already has its %d candidates",
			types.ErrInvalidStateTransition, electionID, e.CandidateCount)
	}
	c := &types.Candidate{
		ID:          uint32(len(e.Candidates)),
		Name:        name,
		MetadataRef: metadataRef,
	}
	e.Candidates = append(e.Candidates, c)
	if err := m.stg.SetElection(e); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	log.Debugw("candidate added", "electionID", electionID, "candidateID", c.ID, "name", name)
	m.registry.Done(ctx, role, types.ActionCreateElection, electionID, "added candidate "+name)
	return c, nil
}

// StartElection moves a Pending election with all its candidates to Active.
func (m *Manager) StartElection(ctx context.Context, auth *authority.Authorization, electionID uint64) (*types.Election, error) {
	return m.transition(ctx, auth, electionID, types.ActionStartElection, false,
		types.ElectionPending, types.ElectionActive, func(e *types.Election) error {
			if uint32(len(e.Candidates)) != e.CandidateCount {
				return fmt.Errorf("%w: election %d has %d of %d candidates",
					types.ErrInvalidStateTransition, e.ID, len(e.Candidates), e.CandidateCount)
			}
			return nil
		})
}

// EndElection moves an Active election to Ended.
func (m *Manager) EndElection(ctx context.Context, auth *authority.Authorization, electionID uint64) (*types.Election, error) {
	return m.transition(ctx, auth, electionID, types.ActionEndElection, false,
		types.ElectionActive, types.ElectionEnded, nil)
}

// ResetElection moves an Ended election back to Pending, discarding its
// candidates, its tally and its accepted nullifiers. Admins only.
func (m *Manager) ResetElection(ctx context.Context, auth *authority.Authorization, electionID uint64) (*types.Election, error) {
	return m.transition(ctx, auth, electionID, types.ActionEndElection, true,
		types.ElectionEnded, types.ElectionPending, func(e *types.Election) error {
			log.Warnw("resetting election", "electionID", e.ID, "totalVotes", e.TotalVotes,
				"candidates", len(e.Candidates))
			e.Candidates = []*types.Candidate{}
			e.Tally = make([]uint64, e.CandidateCount)
			e.TotalVotes = 0
			return nil
		})
}

// FinalizeElection seals an Ended election. Finalized is terminal. Admins
// only.
func (m *Manager) FinalizeElection(ctx context.Context, auth *authority.Authorization, electionID uint64) (*types.Election, error) {
	return m.transition(ctx, auth, electionID, types.ActionEndElection, true,
		types.ElectionEnded, types.ElectionFinalized, nil)
}

// transition authorizes action, then under the election lock checks that
// the election is in state from, applies mutate and stores it in state to.
func (m *Manager) transition(ctx context.Context, auth *authority.Authorization, electionID uint64,
	action types.Action, adminOnly bool, from, to types.ElectionState, mutate func(*types.Election) error,
) (*types.Election, error) {
	if _, err := m.Election(electionID); err != nil {
		return nil, err
	}
	role, err := m.registry.Authorize(ctx, auth, action, electionID)
	if err != nil {
		return nil, err
	}
	if adminOnly && role.Level != types.LevelAdmin {
		err := fmt.Errorf("%w: moving to %s requires %s, %s is %s",
			types.ErrInsufficientPermission, to, types.LevelAdmin, role.Address.Hex(), role.Level)
		log.Warnw("transition rejected", "electionID", electionID, "address", role.Address.Hex(), "reason", err.Error())
		return nil, err
	}

	unlock := m.lock(electionID)
	defer unlock()
	e, err := m.Election(electionID)
	if err != nil {
		return nil, err
	}
	if e.State != from {
		return nil, fmt.Errorf("%w: election %d is %s, expected %s to move to %s",
			types.ErrInvalidStateTransition, electionID, e.State, from, to)
	}
	if mutate != nil {
		if err := mutate(e); err != nil {
			return nil, err
		}
	}
	e.State = to
	if from == types.ElectionEnded && to == types.ElectionPending {
		err = m.stg.ResetElection(e)
	} else {
		err = m.stg.SetElection(e)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	metrics.ElectionTransitions.WithLabelValues(to.String()).Inc()
	log.Infow("election state changed", "electionID", electionID, "from", from.String(),
		"to", to.String(), "address", role.Address.Hex())
	m.registry.Done(ctx, role, action, electionID, fmt.Sprintf("%s -> %s", from, to))
	return e, nil
}

// Election returns the election record.
func (m *Manager) Election(id uint64) (*types.Election, error) {
	e, err := m.stg.Election(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: election %d", types.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	return e, nil
}

// ListElections returns every election ordered by id.
func (m *Manager) ListElections() ([]*types.Election, error) {
	return m.stg.ListElections()
}

// Results returns the tally of an election, in any state.
func (m *Manager) Results(id uint64) (*types.ElectionResults, error) {
	e, err := m.Election(id)
	if err != nil {
		return nil, err
	}
	return &types.ElectionResults{
		ElectionID: e.ID,
		State:      e.State,
		TotalVotes: e.TotalVotes,
		Tally:      e.Tally,
	}, nil
}

// TotalVotes returns the number of accepted votes of an election.
func (m *Manager) TotalVotes(id uint64) (uint64, error) {
	e, err := m.Election(id)
	if err != nil {
		return 0, err
	}
	return e.TotalVotes, nil
}

// CandidateVotes returns the votes received by one candidate.
func (m *Manager) CandidateVotes(id uint64, candidateID uint32) (uint64, error) {
	e, err := m.Election(id)
	if err != nil {
		return 0, err
	}
	if candidateID >= e.CandidateCount {
		return 0, fmt.Errorf("%w: candidate %d out of range [0,%d)", types.ErrInputDomain, candidateID, e.CandidateCount)
	}
	return e.Tally[candidateID], nil
}

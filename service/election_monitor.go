package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vocdoni/zkvote-core/authority"
	"github.com/vocdoni/zkvote-core/crypto/ethereum"
	"github.com/vocdoni/zkvote-core/election"
	"github.com/vocdoni/zkvote-core/log"
	"github.com/vocdoni/zkvote-core/types"
)

// ElectionMonitor periodically ends the Active elections whose end time
// has passed. It acts as a regular authority: its key must hold a role
// granting end_election.
type ElectionMonitor struct {
	manager    *election.Manager
	registry   *authority.Registry
	key        *ethereum.SignKeys
	officialID string
	interval   time.Duration
	now        func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewElectionMonitor creates a monitor that checks every interval. A nil
// clock means time.Now.
func NewElectionMonitor(manager *election.Manager, registry *authority.Registry, key *ethereum.SignKeys,
	interval time.Duration, now func() time.Time,
) *ElectionMonitor {
	if now == nil {
		now = time.Now
	}
	return &ElectionMonitor{
		manager:  manager,
		registry: registry,
		key:      key,
		interval: interval,
		now:      now,
	}
}

// Start begins monitoring. It returns an error if the service is already
// running, if the registry requires zk authority proofs or if the monitor
// key holds no active role allowed to end elections.
func (em *ElectionMonitor) Start(ctx context.Context) error {
	em.mu.Lock()
	defer em.mu.Unlock()

	if em.cancel != nil {
		return fmt.Errorf("service already running")
	}
	if em.interval <= 0 {
		return fmt.Errorf("invalid monitor interval %s", em.interval)
	}
	// the monitor signs plain authority proofs and has no prover
	if em.registry.RequiresZKProof() {
		return fmt.Errorf("election monitor cannot run when zk authority proofs are required")
	}
	role, err := em.registry.Role(em.key.Address())
	if err != nil {
		return fmt.Errorf("election monitor key: %w", err)
	}
	if !role.IsActive || !authority.HasPermission(role.Level, types.ActionEndElection) {
		return fmt.Errorf("election monitor key %s cannot end elections", em.key.Address().Hex())
	}
	em.officialID = role.OfficialID

	ctx, em.cancel = context.WithCancel(ctx)
	em.wg.Add(1)
	go em.monitor(ctx, role.Level)
	return nil
}

// Stop halts the monitor and waits for the running check to finish.
func (em *ElectionMonitor) Stop() {
	em.mu.Lock()
	if em.cancel != nil {
		em.cancel()
		em.cancel = nil
	}
	em.mu.Unlock()
	em.wg.Wait()
}

func (em *ElectionMonitor) monitor(ctx context.Context, level types.AuthorityLevel) {
	defer em.wg.Done()
	ticker := time.NewTicker(em.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			em.endExpired(ctx, level)
		}
	}
}

// endExpired ends every expired election and returns how many it ended.
func (em *ElectionMonitor) endExpired(ctx context.Context, level types.AuthorityLevel) int {
	now := em.now()
	expired, err := em.manager.Expired(now)
	if err != nil {
		log.Warnw("cannot list expired elections", "error", err.Error())
		return 0
	}
	ended := 0
	for _, e := range expired {
		proof, err := authority.NewProof(em.key, em.officialID, level, types.ActionEndElection, e.ID, now)
		if err != nil {
			log.Warnw("cannot sign end_election", "electionID", e.ID, "error", err.Error())
			continue
		}
		if _, err := em.manager.EndElection(ctx, &authority.Authorization{Proof: proof}, e.ID); err != nil {
			log.Warnw("cannot end expired election", "electionID", e.ID, "error", err.Error())
			continue
		}
		log.Infow("expired election ended", "electionID", e.ID, "endTime", e.EndTime)
		ended++
	}
	return ended
}

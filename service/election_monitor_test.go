package service

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-core/authority"
	"github.com/vocdoni/zkvote-core/crypto/ethereum"
	"github.com/vocdoni/zkvote-core/election"
	"github.com/vocdoni/zkvote-core/types"
)

func (core *testCore) authorization(c *qt.C, k *ethereum.SignKeys, action types.Action, electionID uint64) *authority.Authorization {
	role, err := core.registry.Role(k.Address())
	c.Assert(err, qt.IsNil)
	p, err := authority.NewProof(k, role.OfficialID, role.Level, action, electionID, testNow)
	c.Assert(err, qt.IsNil)
	return &authority.Authorization{Proof: p}
}

// activeElection creates and starts a one candidate election ending at end.
func (core *testCore) activeElection(c *qt.C, admin *ethereum.SignKeys, end time.Time) *types.Election {
	ctx := context.Background()
	e, err := core.manager.CreateElection(ctx, core.authorization(c, admin, types.ActionCreateElection, 0), &election.Params{
		Title:          "Council",
		StartTime:      testNow.Add(-2 * time.Hour).Unix(),
		EndTime:        end.Unix(),
		CandidateCount: 1,
	})
	c.Assert(err, qt.IsNil)
	_, err = core.manager.AddCandidate(ctx, core.authorization(c, admin, types.ActionCreateElection, e.ID), e.ID, "alice", "")
	c.Assert(err, qt.IsNil)
	e, err = core.manager.StartElection(ctx, core.authorization(c, admin, types.ActionStartElection, e.ID), e.ID)
	c.Assert(err, qt.IsNil)
	return e
}

func TestElectionMonitor(t *testing.T) {
	c := qt.New(t)
	core := newCore(c)
	admin := newKeys(c)
	c.Assert(core.registry.Bootstrap(admin.Address(), "ADM-1"), qt.IsNil)
	monitorKey := newKeys(c)
	_, err := core.registry.Register(monitorKey.Address(), "MON-1", types.LevelModerator)
	c.Assert(err, qt.IsNil)

	expired := core.activeElection(c, admin, testNow.Add(-time.Minute))
	running := core.activeElection(c, admin, testNow.Add(time.Hour))

	monitor := NewElectionMonitor(core.manager, core.registry, monitorKey, 10*time.Millisecond, clock)
	ctx := context.Background()
	c.Assert(monitor.Start(ctx), qt.IsNil)
	c.Assert(monitor.Start(ctx), qt.ErrorMatches, "service already running")

	deadline := time.Now().Add(5 * time.Second)
	for {
		e, err := core.manager.Election(expired.ID)
		c.Assert(err, qt.IsNil)
		if e.State == types.ElectionEnded {
			break
		}
		if time.Now().After(deadline) {
			c.Fatalf("expired election still %s", e.State)
		}
		time.Sleep(10 * time.Millisecond)
	}
	monitor.Stop()

	e, err := core.manager.Election(running.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(e.State, qt.Equals, types.ElectionActive)

	actions, err := core.registry.ActionHistory(monitorKey.Address())
	c.Assert(err, qt.IsNil)
	c.Assert(actions, qt.HasLen, 1)
	c.Assert(actions[0].Action, qt.Equals, types.ActionEndElection)
	c.Assert(actions[0].ElectionID, qt.Equals, expired.ID)
}

func TestElectionMonitorRole(t *testing.T) {
	c := qt.New(t)
	core := newCore(c)
	ctx := context.Background()

	// unknown key
	monitor := NewElectionMonitor(core.manager, core.registry, newKeys(c), time.Second, clock)
	c.Assert(monitor.Start(ctx), qt.IsNotNil)

	// observers cannot end elections
	observer := newKeys(c)
	_, err := core.registry.Register(observer.Address(), "OBS-1", types.LevelObserver)
	c.Assert(err, qt.IsNil)
	monitor = NewElectionMonitor(core.manager, core.registry, observer, time.Second, clock)
	c.Assert(monitor.Start(ctx), qt.IsNotNil)
	monitor.Stop()
}

func TestElectionMonitorZKPolicy(t *testing.T) {
	c := qt.New(t)
	core := newCore(c, authority.RequireZKProof(true))
	key := newKeys(c)
	_, err := core.registry.Register(key.Address(), "MON-1", types.LevelModerator)
	c.Assert(err, qt.IsNil)

	monitor := NewElectionMonitor(core.manager, core.registry, key, time.Second, clock)
	c.Assert(monitor.Start(context.Background()), qt.ErrorMatches, ".*zk authority proofs are required")
	monitor.Stop()
}

package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-core/types"
)

func TestRecordAndList(t *testing.T) {
	for name, dsn := range map[string]string{"memory": "", "file": t.TempDir()} {
		t.Run(name, func(t *testing.T) {
			c := qt.New(t)
			ctx := context.Background()
			l, err := Open(DriverSQLite, dsn)
			c.Assert(err, qt.IsNil)
			defer l.Close()

			e1, e2 := uint64(1), uint64(2)
			base := time.Unix(1_750_000_000, 0).UTC()
			c.Assert(l.Record(ctx, &Entry{
				Actor: "0xaa", Action: "start_election", ElectionID: &e1, CreatedAt: base,
			}), qt.IsNil)
			c.Assert(l.Record(ctx, &Entry{
				Actor: "0xaa", Action: "end_election", ElectionID: &e1, CreatedAt: base.Add(time.Minute),
			}), qt.IsNil)
			c.Assert(l.Record(ctx, &Entry{
				Actor: "0xbb", Action: "start_election", ElectionID: &e2, Outcome: OutcomeRejected,
				Detail: "insufficient permission", CreatedAt: base.Add(2 * time.Minute),
			}), qt.IsNil)

			all, err := l.List(ctx, Filter{})
			c.Assert(err, qt.IsNil)
			c.Assert(all, qt.HasLen, 3)
			c.Assert(all[0].Actor, qt.Equals, "0xbb")
			c.Assert(all[0].Outcome, qt.Equals, OutcomeRejected)
			c.Assert(all[2].Outcome, qt.Equals, OutcomeOK)
			c.Assert(all[2].ID, qt.Not(qt.Equals), "")

			byElection, err := l.List(ctx, Filter{ElectionID: &e1})
			c.Assert(err, qt.IsNil)
			c.Assert(byElection, qt.HasLen, 2)
			c.Assert(byElection[0].Action, qt.Equals, "end_election")

			byActor, err := l.List(ctx, Filter{Actor: "0xbb", Limit: 10})
			c.Assert(err, qt.IsNil)
			c.Assert(byActor, qt.HasLen, 1)
		})
	}
}

func TestUnsupportedDriver(t *testing.T) {
	c := qt.New(t)
	_, err := Open("mysql", "x")
	c.Assert(errors.Is(err, types.ErrInputDomain), qt.IsTrue)
}

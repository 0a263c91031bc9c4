package types

import (
	"encoding/json"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestActionNames(t *testing.T) {
	c := qt.New(t)
	for _, a := range Actions {
		parsed, err := ParseAction(a.String())
		c.Assert(err, qt.IsNil)
		c.Assert(parsed, qt.Equals, a)
	}
	_, err := ParseAction("drop_tables")
	c.Assert(errors.Is(err, ErrInputDomain), qt.IsTrue)
	c.Assert(Action(0).Valid(), qt.IsFalse)
}

func TestAuthorityLevelJSON(t *testing.T) {
	c := qt.New(t)
	data, err := json.Marshal(map[string]AuthorityLevel{"level": LevelModerator})
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `{"level":"moderator"}`)

	var decoded map[string]AuthorityLevel
	c.Assert(json.Unmarshal([]byte(`{"level":"Observer"}`), &decoded), qt.IsNil)
	c.Assert(decoded["level"], qt.Equals, LevelObserver)

	err = json.Unmarshal([]byte(`{"level":"root"}`), &decoded)
	c.Assert(err, qt.ErrorMatches, `.*unknown authority level "root"`)
}

func TestElectionStateString(t *testing.T) {
	c := qt.New(t)
	c.Assert(ElectionFinalized.String(), qt.Equals, "finalized")
	var s ElectionState
	c.Assert(s.UnmarshalText([]byte("active")), qt.IsNil)
	c.Assert(s, qt.Equals, ElectionActive)
}

func TestErrorClasses(t *testing.T) {
	c := qt.New(t)
	c.Assert(errors.Is(ErrProofStale, ErrProofRejected), qt.IsTrue)
	c.Assert(errors.Is(ErrNotAuthority, ErrUnauthorized), qt.IsTrue)
	c.Assert(errors.Is(ErrAlreadyVoted, ErrProofRejected), qt.IsFalse)
	c.Assert(errors.Is(ErrInsufficientPermission, ErrInvalidStateTransition), qt.IsFalse)
}

package types

import (
	"fmt"
	"strings"
)

// ElectionState is the lifecycle state of an election.
type ElectionState uint8

const (
	ElectionPending ElectionState = iota
	ElectionActive
	ElectionEnded
	ElectionFinalized
)

var electionStateNames = map[ElectionState]string{
	ElectionPending:   "pending",
	ElectionActive:    "active",
	ElectionEnded:     "ended",
	ElectionFinalized: "finalized",
}

func (s ElectionState) String() string {
	if n, ok := electionStateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

func (s ElectionState) MarshalText() ([]byte, error) {
	if _, ok := electionStateNames[s]; !ok {
		return nil, fmt.Errorf("%w: unknown election state %d", ErrInputDomain, s)
	}
	return []byte(s.String()), nil
}

func (s *ElectionState) UnmarshalText(data []byte) error {
	for k, v := range electionStateNames {
		if v == strings.ToLower(string(data)) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("%w: unknown election state %q", ErrInputDomain, data)
}

// AuthorityLevel is the role held by a registered official.
type AuthorityLevel uint8

const (
	LevelAdmin AuthorityLevel = iota + 1
	LevelModerator
	LevelObserver
)

var levelNames = map[AuthorityLevel]string{
	LevelAdmin:     "admin",
	LevelModerator: "moderator",
	LevelObserver:  "observer",
}

// AuthorityLevels lists every level.
var AuthorityLevels = []AuthorityLevel{LevelAdmin, LevelModerator, LevelObserver}

func (l AuthorityLevel) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", uint8(l))
}

// Valid reports whether l is one of the declared levels.
func (l AuthorityLevel) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// ParseAuthorityLevel returns the level named s.
func ParseAuthorityLevel(s string) (AuthorityLevel, error) {
	for k, v := range levelNames {
		if v == strings.ToLower(s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown authority level %q", ErrInputDomain, s)
}

func (l AuthorityLevel) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: unknown authority level %d", ErrInputDomain, l)
	}
	return []byte(l.String()), nil
}

func (l *AuthorityLevel) UnmarshalText(data []byte) error {
	v, err := ParseAuthorityLevel(string(data))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Action is an administrative capability an authority level may hold.
type Action uint8

const (
	ActionCreateElection Action = iota + 1
	ActionStartElection
	ActionEndElection
	ActionAddAuthority
	ActionRemoveAuthority
	ActionVerifyHumanity
	ActionViewResults
	ActionViewElections
)

var actionNames = map[Action]string{
	ActionCreateElection:  "create_election",
	ActionStartElection:   "start_election",
	ActionEndElection:     "end_election",
	ActionAddAuthority:    "add_authority",
	ActionRemoveAuthority: "remove_authority",
	ActionVerifyHumanity:  "verify_humanity",
	ActionViewResults:     "view_results",
	ActionViewElections:   "view_elections",
}

// Actions lists every action.
var Actions = []Action{
	ActionCreateElection,
	ActionStartElection,
	ActionEndElection,
	ActionAddAuthority,
	ActionRemoveAuthority,
	ActionVerifyHumanity,
	ActionViewResults,
	ActionViewElections,
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", uint8(a))
}

// Valid reports whether a is one of the declared actions.
func (a Action) Valid() bool {
	_, ok := actionNames[a]
	return ok
}

// ParseAction returns the action named s.
func ParseAction(s string) (Action, error) {
	for k, v := range actionNames {
		if v == strings.ToLower(s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown action %q", ErrInputDomain, s)
}

func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: unknown action %d", ErrInputDomain, a)
	}
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(data []byte) error {
	v, err := ParseAction(string(data))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

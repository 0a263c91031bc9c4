// Package circuits describes the four circuits used by the voting core: the
// order of their private inputs and public signals, the proof wire format
// and the artifacts (wasm, proving key, verification key) needed to prove
// and verify them.
package circuits

import (
	"fmt"
	"strings"
	"time"

	"github.com/vocdoni/zkvote-core/types"
)

// CircuitID identifies a circuit. The set is closed.
type CircuitID uint8

const (
	Humanity CircuitID = iota + 1
	Eligibility
	VoteCast
	Authority
)

// All lists every circuit.
var All = []CircuitID{Humanity, Eligibility, VoteCast, Authority}

// Descriptor is the declared schema of a circuit. Field names and order
// must match the circuit exactly.
type Descriptor struct {
	Name          string
	Inputs        []string
	PublicSignals []string
	// TimestampSignal is the index of the public signal that carries the
	// proof timestamp, or -1.
	TimestampSignal int
	// Validity is the freshness window of time-boxed proofs, zero when the
	// proof does not expire.
	Validity time.Duration
}

const (
	// HumanityValidity is how long a humanity proof stays fresh.
	HumanityValidity = 24 * time.Hour
	// AuthorityValidity is how long an authority proof stays fresh.
	AuthorityValidity = time.Hour
)

var descriptors = map[CircuitID]Descriptor{
	Humanity: {
		Name:            "humanity",
		Inputs:          []string{"human_score", "uniqueness_score", "behavior_proof", "timestamp", "user_identifier"},
		PublicSignals:   []string{"human_score", "uniqueness_score", "behavior_proof", "timestamp", "user_identifier"},
		TimestampSignal: 3,
		Validity:        HumanityValidity,
	},
	Eligibility: {
		Name:            "eligibility",
		Inputs:          []string{"voter_id", "secret", "election_id"},
		PublicSignals:   []string{"commitment", "nullifier", "election_id"},
		TimestampSignal: -1,
	},
	VoteCast: {
		Name: "vote",
		Inputs: []string{
			"commitment", "nullifier", "vote_hash", "election_id",
			"candidate_id", "voter_id", "secret", "candidate_count",
		},
		PublicSignals:   []string{"nullifier", "commitment", "vote_hash", "election_id", "candidate_id"},
		TimestampSignal: -1,
	},
	Authority: {
		Name:            "authority",
		Inputs:          []string{"official_id", "authority_secret", "election_id", "action_hash"},
		PublicSignals:   []string{"official_id", "election_id", "action_hash"},
		TimestampSignal: -1,
		Validity:        AuthorityValidity,
	},
}

// Descriptor returns the schema of the circuit. It panics on an unknown id,
// which can only be built by converting an arbitrary integer.
func (c CircuitID) Descriptor() Descriptor {
	d, ok := descriptors[c]
	if !ok {
		panic(fmt.Sprintf("unknown circuit %d", uint8(c)))
	}
	return d
}

// Valid reports whether c is a declared circuit.
func (c CircuitID) Valid() bool {
	_, ok := descriptors[c]
	return ok
}

// Arity is the exact number of public signals of the circuit.
func (c CircuitID) Arity() int {
	return len(c.Descriptor().PublicSignals)
}

// SignalIndex returns the position of the named public signal, or -1.
func (c CircuitID) SignalIndex(name string) int {
	for i, n := range c.Descriptor().PublicSignals {
		if n == name {
			return i
		}
	}
	return -1
}

func (c CircuitID) String() string {
	if d, ok := descriptors[c]; ok {
		return d.Name
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

// ParseCircuitID returns the circuit named s.
func ParseCircuitID(s string) (CircuitID, error) {
	for id, d := range descriptors {
		if d.Name == strings.ToLower(s) {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown circuit %q", types.ErrInputDomain, s)
}

func (c CircuitID) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: unknown circuit %d", types.ErrInputDomain, c)
	}
	return []byte(c.String()), nil
}

func (c *CircuitID) UnmarshalText(data []byte) error {
	id, err := ParseCircuitID(string(data))
	if err != nil {
		return err
	}
	*c = id
	return nil
}

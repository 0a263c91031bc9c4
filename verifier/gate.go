// Package verifier implements the proof validity gate: every proof goes
// through a structural check, a freshness check and a cryptographic check,
// in that order, and is rejected at the first failure.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vocdoni/zkvote-core/circuits"
	"github.com/vocdoni/zkvote-core/crypto"
	"github.com/vocdoni/zkvote-core/log"
	"github.com/vocdoni/zkvote-core/metrics"
	"github.com/vocdoni/zkvote-core/types"
)

// Stage is the last check a submission went through.
type Stage uint8

const (
	Received Stage = iota
	StructurallyValid
	Fresh
	CryptoVerified
	Accepted
	Rejected
)

func (s Stage) String() string {
	switch s {
	case Received:
		return "received"
	case StructurallyValid:
		return "structurally_valid"
	case Fresh:
		return "fresh"
	case CryptoVerified:
		return "crypto_verified"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Backend checks a proof against the verification key of its circuit.
type Backend interface {
	Verify(ctx context.Context, circuit circuits.CircuitID, proof *circuits.Proof, signals []*types.BigInt) (bool, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, circuit circuits.CircuitID, proof *circuits.Proof, signals []*types.BigInt) (bool, error)

func (f BackendFunc) Verify(ctx context.Context, circuit circuits.CircuitID, proof *circuits.Proof, signals []*types.BigInt) (bool, error) {
	return f(ctx, circuit, proof, signals)
}

// Submission is a proof presented to the gate. Timestamp is required for
// time-boxed circuits unless the circuit carries it as a public signal.
type Submission struct {
	Circuit       circuits.CircuitID
	Proof         *circuits.Proof
	PublicSignals []*types.BigInt
	Timestamp     time.Time
}

// Gate verifies submissions. It has no side effects beyond logging and
// metrics: acceptance is consumed by the caller.
type Gate struct {
	backend Backend
	windows map[circuits.CircuitID]time.Duration
	maxSkew time.Duration
	now     func() time.Time
}

// Option configures a Gate.
type Option func(*Gate)

// WithWindow overrides the freshness window of a time-boxed circuit.
func WithWindow(c circuits.CircuitID, d time.Duration) Option {
	return func(g *Gate) { g.windows[c] = d }
}

// WithMaxClockSkew sets how far in the future a timestamp may be.
func WithMaxClockSkew(d time.Duration) Option {
	return func(g *Gate) { g.maxSkew = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// DefaultMaxClockSkew tolerates small clock differences with provers.
const DefaultMaxClockSkew = 30 * time.Second

// NewGate returns a gate verifying through backend.
func NewGate(backend Backend, opts ...Option) *Gate {
	g := &Gate{
		backend: backend,
		windows: map[circuits.CircuitID]time.Duration{},
		maxSkew: DefaultMaxClockSkew,
		now:     time.Now,
	}
	for _, c := range circuits.All {
		if w := c.Descriptor().Validity; w > 0 {
			g.windows[c] = w
		}
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Now returns the gate clock.
func (g *Gate) Now() time.Time {
	return g.now()
}

// Window returns the freshness window of c, zero if c does not expire.
func (g *Gate) Window(c circuits.CircuitID) time.Duration {
	return g.windows[c]
}

// Verify walks the submission through every check. It returns Accepted and
// nil, or the stage reached before the failing check and an error wrapping
// types.ErrProofRejected. A backend failure is also wrapped as
// types.ErrBackendUnavailable.
func (g *Gate) Verify(ctx context.Context, s *Submission) (Stage, error) {
	stage, err := g.verify(ctx, s)
	circuit := "unknown"
	if s != nil && s.Circuit.Valid() {
		circuit = s.Circuit.String()
	}
	if err != nil {
		metrics.ProofVerifications.WithLabelValues(circuit, "rejected").Inc()
		log.Debugw("proof rejected", "circuit", circuit, "stage", stage.String(), "reason", err.Error())
		return stage, err
	}
	metrics.ProofVerifications.WithLabelValues(circuit, "accepted").Inc()
	return Accepted, nil
}

func (g *Gate) verify(ctx context.Context, s *Submission) (Stage, error) {
	if s == nil {
		return Received, fmt.Errorf("%w: empty submission", types.ErrProofMalformed)
	}
	if !s.Circuit.Valid() {
		return Received, fmt.Errorf("%w: unknown circuit %d", types.ErrProofMalformed, s.Circuit)
	}
	if err := s.Proof.CheckShape(); err != nil {
		return Received, err
	}
	if n := s.Circuit.Arity(); len(s.PublicSignals) != n {
		return Received, fmt.Errorf("%w: %s expects %d public signals, got %d",
			types.ErrProofMalformed, s.Circuit, n, len(s.PublicSignals))
	}
	for i, sig := range s.PublicSignals {
		if sig == nil || !crypto.InField(sig.MathBigInt()) {
			return Received, fmt.Errorf("%w: public signal %d is not a canonical field element", types.ErrProofMalformed, i)
		}
	}

	if err := g.checkFreshness(s); err != nil {
		return StructurallyValid, err
	}

	ok, err := g.backend.Verify(ctx, s.Circuit, s.Proof, s.PublicSignals)
	if err != nil {
		return Fresh, fmt.Errorf("%w: %w: %v", types.ErrProofInvalid, types.ErrBackendUnavailable, err)
	}
	if !ok {
		return Fresh, fmt.Errorf("%w: verification failed for %s", types.ErrProofInvalid, s.Circuit)
	}
	return CryptoVerified, nil
}

func (g *Gate) checkFreshness(s *Submission) error {
	window, timeBoxed := g.windows[s.Circuit]
	if !timeBoxed {
		return nil
	}
	ts := s.Timestamp
	if ts.IsZero() {
		if idx := s.Circuit.Descriptor().TimestampSignal; idx >= 0 {
			v := s.PublicSignals[idx].MathBigInt()
			if !v.IsInt64() {
				return fmt.Errorf("%w: timestamp signal out of range", types.ErrProofMalformed)
			}
			ts = time.Unix(v.Int64(), 0)
		}
	}
	if ts.IsZero() {
		return fmt.Errorf("%w: %s proof without timestamp", types.ErrProofMalformed, s.Circuit)
	}
	return CheckFreshness(ts, g.now(), window, g.maxSkew)
}

// CheckFreshness accepts timestamps whose age is at most window and that
// are no further than maxSkew in the future.
func CheckFreshness(ts, now time.Time, window, maxSkew time.Duration) error {
	age := now.Sub(ts)
	if age > window {
		return fmt.Errorf("%w: age %s exceeds %s", types.ErrProofStale, age.Truncate(time.Second), window)
	}
	if -age > maxSkew {
		return fmt.Errorf("%w: timestamp %s is in the future", types.ErrProofMalformed, ts.UTC().Format(time.RFC3339))
	}
	return nil
}

// IsBackendFailure reports whether a rejection was caused by the verifying
// backend rather than by the proof.
func IsBackendFailure(err error) bool {
	return errors.Is(err, types.ErrBackendUnavailable)
}

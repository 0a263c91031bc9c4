// Package prover turns typed circuit inputs into proofs through a proving
// backend. It never retries and never caches: generating the same proof
// twice is not equivalent to generating it once.
package prover

import (
	"context"
	"fmt"
	"time"

	"github.com/vocdoni/zkvote-core/circuits"
	"github.com/vocdoni/zkvote-core/log"
	"github.com/vocdoni/zkvote-core/metrics"
	"github.com/vocdoni/zkvote-core/types"
)

// Backend proves a circuit given its witness inputs JSON.
type Backend interface {
	Prove(ctx context.Context, circuit circuits.CircuitID, inputs []byte) (*circuits.Proof, []*types.BigInt, error)
}

// Result is the outcome of a proof request.
type Result struct {
	Circuit       circuits.CircuitID `json:"circuit"`
	Proof         *circuits.Proof    `json:"proof"`
	PublicSignals []*types.BigInt    `json:"publicSignals"`
}

// Dispatcher validates proof requests and forwards them to the backend.
type Dispatcher struct {
	backend Backend
}

// NewDispatcher returns a dispatcher over backend.
func NewDispatcher(backend Backend) *Dispatcher {
	return &Dispatcher{backend: backend}
}

// Prove generates the proof for inputs. The backend runs in its own
// goroutine: if ctx is done first, Prove returns ctx.Err() and the
// computation still runs to completion in the background.
func (d *Dispatcher) Prove(ctx context.Context, inputs circuits.Inputs) (*Result, error) {
	data, err := circuits.MarshalInputs(inputs)
	if err != nil {
		return nil, err
	}
	circuit := inputs.Circuit()

	type outcome struct {
		proof   *circuits.Proof
		signals []*types.BigInt
		err     error
	}
	done := make(chan outcome, 1)
	start := time.Now()
	go func() {
		proof, signals, err := d.backend.Prove(context.WithoutCancel(ctx), circuit, data)
		metrics.ProofGenerationSeconds.WithLabelValues(circuit.String()).Observe(time.Since(start).Seconds())
		done <- outcome{proof, signals, err}
	}()

	select {
	case <-ctx.Done():
		log.Debugw("proof request abandoned by caller", "circuit", circuit.String())
		return nil, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return nil, fmt.Errorf("prove %s: %w", circuit, out.err)
		}
		if err := out.proof.CheckShape(); err != nil {
			return nil, fmt.Errorf("prove %s: backend output: %w", circuit, err)
		}
		if len(out.signals) != circuit.Arity() {
			return nil, fmt.Errorf("prove %s: %w: backend returned %d public signals, want %d",
				circuit, types.ErrProofMalformed, len(out.signals), circuit.Arity())
		}
		log.Debugw("proof generated", "circuit", circuit.String(), "took", time.Since(start).String())
		return &Result{Circuit: circuit, Proof: out.proof, PublicSignals: out.signals}, nil
	}
}

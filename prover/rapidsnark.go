package prover

import (
	"context"
	"fmt"

	"github.com/iden3/go-rapidsnark/prover"
	"github.com/iden3/go-rapidsnark/witness"
	"github.com/vocdoni/zkvote-core/circuits"
	"github.com/vocdoni/zkvote-core/types"
)

// Rapidsnark proves circom circuits: the wasm witness calculator produces
// the witness and rapidsnark the Groth16 proof.
type Rapidsnark struct {
	artifacts circuits.ArtifactSet
}

// NewRapidsnark returns a backend that loads wasm and zkey from artifacts.
func NewRapidsnark(artifacts circuits.ArtifactSet) *Rapidsnark {
	return &Rapidsnark{artifacts: artifacts}
}

func (r *Rapidsnark) Prove(ctx context.Context, circuit circuits.CircuitID, inputs []byte) (*circuits.Proof, []*types.BigInt, error) {
	ca, err := r.artifacts.Get(circuit)
	if err != nil {
		return nil, nil, err
	}
	wasm, err := ca.Wasm(ctx)
	if err != nil {
		return nil, nil, err
	}
	zkey, err := ca.ProvingKey(ctx)
	if err != nil {
		return nil, nil, err
	}
	parsed, err := witness.ParseInputs(inputs)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: circom inputs: %v", types.ErrInputDomain, err)
	}
	calc, err := witness.NewCircom2WitnessCalculator(wasm, true)
	if err != nil {
		return nil, nil, fmt.Errorf("instance witness calculator: %w", err)
	}
	wtns, err := calc.CalculateWTNSBin(parsed, true)
	if err != nil {
		// unsatisfied constraints end here
		return nil, nil, fmt.Errorf("%w: calculate witness: %v", types.ErrInputDomain, err)
	}
	proofJSON, pubSignalsJSON, err := prover.Groth16ProverRaw(zkey, wtns)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: groth16 prover: %v", types.ErrBackendUnavailable, err)
	}
	return circuits.ParseCircomOutput(proofJSON, pubSignalsJSON)
}

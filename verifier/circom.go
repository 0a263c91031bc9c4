package verifier

import (
	"context"
	"fmt"
	"sync"

	"github.com/vocdoni/circom2gnark/parser"
	"github.com/vocdoni/zkvote-core/circuits"
	"github.com/vocdoni/zkvote-core/types"
)

// Circom verifies snarkjs Groth16 proofs with circom2gnark, using the
// verification keys found in the artifact set.
type Circom struct {
	artifacts circuits.ArtifactSet

	mu    sync.Mutex
	vkeys map[circuits.CircuitID]*parser.CircomVerificationKey
}

// NewCircom returns a Circom backend.
func NewCircom(artifacts circuits.ArtifactSet) *Circom {
	return &Circom{
		artifacts: artifacts,
		vkeys:     map[circuits.CircuitID]*parser.CircomVerificationKey{},
	}
}

func (v *Circom) verificationKey(ctx context.Context, circuit circuits.CircuitID) (*parser.CircomVerificationKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if vk, ok := v.vkeys[circuit]; ok {
		return vk, nil
	}
	ca, err := v.artifacts.Get(circuit)
	if err != nil {
		return nil, err
	}
	raw, err := ca.VerifyingKey(ctx)
	if err != nil {
		return nil, err
	}
	vk, err := parser.UnmarshalCircomVerificationKeyJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("parse verification key of %s: %w", circuit, err)
	}
	v.vkeys[circuit] = vk
	return vk, nil
}

// Verify returns an error only when the proof could not be checked: missing
// or unreadable verification key. A proof that fails to convert or verify
// yields false.
func (v *Circom) Verify(ctx context.Context, circuit circuits.CircuitID, proof *circuits.Proof, signals []*types.BigInt) (bool, error) {
	vk, err := v.verificationKey(ctx, circuit)
	if err != nil {
		return false, err
	}
	cp, err := proof.ToCircom()
	if err != nil {
		return false, nil
	}
	gnarkProof, err := parser.ConvertCircomToGnark(cp, vk, circuits.SignalStrings(signals))
	if err != nil {
		return false, nil
	}
	ok, err := parser.VerifyProof(gnarkProof)
	if err != nil {
		return false, nil
	}
	return ok, nil
}

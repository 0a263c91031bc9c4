package circuits

import (
	"fmt"
	"math/big"

	"github.com/vocdoni/circom2gnark/parser"
	"github.com/vocdoni/zkvote-core/types"
)

// Proof is the canonical wire encoding of a Groth16 proof: the affine
// coordinates of A (2), B (2x2) and C (2) as decimal strings. Lengths are
// not enforced by the type so that malformed submissions can be decoded and
// rejected explicitly.
type Proof struct {
	A []*types.BigInt   `json:"a"`
	B [][]*types.BigInt `json:"b"`
	C []*types.BigInt   `json:"c"`
}

// CheckShape verifies the Groth16 component sizes.
func (p *Proof) CheckShape() error {
	if p == nil {
		return fmt.Errorf("%w: missing proof", types.ErrProofMalformed)
	}
	if len(p.A) != 2 || hasNil(p.A) {
		return fmt.Errorf("%w: a must have 2 elements", types.ErrProofMalformed)
	}
	if len(p.B) != 2 || len(p.B[0]) != 2 || len(p.B[1]) != 2 || hasNil(p.B[0]) || hasNil(p.B[1]) {
		return fmt.Errorf("%w: b must have 2x2 elements", types.ErrProofMalformed)
	}
	if len(p.C) != 2 || hasNil(p.C) {
		return fmt.Errorf("%w: c must have 2 elements", types.ErrProofMalformed)
	}
	return nil
}

func hasNil(v []*types.BigInt) bool {
	for _, x := range v {
		if x == nil {
			return true
		}
	}
	return false
}

// ToCircom returns the snarkjs representation (projective coordinates) used
// by circom2gnark.
func (p *Proof) ToCircom() (*parser.CircomProof, error) {
	if err := p.CheckShape(); err != nil {
		return nil, err
	}
	return &parser.CircomProof{
		PiA: []string{p.A[0].String(), p.A[1].String(), "1"},
		PiB: [][]string{
			{p.B[0][0].String(), p.B[0][1].String()},
			{p.B[1][0].String(), p.B[1][1].String()},
			{"1", "0"},
		},
		PiC:      []string{p.C[0].String(), p.C[1].String(), "1"},
		Protocol: "groth16",
	}, nil
}

// ProofFromCircom converts a snarkjs proof, dropping the projective
// coordinate.
func ProofFromCircom(cp *parser.CircomProof) (*Proof, error) {
	if cp == nil || len(cp.PiA) < 2 || len(cp.PiB) < 2 || len(cp.PiC) < 2 ||
		len(cp.PiB[0]) < 2 || len(cp.PiB[1]) < 2 {
		return nil, fmt.Errorf("%w: unexpected circom proof shape", types.ErrProofMalformed)
	}
	var err error
	p := &Proof{
		A: make([]*types.BigInt, 2),
		B: [][]*types.BigInt{make([]*types.BigInt, 2), make([]*types.BigInt, 2)},
		C: make([]*types.BigInt, 2),
	}
	for i := 0; i < 2; i++ {
		if p.A[i], err = types.BigIntFromString(cp.PiA[i]); err != nil {
			return nil, err
		}
		if p.C[i], err = types.BigIntFromString(cp.PiC[i]); err != nil {
			return nil, err
		}
		for j := 0; j < 2; j++ {
			if p.B[i][j], err = types.BigIntFromString(cp.PiB[i][j]); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

// ParseCircomOutput parses the proof and public signals JSON documents
// produced by a circom prover.
func ParseCircomOutput(proofJSON, pubSignalsJSON string) (*Proof, []*types.BigInt, error) {
	cp, err := parser.UnmarshalCircomProofJSON([]byte(proofJSON))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", types.ErrProofMalformed, err)
	}
	proof, err := ProofFromCircom(cp)
	if err != nil {
		return nil, nil, err
	}
	raw, err := parser.UnmarshalCircomPublicSignalsJSON([]byte(pubSignalsJSON))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", types.ErrProofMalformed, err)
	}
	signals := make([]*types.BigInt, len(raw))
	for i, s := range raw {
		if signals[i], err = types.BigIntFromString(s); err != nil {
			return nil, nil, err
		}
	}
	return proof, signals, nil
}

// SignalStrings renders public signals as decimal strings.
func SignalStrings(signals []*types.BigInt) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		if s == nil {
			out[i] = ""
			continue
		}
		out[i] = s.String()
	}
	return out
}

// Signal returns the named public signal of circuit c, or nil if the
// signals do not carry it.
func Signal(c CircuitID, signals []*types.BigInt, name string) *big.Int {
	i := c.SignalIndex(name)
	if i < 0 || i >= len(signals) || signals[i] == nil {
		return nil
	}
	return signals[i].MathBigInt()
}

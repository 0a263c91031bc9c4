package poseidon

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
	"github.com/vocdoni/zkvote-core/types"
)

const (
	// chunkSize is the widest input poseidon.Hash accepts.
	chunkSize = 16
	// MaxInputs bounds MultiPoseidon to a single level of chunk hashes.
	MaxInputs = chunkSize * chunkSize
)

// Hash is poseidon.Hash with input errors classified as ErrInputDomain.
func Hash(inputs ...*big.Int) (*big.Int, error) {
	h, err := poseidon.Hash(inputs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInputDomain, err)
	}
	return h, nil
}

// MultiPoseidon hashes an arbitrary number of inputs (up to MaxInputs) by
// hashing them in chunks of 16 and then hashing the chunk digests. With 16
// inputs or fewer it equals Hash.
func MultiPoseidon(inputs ...*big.Int) (*big.Int, error) {
	if len(inputs) > MaxInputs {
		return nil, fmt.Errorf("%w: too many inputs (%d)", types.ErrInputDomain, len(inputs))
	} else if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no inputs provided", types.ErrInputDomain)
	}
	hashes := []*big.Int{}
	for start := 0; start < len(inputs); start += chunkSize {
		end := min(start+chunkSize, len(inputs))
		h, err := Hash(inputs[start:end]...)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	if len(hashes) == 1 {
		return hashes[0], nil
	}
	return Hash(hashes...)
}

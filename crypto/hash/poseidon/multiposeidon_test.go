package poseidon

import (
	"errors"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-core/types"
)

func ints(n int) []*big.Int {
	out := make([]*big.Int, n)
	for i := range out {
		out[i] = big.NewInt(int64(i + 1))
	}
	return out
}

func TestMultiPoseidon(t *testing.T) {
	c := qt.New(t)

	single, err := MultiPoseidon(ints(5)...)
	c.Assert(err, qt.IsNil)
	direct, err := Hash(ints(5)...)
	c.Assert(err, qt.IsNil)
	c.Assert(single.Cmp(direct), qt.Equals, 0)

	wide, err := MultiPoseidon(ints(40)...)
	c.Assert(err, qt.IsNil)
	again, err := MultiPoseidon(ints(40)...)
	c.Assert(err, qt.IsNil)
	c.Assert(wide.Cmp(again), qt.Equals, 0)

	other := ints(40)
	other[39] = big.NewInt(1000)
	diff, err := MultiPoseidon(other...)
	c.Assert(err, qt.IsNil)
	c.Assert(wide.Cmp(diff), qt.Not(qt.Equals), 0)
}

func TestMultiPoseidonBounds(t *testing.T) {
	c := qt.New(t)
	_, err := MultiPoseidon()
	c.Assert(errors.Is(err, types.ErrInputDomain), qt.IsTrue)
	_, err = MultiPoseidon(ints(MaxInputs + 1)...)
	c.Assert(errors.Is(err, types.ErrInputDomain), qt.IsTrue)
}

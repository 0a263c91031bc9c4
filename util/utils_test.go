package util

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/arbo"
)

func TestBigToFF(t *testing.T) {
	c := qt.New(t)
	q := arbo.BN254BaseField
	c.Assert(BigToFF(big.NewInt(7)).Int64(), qt.Equals, int64(7))
	c.Assert(BigToFF(q).Sign(), qt.Equals, 0)
	over := new(big.Int).Add(q, big.NewInt(5))
	c.Assert(BigToFF(over).Int64(), qt.Equals, int64(5))
}

func TestTrimHex(t *testing.T) {
	c := qt.New(t)
	c.Assert(TrimHex("0xabc"), qt.Equals, "abc")
	c.Assert(TrimHex("0Xabc"), qt.Equals, "abc")
	c.Assert(TrimHex("abc"), qt.Equals, "abc")
	c.Assert(TrimHex("0"), qt.Equals, "0")
}

package crypto

import (
	"errors"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-core/types"
)

func TestCheckField(t *testing.T) {
	c := qt.New(t)
	q := FieldModulus()
	last := new(big.Int).Sub(q, big.NewInt(1))

	c.Assert(CheckField([]string{"a", "b"}, big.NewInt(0), last), qt.IsNil)
	c.Assert(InField(last), qt.IsTrue)
	c.Assert(InField(q), qt.IsFalse)

	err := CheckField([]string{"a", "b"}, big.NewInt(1), q)
	c.Assert(errors.Is(err, types.ErrInputDomain), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, ".*b is out of field")

	err = CheckField([]string{"a"}, big.NewInt(-1))
	c.Assert(err, qt.ErrorMatches, ".*a is negative")

	err = CheckField(nil, nil)
	c.Assert(err, qt.ErrorMatches, ".*#0 is missing")
}

func TestPadField(t *testing.T) {
	c := qt.New(t)
	b := PadField(big.NewInt(258))
	c.Assert(len(b), qt.Equals, SerializedFieldSize)
	c.Assert(b[SerializedFieldSize-2:], qt.DeepEquals, []byte{1, 2})
}

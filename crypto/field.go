package crypto

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/vocdoni/zkvote-core/types"
)

// SerializedFieldSize is the size in bytes of a serialized field element.
const SerializedFieldSize = fr.Bytes

// FieldModulus returns the BN254 scalar field modulus used by the circuits.
func FieldModulus() *big.Int {
	return fr.Modulus()
}

// InField reports whether x is a canonical field element: 0 <= x < q.
func InField(x *big.Int) bool {
	return x != nil && x.Sign() >= 0 && x.Cmp(fr.Modulus()) < 0
}

// CheckField returns ErrInputDomain naming the first value that is nil,
// negative or not reduced. Values are never reduced silently.
func CheckField(names []string, values ...*big.Int) error {
	for i, v := range values {
		name := fmt.Sprintf("#%d", i)
		if i < len(names) {
			name = names[i]
		}
		switch {
		case v == nil:
			return fmt.Errorf("%w: %s is missing", types.ErrInputDomain, name)
		case v.Sign() < 0:
			return fmt.Errorf("%w: %s is negative", types.ErrInputDomain, name)
		case v.Cmp(fr.Modulus()) >= 0:
			return fmt.Errorf("%w: %s is out of field", types.ErrInputDomain, name)
		}
	}
	return nil
}

// PadField returns the big-endian representation of x left padded to
// SerializedFieldSize bytes.
func PadField(x *big.Int) []byte {
	out := make([]byte, SerializedFieldSize)
	return x.FillBytes(out)
}

package util

import (
	"math/big"

	"github.com/vocdoni/arbo"
)

// TrimHex trims the '0x' prefix from a hex string.
func TrimHex(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// BigToFF returns the representation of iv in the BN254 scalar field. Use it
// only for values that are hashes or identifiers by construction (addresses,
// digests); user supplied field elements must be rejected when out of range.
func BigToFF(iv *big.Int) *big.Int {
	return arbo.BigToFF(arbo.BN254BaseField, iv)
}

// BytesToFF interprets b as a big-endian integer and reduces it to the field.
func BytesToFF(b []byte) *big.Int {
	return BigToFF(new(big.Int).SetBytes(b))
}

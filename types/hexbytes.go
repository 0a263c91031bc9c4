package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// HexBytes is a byte slice that marshals to JSON as a 0x prefixed hex string.
type HexBytes []byte

// HexStringToHexBytes decodes a hex string with or without the 0x prefix.
func HexStringToHexBytes(s string) (HexBytes, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex %q", ErrInputDomain, s)
	}
	return b, nil
}

func (b HexBytes) String() string {
	return "0x" + hex.EncodeToString(b)
}

// BigInt interprets the bytes as a big-endian unsigned integer.
func (b HexBytes) BigInt() *big.Int {
	return new(big.Int).SetBytes(b)
}

func (b HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := HexStringToHexBytes(s)
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}

package types

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/fxamacker/cbor/v2"
)

// fieldElement is the largest BN254 scalar field element.
var fieldElement, _ = new(big.Int).SetString(
	"21888242871839275222246405745257275088548364400416034343698204186575808495616", 10)

func TestPublicSignalsJSON(t *testing.T) {
	c := qt.New(t)
	signals := BigInts(fieldElement, big.NewInt(7), big.NewInt(1_750_000_000))

	data, err := json.Marshal(signals)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `["`+fieldElement.String()+`","7","1750000000"]`)

	var decoded []*BigInt
	c.Assert(json.Unmarshal(data, &decoded), qt.IsNil)
	c.Assert(decoded, qt.HasLen, len(signals))
	for i := range signals {
		c.Assert(decoded[i].Equal(signals[i]), qt.IsTrue, qt.Commentf("signal %d", i))
	}

	err = json.Unmarshal([]byte(`["0x10"]`), &decoded)
	c.Assert(errors.Is(err, ErrInputDomain), qt.IsTrue)
}

func TestElectionCBOR(t *testing.T) {
	c := qt.New(t)
	em, err := cbor.CoreDetEncOptions().EncMode()
	c.Assert(err, qt.IsNil)

	e := &Election{
		ID:             3,
		Title:          "Council",
		StartTime:      1_750_000_000,
		EndTime:        1_750_086_400,
		CandidateCount: 2,
		State:          ElectionEnded,
		Candidates:     []*Candidate{{ID: 0, Name: "Ada"}, {ID: 1, Name: "Grace"}},
		Tally:          []uint64{5, 3},
		TotalVotes:     8,
		CreatedBy:      common.HexToAddress("0x01"),
		CreatedAt:      1_749_990_000,
	}
	data, err := em.Marshal(e)
	c.Assert(err, qt.IsNil)
	decoded := &Election{}
	c.Assert(cbor.Unmarshal(data, decoded), qt.IsNil)
	c.Assert(decoded, qt.DeepEquals, e)

	// deterministic: the same record always encodes to the same bytes
	again, err := em.Marshal(decoded)
	c.Assert(err, qt.IsNil)
	c.Assert(again, qt.DeepEquals, data)
}

func TestBigIntCBOR(t *testing.T) {
	c := qt.New(t)
	type record struct {
		Signals []*BigInt `cbor:"signals"`
	}
	in := record{Signals: BigInts(fieldElement, big.NewInt(42))}
	data, err := cbor.Marshal(in)
	c.Assert(err, qt.IsNil)

	var out record
	c.Assert(cbor.Unmarshal(data, &out), qt.IsNil)
	c.Assert(out.Signals, qt.HasLen, 2)
	c.Assert(out.Signals[0].Equal(in.Signals[0]), qt.IsTrue)
	c.Assert(out.Signals[1].MathBigInt().Int64(), qt.Equals, int64(42))
}

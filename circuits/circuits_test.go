package circuits

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-core/crypto"
	"github.com/vocdoni/zkvote-core/types"
)

func TestDescriptors(t *testing.T) {
	c := qt.New(t)
	c.Assert(Humanity.Arity(), qt.Equals, 5)
	c.Assert(Humanity.SignalIndex("timestamp"), qt.Equals, 3)
	c.Assert(VoteCast.SignalIndex("nullifier"), qt.Equals, 0)
	c.Assert(Eligibility.SignalIndex("timestamp"), qt.Equals, -1)

	for _, id := range All {
		parsed, err := ParseCircuitID(id.String())
		c.Assert(err, qt.IsNil)
		c.Assert(parsed, qt.Equals, id)
	}
	_, err := ParseCircuitID("census")
	c.Assert(errors.Is(err, types.ErrInputDomain), qt.IsTrue)
}

func TestMarshalInputsOrder(t *testing.T) {
	c := qt.New(t)
	in := HumanityInputs{
		HumanScore:      big.NewInt(90),
		UniquenessScore: big.NewInt(85),
		BehaviorProof:   big.NewInt(1),
		Timestamp:       big.NewInt(1700000000),
		UserIdentifier:  big.NewInt(12345),
	}
	data, err := MarshalInputs(in)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals,
		`{"human_score":"90","uniqueness_score":"85","behavior_proof":"1","timestamp":"1700000000","user_identifier":"12345"}`)

	var decoded map[string]string
	c.Assert(json.Unmarshal(data, &decoded), qt.IsNil)
	c.Assert(decoded, qt.HasLen, 5)
}

func TestValidateInputs(t *testing.T) {
	c := qt.New(t)
	in := AuthorityInputs{
		OfficialID:      big.NewInt(1),
		AuthoritySecret: big.NewInt(2),
		ElectionID:      big.NewInt(3),
	}
	err := ValidateInputs(in)
	c.Assert(errors.Is(err, types.ErrInputDomain), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, ".*action_hash is missing")

	in.ActionHash = crypto.FieldModulus()
	_, err = MarshalInputs(in)
	c.Assert(err, qt.ErrorMatches, ".*action_hash is out of field")

	c.Assert(ValidateInputs(nil), qt.ErrorMatches, ".*nil inputs")
}

func TestProofShape(t *testing.T) {
	c := qt.New(t)
	p := &Proof{
		A: types.BigInts(big.NewInt(1), big.NewInt(2)),
		B: [][]*types.BigInt{
			types.BigInts(big.NewInt(3), big.NewInt(4)),
			types.BigInts(big.NewInt(5), big.NewInt(6)),
		},
		C: types.BigInts(big.NewInt(7), big.NewInt(8)),
	}
	c.Assert(p.CheckShape(), qt.IsNil)

	cp, err := p.ToCircom()
	c.Assert(err, qt.IsNil)
	c.Assert(cp.PiA, qt.DeepEquals, []string{"1", "2", "1"})
	c.Assert(cp.PiB[2], qt.DeepEquals, []string{"1", "0"})

	back, err := ProofFromCircom(cp)
	c.Assert(err, qt.IsNil)
	c.Assert(back.B[1][0].String(), qt.Equals, "5")

	p.B = p.B[:1]
	c.Assert(errors.Is(p.CheckShape(), types.ErrProofMalformed), qt.IsTrue)
	var nilProof *Proof
	c.Assert(errors.Is(nilProof.CheckShape(), types.ErrProofRejected), qt.IsTrue)
}

func TestParseCircomOutput(t *testing.T) {
	c := qt.New(t)
	proofJSON := `{"pi_a":["1","2","1"],"pi_b":[["3","4"],["5","6"],["1","0"]],"pi_c":["7","8","1"],"protocol":"groth16"}`
	proof, signals, err := ParseCircomOutput(proofJSON, `["11","22","33"]`)
	c.Assert(err, qt.IsNil)
	c.Assert(proof.CheckShape(), qt.IsNil)
	c.Assert(SignalStrings(signals), qt.DeepEquals, []string{"11", "22", "33"})
	c.Assert(Signal(Eligibility, signals, "nullifier").Int64(), qt.Equals, int64(22))
	c.Assert(Signal(VoteCast, signals, "candidate_id"), qt.IsNil)

	_, _, err = ParseCircomOutput(`{"pi_a":["1"]}`, `[]`)
	c.Assert(errors.Is(err, types.ErrProofMalformed), qt.IsTrue)
}

func TestNewInputs(t *testing.T) {
	c := qt.New(t)
	in, err := NewInputs(Eligibility, map[string]*types.BigInt{
		"voter_id":    types.NewInt(7),
		"secret":      types.NewInt(11),
		"election_id": types.NewInt(0),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(in.Circuit(), qt.Equals, Eligibility)
	c.Assert(in.(EligibilityInputs).Secret.Int64(), qt.Equals, int64(11))

	_, err = NewInputs(Eligibility, map[string]*types.BigInt{
		"voter_id": types.NewInt(7),
		"secret":   types.NewInt(11),
		"census":   types.NewInt(0),
	})
	c.Assert(err, qt.ErrorMatches, ".*election_id is missing")

	_, err = NewInputs(Authority, map[string]*types.BigInt{"official_id": types.NewInt(1)})
	c.Assert(errors.Is(err, types.ErrInputDomain), qt.IsTrue)
}

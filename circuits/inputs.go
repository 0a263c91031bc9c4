package circuits

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/vocdoni/zkvote-core/crypto"
	"github.com/vocdoni/zkvote-core/types"
)

// Inputs is the input record of one circuit. The implementations below are
// the only ones: HumanityInputs, EligibilityInputs, VoteInputs and
// AuthorityInputs.
type Inputs interface {
	Circuit() CircuitID
	// Values returns the input values in the declared order.
	Values() []*big.Int
	isInputs()
}

type HumanityInputs struct {
	HumanScore      *big.Int
	UniquenessScore *big.Int
	BehaviorProof   *big.Int
	Timestamp       *big.Int
	UserIdentifier  *big.Int
}

func (HumanityInputs) Circuit() CircuitID { return Humanity }
func (HumanityInputs) isInputs()          {}

func (i HumanityInputs) Values() []*big.Int {
	return []*big.Int{i.HumanScore, i.UniquenessScore, i.BehaviorProof, i.Timestamp, i.UserIdentifier}
}

type EligibilityInputs struct {
	VoterID    *big.Int
	Secret     *big.Int
	ElectionID *big.Int
}

func (EligibilityInputs) Circuit() CircuitID { return Eligibility }
func (EligibilityInputs) isInputs()          {}

func (i EligibilityInputs) Values() []*big.Int {
	return []*big.Int{i.VoterID, i.Secret, i.ElectionID}
}

type VoteInputs struct {
	Commitment     *big.Int
	Nullifier      *big.Int
	VoteHash       *big.Int
	ElectionID     *big.Int
	CandidateID    *big.Int
	VoterID        *big.Int
	Secret         *big.Int
	CandidateCount *big.Int
}

func (VoteInputs) Circuit() CircuitID { return VoteCast }
func (VoteInputs) isInputs()          {}

func (i VoteInputs) Values() []*big.Int {
	return []*big.Int{
		i.Commitment, i.Nullifier, i.VoteHash, i.ElectionID,
		i.CandidateID, i.VoterID, i.Secret, i.CandidateCount,
	}
}

type AuthorityInputs struct {
	OfficialID      *big.Int
	AuthoritySecret *big.Int
	ElectionID      *big.Int
	ActionHash      *big.Int
}

func (AuthorityInputs) Circuit() CircuitID { return Authority }
func (AuthorityInputs) isInputs()          {}

func (i AuthorityInputs) Values() []*big.Int {
	return []*big.Int{i.OfficialID, i.AuthoritySecret, i.ElectionID, i.ActionHash}
}

// ValidateInputs checks that the record matches the circuit schema and that
// every value is a canonical field element.
func ValidateInputs(in Inputs) error {
	if in == nil {
		return fmt.Errorf("%w: nil inputs", types.ErrInputDomain)
	}
	d := in.Circuit().Descriptor()
	values := in.Values()
	if len(values) != len(d.Inputs) {
		return fmt.Errorf("%w: %s expects %d inputs, got %d",
			types.ErrInputDomain, d.Name, len(d.Inputs), len(values))
	}
	return crypto.CheckField(d.Inputs, values...)
}

// MarshalInputs renders the record as the JSON object the witness
// calculator reads: declared field names in declared order, decimal string
// values.
func MarshalInputs(in Inputs) ([]byte, error) {
	if err := ValidateInputs(in); err != nil {
		return nil, err
	}
	names := in.Circuit().Descriptor().Inputs
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range in.Values() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(names[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(`:"`)
		buf.WriteString(v.String())
		buf.WriteByte('"')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NewInputs builds the input record of circuit c from values keyed by the
// declared input names. Missing and unknown names are rejected.
func NewInputs(c CircuitID, values map[string]*types.BigInt) (Inputs, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: unknown circuit %d", types.ErrInputDomain, c)
	}
	names := c.Descriptor().Inputs
	if len(values) != len(names) {
		return nil, fmt.Errorf("%w: %s expects %d inputs, got %d", types.ErrInputDomain, c, len(names), len(values))
	}
	v := make([]*big.Int, len(names))
	for i, name := range names {
		bi, ok := values[name]
		if !ok || bi == nil {
			return nil, fmt.Errorf("%w: %s input %s is missing", types.ErrInputDomain, c, name)
		}
		v[i] = bi.MathBigInt()
	}
	var in Inputs
	switch c {
	case Humanity:
		in = HumanityInputs{
			HumanScore: v[0], UniquenessScore: v[1], BehaviorProof: v[2], Timestamp: v[3], UserIdentifier: v[4],
		}
	case Eligibility:
		in = EligibilityInputs{VoterID: v[0], Secret: v[1], ElectionID: v[2]}
	case VoteCast:
		in = VoteInputs{
			Commitment: v[0], Nullifier: v[1], VoteHash: v[2], ElectionID: v[3],
			CandidateID: v[4], VoterID: v[5], Secret: v[6], CandidateCount: v[7],
		}
	case Authority:
		in = AuthorityInputs{OfficialID: v[0], AuthoritySecret: v[1], ElectionID: v[2], ActionHash: v[3]}
	}
	if err := ValidateInputs(in); err != nil {
		return nil, err
	}
	return in, nil
}

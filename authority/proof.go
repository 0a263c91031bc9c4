package authority

import (
	"encoding/binary"
	"fmt"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/zkvote-core/crypto/ethereum"
	"github.com/vocdoni/zkvote-core/types"
)

// Proof is a signed statement by an official that they perform an action
// on an election at a given time.
type Proof struct {
	OfficialAddress common.Address       `json:"officialAddress"`
	OfficialID      string               `json:"officialId"`
	Level           types.AuthorityLevel `json:"level"`
	ActionType      types.Action         `json:"actionType"`
	ElectionID      uint64               `json:"electionId"`
	Timestamp       int64                `json:"timestamp"`
	Signature       types.HexBytes       `json:"signature"`
	ActionHash      types.HexBytes       `json:"actionHash"`
}

// ActionHash is keccak256(address || action || electionID || timestamp),
// integers big-endian.
func ActionHash(addr common.Address, action types.Action, electionID uint64, timestamp int64) []byte {
	buf := make([]byte, 0, common.AddressLength+1+8+8)
	buf = append(buf, addr.Bytes()...)
	buf = append(buf, byte(action))
	buf = binary.BigEndian.AppendUint64(buf, electionID)
	buf = binary.BigEndian.AppendUint64(buf, uint64(timestamp))
	return ethereum.HashRaw(buf)
}

// signedPayload is what the official signs: the action hash bound to the
// claimed official id and level.
func (p *Proof) signedPayload() []byte {
	payload := append([]byte{}, p.ActionHash...)
	payload = append(payload, byte(p.Level))
	return append(payload, []byte(p.OfficialID)...)
}

// NewProof builds and signs a proof with signer's key.
func NewProof(signer *ethereum.SignKeys, officialID string, level types.AuthorityLevel,
	action types.Action, electionID uint64, at time.Time,
) (*Proof, error) {
	if !action.Valid() || !level.Valid() {
		return nil, fmt.Errorf("%w: invalid action or level", types.ErrInputDomain)
	}
	p := &Proof{
		OfficialAddress: signer.Address(),
		OfficialID:      officialID,
		Level:           level,
		ActionType:      action,
		ElectionID:      electionID,
		Timestamp:       at.Unix(),
	}
	p.ActionHash = ActionHash(p.OfficialAddress, action, electionID, p.Timestamp)
	sig, err := signer.SignEthereum(p.signedPayload())
	if err != nil {
		return nil, err
	}
	p.Signature = sig
	return p, nil
}

// VerifySignature checks the action hash and that the signature was made
// by OfficialAddress.
func (p *Proof) VerifySignature() error {
	expected := ActionHash(p.OfficialAddress, p.ActionType, p.ElectionID, p.Timestamp)
	if types.HexBytes(expected).String() != p.ActionHash.String() {
		return fmt.Errorf("%w: action hash mismatch", types.ErrProofInvalid)
	}
	signer, err := ethereum.AddrFromSignature(p.signedPayload(), p.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrProofInvalid, err)
	}
	if signer != p.OfficialAddress {
		return fmt.Errorf("%w: signed by %s, not %s", types.ErrProofInvalid, signer, p.OfficialAddress)
	}
	return nil
}

// VerifyAuthorityProof accepts p only if its address is in authorized, its
// level grants its action and it is no older than window at now. The
// signature is checked separately by VerifySignature.
func VerifyAuthorityProof(p *Proof, authorized []common.Address, now time.Time, window time.Duration) error {
	if p == nil {
		return fmt.Errorf("%w: missing authority proof", types.ErrUnauthorized)
	}
	if !slices.Contains(authorized, p.OfficialAddress) {
		return fmt.Errorf("%w: %s", types.ErrNotAuthority, p.OfficialAddress)
	}
	if !HasPermission(p.Level, p.ActionType) {
		return fmt.Errorf("%w: %s cannot %s", types.ErrInsufficientPermission, p.Level, p.ActionType)
	}
	if age := now.Sub(time.Unix(p.Timestamp, 0)); age > window {
		return fmt.Errorf("%w: authority proof is %s old", types.ErrProofStale, age.Truncate(time.Second))
	}
	return nil
}

package authority

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/zkvote-core/crypto/ethereum"
	"github.com/vocdoni/zkvote-core/types"
)

var testNow = time.Unix(1_750_000_000, 0)

func newKeys(c *qt.C) *ethereum.SignKeys {
	k := ethereum.NewSignKeys()
	c.Assert(k.Generate(), qt.IsNil)
	return k
}

func TestProofSignature(t *testing.T) {
	c := qt.New(t)
	k := newKeys(c)
	p, err := NewProof(k, "OFF-1", types.LevelModerator, types.ActionStartElection, 7, testNow)
	c.Assert(err, qt.IsNil)
	c.Assert(p.OfficialAddress, qt.Equals, k.Address())
	c.Assert(p.VerifySignature(), qt.IsNil)

	// the claimed level is covered by the signature
	tampered := *p
	tampered.Level = types.LevelAdmin
	c.Assert(errors.Is(tampered.VerifySignature(), types.ErrProofInvalid), qt.IsTrue)

	// so is the election, through the action hash
	tampered = *p
	tampered.ElectionID = 8
	c.Assert(errors.Is(tampered.VerifySignature(), types.ErrProofInvalid), qt.IsTrue)

	other := newKeys(c)
	tampered = *p
	tampered.OfficialAddress = other.Address()
	tampered.ActionHash = ActionHash(other.Address(), p.ActionType, p.ElectionID, p.Timestamp)
	c.Assert(errors.Is(tampered.VerifySignature(), types.ErrProofInvalid), qt.IsTrue)
}

// A placeholder signature, such as a fixed hex string not produced by the
// official key, must never pass.
func TestPlaceholderSignatureRejected(t *testing.T) {
	c := qt.New(t)
	k := newKeys(c)
	p, err := NewProof(k, "OFF-1", types.LevelAdmin, types.ActionCreateElection, 0, testNow)
	c.Assert(err, qt.IsNil)

	placeholder, err := types.HexStringToHexBytes("0x" +
		"1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef" +
		"1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef1b")
	c.Assert(err, qt.IsNil)
	p.Signature = placeholder
	c.Assert(errors.Is(p.VerifySignature(), types.ErrProofInvalid), qt.IsTrue)

	p.Signature = types.HexBytes{0x01, 0x02}
	c.Assert(errors.Is(p.VerifySignature(), types.ErrProofInvalid), qt.IsTrue)
}

func TestVerifyAuthorityProof(t *testing.T) {
	c := qt.New(t)
	k := newKeys(c)
	authorized := []common.Address{k.Address()}

	at := testNow.Add(-time.Hour)
	p, err := NewProof(k, "OFF-1", types.LevelAdmin, types.ActionCreateElection, 0, at)
	c.Assert(err, qt.IsNil)
	c.Assert(VerifyAuthorityProof(p, authorized, testNow, time.Hour), qt.IsNil)

	// one second past the window
	err = VerifyAuthorityProof(p, authorized, testNow.Add(time.Second), time.Hour)
	c.Assert(errors.Is(err, types.ErrProofStale), qt.IsTrue)

	err = VerifyAuthorityProof(p, nil, testNow, time.Hour)
	c.Assert(errors.Is(err, types.ErrNotAuthority), qt.IsTrue)

	observer, err := NewProof(k, "OFF-1", types.LevelObserver, types.ActionStartElection, 0, testNow)
	c.Assert(err, qt.IsNil)
	err = VerifyAuthorityProof(observer, authorized, testNow, time.Hour)
	c.Assert(errors.Is(err, types.ErrInsufficientPermission), qt.IsTrue)
	c.Assert(errors.Is(err, types.ErrUnauthorized), qt.IsTrue)

	c.Assert(errors.Is(VerifyAuthorityProof(nil, authorized, testNow, time.Hour), types.ErrUnauthorized), qt.IsTrue)
}

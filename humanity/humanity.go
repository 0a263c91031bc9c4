// Package humanity builds and checks the records produced by a liveness
// and uniqueness check.
package humanity

import (
	"fmt"
	"math/big"
	"time"

	"github.com/vocdoni/zkvote-core/circuits"
	"github.com/vocdoni/zkvote-core/crypto/ethereum"
	"github.com/vocdoni/zkvote-core/crypto/hash/poseidon"
	"github.com/vocdoni/zkvote-core/types"
	"github.com/vocdoni/zkvote-core/util"
)

// Minimum scores, on a 0-100 scale.
const (
	FaceThreshold       = 70
	LivenessThreshold   = 75
	UniquenessThreshold = 80
	MaxScore            = 100
)

// Record is the outcome of a humanity check. It is valid for
// circuits.HumanityValidity after Timestamp; expiry is evaluated when the
// record is checked.
type Record struct {
	UserID          string         `json:"userId"`
	Timestamp       int64          `json:"timestamp"`
	FaceScore       uint8          `json:"faceScore"`
	LivenessScore   uint8          `json:"livenessScore"`
	UniquenessScore uint8          `json:"uniquenessScore"`
	ProofHash       types.HexBytes `json:"proofHash"`
}

// NewRecord returns the record of a check that cleared every threshold.
func NewRecord(userID string, face, liveness, uniqueness uint8, at time.Time) (*Record, error) {
	r := &Record{
		UserID:          userID,
		Timestamp:       at.Unix(),
		FaceScore:       face,
		LivenessScore:   liveness,
		UniquenessScore: uniqueness,
	}
	if err := r.checkScores(); err != nil {
		return nil, err
	}
	h, err := r.hash()
	if err != nil {
		return nil, err
	}
	r.ProofHash = h
	return r, nil
}

func (r *Record) checkScores() error {
	if r.UserID == "" {
		return fmt.Errorf("%w: empty user id", types.ErrInputDomain)
	}
	for _, s := range []uint8{r.FaceScore, r.LivenessScore, r.UniquenessScore} {
		if s > MaxScore {
			return fmt.Errorf("%w: score %d above %d", types.ErrInputDomain, s, MaxScore)
		}
	}
	switch {
	case r.FaceScore < FaceThreshold:
		return fmt.Errorf("%w: face score %d below %d", types.ErrProofRejected, r.FaceScore, FaceThreshold)
	case r.LivenessScore < LivenessThreshold:
		return fmt.Errorf("%w: liveness score %d below %d", types.ErrProofRejected, r.LivenessScore, LivenessThreshold)
	case r.UniquenessScore < UniquenessThreshold:
		return fmt.Errorf("%w: uniqueness score %d below %d", types.ErrProofRejected, r.UniquenessScore, UniquenessThreshold)
	}
	return nil
}

// UserField maps the user id into the scalar field.
func UserField(userID string) *big.Int {
	return util.BytesToFF(ethereum.HashRaw([]byte(userID)))
}

func (r *Record) hash() (types.HexBytes, error) {
	h, err := poseidon.MultiPoseidon(
		UserField(r.UserID),
		big.NewInt(r.Timestamp),
		big.NewInt(int64(r.FaceScore)),
		big.NewInt(int64(r.LivenessScore)),
		big.NewInt(int64(r.UniquenessScore)),
	)
	if err != nil {
		return nil, err
	}
	return h.FillBytes(make([]byte, 32)), nil
}

// Verify checks thresholds, the proof hash and the validity window at now.
func (r *Record) Verify(now time.Time, window time.Duration) error {
	if err := r.checkScores(); err != nil {
		return err
	}
	h, err := r.hash()
	if err != nil {
		return err
	}
	if h.String() != r.ProofHash.String() {
		return fmt.Errorf("%w: proof hash mismatch", types.ErrProofInvalid)
	}
	if age := now.Sub(time.Unix(r.Timestamp, 0)); age > window {
		return fmt.Errorf("%w: humanity record is %s old", types.ErrProofStale, age.Truncate(time.Second))
	}
	return nil
}

// Inputs returns the humanity circuit inputs for this record. The combined
// score is the average of face and liveness scores.
func (r *Record) Inputs(behaviorProof *big.Int, userIdentifier *big.Int) circuits.HumanityInputs {
	human := (int64(r.FaceScore) + int64(r.LivenessScore)) / 2
	return circuits.HumanityInputs{
		HumanScore:      big.NewInt(human),
		UniquenessScore: big.NewInt(int64(r.UniquenessScore)),
		BehaviorProof:   behaviorProof,
		Timestamp:       big.NewInt(r.Timestamp),
		UserIdentifier:  userIdentifier,
	}
}

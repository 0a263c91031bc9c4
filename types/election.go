package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// Election is the durable record of an election. Tally is indexed by
// candidate id and TotalVotes equals the number of accepted nullifiers.
type Election struct {
	ID               uint64         `json:"id"`
	Title            string         `json:"title"`
	MetadataRef      string         `json:"metadataRef,omitempty"`
	StartTime        int64          `json:"startTime"`
	EndTime          int64          `json:"endTime"`
	CandidateCount   uint32         `json:"candidateCount"`
	RequiresHumanity bool           `json:"requiresHumanity"`
	State            ElectionState  `json:"state"`
	Candidates       []*Candidate   `json:"candidates"`
	Tally            []uint64       `json:"tally"`
	TotalVotes       uint64         `json:"totalVotes"`
	CreatedBy        common.Address `json:"createdBy"`
	CreatedAt        int64          `json:"createdAt"`
}

// Candidate is an election option. Its ID is its index in the election.
type Candidate struct {
	ID          uint32 `json:"id"`
	Name        string `json:"name"`
	MetadataRef string `json:"metadataRef,omitempty"`
}

// ElectionResults is the read model returned by result queries.
type ElectionResults struct {
	ElectionID uint64        `json:"electionId"`
	State      ElectionState `json:"state"`
	TotalVotes uint64        `json:"totalVotes"`
	Tally      []uint64      `json:"tally"`
}

// ElectionMetadata is the off-chain document referenced by
// Election.MetadataRef and kept in the blob store.
type ElectionMetadata struct {
	Title            string              `json:"title"`
	Description      string              `json:"description"`
	Candidates       []CandidateMetadata `json:"candidates"`
	StartTime        int64               `json:"startTime"`
	EndTime          int64               `json:"endTime"`
	TotalVoters      uint64              `json:"totalVoters,omitempty"`
	RequiresHumanity bool                `json:"requiresHumanity"`
}

type CandidateMetadata struct {
	Name     string `json:"name"`
	Bio      string `json:"bio,omitempty"`
	Platform string `json:"platform,omitempty"`
}

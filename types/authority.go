package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// AuthorityRole is the registry entry of an official. Roles are never
// deleted, revocation only clears IsActive.
type AuthorityRole struct {
	Address    common.Address     `json:"address"`
	OfficialID string             `json:"officialId"`
	Level      AuthorityLevel     `json:"level"`
	IsActive   bool               `json:"isActive"`
	AddedAt    int64              `json:"addedAt"`
	Actions    []*AuthorityAction `json:"actions"`
}

// AuthorityAction is an entry of the append-only action log of a role.
type AuthorityAction struct {
	ID         string `json:"id"`
	Action     Action `json:"action"`
	ElectionID uint64 `json:"electionId"`
	Timestamp  int64  `json:"timestamp"`
}

// AuthorityAuditEntry summarizes a role for the audit view.
type AuthorityAuditEntry struct {
	Address     common.Address `json:"address"`
	OfficialID  string         `json:"officialId"`
	Level       AuthorityLevel `json:"level"`
	AddedAt     int64          `json:"addedAt"`
	IsActive    bool           `json:"isActive"`
	ActionCount int            `json:"actionCount"`
}

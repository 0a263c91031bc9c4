package storage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/zkvote-core/types"
)

// Authority returns the role registered for addr or ErrNotFound.
func (s *Storage) Authority(addr common.Address) (*types.AuthorityRole, error) {
	role := &types.AuthorityRole{}
	if err := s.getArtifact(authorityPrefix, addr.Bytes(), role); err != nil {
		return nil, err
	}
	return role, nil
}

// SetAuthority stores a role, replacing any previous one for the address.
func (s *Storage) SetAuthority(role *types.AuthorityRole) error {
	if role == nil {
		return fmt.Errorf("nil authority role")
	}
	return s.setArtifact(authorityPrefix, role.Address.Bytes(), role)
}

// ListAuthorities returns every role, active or not, ordered by address.
func (s *Storage) ListAuthorities() ([]*types.AuthorityRole, error) {
	roles := []*types.AuthorityRole{}
	err := s.iterateArtifacts(authorityPrefix, func(_, v []byte) error {
		role := &types.AuthorityRole{}
		if err := decodeArtifact(v, role); err != nil {
			return fmt.Errorf("decode authority: %w", err)
		}
		roles = append(roles, role)
		return nil
	})
	return roles, err
}

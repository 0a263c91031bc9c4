package storage

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/zkvote-core/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// NextElectionID reserves a fresh election id. Ids start at one: zero is
// the election id of creation proofs, issued before the id exists.
func (s *Storage) NextElectionID() (uint64, error) {
	n, err := s.nextCounter(nextElectionIDKey)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// Election returns the election with the given id or ErrNotFound.
func (s *Storage) Election(id uint64) (*types.Election, error) {
	e := &types.Election{}
	if err := s.getArtifact(electionPrefix, uint64Key(id), e); err != nil {
		return nil, err
	}
	return e, nil
}

// SetElection stores the election record.
func (s *Storage) SetElection(e *types.Election) error {
	if e == nil {
		return fmt.Errorf("nil election")
	}
	return s.setArtifact(electionPrefix, uint64Key(e.ID), e)
}

// ListElections returns every election ordered by id.
func (s *Storage) ListElections() ([]*types.Election, error) {
	elections := []*types.Election{}
	err := s.iterateArtifacts(electionPrefix, func(_, v []byte) error {
		e := &types.Election{}
		if err := decodeArtifact(v, e); err != nil {
			return fmt.Errorf("decode election: %w", err)
		}
		elections = append(elections, e)
		return nil
	})
	return elections, err
}

// HasNullifier reports whether the nullifier was accepted in the election.
func (s *Storage) HasNullifier(electionID uint64, nullifier []byte) (bool, error) {
	return s.has(prefixWith(nullifierPrefix, uint64Key(electionID)), nullifier)
}

// CountNullifiers returns the number of accepted nullifiers of an election.
func (s *Storage) CountNullifiers(electionID uint64) (int, error) {
	count := 0
	err := s.iterateArtifacts(prefixWith(nullifierPrefix, uint64Key(electionID)), func(_, _ []byte) error {
		count++
		return nil
	})
	return count, err
}

// CommitVote inserts the nullifier and stores the updated election in one
// transaction. If the nullifier is already present nothing is written and
// types.ErrAlreadyVoted is returned.
func (s *Storage) CommitVote(e *types.Election, nullifier []byte) error {
	data, err := encodeArtifact(e)
	if err != nil {
		return err
	}
	tx := s.db.WriteTx()
	nullifiers := prefixeddb.NewPrefixedWriteTx(tx, prefixWith(nullifierPrefix, uint64Key(e.ID)))
	if _, err := nullifiers.Get(nullifier); err == nil {
		tx.Discard()
		return types.ErrAlreadyVoted
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		tx.Discard()
		return fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	if err := nullifiers.Set(nullifier, uint64Key(e.TotalVotes)); err != nil {
		tx.Discard()
		return fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	if err := prefixeddb.NewPrefixedWriteTx(tx, electionPrefix).Set(uint64Key(e.ID), data); err != nil {
		tx.Discard()
		return fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	return commit(tx)
}

// ResetElection removes every accepted nullifier of the election and stores
// the (already cleared) election record in one transaction.
func (s *Storage) ResetElection(e *types.Election) error {
	data, err := encodeArtifact(e)
	if err != nil {
		return err
	}
	nPrefix := prefixWith(nullifierPrefix, uint64Key(e.ID))
	var keys [][]byte
	if err := s.iterateArtifacts(nPrefix, func(k, _ []byte) error {
		keys = append(keys, append([]byte{}, k...))
		return nil
	}); err != nil {
		return err
	}
	tx := s.db.WriteTx()
	nullifiers := prefixeddb.NewPrefixedWriteTx(tx, nPrefix)
	for _, k := range keys {
		if err := nullifiers.Delete(k); err != nil {
			tx.Discard()
			return fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
		}
	}
	if err := prefixeddb.NewPrefixedWriteTx(tx, electionPrefix).Set(uint64Key(e.ID), data); err != nil {
		tx.Discard()
		return fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	return commit(tx)
}

// SetHumanityVerified flags addr as humanity verified for the election.
func (s *Storage) SetHumanityVerified(electionID uint64, addr common.Address, at int64) error {
	return s.setArtifact(humanityPrefix, prefixWith(uint64Key(electionID), addr.Bytes()), at)
}

// HumanityVerified reports whether addr was humanity verified for the
// election.
func (s *Storage) HumanityVerified(electionID uint64, addr common.Address) (bool, error) {
	return s.has(humanityPrefix, prefixWith(uint64Key(electionID), addr.Bytes()))
}

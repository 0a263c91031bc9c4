package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/zkvote-core/api"
	"github.com/vocdoni/zkvote-core/authority"
	"github.com/vocdoni/zkvote-core/circuits"
	"github.com/vocdoni/zkvote-core/crypto/ethereum"
	"github.com/vocdoni/zkvote-core/election"
	"github.com/vocdoni/zkvote-core/types"
)

// Error is a non 200 response of the API.
type Error struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %d: %s (code %d)", errCodeNot200, e.Status, e.Message, e.Code)
}

// call performs the request and decodes a 200 response into out, if not nil.
func (c *HTTPclient) call(method string, body, out any, params []string, urlPath ...string) error {
	data, status, err := c.Request(method, body, params, urlPath...)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		apiErr := &Error{Status: status}
		if err := json.Unmarshal(data, apiErr); err != nil {
			apiErr.Message = string(data)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func electionPath(id uint64, rest ...string) []string {
	return append([]string{api.ElectionsEndpoint, strconv.FormatUint(id, 10)}, rest...)
}

// Health returns the backend report of the node.
func (c *HTTPclient) Health() (*api.Health, error) {
	h := &api.Health{}
	return h, c.call(HTTPGET, nil, h, nil, api.HealthEndpoint)
}

// CreateElection creates an election.
func (c *HTTPclient) CreateElection(auth *authority.Authorization, p *election.Params) (*types.Election, error) {
	e := &types.Election{}
	return e, c.call(HTTPPOST, &api.NewElection{Authorization: auth, Params: *p}, e, nil, api.ElectionsEndpoint)
}

// Election returns an election.
func (c *HTTPclient) Election(id uint64) (*types.Election, error) {
	e := &types.Election{}
	return e, c.call(HTTPGET, nil, e, nil, electionPath(id)...)
}

// Elections lists the elections.
func (c *HTTPclient) Elections() ([]*types.Election, error) {
	var list []*types.Election
	return list, c.call(HTTPGET, nil, &list, nil, api.ElectionsEndpoint)
}

// AddCandidate adds a candidate to a pending election.
func (c *HTTPclient) AddCandidate(auth *authority.Authorization, id uint64, name, metadataRef string) (*types.Candidate, error) {
	cand := &types.Candidate{}
	req := &api.NewCandidate{Authorization: auth, Name: name, MetadataRef: metadataRef}
	return cand, c.call(HTTPPOST, req, cand, nil, electionPath(id, "candidates")...)
}

// Transition runs one of start, end, reset or finalize on an election.
func (c *HTTPclient) Transition(auth *authority.Authorization, id uint64, transition string) (*types.Election, error) {
	e := &types.Election{}
	return e, c.call(HTTPPOST, &api.AuthorizedRequest{Authorization: auth}, e, nil, electionPath(id, transition)...)
}

// Vote signs and casts a vote as voter.
func (c *HTTPclient) Vote(voter *ethereum.SignKeys, id uint64, candidateID uint32, nullifier types.HexBytes,
	proof *circuits.Proof, signals []*types.BigInt,
) error {
	sig, err := voter.SignEthereum(api.VoteMessage(id, candidateID, nullifier))
	if err != nil {
		return err
	}
	req := &api.Vote{
		CandidateID:   candidateID,
		Nullifier:     nullifier,
		Proof:         proof,
		PublicSignals: signals,
		Signature:     sig,
	}
	return c.call(HTTPPOST, req, nil, nil, electionPath(id, "votes")...)
}

// VerifyHumanity presents a humanity proof signed by caller.
func (c *HTTPclient) VerifyHumanity(caller *ethereum.SignKeys, id uint64, proof *circuits.Proof, signals []*types.BigInt) error {
	sig, err := caller.SignEthereum(api.HumanityMessage(id))
	if err != nil {
		return err
	}
	req := &api.HumanityProof{Proof: proof, PublicSignals: signals, Signature: sig}
	return c.call(HTTPPOST, req, nil, nil, electionPath(id, "humanity")...)
}

// Results returns the tally of an election.
func (c *HTTPclient) Results(id uint64) (*types.ElectionResults, error) {
	res := &types.ElectionResults{}
	return res, c.call(HTTPGET, nil, res, nil, electionPath(id, "results")...)
}

// AddAuthority registers an authority.
func (c *HTTPclient) AddAuthority(auth *authority.Authorization, addr common.Address, officialID string,
	level types.AuthorityLevel,
) (*api.Authority, error) {
	role := &api.Authority{}
	req := &api.NewAuthority{Authorization: auth, Address: addr, OfficialID: officialID, Level: level}
	return role, c.call(HTTPPOST, req, role, nil, api.AuthoritiesEndpoint)
}

// Authority returns the role of addr.
func (c *HTTPclient) Authority(addr common.Address) (*api.Authority, error) {
	role := &api.Authority{}
	return role, c.call(HTTPGET, nil, role, nil, api.AuthoritiesEndpoint, addr.Hex())
}

// RemoveAuthority revokes addr.
func (c *HTTPclient) RemoveAuthority(auth *authority.Authorization, addr common.Address) error {
	return c.call(HTTPDELETE, &api.AuthorizedRequest{Authorization: auth}, nil, nil, api.AuthoritiesEndpoint, addr.Hex())
}

// Prove asks the node prover for a proof.
func (c *HTTPclient) Prove(circuit circuits.CircuitID, inputs map[string]*types.BigInt) (*circuits.Proof, []*types.BigInt, error) {
	res := &struct {
		Proof         *circuits.Proof `json:"proof"`
		PublicSignals []*types.BigInt `json:"publicSignals"`
	}{}
	if err := c.call(HTTPPOST, &api.ProofRequest{Circuit: circuit, Inputs: inputs}, res, nil, api.ProofsEndpoint); err != nil {
		return nil, nil, err
	}
	return res.Proof, res.PublicSignals, nil
}

// PutMetadata stores an election metadata document and returns its id.
func (c *HTTPclient) PutMetadata(m *types.ElectionMetadata) (string, error) {
	res := &api.ContentID{}
	if err := c.call(HTTPPOST, m, res, nil, api.MetadataEndpoint); err != nil {
		return "", err
	}
	return res.CID, nil
}

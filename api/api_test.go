package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/arbo/memdb"
	"github.com/vocdoni/zkvote-core/api"
	"github.com/vocdoni/zkvote-core/api/client"
	"github.com/vocdoni/zkvote-core/audit"
	"github.com/vocdoni/zkvote-core/authority"
	"github.com/vocdoni/zkvote-core/blobstore"
	"github.com/vocdoni/zkvote-core/circuits"
	"github.com/vocdoni/zkvote-core/crypto/ethereum"
	"github.com/vocdoni/zkvote-core/election"
	"github.com/vocdoni/zkvote-core/identity"
	"github.com/vocdoni/zkvote-core/prover"
	"github.com/vocdoni/zkvote-core/storage"
	"github.com/vocdoni/zkvote-core/types"
	"github.com/vocdoni/zkvote-core/verifier"
)

var testNow = time.Unix(1_750_000_000, 0)

func clock() time.Time { return testNow }

type testServer struct {
	c        *qt.C
	api      *api.API
	cli      *client.HTTPclient
	registry *authority.Registry
	admin    *ethereum.SignKeys
}

func newKeys(c *qt.C) *ethereum.SignKeys {
	k := ethereum.NewSignKeys()
	c.Assert(k.Generate(), qt.IsNil)
	return k
}

func testProof() *circuits.Proof {
	return &circuits.Proof{
		A: types.BigInts(big.NewInt(1), big.NewInt(2)),
		B: [][]*types.BigInt{
			types.BigInts(big.NewInt(3), big.NewInt(4)),
			types.BigInts(big.NewInt(5), big.NewInt(6)),
		},
		C: types.BigInts(big.NewInt(7), big.NewInt(8)),
	}
}

// newTestServer serves a node with every optional backend enabled unless
// bare is set.
func newTestServer(c *qt.C, bare bool) *testServer {
	stg := storage.New(memdb.New())
	var auditLog *audit.Log
	regOpts := []authority.Option{authority.WithClock(clock)}
	if !bare {
		var err error
		auditLog, err = audit.Open(audit.DriverSQLite, "")
		c.Assert(err, qt.IsNil)
		c.Cleanup(func() { _ = auditLog.Close() })
		regOpts = append(regOpts, authority.WithAuditLog(auditLog))
	}
	registry := authority.NewRegistry(stg, regOpts...)
	gate := verifier.NewGate(verifier.BackendFunc(
		func(context.Context, circuits.CircuitID, *circuits.Proof, []*types.BigInt) (bool, error) {
			return true, nil
		}), verifier.WithClock(clock))
	manager, err := election.NewManager(stg, registry, gate, election.WithClock(clock))
	c.Assert(err, qt.IsNil)

	conf := &api.APIConfig{Manager: manager, Registry: registry}
	if !bare {
		conf.Audit = auditLog
		conf.Blobs = blobstore.NewLocal(stg)
		conf.Dispatcher = prover.NewDispatcher(fakeProver{})
	}
	a, err := api.New(conf)
	c.Assert(err, qt.IsNil)

	srv := httptest.NewServer(a.Router())
	c.Cleanup(srv.Close)
	cli, err := client.New(srv.URL)
	c.Assert(err, qt.IsNil)
	cli.SetRetries(1)

	ts := &testServer{c: c, api: a, cli: cli, registry: registry, admin: newKeys(c)}
	c.Assert(registry.Bootstrap(ts.admin.Address(), "ADM-1"), qt.IsNil)
	return ts
}

func (ts *testServer) auth(k *ethereum.SignKeys, action types.Action, electionID uint64) *authority.Authorization {
	role, err := ts.registry.Role(k.Address())
	ts.c.Assert(err, qt.IsNil)
	p, err := authority.NewProof(k, role.OfficialID, role.Level, action, electionID, testNow)
	ts.c.Assert(err, qt.IsNil)
	return &authority.Authorization{Proof: p}
}

// fakeProver returns the public signals the circuit would output for
// eligibility inputs.
type fakeProver struct{}

func (fakeProver) Prove(_ context.Context, circuit circuits.CircuitID, _ []byte) (*circuits.Proof, []*types.BigInt, error) {
	signals := make([]*types.BigInt, circuit.Arity())
	for i := range signals {
		signals[i] = types.NewInt(int64(i + 1))
	}
	return testProof(), signals, nil
}

// apiCode returns the API error code of err, or zero.
func apiCode(c *qt.C, err error) int {
	var apiErr *client.Error
	c.Assert(errors.As(err, &apiErr), qt.IsTrue, qt.Commentf("got %v", err))
	return apiErr.Code
}

func voteSignals(c *qt.C, v *identity.Voter, electionID uint64, candidate uint32) (types.HexBytes, []*types.BigInt) {
	nullifier, err := v.Nullifier(electionID)
	c.Assert(err, qt.IsNil)
	commitment, err := v.Commitment()
	c.Assert(err, qt.IsNil)
	voteHash, err := v.VoteCommitment(electionID, candidate)
	c.Assert(err, qt.IsNil)
	return nullifier.FillBytes(make([]byte, 32)), types.BigInts(nullifier, commitment, voteHash,
		new(big.Int).SetUint64(electionID), big.NewInt(int64(candidate)))
}

func TestElectionFlow(t *testing.T) {
	c := qt.New(t)
	ts := newTestServer(c, false)

	e, err := ts.cli.CreateElection(ts.auth(ts.admin, types.ActionCreateElection, 0), &election.Params{
		Title:          "Board",
		StartTime:      testNow.Unix(),
		EndTime:        testNow.Add(time.Hour).Unix(),
		CandidateCount: 2,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(e.State, qt.Equals, types.ElectionPending)

	// starting without every candidate registered
	_, err = ts.cli.Transition(ts.auth(ts.admin, types.ActionStartElection, e.ID), e.ID, "start")
	c.Assert(apiCode(c, err), qt.Equals, api.ErrInvalidStateTransition.Code)

	for _, name := range []string{"alice", "bob"} {
		_, err := ts.cli.AddCandidate(ts.auth(ts.admin, types.ActionCreateElection, e.ID), e.ID, name, "")
		c.Assert(err, qt.IsNil)
	}
	e, err = ts.cli.Transition(ts.auth(ts.admin, types.ActionStartElection, e.ID), e.ID, "start")
	c.Assert(err, qt.IsNil)
	c.Assert(e.State, qt.Equals, types.ElectionActive)

	voter, err := identity.NewVoter(big.NewInt(42))
	c.Assert(err, qt.IsNil)
	keys := newKeys(c)
	nullifier, signals := voteSignals(c, voter, e.ID, 1)
	c.Assert(ts.cli.Vote(keys, e.ID, 1, nullifier, testProof(), signals), qt.IsNil)

	err = ts.cli.Vote(keys, e.ID, 1, nullifier, testProof(), signals)
	c.Assert(apiCode(c, err), qt.Equals, api.ErrAlreadyVoted.Code)

	// signals bound to another candidate
	other, err := identity.NewVoter(big.NewInt(43))
	c.Assert(err, qt.IsNil)
	nullifier, signals = voteSignals(c, other, e.ID, 0)
	err = ts.cli.Vote(keys, e.ID, 1, nullifier, testProof(), signals)
	c.Assert(apiCode(c, err), qt.Equals, api.ErrProofRejected.Code)

	res, err := ts.cli.Results(e.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Tally, qt.DeepEquals, []uint64{0, 1})
	c.Assert(res.TotalVotes, qt.Equals, uint64(1))

	_, err = ts.cli.Election(e.ID + 1)
	c.Assert(apiCode(c, err), qt.Equals, api.ErrElectionNotFound.Code)

	list, err := ts.cli.Elections()
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 1)

	e, err = ts.cli.Transition(ts.auth(ts.admin, types.ActionEndElection, e.ID), e.ID, "end")
	c.Assert(err, qt.IsNil)
	c.Assert(e.State, qt.Equals, types.ElectionEnded)
	e, err = ts.cli.Transition(ts.auth(ts.admin, types.ActionEndElection, e.ID), e.ID, "finalize")
	c.Assert(err, qt.IsNil)
	c.Assert(e.State, qt.Equals, types.ElectionFinalized)

	entries, err := ts.api.AuditLog().List(context.Background(), audit.Filter{Actor: ts.admin.Address().Hex()})
	c.Assert(err, qt.IsNil)
	c.Assert(len(entries) >= 6, qt.IsTrue)
}

func TestVoteSignature(t *testing.T) {
	c := qt.New(t)
	ts := newTestServer(c, true)

	data, status, err := ts.cli.Request(client.HTTPPOST, &api.Vote{
		Nullifier: types.HexBytes{1},
		Proof:     testProof(),
		Signature: types.HexBytes{1, 2, 3},
	}, nil, "elections", "0", "votes")
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(string(data), qt.Contains, fmt.Sprint(api.ErrInvalidSignature.Code))

	_, status, err = ts.cli.Request(client.HTTPGET, nil, nil, "elections", "x")
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
}

func TestAuthorities(t *testing.T) {
	c := qt.New(t)
	ts := newTestServer(c, false)
	moderator := newKeys(c)

	role, err := ts.cli.AddAuthority(ts.auth(ts.admin, types.ActionAddAuthority, 0),
		moderator.Address(), "MOD-1", types.LevelModerator)
	c.Assert(err, qt.IsNil)
	c.Assert(role.IsActive, qt.IsTrue)
	c.Assert(role.Permissions, qt.DeepEquals, authority.Permissions(types.LevelModerator))

	// a moderator cannot register authorities
	_, err = ts.cli.AddAuthority(ts.auth(moderator, types.ActionAddAuthority, 0),
		newKeys(c).Address(), "MOD-2", types.LevelModerator)
	c.Assert(apiCode(c, err), qt.Equals, api.ErrUnauthorized.Code)

	role, err = ts.cli.Authority(moderator.Address())
	c.Assert(err, qt.IsNil)
	c.Assert(role.OfficialID, qt.Equals, "MOD-1")

	c.Assert(ts.cli.RemoveAuthority(ts.auth(ts.admin, types.ActionRemoveAuthority, 0), moderator.Address()), qt.IsNil)
	role, err = ts.cli.Authority(moderator.Address())
	c.Assert(err, qt.IsNil)
	c.Assert(role.IsActive, qt.IsFalse)

	_, err = ts.cli.Authority(newKeys(c).Address())
	c.Assert(apiCode(c, err), qt.Equals, api.ErrResourceNotFound.Code)

	_, status, err := ts.cli.Request(client.HTTPGET, nil, nil, "authorities", "0xnope")
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)

	var summary []types.AuthorityAuditEntry
	data, status, err := ts.cli.Request(client.HTTPGET, nil, nil, api.AuthoritiesAuditEndpoint)
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(json.Unmarshal(data, &summary), qt.IsNil)
	c.Assert(summary, qt.HasLen, 2)

	var entries []audit.Entry
	data, status, err = ts.cli.Request(client.HTTPGET, nil,
		[]string{"actor", moderator.Address().Hex()}, api.AuditEndpoint)
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(json.Unmarshal(data, &entries), qt.IsNil)
	c.Assert(entries, qt.HasLen, 1)
	c.Assert(entries[0].Outcome, qt.Equals, audit.OutcomeRejected)

	_, status, err = ts.cli.Request(client.HTTPGET, nil, []string{"limit", "-1"}, api.AuditEndpoint)
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
}

func TestProveAndMetadata(t *testing.T) {
	c := qt.New(t)
	ts := newTestServer(c, false)

	proof, signals, err := ts.cli.Prove(circuits.Eligibility, map[string]*types.BigInt{
		"voter_id":    types.NewInt(1),
		"secret":      types.NewInt(2),
		"election_id": types.NewInt(0),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(proof.CheckShape(), qt.IsNil)
	c.Assert(signals, qt.HasLen, circuits.Eligibility.Arity())

	_, _, err = ts.cli.Prove(circuits.Eligibility, map[string]*types.BigInt{"voter_id": types.NewInt(1)})
	c.Assert(apiCode(c, err), qt.Equals, api.ErrInvalidInput.Code)

	cid, err := ts.cli.PutMetadata(&types.ElectionMetadata{Title: "Board"})
	c.Assert(err, qt.IsNil)
	c.Assert(blobstore.ValidContentID(cid), qt.IsTrue)

	var m types.ElectionMetadata
	data, status, err := ts.cli.Request(client.HTTPGET, nil, nil, api.MetadataEndpoint, cid)
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(json.Unmarshal(data, &m), qt.IsNil)
	c.Assert(m.Title, qt.Equals, "Board")

	_, err = ts.cli.PutMetadata(&types.ElectionMetadata{})
	c.Assert(apiCode(c, err), qt.Equals, api.ErrInvalidInput.Code)

	h, err := ts.cli.Health()
	c.Assert(err, qt.IsNil)
	c.Assert(*h, qt.Equals, api.Health{Storage: true, Audit: true, Prover: true, Metadata: true})
}

func TestNotConfigured(t *testing.T) {
	c := qt.New(t)
	ts := newTestServer(c, true)

	_, _, err := ts.cli.Prove(circuits.Eligibility, nil)
	c.Assert(apiCode(c, err), qt.Equals, api.ErrNotConfigured.Code)
	_, err = ts.cli.PutMetadata(&types.ElectionMetadata{Title: "Board"})
	c.Assert(apiCode(c, err), qt.Equals, api.ErrNotConfigured.Code)
	_, status, err := ts.cli.Request(client.HTTPGET, nil, nil, api.AuditEndpoint)
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, http.StatusNotImplemented)

	h, err := ts.cli.Health()
	c.Assert(err, qt.IsNil)
	c.Assert(*h, qt.Equals, api.Health{Storage: true})
}

func TestErrorFor(t *testing.T) {
	c := qt.New(t)
	for _, tc := range []struct {
		err  error
		want api.Error
	}{
		{types.ErrProofStale, api.ErrProofRejected},
		{fmt.Errorf("%w: verifier down", types.ErrBackendUnavailable), api.ErrBackendUnavailable},
		{types.ErrAlreadyVoted, api.ErrAlreadyVoted},
		{types.ErrNotAuthority, api.ErrUnauthorized},
		{types.ErrInvalidStateTransition, api.ErrInvalidStateTransition},
		{storage.ErrNotFound, api.ErrResourceNotFound},
		{types.ErrInputDomain, api.ErrInvalidInput},
		{errors.New("boom"), api.ErrGenericInternalServerError},
		{api.ErrMalformedBody, api.ErrMalformedBody},
	} {
		got := api.ErrorFor(tc.err)
		c.Assert(got.Code, qt.Equals, tc.want.Code, qt.Commentf("%v", tc.err))
		c.Assert(got.HTTPstatus, qt.Equals, tc.want.HTTPstatus)
	}
}

func TestStartShutdown(t *testing.T) {
	c := qt.New(t)
	ts := newTestServer(c, true)
	a := ts.api
	a.SetListenAddr("127.0.0.1", 0)
	c.Assert(a.Start(), qt.IsNil)
	c.Assert(a.Start(), qt.IsNotNil)
	c.Assert(a.Addr(), qt.IsNotNil)

	resp, err := http.Get("http://" + a.Addr().String() + api.PingEndpoint)
	c.Assert(err, qt.IsNil)
	c.Assert(resp.Body.Close(), qt.IsNil)
	c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.Assert(a.Shutdown(ctx), qt.IsNil)
}

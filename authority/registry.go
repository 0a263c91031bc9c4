// Package authority is the registry of election officials: their roles,
// the capability table of each role, the audit trail of their actions and
// the checks that gate every administrative operation.
package authority

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/vocdoni/zkvote-core/audit"
	"github.com/vocdoni/zkvote-core/circuits"
	"github.com/vocdoni/zkvote-core/log"
	"github.com/vocdoni/zkvote-core/metrics"
	"github.com/vocdoni/zkvote-core/storage"
	"github.com/vocdoni/zkvote-core/types"
	"github.com/vocdoni/zkvote-core/util"
	"github.com/vocdoni/zkvote-core/verifier"
)

// Authorization is presented with every administrative request: a signed
// authority proof and, optionally, a zk proof of the authority circuit
// bound to the same action hash.
type Authorization struct {
	Proof         *Proof          `json:"proof"`
	ZKProof       *circuits.Proof `json:"zkProof,omitempty"`
	PublicSignals []*types.BigInt `json:"publicSignals,omitempty"`
}

// Registry owns the authority roles. Mutations are serialized; reads go
// straight to storage.
type Registry struct {
	mu sync.Mutex

	stg              *storage.Storage
	gate             *verifier.Gate
	audit            audit.Recorder
	requireZKProof   bool
	uniqueOfficialID bool
	window           time.Duration
	maxSkew          time.Duration
	now              func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithGate verifies zk authority proofs through g.
func WithGate(g *verifier.Gate) Option {
	return func(r *Registry) { r.gate = g }
}

// RequireZKProof makes the zk authority proof mandatory.
func RequireZKProof(required bool) Option {
	return func(r *Registry) { r.requireZKProof = required }
}

// WithUniqueOfficialID refuses to register an official id already held by
// another active address.
func WithUniqueOfficialID(unique bool) Option {
	return func(r *Registry) { r.uniqueOfficialID = unique }
}

// WithAuditLog records authorizations and registry changes in rec.
func WithAuditLog(rec audit.Recorder) Option {
	return func(r *Registry) { r.audit = rec }
}

// WithProofWindow overrides the authority proof freshness window.
func WithProofWindow(d time.Duration) Option {
	return func(r *Registry) { r.window = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry returns a registry persisted in stg.
func NewRegistry(stg *storage.Storage, opts ...Option) *Registry {
	r := &Registry{
		stg:     stg,
		window:  circuits.AuthorityValidity,
		maxSkew: verifier.DefaultMaxClockSkew,
		now:     time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RequiresZKProof reports whether every authorization must carry a zk
// authority proof.
func (r *Registry) RequiresZKProof() bool {
	return r.requireZKProof
}

// Register creates or overwrites the role of addr, active and with an
// empty action log.
func (r *Registry) Register(addr common.Address, officialID string, level types.AuthorityLevel) (*types.AuthorityRole, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("%w: invalid authority level %d", types.ErrInputDomain, level)
	}
	if officialID == "" {
		return nil, fmt.Errorf("%w: empty official id", types.ErrInputDomain)
	}
	if addr == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero address", types.ErrInputDomain)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.uniqueOfficialID {
		roles, err := r.stg.ListAuthorities()
		if err != nil {
			return nil, err
		}
		for _, role := range roles {
			if role.IsActive && role.OfficialID == officialID && role.Address != addr {
				return nil, fmt.Errorf("%w: official id %q already held by %s",
					types.ErrInputDomain, officialID, role.Address)
			}
		}
	}
	role := &types.AuthorityRole{
		Address:    addr,
		OfficialID: officialID,
		Level:      level,
		IsActive:   true,
		AddedAt:    r.now().Unix(),
		Actions:    []*types.AuthorityAction{},
	}
	if err := r.stg.SetAuthority(role); err != nil {
		return nil, err
	}
	log.Infow("authority registered", "address", addr.Hex(), "officialID", officialID, "level", level.String())
	return role, nil
}

// Role returns the role of addr, active or not.
func (r *Registry) Role(addr common.Address) (*types.AuthorityRole, error) {
	role, err := r.stg.Authority(addr)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: authority %s", types.ErrNotFound, addr.Hex())
	}
	return role, err
}

// Revoke deactivates addr. Its action history is kept.
func (r *Registry) Revoke(addr common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, err := r.stg.Authority(addr)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: authority %s", types.ErrNotFound, addr.Hex())
		}
		return err
	}
	role.IsActive = false
	if err := r.stg.SetAuthority(role); err != nil {
		return err
	}
	log.Infow("authority revoked", "address", addr.Hex(), "officialID", role.OfficialID)
	return nil
}

// RecordAction appends to the action log of addr. Unknown addresses are
// ignored.
func (r *Registry) RecordAction(addr common.Address, action types.Action, electionID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, err := r.stg.Authority(addr)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	role.Actions = append(role.Actions, &types.AuthorityAction{
		ID:         uuid.NewString(),
		Action:     action,
		ElectionID: electionID,
		Timestamp:  r.now().Unix(),
	})
	if err := r.stg.SetAuthority(role); err != nil {
		return err
	}
	metrics.AuthorityActions.WithLabelValues(action.String()).Inc()
	return nil
}

// List returns the active roles.
func (r *Registry) List() ([]*types.AuthorityRole, error) {
	roles, err := r.stg.ListAuthorities()
	if err != nil {
		return nil, err
	}
	active := []*types.AuthorityRole{}
	for _, role := range roles {
		if role.IsActive {
			active = append(active, role)
		}
	}
	return active, nil
}

// ActiveAddresses returns the addresses of the active roles.
func (r *Registry) ActiveAddresses() ([]common.Address, error) {
	roles, err := r.List()
	if err != nil {
		return nil, err
	}
	addrs := make([]common.Address, len(roles))
	for i, role := range roles {
		addrs[i] = role.Address
	}
	return addrs, nil
}

// ActionHistory returns the action log of addr, empty for unknown
// addresses.
func (r *Registry) ActionHistory(addr common.Address) ([]*types.AuthorityAction, error) {
	role, err := r.stg.Authority(addr)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []*types.AuthorityAction{}, nil
		}
		return nil, err
	}
	return role.Actions, nil
}

// AuditLog summarizes every role, revoked ones included.
func (r *Registry) AuditLog() ([]types.AuthorityAuditEntry, error) {
	roles, err := r.stg.ListAuthorities()
	if err != nil {
		return nil, err
	}
	entries := make([]types.AuthorityAuditEntry, len(roles))
	for i, role := range roles {
		entries[i] = types.AuthorityAuditEntry{
			Address:     role.Address,
			OfficialID:  role.OfficialID,
			Level:       role.Level,
			AddedAt:     role.AddedAt,
			IsActive:    role.IsActive,
			ActionCount: len(role.Actions),
		}
	}
	return entries, nil
}

// Authorize checks that auth allows its signer to perform action on the
// election and returns the signer role. Every failure is a hard rejection:
// types.ErrUnauthorized for role problems, types.ErrProofRejected for
// stale, malformed or invalid proofs.
func (r *Registry) Authorize(ctx context.Context, auth *Authorization, action types.Action, electionID uint64) (*types.AuthorityRole, error) {
	role, err := r.authorize(ctx, auth, action, electionID)
	if err != nil {
		actor := ""
		if auth != nil && auth.Proof != nil {
			actor = auth.Proof.OfficialAddress.Hex()
		}
		log.Warnw("authorization rejected", "address", actor, "action", action.String(),
			"electionID", electionID, "reason", err.Error())
		r.record(ctx, &audit.Entry{
			Actor:      actor,
			Action:     action.String(),
			ElectionID: &electionID,
			Outcome:    audit.OutcomeRejected,
			Detail:     err.Error(),
		})
		return nil, err
	}
	return role, nil
}

func (r *Registry) authorize(ctx context.Context, auth *Authorization, action types.Action, electionID uint64) (*types.AuthorityRole, error) {
	if auth == nil || auth.Proof == nil {
		return nil, fmt.Errorf("%w: missing authority proof", types.ErrUnauthorized)
	}
	p := auth.Proof
	if p.ActionType != action || p.ElectionID != electionID {
		return nil, fmt.Errorf("%w: proof covers %s on election %d, not %s on election %d",
			types.ErrProofMalformed, p.ActionType, p.ElectionID, action, electionID)
	}
	authorized, err := r.ActiveAddresses()
	if err != nil {
		return nil, err
	}
	now := r.now()
	if err := VerifyAuthorityProof(p, authorized, now, r.window); err != nil {
		return nil, err
	}
	if err := verifier.CheckFreshness(time.Unix(p.Timestamp, 0), now, r.window, r.maxSkew); err != nil {
		return nil, err
	}
	if err := p.VerifySignature(); err != nil {
		return nil, err
	}
	role, err := r.Role(p.OfficialAddress)
	if err != nil {
		return nil, err
	}
	if role.Level != p.Level {
		return nil, fmt.Errorf("%w: %s holds level %s, proof claims %s",
			types.ErrInsufficientPermission, role.Address.Hex(), role.Level, p.Level)
	}
	if auth.ZKProof != nil || r.requireZKProof {
		if err := r.verifyZK(ctx, auth, electionID); err != nil {
			return nil, err
		}
	}
	return role, nil
}

func (r *Registry) verifyZK(ctx context.Context, auth *Authorization, electionID uint64) error {
	if auth.ZKProof == nil {
		return fmt.Errorf("%w: zk authority proof required", types.ErrProofMalformed)
	}
	if r.gate == nil {
		return fmt.Errorf("%w: no verifier configured for authority proofs", types.ErrBackendUnavailable)
	}
	if _, err := r.gate.Verify(ctx, &verifier.Submission{
		Circuit:       circuits.Authority,
		Proof:         auth.ZKProof,
		PublicSignals: auth.PublicSignals,
		Timestamp:     time.Unix(auth.Proof.Timestamp, 0),
	}); err != nil {
		return err
	}
	hash := circuits.Signal(circuits.Authority, auth.PublicSignals, "action_hash")
	if hash == nil || hash.Cmp(util.BytesToFF(auth.Proof.ActionHash)) != 0 {
		return fmt.Errorf("%w: zk proof bound to another action", types.ErrProofMalformed)
	}
	eid := circuits.Signal(circuits.Authority, auth.PublicSignals, "election_id")
	if eid == nil || !eid.IsUint64() || eid.Uint64() != electionID {
		return fmt.Errorf("%w: zk proof bound to another election", types.ErrProofMalformed)
	}
	return nil
}

// AddAuthority registers a role on behalf of an admin.
func (r *Registry) AddAuthority(ctx context.Context, auth *Authorization, addr common.Address,
	officialID string, level types.AuthorityLevel,
) (*types.AuthorityRole, error) {
	actor, err := r.Authorize(ctx, auth, types.ActionAddAuthority, 0)
	if err != nil {
		return nil, err
	}
	role, err := r.Register(addr, officialID, level)
	if err != nil {
		return nil, err
	}
	r.done(ctx, actor, types.ActionAddAuthority, fmt.Sprintf("registered %s as %s", addr.Hex(), level))
	return role, nil
}

// RemoveAuthority revokes a role on behalf of an admin.
func (r *Registry) RemoveAuthority(ctx context.Context, auth *Authorization, addr common.Address) error {
	actor, err := r.Authorize(ctx, auth, types.ActionRemoveAuthority, 0)
	if err != nil {
		return err
	}
	if err := r.Revoke(addr); err != nil {
		return err
	}
	r.done(ctx, actor, types.ActionRemoveAuthority, "revoked "+addr.Hex())
	return nil
}

// Bootstrap registers addr as admin if the registry has never seen it. It
// is meant for process start. An existing role is left untouched, so a
// revoked or demoted bootstrap address stays that way across restarts.
func (r *Registry) Bootstrap(addr common.Address, officialID string) error {
	role, err := r.stg.Authority(addr)
	if errors.Is(err, storage.ErrNotFound) {
		_, err = r.Register(addr, officialID, types.LevelAdmin)
		return err
	}
	if err != nil {
		return err
	}
	if !role.IsActive || role.Level != types.LevelAdmin {
		log.Warnw("bootstrap address is not an active admin, leaving it as is",
			"address", addr.Hex(), "level", role.Level.String(), "active", role.IsActive)
	}
	return nil
}

// Done records a completed action of actor in its log and in the audit
// trail.
func (r *Registry) Done(ctx context.Context, actor *types.AuthorityRole, action types.Action, electionID uint64, detail string) {
	if err := r.RecordAction(actor.Address, action, electionID); err != nil {
		log.Warnw("cannot record authority action", "address", actor.Address.Hex(), "error", err.Error())
	}
	r.record(ctx, &audit.Entry{
		Actor:      actor.Address.Hex(),
		OfficialID: actor.OfficialID,
		Action:     action.String(),
		ElectionID: &electionID,
		Detail:     detail,
	})
}

func (r *Registry) done(ctx context.Context, actor *types.AuthorityRole, action types.Action, detail string) {
	if err := r.RecordAction(actor.Address, action, 0); err != nil {
		log.Warnw("cannot record authority action", "address", actor.Address.Hex(), "error", err.Error())
	}
	r.record(ctx, &audit.Entry{
		Actor:      actor.Address.Hex(),
		OfficialID: actor.OfficialID,
		Action:     action.String(),
		Detail:     detail,
	})
}

func (r *Registry) record(ctx context.Context, e *audit.Entry) {
	if r.audit == nil {
		return
	}
	if err := r.audit.Record(ctx, e); err != nil {
		log.Warnw("cannot write audit entry", "action", e.Action, "error", err.Error())
	}
}

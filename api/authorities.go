package api

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/zkvote-core/audit"
	"github.com/vocdoni/zkvote-core/authority"
	"github.com/vocdoni/zkvote-core/types"
)

func authorityResponse(role *types.AuthorityRole) *Authority {
	return &Authority{
		AuthorityRole: role,
		Permissions:   authority.Permissions(role.Level),
	}
}

// newAuthority registers an authority on behalf of an admin.
// POST /authorities
func (a *API) newAuthority(w http.ResponseWriter, r *http.Request) {
	req := &NewAuthority{}
	if !decodeBody(w, r, req) {
		return
	}
	role, err := a.registry.AddAuthority(r.Context(), req.Authorization, req.Address, req.OfficialID, req.Level)
	if err != nil {
		errorFor(err).Write(w)
		return
	}
	httpWriteJSON(w, authorityResponse(role))
}

// authorities lists the active authorities.
// GET /authorities
func (a *API) authorities(w http.ResponseWriter, r *http.Request) {
	roles, err := a.registry.List()
	if err != nil {
		errorFor(err).Write(w)
		return
	}
	list := make([]*Authority, 0, len(roles))
	for _, role := range roles {
		list = append(list, authorityResponse(role))
	}
	httpWriteJSON(w, list)
}

// authoritiesAudit returns the per-authority summary, active or not.
// GET /authorities/audit
func (a *API) authoritiesAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := a.registry.AuditLog()
	if err != nil {
		errorFor(err).Write(w)
		return
	}
	httpWriteJSON(w, entries)
}

// authority returns the role of an address.
// GET /authorities/{address}
func (a *API) authority(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r)
	if !ok {
		return
	}
	role, err := a.registry.Role(addr)
	if err != nil {
		errorFor(err).Write(w)
		return
	}
	httpWriteJSON(w, authorityResponse(role))
}

// removeAuthority revokes an authority on behalf of an admin.
// DELETE /authorities/{address}
func (a *API) removeAuthority(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r)
	if !ok {
		return
	}
	req := &AuthorizedRequest{}
	if !decodeBody(w, r, req) {
		return
	}
	if err := a.registry.RemoveAuthority(r.Context(), req.Authorization, addr); err != nil {
		errorFor(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// authorityActions returns the action history of an address.
// GET /authorities/{address}/actions
func (a *API) authorityActions(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r)
	if !ok {
		return
	}
	actions, err := a.registry.ActionHistory(addr)
	if err != nil {
		errorFor(err).Write(w)
		return
	}
	httpWriteJSON(w, actions)
}

// auditLog lists the audit trail.
// GET /audit?actor=<address>&electionId=<id>&limit=<n>
func (a *API) auditLog(w http.ResponseWriter, r *http.Request) {
	if a.audit == nil {
		ErrNotConfigured.With("audit log").Write(w)
		return
	}
	q := r.URL.Query()
	f := audit.Filter{}
	if actor := q.Get("actor"); actor != "" {
		if !common.IsHexAddress(actor) {
			ErrMalformedQueryParameter.Withf("actor %q", actor).Write(w)
			return
		}
		f.Actor = common.HexToAddress(actor).Hex()
	}
	if s := q.Get("electionId"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			ErrMalformedQueryParameter.Withf("electionId %q", s).Write(w)
			return
		}
		f.ElectionID = &id
	}
	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			ErrMalformedQueryParameter.Withf("limit %q", s).Write(w)
			return
		}
		f.Limit = limit
	}
	entries, err := a.audit.List(r.Context(), f)
	if err != nil {
		ErrBackendUnavailable.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, entries)
}

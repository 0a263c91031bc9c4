package api

import "github.com/vocdoni/zkvote-core/audit"

// ErrorFor exposes errorFor to the external api_test package.
var ErrorFor = errorFor

// AuditLog exposes the audit log to the external api_test package.
func (a *API) AuditLog() *audit.Log { return a.audit }

// SetListenAddr sets the listen host and port from the external api_test package.
func (a *API) SetListenAddr(host string, port int) { a.host, a.port = host, port }

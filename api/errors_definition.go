//nolint:lll
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vocdoni/zkvote-core/types"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400, 403, 404 or 409, whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX
// If you notice there's a gap (say, error code 4010, 4011 and 4013 exist, 4012 is missing) DON'T fill in the gap,
// that code was used in the past for some error (not anymore) and shouldn't be reused.
// There's no correlation between Code and HTTP Status.
var (
	ErrResourceNotFound        = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody           = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrInvalidSignature        = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid signature")}
	ErrMalformedElectionID     = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed election ID")}
	ErrElectionNotFound        = Error{Code: 40007, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("election not found")}
	ErrInvalidInput            = Error{Code: 40008, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid input")}
	ErrProofRejected           = Error{Code: 40009, HTTPstatus: http.StatusUnprocessableEntity, Err: fmt.Errorf("proof rejected")}
	ErrAlreadyVoted            = Error{Code: 40010, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("already voted")}
	ErrUnauthorized            = Error{Code: 40011, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("unauthorized")}
	ErrInvalidStateTransition  = Error{Code: 40012, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("invalid state transition")}
	ErrMalformedAddress        = Error{Code: 40013, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed address")}
	ErrMalformedContentID      = Error{Code: 40014, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed content ID")}
	ErrMalformedQueryParameter = Error{Code: 40015, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed query parameter")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
	ErrBackendUnavailable         = Error{Code: 50003, HTTPstatus: http.StatusServiceUnavailable, Err: fmt.Errorf("backend unavailable")}
	ErrNotConfigured              = Error{Code: 50004, HTTPstatus: http.StatusNotImplemented, Err: fmt.Errorf("feature not configured on this node")}
)

// errorFor maps a core error to the API error of its class. Backend
// failures are checked first so a proof rejected because the verifier was
// down is reported as retryable.
func errorFor(err error) Error {
	var apiErr Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, types.ErrBackendUnavailable):
		apiErr = ErrBackendUnavailable
	case errors.Is(err, types.ErrAlreadyVoted):
		apiErr = ErrAlreadyVoted
	case errors.Is(err, types.ErrProofRejected):
		apiErr = ErrProofRejected
	case errors.Is(err, types.ErrUnauthorized):
		apiErr = ErrUnauthorized
	case errors.Is(err, types.ErrInvalidStateTransition):
		apiErr = ErrInvalidStateTransition
	case errors.Is(err, types.ErrNotFound):
		apiErr = ErrResourceNotFound
	case errors.Is(err, types.ErrInputDomain):
		apiErr = ErrInvalidInput
	default:
		apiErr = ErrGenericInternalServerError
	}
	return apiErr.WithErr(err)
}

package types

import (
	"errors"
	"fmt"
)

// Error classes shared by every package. Callers classify with errors.Is;
// the protocol errors (proof rejected, already voted, unauthorized, invalid
// state transition) are never merged into one another.
var (
	// ErrInputDomain is returned for malformed or out of range inputs:
	// negative or out of field values, unknown enum names, bad shapes.
	ErrInputDomain = errors.New("input domain error")

	ErrProofRejected  = errors.New("proof rejected")
	ErrProofMalformed = fmt.Errorf("%w: malformed", ErrProofRejected)
	ErrProofStale     = fmt.Errorf("%w: stale", ErrProofRejected)
	ErrProofInvalid   = fmt.Errorf("%w: cryptographically invalid", ErrProofRejected)

	// ErrAlreadyVoted is returned when a nullifier was already accepted for
	// the election. It is terminal for that voter and election.
	ErrAlreadyVoted = errors.New("vote already cast")

	ErrUnauthorized           = errors.New("unauthorized")
	ErrNotAuthority           = fmt.Errorf("%w: not an authority", ErrUnauthorized)
	ErrInsufficientPermission = fmt.Errorf("%w: insufficient permission", ErrUnauthorized)

	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrBackendUnavailable reflects infrastructure failures (proving,
	// verifying or storage backends). Callers may retry with backoff.
	ErrBackendUnavailable = errors.New("backend unavailable")

	ErrNotFound = errors.New("not found")
)

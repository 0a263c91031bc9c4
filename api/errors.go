package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vocdoni/zkvote-core/log"
)

// Error is an API failure: a stable numeric code, the HTTP status it is
// served with and the underlying cause.
type Error struct {
	Err        error
	Code       int
	HTTPstatus int
}

// MarshalJSON encodes the error as {"error": "...", "code": N}.
func (e Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(
		struct {
			Err  string `json:"error"`
			Code int    `json:"code"`
		}{
			Err:  e.Err.Error(),
			Code: e.Code,
		})
}

func (e Error) Error() string {
	return e.Err.Error()
}

// Write sends the error as the JSON response body.
func (e Error) Write(w http.ResponseWriter) {
	msg, err := json.Marshal(e)
	if err != nil {
		log.Warnw("could not encode api error", "error", err)
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	log.Debugw("api error response", "error", e.Error(), "code", e.Code, "status", e.HTTPstatus)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPstatus)
	if _, err := w.Write(append(msg, '\n')); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// With returns a copy of e with detail appended to the message.
func (e Error) With(detail string) Error {
	e.Err = fmt.Errorf("%w: %s", e.Err, detail)
	return e
}

// Withf is With with a format string.
func (e Error) Withf(format string, args ...any) Error {
	return e.With(fmt.Sprintf(format, args...))
}

// WithErr returns a copy of e with err's message appended.
func (e Error) WithErr(err error) Error {
	return e.With(err.Error())
}

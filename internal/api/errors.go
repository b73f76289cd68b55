package api

import "net/http"

// Error is the client-facing error: a stable minimal shape carrying only
// the message and status code. It unwraps to one of the sentinel errors so
// callers can still branch with errors.Is.
type Error struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Err        error  `json:"-"`
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// BadRequest covers validation and business-rule violations. Messages stay
// generic on purpose ("Invalid credentials") so responses never leak which
// check failed.
func BadRequest(msg string) *Error {
	return &Error{Message: msg, StatusCode: http.StatusBadRequest, Err: ErrBadRequest}
}

// Conflict marks a duplicate identity. It is surfaced to clients with the
// same status as BadRequest but remains distinguishable via errors.Is.
func Conflict(msg string) *Error {
	return &Error{Message: msg, StatusCode: http.StatusBadRequest, Err: ErrConflict}
}

// NotAuthorized covers missing, invalid and expired sessions alike; the
// caller cannot distinguish which from the response.
func NotAuthorized(msg string) *Error {
	return &Error{Message: msg, StatusCode: http.StatusUnauthorized, Err: ErrUnauthenticated}
}

func NotFound(msg string) *Error {
	return &Error{Message: msg, StatusCode: http.StatusNotFound, Err: ErrNotFound}
}

// ServerError is returned for any cache, queue or durable-store transport
// fault. Detail lives in the logs at the point of failure, never here.
func ServerError() *Error {
	return &Error{Message: MsgServerError, StatusCode: http.StatusServiceUnavailable, Err: ErrServer}
}

package store

import "fmt"

// StatusError is returned when the backend answers a read or write with a
// non-2xx status. Local backends use 404 for a missing document.
type StatusError struct {
	Op         string // "read" or "write"
	Backend    string
	StatusCode int
	Body       string
	// Err is an optional cause, e.g. a backend's not-found sentinel.
	Err error
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "…"
	}
	return fmt.Sprintf("store: %s %s: status %d: %s", e.Op, e.Backend, e.StatusCode, body)
}

func (e *StatusError) Unwrap() error { return e.Err }

// DecodeError is returned when a fetched payload is not a valid document.
type DecodeError struct {
	Backend string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("store: decode %s: %v", e.Backend, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

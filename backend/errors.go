package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable covers transport failures and 5xx responses.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrRejected is a 400 on entry creation: the backend refused the input.
	ErrRejected = errors.New("backend rejected entry")
	// ErrStateConflict is a 400 on approve, deny or undo: the entry is not in
	// the state the call expects (already decided, or already open).
	ErrStateConflict = errors.New("entry not in expected state")
)

// Error describes one failed backend call.
type Error struct {
	Op     string
	Status int
	Body   string
	// Err is one of the sentinels above, or nil for other non-200 responses.
	Err error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

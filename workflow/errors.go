package workflow

import (
	"errors"
	"fmt"
	"strings"

	"showdown/backend"
	"showdown/model"
	"showdown/submission"
)

var (
	// ErrMessageNotFound means the submission message is gone, usually
	// because another reviewer already handled it.
	ErrMessageNotFound = errors.New("submission message not found")
	// ErrEscalated marks errors that have already been reported to the
	// error channel.
	ErrEscalated = errors.New("reported to admins")
)

// Attempt is one backend call that failed.
type Attempt struct {
	// Index is the 1-based position of the entry within the submission.
	Index int
	// ID is empty for failed creations.
	ID  model.EntryID
	Err error
}

// PartialFailureError aggregates per-entry failures of a bulk operation.
type PartialFailureError struct {
	Op      model.Operation
	Total   int
	Applied []model.EntryID
	Failed  []Attempt
}

func (e *PartialFailureError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d of %d entries succeeded", e.Op, len(e.Applied), e.Total)
	ids := make([]string, len(e.Applied))
	for i, id := range e.Applied {
		ids[i] = string(id)
	}
	fmt.Fprintf(&b, " [%s]", strings.Join(ids, ", "))
	for _, f := range e.Failed {
		if f.ID != "" {
			fmt.Fprintf(&b, "; entry %s failed: %v", f.ID, f.Err)
		} else {
			fmt.Fprintf(&b, "; entry #%d failed: %v", f.Index, f.Err)
		}
	}
	return b.String()
}

// Unwrap exposes every underlying failure to errors.Is and errors.As.
func (e *PartialFailureError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f.Err
	}
	return errs
}

// FailedIDs lists the entry ids that failed.
func (e *PartialFailureError) FailedIDs() []model.EntryID {
	var ids []model.EntryID
	for _, f := range e.Failed {
		if f.ID != "" {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

func (e *PartialFailureError) allConflicts() bool {
	if len(e.Failed) == 0 {
		return false
	}
	for _, f := range e.Failed {
		if !errors.Is(f.Err, backend.ErrStateConflict) {
			return false
		}
	}
	return true
}

type escalatedError struct {
	err error
}

func (e *escalatedError) Error() string        { return e.err.Error() }
func (e *escalatedError) Unwrap() error        { return e.err }
func (e *escalatedError) Is(target error) bool { return target == ErrEscalated }

// Reply texts shown to the acting user.
const (
	UnexpectedErrorReply = "Unexpected error: The admins have been notified to review this error"
	AlreadyHandledReply  = "This submission has already been handled"
	ConflictReply        = "This submission has already been approved or denied"
	RejectedReply        = "The scoring backend rejected this submission"
)

// UserReply maps an engine error to the text for the acting user. escalate
// is true when the caller still has to report the error.
func UserReply(err error) (reply string, escalate bool) {
	var userErr *model.UserError
	switch {
	case err == nil:
		return "", false
	case errors.As(err, &userErr):
		return "Error: " + userErr.Message, false
	case errors.Is(err, ErrEscalated):
		return UnexpectedErrorReply, false
	case errors.Is(err, ErrMessageNotFound):
		return AlreadyHandledReply, false
	case errors.Is(err, backend.ErrStateConflict):
		return ConflictReply, false
	case errors.Is(err, backend.ErrRejected):
		return RejectedReply, false
	case errors.Is(err, submission.ErrNotASubmission), errors.Is(err, submission.ErrMalformedToken):
		return "", false
	default:
		return UnexpectedErrorReply, true
	}
}

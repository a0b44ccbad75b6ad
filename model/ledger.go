package model

import "time"

// Operation names the workflow step a ledger row came from.
type Operation string

const (
	OpSubmit  Operation = "submit"
	OpApprove Operation = "approve"
	OpDeny    Operation = "deny"
	OpUndo    Operation = "undo"
)

// Unreconciled records backend entries whose state no longer matches the
// review surface and needs a human to fix up.
type Unreconciled struct {
	ID         int64
	Operation  Operation
	User       string
	Kind       Kind
	IDs        []EntryID
	Token      string
	Cause      string
	CreatedAt  time.Time
	ResolvedAt *time.Time
	ResolvedBy string
}

// Decision is one audit row for an approve, deny or undo pass.
type Decision struct {
	ID        int64
	Operation Operation
	Reviewer  string
	User      string
	Kind      Kind
	Applied   []EntryID
	Failed    []EntryID
	CreatedAt time.Time
}

package workflow

import (
	"context"

	"showdown/backend"
	"showdown/model"
	"showdown/roster"
)

// MessageRef addresses one message on the review surface.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// Queued is a submission waiting on the review queue.
type Queued struct {
	Ref        MessageRef
	Submission *model.Submission
}

// SubmissionStore keeps submissions between workflow steps. The chat
// implementation stores each one as a message carrying its token.
//
// Load fails with ErrMessageNotFound when the message is gone, and with
// submission.ErrNotASubmission or submission.ErrMalformedToken when the
// message does not hold a readable submission.
type SubmissionStore interface {
	Enqueue(ctx context.Context, sub *model.Submission) (MessageRef, error)
	Load(ctx context.Context, ref MessageRef) (*model.Submission, error)
	// Remove deletes the message and any replies threaded on it.
	Remove(ctx context.Context, ref MessageRef) error
	// Archive posts a decided submission to the log with an undo control.
	Archive(ctx context.Context, sub *model.Submission, op model.Operation, reviewer string) (MessageRef, error)
	Reply(ctx context.Context, ref MessageRef, text string) error
	Pending(ctx context.Context) ([]Queued, error)
}

// Notifier posts free-form messages.
type Notifier interface {
	Notify(ctx context.Context, channelID, text string) error
	ReportError(ctx context.Context, text string) error
}

// Backend is the scoring backend surface the engine drives.
type Backend interface {
	CreateEntry(ctx context.Context, entry backend.Entry) (model.EntryID, error)
	Approve(ctx context.Context, id model.EntryID, reviewer string) error
	Deny(ctx context.Context, id model.EntryID, reviewer string) error
	Undo(ctx context.Context, id model.EntryID) error
}

// Ledger records state that needs manual reconciliation, plus an audit
// trail of decisions.
type Ledger interface {
	RecordUnreconciled(ctx context.Context, u model.Unreconciled) error
	RecordDecision(ctx context.Context, d model.Decision) error
}

// Roster serves the current snapshot and rebuilds it on demand.
type Roster interface {
	Current() *roster.Snapshot
	Reload(ctx context.Context) (*roster.Snapshot, error)
}

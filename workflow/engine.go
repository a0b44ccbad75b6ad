// Package workflow runs the submission lifecycle: submit, review, undo.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"showdown/backend"
	"showdown/logger"
	"showdown/metrics"
	"showdown/model"
	"showdown/roster"
	"showdown/submission"
	"showdown/utils"
)

// Submitter is a player invoking a submit command.
type Submitter struct {
	Username  string
	ChannelID string
}

// Reviewer is the actor behind a review button click.
type Reviewer struct {
	Username string
	Roles    []string
}

// Outcome is a review decision.
type Outcome int

const (
	Approve Outcome = iota
	Deny
)

func (o Outcome) Operation() model.Operation {
	if o == Deny {
		return model.OpDeny
	}
	return model.OpApprove
}

// Past is the past tense used in notifications.
func (o Outcome) Past() string {
	if o == Deny {
		return "denied"
	}
	return "approved"
}

// Deps wires an Engine.
type Deps struct {
	Backend  Backend
	Store    SubmissionStore
	Notifier Notifier
	Ledger   Ledger
	Roster   Roster
	Gate     utils.Gate
}

// Engine orchestrates submissions. It holds no mutable state of its own;
// concurrent decisions on one submission are settled by the backend.
type Engine struct {
	backend  Backend
	store    SubmissionStore
	notifier Notifier
	ledger   Ledger
	roster   Roster
	gate     utils.Gate
}

// New creates an Engine.
func New(d Deps) *Engine {
	return &Engine{
		backend:  d.Backend,
		store:    d.Store,
		notifier: d.Notifier,
		ledger:   d.Ledger,
		roster:   d.Roster,
		gate:     d.Gate,
	}
}

// CheckAdmin gates staff-only operations.
func (e *Engine) CheckAdmin(roles []string) error {
	return e.gate.CheckEligibleAdmin(roles)
}

// Submit validates and records a new submission and puts it on the review
// queue. Entries are created one at a time; the first failure stops creation
// and the entries already created are written to the ledger.
func (e *Engine) Submit(ctx context.Context, actor Submitter, kind model.Kind, params model.Params) (sub *model.Submission, err error) {
	defer func() {
		metrics.Submissions.WithLabelValues(string(kind), metrics.Result(err)).Inc()
	}()
	log := logger.Ctx(ctx)

	snap := e.roster.Current()
	player, err := utils.CheckEligibleSubmitter(snap, actor.Username, actor.ChannelID)
	if err != nil {
		return nil, err
	}
	p, err := planSubmission(kind, params, player, snap)
	if err != nil {
		return nil, err
	}

	sub = &model.Submission{
		User:      actor.Username,
		RSN:       player.RSN,
		Team:      player.Team,
		Kind:      kind,
		Params:    params,
		ShortDesc: p.shortDesc,
	}

	fits, err := submission.Fits(sub, len(p.entries))
	if err != nil {
		return nil, e.escalate(ctx, "submission", nil, err)
	}
	if !fits {
		return nil, model.Invalidf("This submission is too long to post for review. Split it into smaller submissions")
	}

	ids := make([]model.EntryID, 0, len(p.entries))
	for i, entry := range p.entries {
		id, err := e.backend.CreateEntry(ctx, entry)
		if err != nil {
			if len(ids) == 0 {
				wrapped := fmt.Errorf("create entry: %w", err)
				if errors.Is(err, backend.ErrRejected) {
					return nil, wrapped
				}
				return nil, e.escalate(ctx, "submission", sub, wrapped)
			}
			perr := &PartialFailureError{
				Op:      model.OpSubmit,
				Total:   len(p.entries),
				Applied: ids,
				Failed:  []Attempt{{Index: i + 1, Err: err}},
			}
			partial := *sub
			partial.IDs = ids
			e.recordUnreconciled(ctx, model.OpSubmit, &partial, ids, perr)
			return nil, e.escalate(ctx, "submission", &partial, perr)
		}
		ids = append(ids, id)
		log.Debug().Str("kind", string(kind)).Str("entry_id", string(id)).Msg("Backend entry created")
	}
	sub.IDs = ids

	if _, err := e.store.Enqueue(ctx, sub); err != nil {
		wrapped := fmt.Errorf("enqueue submission: %w", err)
		e.recordUnreconciled(ctx, model.OpSubmit, sub, ids, wrapped)
		return nil, e.escalate(ctx, "submission", sub, wrapped)
	}

	log.Info().
		Str("user", sub.User).
		Str("kind", string(kind)).
		Str("entries", sub.IDList()).
		Msg("Submission queued for review")
	return sub, nil
}

// Decide applies a review outcome to the submission in the queue message at
// ref. Clicks on messages without a submission are ignored.
func (e *Engine) Decide(ctx context.Context, reviewer Reviewer, ref MessageRef, outcome Outcome) (err error) {
	op := outcome.Operation()
	defer func() {
		metrics.Decisions.WithLabelValues(string(op), metrics.Result(err)).Inc()
	}()

	if err := e.gate.CheckEligibleReviewer(reviewer.Roles); err != nil {
		return err
	}
	sub, err := e.load(ctx, ref)
	if err != nil || sub == nil {
		return err
	}

	apply := e.backend.Approve
	if outcome == Deny {
		apply = e.backend.Deny
	}
	perr := e.applyAll(ctx, op, sub.IDs, func(id model.EntryID) error {
		return apply(ctx, id, reviewer.Username)
	})
	e.audit(ctx, op, reviewer.Username, sub, perr)

	if perr != nil && len(perr.Applied) == 0 {
		e.reply(ctx, ref, fmt.Sprintf("Failed to %s submission: %v", op, perr))
		if perr.allConflicts() {
			return perr
		}
		return e.escalate(ctx, string(op), sub, perr)
	}

	// The queue message stays until the archive copy with its undo button
	// exists.
	var errs []error
	if _, err := e.store.Archive(ctx, sub, op, reviewer.Username); err != nil {
		errs = append(errs, fmt.Errorf("archive submission: %w", err))
		e.reply(ctx, ref, fmt.Sprintf("Submission was %s but could not be archived: %v", outcome.Past(), err))
	} else if err := e.store.Remove(ctx, ref); err != nil {
		errs = append(errs, fmt.Errorf("remove queue message: %w", err))
	}
	text := fmt.Sprintf("%s Your %s has been %s by %s", sub.Mention(), sub.ShortDesc, outcome.Past(), reviewer.Username)
	if err := e.notifyTeam(ctx, sub.Team, text); err != nil {
		errs = append(errs, err)
	}

	logger.Ctx(ctx).Info().
		Str("user", sub.User).
		Str("kind", string(sub.Kind)).
		Str("reviewer", reviewer.Username).
		Str("outcome", outcome.Past()).
		Msg("Submission decided")

	if perr != nil {
		e.recordUnreconciled(ctx, op, sub, perr.FailedIDs(), perr)
		errs = append([]error{perr}, errs...)
	}
	if len(errs) > 0 {
		return e.escalate(ctx, string(op), sub, errors.Join(errs...))
	}
	return nil
}

// Undo reopens the entries of the archived submission at ref and puts the
// unchanged submission back on the review queue.
func (e *Engine) Undo(ctx context.Context, reviewer Reviewer, ref MessageRef) (err error) {
	defer func() {
		metrics.Decisions.WithLabelValues(string(model.OpUndo), metrics.Result(err)).Inc()
	}()

	if err := e.gate.CheckEligibleReviewer(reviewer.Roles); err != nil {
		return err
	}
	sub, err := e.load(ctx, ref)
	if err != nil || sub == nil {
		return err
	}

	perr := e.applyAll(ctx, model.OpUndo, sub.IDs, func(id model.EntryID) error {
		return e.backend.Undo(ctx, id)
	})
	e.audit(ctx, model.OpUndo, reviewer.Username, sub, perr)

	if perr != nil && len(perr.Applied) == 0 {
		e.reply(ctx, ref, fmt.Sprintf("Failed to undo decision: %v", perr))
		if perr.allConflicts() {
			return perr
		}
		return e.escalate(ctx, string(model.OpUndo), sub, perr)
	}

	var errs []error
	if _, err := e.store.Enqueue(ctx, sub); err != nil {
		errs = append(errs, fmt.Errorf("re-enqueue submission: %w", err))
		e.reply(ctx, ref, fmt.Sprintf("Decision was undone but the submission could not be re-queued: %v", err))
	} else if err := e.store.Remove(ctx, ref); err != nil {
		errs = append(errs, fmt.Errorf("remove log message: %w", err))
	}
	text := fmt.Sprintf("%s Your %s has been returned to the review queue by %s", sub.Mention(), sub.ShortDesc, reviewer.Username)
	if err := e.notifyTeam(ctx, sub.Team, text); err != nil {
		errs = append(errs, err)
	}

	logger.Ctx(ctx).Info().
		Str("user", sub.User).
		Str("kind", string(sub.Kind)).
		Str("reviewer", reviewer.Username).
		Msg("Decision undone, submission re-queued")

	if perr != nil {
		e.recordUnreconciled(ctx, model.OpUndo, sub, perr.FailedIDs(), perr)
		errs = append([]error{perr}, errs...)
	}
	if len(errs) > 0 {
		return e.escalate(ctx, string(model.OpUndo), sub, errors.Join(errs...))
	}
	return nil
}

// ReportUnexpectedError posts a diagnostic to the error channel. It never
// fails; a failure to post is only logged.
func (e *Engine) ReportUnexpectedError(ctx context.Context, op string, sub *model.Submission, err error) {
	log := logger.Ctx(ctx)
	log.Error().Err(err).Str("op", op).Msg("Unexpected error")

	var b strings.Builder
	fmt.Fprintf(&b, "Unexpected error during processing of %s:\n", op)
	if sub != nil {
		if text, rerr := submission.Render(sub); rerr == nil {
			b.WriteString(text)
		} else {
			b.WriteString(submission.Summary(sub))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Error: %v", err)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Reporting an unexpected error panicked")
		}
	}()
	if nerr := e.notifier.ReportError(ctx, utils.TruncateMessage(b.String(), utils.MaxMessageLength)); nerr != nil {
		log.Error().Err(nerr).Msg("Failed to post to the error channel")
	}
}

// Pending lists the submissions currently waiting for review.
func (e *Engine) Pending(ctx context.Context) ([]Queued, error) {
	queued, err := e.store.Pending(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan review queue: %w", err)
	}
	metrics.PendingSubmissions.Set(float64(len(queued)))
	return queued, nil
}

// Snapshot returns the roster snapshot currently in use.
func (e *Engine) Snapshot() *roster.Snapshot {
	return e.roster.Current()
}

// Reload rebuilds the roster snapshot.
func (e *Engine) Reload(ctx context.Context) error {
	snap, err := e.roster.Reload(ctx)
	if err != nil {
		return fmt.Errorf("reload roster: %w", err)
	}
	logger.Ctx(ctx).Info().Int("players", len(snap.Players())).Msg("Roster reloaded on request")
	return nil
}

// load reads the submission at ref. A nil submission with a nil error means
// the message holds no submission and the click should be ignored.
func (e *Engine) load(ctx context.Context, ref MessageRef) (*model.Submission, error) {
	sub, err := e.store.Load(ctx, ref)
	switch {
	case err == nil:
		return sub, nil
	case errors.Is(err, ErrMessageNotFound):
		return nil, err
	case errors.Is(err, submission.ErrNotASubmission), errors.Is(err, submission.ErrMalformedToken):
		logger.Ctx(ctx).Debug().Err(err).Str("message_id", ref.MessageID).Msg("Ignoring click on a message without a submission")
		return nil, nil
	default:
		return nil, fmt.Errorf("load submission: %w", err)
	}
}

// applyAll calls fn for every id, continuing past failures.
func (e *Engine) applyAll(ctx context.Context, op model.Operation, ids []model.EntryID, fn func(model.EntryID) error) *PartialFailureError {
	perr := &PartialFailureError{Op: op, Total: len(ids)}
	for i, id := range ids {
		if err := fn(id); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("entry_id", string(id)).Str("op", string(op)).Msg("Backend call failed")
			perr.Failed = append(perr.Failed, Attempt{Index: i + 1, ID: id, Err: err})
			continue
		}
		perr.Applied = append(perr.Applied, id)
	}
	if len(perr.Failed) == 0 {
		return nil
	}
	return perr
}

func (e *Engine) notifyTeam(ctx context.Context, team, text string) error {
	channel, ok := e.roster.Current().SubmissionChannel(team)
	if !ok || channel == "" {
		logger.Ctx(ctx).Warn().Str("team", team).Msg("No submission channel for team, skipping notification")
		return nil
	}
	if err := e.notifier.Notify(ctx, channel, text); err != nil {
		return fmt.Errorf("notify team %s: %w", team, err)
	}
	return nil
}

func (e *Engine) reply(ctx context.Context, ref MessageRef, text string) {
	if err := e.store.Reply(ctx, ref, utils.TruncateMessage(text, utils.MaxMessageLength)); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("message_id", ref.MessageID).Msg("Failed to reply on submission message")
	}
}

func (e *Engine) escalate(ctx context.Context, op string, sub *model.Submission, err error) error {
	e.ReportUnexpectedError(ctx, op, sub, err)
	return &escalatedError{err: err}
}

func (e *Engine) recordUnreconciled(ctx context.Context, op model.Operation, sub *model.Submission, ids []model.EntryID, cause error) {
	if len(ids) == 0 {
		return
	}
	token, _ := submission.Encode(sub)
	u := model.Unreconciled{
		Operation: op,
		User:      sub.User,
		Kind:      sub.Kind,
		IDs:       ids,
		Token:     token,
		Cause:     cause.Error(),
	}
	if err := e.ledger.RecordUnreconciled(ctx, u); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("entries", fmt.Sprint(ids)).Msg("Failed to write reconciliation ledger")
	}
}

func (e *Engine) audit(ctx context.Context, op model.Operation, reviewer string, sub *model.Submission, perr *PartialFailureError) {
	d := model.Decision{Operation: op, Reviewer: reviewer, User: sub.User, Kind: sub.Kind, Applied: sub.IDs}
	if perr != nil {
		d.Applied = perr.Applied
		d.Failed = perr.FailedIDs()
	}
	if err := e.ledger.RecordDecision(ctx, d); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("Failed to write decision audit row")
	}
}

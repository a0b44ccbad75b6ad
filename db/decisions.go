package db

import (
	"context"
	"fmt"
	"time"

	"showdown/model"
)

// AddDecision appends one row to the decision audit trail.
func AddDecision(ctx context.Context, d model.Decision) error {
	_, err := DB.ExecContext(ctx, `INSERT INTO decisions(
		operation, reviewer, username, kind, applied_ids, failed_ids, created_at
	) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		string(d.Operation), d.Reviewer, d.User, string(d.Kind), encodeIDs(d.Applied), encodeIDs(d.Failed), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// ListDecisions returns the most recent decisions, newest first.
func ListDecisions(ctx context.Context, limit int) ([]*model.Decision, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := DB.QueryContext(ctx, `SELECT id, operation, reviewer, username, kind, applied_ids, failed_ids, created_at
		FROM decisions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []*model.Decision
	for rows.Next() {
		var (
			d               model.Decision
			op, kind        string
			applied, failed string
			createdAt       int64
		)
		if err := rows.Scan(&d.ID, &op, &d.Reviewer, &d.User, &kind, &applied, &failed, &createdAt); err != nil {
			return nil, err
		}
		d.Operation = model.Operation(op)
		d.Kind = model.Kind(kind)
		if d.Applied, err = decodeIDs(applied); err != nil {
			return nil, err
		}
		if d.Failed, err = decodeIDs(failed); err != nil {
			return nil, err
		}
		d.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, &d)
	}
	return out, rows.Err()
}

// Ledger exposes the package functions through the workflow's ledger
// interface.
type Ledger struct{}

func (Ledger) RecordUnreconciled(ctx context.Context, u model.Unreconciled) error {
	_, err := AddUnreconciled(ctx, u)
	return err
}

func (Ledger) RecordDecision(ctx context.Context, d model.Decision) error {
	return AddDecision(ctx, d)
}

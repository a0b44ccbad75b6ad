package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"showdown/model"
)

// ErrNotFound is returned when a ledger row does not exist or is already
// resolved.
var ErrNotFound = errors.New("ledger entry not found")

// rowScanner is an interface that can be satisfied by *sql.Row or *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func encodeIDs(ids []model.EntryID) string {
	if len(ids) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(ids)
	return string(data)
}

func decodeIDs(raw string) ([]model.EntryID, error) {
	var ids []model.EntryID
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode entry ids %q: %w", raw, err)
	}
	return ids, nil
}

// scanUnreconciled scans a row into an Unreconciled struct.
func scanUnreconciled(scanner rowScanner) (*model.Unreconciled, error) {
	var (
		u          model.Unreconciled
		op, kind   string
		ids        string
		createdAt  int64
		resolvedAt sql.NullInt64
	)
	err := scanner.Scan(&u.ID, &op, &u.User, &kind, &ids, &u.Token, &u.Cause, &createdAt, &resolvedAt, &u.ResolvedBy)
	if err != nil {
		return nil, err
	}
	u.Operation = model.Operation(op)
	u.Kind = model.Kind(kind)
	if u.IDs, err = decodeIDs(ids); err != nil {
		return nil, err
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	if resolvedAt.Valid {
		t := time.Unix(resolvedAt.Int64, 0)
		u.ResolvedAt = &t
	}
	return &u, nil
}

// AddUnreconciled stores a row for manual reconciliation and returns its id.
func AddUnreconciled(ctx context.Context, u model.Unreconciled) (int64, error) {
	res, err := DB.ExecContext(ctx, `INSERT INTO reconciliation(
		operation, username, kind, entry_ids, token, cause, created_at
	) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		string(u.Operation), u.User, string(u.Kind), encodeIDs(u.IDs), u.Token, u.Cause, time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert reconciliation: %w", err)
	}
	return res.LastInsertId()
}

// ListUnreconciled returns ledger rows, oldest first. Resolved rows are only
// included when all is true.
func ListUnreconciled(ctx context.Context, all bool) ([]*model.Unreconciled, error) {
	query := `SELECT id, operation, username, kind, entry_ids, token, cause, created_at, resolved_at, resolved_by
		FROM reconciliation`
	if !all {
		query += ` WHERE resolved_at IS NULL`
	}
	query += ` ORDER BY id`

	rows, err := DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query reconciliation: %w", err)
	}
	defer rows.Close()

	var out []*model.Unreconciled
	for rows.Next() {
		u, err := scanUnreconciled(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetUnreconciled loads one ledger row.
func GetUnreconciled(ctx context.Context, id int64) (*model.Unreconciled, error) {
	row := DB.QueryRowContext(ctx, `SELECT id, operation, username, kind, entry_ids, token, cause, created_at, resolved_at, resolved_by
		FROM reconciliation WHERE id = ?`, id)
	u, err := scanUnreconciled(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// ResolveUnreconciled marks an open row as handled.
func ResolveUnreconciled(ctx context.Context, id int64, by string) error {
	res, err := DB.ExecContext(ctx,
		`UPDATE reconciliation SET resolved_at = ?, resolved_by = ? WHERE id = ? AND resolved_at IS NULL`,
		time.Now().Unix(), by, id,
	)
	if err != nil {
		return fmt.Errorf("resolve reconciliation %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

package db

import (
	"database/sql"
	"fmt"
)

// createTables 如果数据库中不存在必要的表，则创建它们
func createTables(conn *sql.DB) error {
	// 需要人工核对的后端条目
	createReconciliationTableSQL := `
	CREATE TABLE IF NOT EXISTS reconciliation (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		operation TEXT NOT NULL,
		username TEXT NOT NULL,
		kind TEXT NOT NULL,
		entry_ids TEXT NOT NULL,
		token TEXT NOT NULL DEFAULT '',
		cause TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		resolved_at INTEGER,
		resolved_by TEXT NOT NULL DEFAULT ''
	);`

	if _, err := conn.Exec(createReconciliationTableSQL); err != nil {
		return fmt.Errorf("create reconciliation table: %w", err)
	}

	// 审核操作记录
	createDecisionsTableSQL := `
	CREATE TABLE IF NOT EXISTS decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		operation TEXT NOT NULL,
		reviewer TEXT NOT NULL,
		username TEXT NOT NULL,
		kind TEXT NOT NULL,
		applied_ids TEXT NOT NULL,
		failed_ids TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`

	if _, err := conn.Exec(createDecisionsTableSQL); err != nil {
		return fmt.Errorf("create decisions table: %w", err)
	}

	createIndexSQL := `CREATE INDEX IF NOT EXISTS idx_reconciliation_open ON reconciliation (resolved_at);`
	if _, err := conn.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("create reconciliation index: %w", err)
	}
	return nil
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const dbDriver = "sqlite3"

// DB is the global database connection pool.
var DB *sql.DB

// InitDB opens the SQLite database at path and creates tables if they don't
// exist. The parent directory is created when missing.
func InitDB(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	conn, err := sql.Open(dbDriver, path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	// sqlite 只允许单个写连接
	conn.SetMaxOpenConns(1)

	// createTables is defined in migrate.go
	if err := createTables(conn); err != nil {
		conn.Close()
		return err
	}
	DB = conn

	log.Info().Str("path", path).Msg("Database connection initialized successfully")
	return nil
}

// Close closes the global connection.
func Close() error {
	if DB == nil {
		return nil
	}
	err := DB.Close()
	DB = nil
	return err
}

// Ping reports whether the database is open and reachable.
func Ping(ctx context.Context) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	return DB.PingContext(ctx)
}

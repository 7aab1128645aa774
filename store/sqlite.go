package store

import (
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var sqlite = dialect{
	driver: "sqlite3",
	schema: "migrations/sqlite.sql",
	get:    `SELECT value FROM kv_store WHERE key = ?`,
	set: `INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
	insertOrder: `INSERT INTO orders (reference, mobile, address, total, payload, uri, created_at) VALUES (?,?,?,?,?,?,?)`,
	insertItem:  `INSERT INTO order_items (order_ref, position, name, quantity, price) VALUES (?,?,?,?,?)`,
}

// NewSQLiteStore opens (or creates) a SQLite database file.
func NewSQLiteStore(path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	s, err := openSQL(sqlite, path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	// one writer at a time; sqlite serializes anyway
	s.DB.SetMaxOpenConns(1)
	return s, nil
}

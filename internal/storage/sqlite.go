package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteDriver stores every document as a row in a single documents table.
type SQLiteDriver struct {
	db *sql.DB
}

func NewSQLiteDriver(dbPath string) (*SQLiteDriver, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteDriver{db: db}, nil
}

func (d *SQLiteDriver) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

func (d *SQLiteDriver) Load(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := d.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select document %s: %w", key, err)
	}
	return body, nil
}

func (d *SQLiteDriver) Save(ctx context.Context, key string, body []byte) error {
	_, err := d.db.ExecContext(ctx, upsertDocument, key, body, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", key, err)
	}
	return nil
}

// SaveMulti writes all documents inside one SQL transaction.
func (d *SQLiteDriver) SaveMulti(ctx context.Context, docs map[string][]byte) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for key, body := range docs {
		if _, err := tx.ExecContext(ctx, upsertDocument, key, body, now); err != nil {
			return fmt.Errorf("upsert document %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const upsertDocument = `
INSERT INTO documents (key, body, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`

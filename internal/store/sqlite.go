package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"memocal/internal/model"
)

// schemaVersion is the latest schema supported by the migrator.
const schemaVersion = 1

// SQLiteStore persists records one row per key. Unlike the JSON backend,
// writes for different keys do not rewrite each other's data.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// pending migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("state path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			key        TEXT PRIMARY KEY,
			status     TEXT NOT NULL,
			reply_id   TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create records table: %w", err)
	}

	if _, err = tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?);`, schemaVersion); err != nil {
		return fmt.Errorf("migrate: record version: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(key string) (model.Record, bool, error) {
	var rec model.Record
	err := s.db.QueryRow(
		`SELECT status, reply_id FROM records WHERE key = ?;`, key,
	).Scan(&rec.Status, &rec.ReplyID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Record{}, false, nil
	}
	if err != nil {
		return model.Record{}, false, fmt.Errorf("get record: %w", err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) Put(key string, rec model.Record) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(`
		INSERT INTO records (key, status, reply_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			status = excluded.status,
			reply_id = excluded.reply_id,
			updated_at = excluded.updated_at;
	`, key, string(rec.Status), rec.ReplyID, now)
	if err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Snapshot writes a consistent copy of the database into dir via
// VACUUM INTO.
func (s *SQLiteStore) Snapshot(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := "state-" + time.Now().UTC().Format("20060102T150405Z") + ".db"
	path := filepath.Join(dir, name)
	quoted := strings.ReplaceAll(path, "'", "''")
	if _, err := s.db.Exec(fmt.Sprintf("VACUUM INTO '%s';", quoted)); err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	return path, nil
}

// Package sqlite implements a record store in a single SQLite table, one
// JSON document per place.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"placesearch/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS places (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id  TEXT NOT NULL UNIQUE,
    doc TEXT NOT NULL
)`

// Store is a SQLite-backed RecordStore.
type Store struct {
	db *sql.DB
}

var (
	_ domain.RecordStore  = (*Store)(nil)
	_ domain.RecordWriter = (*Store)(nil)
)

// Open opens (creating if needed) the database at dsn.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Put upserts records. An existing id keeps its original insertion order.
func (s *Store) Put(ctx context.Context, records []domain.SourceRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO places (id, doc) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET doc = excluded.doc`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if r.ID == "" {
			return errors.New("sqlite: record without id")
		}
		doc, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("sqlite: encode %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, string(doc)); err != nil {
			return fmt.Errorf("sqlite: insert %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// Enumerate returns all records in insertion order.
func (s *Store) Enumerate(ctx context.Context) ([]domain.SourceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM places ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: enumerate: %w", err)
	}
	return scan(rows)
}

func (s *Store) Get(ctx context.Context, id string) (*domain.SourceRecord, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM places WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get %s: %w", id, err)
	}
	var rec domain.SourceRecord
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return nil, fmt.Errorf("sqlite: decode %s: %w", id, err)
	}
	return &rec, nil
}

// GetMany fetches all ids with a single IN query.
func (s *Store) GetMany(ctx context.Context, ids []string) ([]domain.SourceRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT doc FROM places WHERE id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: get many: %w", err)
	}
	return scan(rows)
}

func (s *Store) Close() error { return s.db.Close() }

func scan(rows *sql.Rows) ([]domain.SourceRecord, error) {
	defer rows.Close()
	var out []domain.SourceRecord
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		var rec domain.SourceRecord
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return nil, fmt.Errorf("sqlite: decode: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

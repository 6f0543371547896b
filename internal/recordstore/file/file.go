// Package file implements a read-only record store over a JSON array file.
// It doubles as the loader for flat-file index builds.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"placesearch/internal/domain"
)

// Store keeps every record of a JSON file in memory.
type Store struct {
	records []domain.SourceRecord
	byID    map[string]int
}

var _ domain.RecordStore = (*Store)(nil)

// Open reads path into a Store. A missing file yields
// domain.ErrSourceNotFound; an empty array yields domain.ErrEmptySource.
func Open(path string) (*Store, error) {
	records, err := Load(path)
	if err != nil {
		return nil, err
	}
	return New(records), nil
}

// New wraps already decoded records.
func New(records []domain.SourceRecord) *Store {
	s := &Store{records: records, byID: make(map[string]int, len(records))}
	for i, r := range records {
		if r.ID == "" {
			continue
		}
		if _, dup := s.byID[r.ID]; !dup {
			s.byID[r.ID] = i
		}
	}
	return s
}

// Load decodes a JSON array of place documents, preserving file order.
func Load(path string) ([]domain.SourceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file: %s: %w", path, domain.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("file: read %s: %w", path, err)
	}
	records, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("file: decode %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("file: %s: %w", path, domain.ErrEmptySource)
	}
	return records, nil
}

// document is the on-disk shape. Exports from the admin database carry the
// identifier as "_id", either a plain string or {"$oid": "..."}.
type document struct {
	domain.SourceRecord
	MongoID json.RawMessage `json:"_id,omitempty"`
}

// Decode parses a JSON array of place documents.
func Decode(data []byte) ([]domain.SourceRecord, error) {
	var docs []document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.SourceRecord, len(docs))
	for i, d := range docs {
		rec := d.SourceRecord
		if rec.ID == "" {
			rec.ID = objectID(d.MongoID)
		}
		out[i] = rec
	}
	return out, nil
}

func objectID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var oid struct {
		OID string `json:"$oid"`
	}
	if json.Unmarshal(raw, &oid) == nil {
		return oid.OID
	}
	return ""
}

// Save writes records as an indented JSON array with plain "id" fields.
func Save(path string, records []domain.SourceRecord) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("file: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("file: write %s: %w", path, err)
	}
	return nil
}

// Enumerate returns a copy of all records in file order.
func (s *Store) Enumerate(context.Context) ([]domain.SourceRecord, error) {
	if len(s.records) == 0 {
		return nil, domain.ErrEmptySource
	}
	return append([]domain.SourceRecord(nil), s.records...), nil
}

func (s *Store) Get(_ context.Context, id string) (*domain.SourceRecord, error) {
	i, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	rec := s.records[i]
	return &rec, nil
}

func (s *Store) GetMany(_ context.Context, ids []string) ([]domain.SourceRecord, error) {
	out := make([]domain.SourceRecord, 0, len(ids))
	for _, id := range ids {
		if i, ok := s.byID[id]; ok {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}

func (s *Store) Close() error { return nil }

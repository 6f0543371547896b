// Package recordstore holds the record store variants. The root package
// provides the Null store used when no authoritative backend is configured;
// the subpackages implement file, SQLite, Badger and MongoDB backends.
package recordstore

import (
	"context"

	"placesearch/internal/domain"
)

// Null is a RecordStore with no backing data. Hydration through it yields
// no records and building from it fails with domain.ErrSourceNotFound.
type Null struct{}

var _ domain.RecordStore = Null{}

func (Null) Enumerate(context.Context) ([]domain.SourceRecord, error) {
	return nil, domain.ErrSourceNotFound
}

func (Null) Get(context.Context, string) (*domain.SourceRecord, error) {
	return nil, domain.ErrRecordNotFound
}

func (Null) GetMany(context.Context, []string) ([]domain.SourceRecord, error) {
	return nil, nil
}

func (Null) Close() error { return nil }

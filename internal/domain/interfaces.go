package domain

import "context"

// RecordStore is the authoritative source of full place records.
type RecordStore interface {
	// Enumerate returns every record with the embedding projection
	// (id, name, description, category, tags, coordinates) filled in.
	Enumerate(ctx context.Context) ([]SourceRecord, error)
	// Get returns a single record or ErrRecordNotFound.
	Get(ctx context.Context, id string) (*SourceRecord, error)
	// GetMany returns the records found for ids in no particular order.
	// Unknown ids are skipped.
	GetMany(ctx context.Context, ids []string) ([]SourceRecord, error)
	Close() error
}

// RecordWriter is implemented by stores that can be seeded from a file.
type RecordWriter interface {
	Put(ctx context.Context, records []SourceRecord) error
}

// Package badger implements a record store on BadgerDB. Records live under
// "place:<id>" keys as JSON values.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	badgerdb "github.com/dgraph-io/badger/v4"

	"placesearch/internal/domain"
)

const keyPrefix = "place:"

// Options configures Open.
type Options struct {
	// Dir is the data directory. Required unless InMemory is set.
	Dir      string
	InMemory bool
	Logger   *slog.Logger
}

// Store is a BadgerDB-backed RecordStore.
type Store struct {
	db *badgerdb.DB
}

var (
	_ domain.RecordStore  = (*Store)(nil)
	_ domain.RecordWriter = (*Store)(nil)
)

// Open opens the database described by opts.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("badger: Dir is required for on-disk mode")
	}
	dbOpts := badgerdb.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbOpts = dbOpts.WithLogger(slogAdapter{logger.With("component", "badger")})
	db, err := badgerdb.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("badger: open: %w", err)
	}
	return &Store{db: db}, nil
}

func key(id string) []byte { return []byte(keyPrefix + id) }

// Put writes records in one batch, replacing existing ids.
func (s *Store) Put(_ context.Context, records []domain.SourceRecord) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, r := range records {
		if r.ID == "" {
			return errors.New("badger: record without id")
		}
		val, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("badger: encode %s: %w", r.ID, err)
		}
		if err := wb.Set(key(r.ID), val); err != nil {
			return fmt.Errorf("badger: set %s: %w", r.ID, err)
		}
	}
	return wb.Flush()
}

// Enumerate returns every record ordered by id, which keeps rebuilds from
// an unchanged store position-stable.
func (s *Store) Enumerate(ctx context.Context) ([]domain.SourceRecord, error) {
	var out []domain.SourceRecord
	prefix := []byte(keyPrefix)
	err := s.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: prefix})
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := decode(it.Item())
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger: enumerate: %w", err)
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (*domain.SourceRecord, error) {
	var rec domain.SourceRecord
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		rec, err = decode(item)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger: get %s: %w", id, err)
	}
	return &rec, nil
}

// GetMany looks all ids up inside one read transaction.
func (s *Store) GetMany(_ context.Context, ids []string) ([]domain.SourceRecord, error) {
	out := make([]domain.SourceRecord, 0, len(ids))
	err := s.db.View(func(txn *badgerdb.Txn) error {
		for _, id := range ids {
			item, err := txn.Get(key(id))
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			rec, err := decode(item)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger: get many: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error { return s.db.Close() }

func decode(item *badgerdb.Item) (domain.SourceRecord, error) {
	var rec domain.SourceRecord
	err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	return rec, err
}

// slogAdapter routes badger's printf logging to slog, dropping info and
// debug chatter.
type slogAdapter struct{ l *slog.Logger }

func (a slogAdapter) Errorf(f string, v ...any)   { a.l.Error(fmt.Sprintf(f, v...)) }
func (a slogAdapter) Warningf(f string, v ...any) { a.l.Warn(fmt.Sprintf(f, v...)) }
func (slogAdapter) Infof(string, ...any)          {}
func (slogAdapter) Debugf(string, ...any)         {}

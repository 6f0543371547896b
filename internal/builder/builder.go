// Package builder produces a new index generation: it turns source records
// into an aligned corpus and sidecar, embeds the corpus, and publishes the
// index and sidecar as a pair.
package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"placesearch/internal/artifact"
	"placesearch/internal/domain"
	"placesearch/internal/embedding"
	"placesearch/internal/events"
	"placesearch/internal/recordstore/file"
	"placesearch/internal/sidecar"
	"placesearch/internal/vectorstore/flat"
)

// Generation sources.
const (
	SourceFile  = "file"
	SourceStore = "store"
)

// Options holds the optional collaborators of a Builder.
type Options struct {
	// Events is notified after each successful publish. Defaults to events.Nop.
	Events events.Publisher
	Logger *slog.Logger
	// Now overrides the clock used for Generation.BuiltAt.
	Now func() time.Time
}

// Builder runs at most one build at a time per process.
type Builder struct {
	embedder embedding.Embedder
	pair     artifact.Pair
	store    domain.RecordStore
	events   events.Publisher
	logger   *slog.Logger
	now      func() time.Time

	mu sync.Mutex
}

// New creates a Builder. store is only used by BuildFromStore and may be
// recordstore.Null.
func New(embedder embedding.Embedder, pair artifact.Pair, store domain.RecordStore, opts Options) *Builder {
	b := &Builder{
		embedder: embedder,
		pair:     pair,
		store:    store,
		events:   opts.Events,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if b.events == nil {
		b.events = events.Nop{}
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// BuildFromFile builds from a JSON array of place documents. Names are not
// part of the embedded text on this path.
func (b *Builder) BuildFromFile(ctx context.Context, path string) (domain.Generation, error) {
	if !b.mu.TryLock() {
		return domain.Generation{}, domain.ErrBuildInProgress
	}
	defer b.mu.Unlock()

	records, err := file.Load(path)
	if err != nil {
		return domain.Generation{}, fmt.Errorf("builder: %w", err)
	}
	b.logger.Info("loaded source file", "path", path, "records", len(records))
	return b.build(ctx, SourceFile, records)
}

// BuildFromStore enumerates the record store and builds from its contents,
// including place names in the embedded text.
func (b *Builder) BuildFromStore(ctx context.Context) (domain.Generation, error) {
	if !b.mu.TryLock() {
		return domain.Generation{}, domain.ErrBuildInProgress
	}
	defer b.mu.Unlock()

	records, err := b.store.Enumerate(ctx)
	if err != nil {
		return domain.Generation{}, fmt.Errorf("builder: enumerate store: %w", err)
	}
	b.logger.Info("enumerated record store", "records", len(records))
	return b.build(ctx, SourceStore, records)
}

// Build publishes a generation built from records. source selects the
// corpus layout: SourceStore includes names, anything else does not.
func (b *Builder) Build(ctx context.Context, source string, records []domain.SourceRecord) (domain.Generation, error) {
	if !b.mu.TryLock() {
		return domain.Generation{}, domain.ErrBuildInProgress
	}
	defer b.mu.Unlock()
	return b.build(ctx, source, records)
}

func (b *Builder) build(ctx context.Context, source string, records []domain.SourceRecord) (domain.Generation, error) {
	if len(records) == 0 {
		return domain.Generation{}, fmt.Errorf("builder: %w", domain.ErrEmptySource)
	}
	corpus, entries := domain.Prepare(records, source == SourceStore)

	start := time.Now()
	vectors, err := b.embedder.EmbedBatch(ctx, corpus)
	if err != nil {
		return domain.Generation{}, fmt.Errorf("builder: embed corpus: %w", err)
	}
	if err := embedding.CheckBatch(vectors, len(corpus), b.embedder.Dimension()); err != nil {
		return domain.Generation{}, fmt.Errorf("builder: %w", err)
	}
	b.logger.Info("embedded corpus",
		"embedder", b.embedder.Name(),
		"count", len(vectors),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	index, err := flat.New(b.embedder.Dimension())
	if err != nil {
		return domain.Generation{}, fmt.Errorf("builder: %w", err)
	}
	if err := index.Add(vectors); err != nil {
		return domain.Generation{}, fmt.Errorf("builder: add vectors: %w", err)
	}
	if index.Len() != len(entries) {
		return domain.Generation{}, fmt.Errorf("builder: index holds %d vectors, sidecar %d entries", index.Len(), len(entries))
	}

	// Encode both artifacts up front so an encoding failure writes nothing.
	var indexBuf, sidecarBuf bytes.Buffer
	if err := index.Save(&indexBuf); err != nil {
		return domain.Generation{}, fmt.Errorf("builder: encode index: %w", err)
	}
	if err := sidecar.FromEntries(entries).Encode(&sidecarBuf); err != nil {
		return domain.Generation{}, fmt.Errorf("builder: encode sidecar: %w", err)
	}

	if err := b.pair.Publish(ctx, indexBuf.Bytes(), sidecarBuf.Bytes()); err != nil {
		return domain.Generation{}, fmt.Errorf("builder: publish: %w", err)
	}

	gen := domain.Generation{
		ID:        uuid.NewString(),
		Source:    source,
		Count:     index.Len(),
		Dimension: index.Dimension(),
		BuiltAt:   b.now().UTC(),
	}
	b.logger.Info("published generation",
		"generation", gen.ID,
		"source", gen.Source,
		"count", gen.Count,
		"dimension", gen.Dimension,
		"index", b.pair.IndexPath,
		"sidecar", b.pair.SidecarPath,
	)

	if err := b.events.PublishRebuilt(ctx, gen); err != nil {
		b.logger.Warn("rebuild notification failed", "generation", gen.ID, "error", err)
	}
	return gen, nil
}

// IsUserError reports whether err stems from the input rather than from
// the builder or its backends.
func IsUserError(err error) bool {
	return errors.Is(err, domain.ErrEmptySource) || errors.Is(err, domain.ErrSourceNotFound)
}

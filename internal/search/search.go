// Package search answers free-text place queries against the published
// index generation and enriches hits from the record store.
package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"placesearch/internal/artifact"
	"placesearch/internal/domain"
	"placesearch/internal/embedding"
	"placesearch/internal/sidecar"
	"placesearch/internal/vectorstore"
	"placesearch/internal/vectorstore/flat"
)

// DefaultTopK is used by callers that do not specify a result count.
const DefaultTopK = 50

var tracer = otel.Tracer("placesearch/search")

// ErrMixedGeneration is returned by Reload when the index and sidecar on
// storage do not belong to the same build.
var ErrMixedGeneration = errors.New("index and sidecar sizes differ")

// Options holds the optional collaborators of a Service.
type Options struct {
	Logger *slog.Logger
}

// generation is an immutable index/sidecar pair loaded together.
type generation struct {
	index    vectorstore.Index
	sidecar  *sidecar.Sidecar
	loadedAt time.Time
}

// Service is safe for concurrent use. Queries read the current generation
// through a single atomic load, so a concurrent Reload never mixes
// artifacts from two generations within one query.
type Service struct {
	pair     artifact.Pair
	embedder embedding.Embedder
	store    domain.RecordStore
	logger   *slog.Logger

	current atomic.Pointer[generation]
}

// Load reads the current generation and returns a ready Service. Missing
// artifacts yield domain.ErrResourceNotFound.
func Load(ctx context.Context, pair artifact.Pair, embedder embedding.Embedder, store domain.RecordStore, opts Options) (*Service, error) {
	s := &Service{
		pair:     pair,
		embedder: embedder,
		store:    store,
		logger:   opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	gen, err := s.load(ctx, false)
	if err != nil {
		return nil, err
	}
	s.current.Store(gen)
	s.logger.Info("search index loaded",
		"vectors", gen.index.Len(),
		"dimension", gen.index.Dimension(),
		"sidecar_entries", gen.sidecar.Len(),
	)
	return s, nil
}

// Reload swaps in the generation currently on storage. On failure the
// previous generation keeps serving. The index and sidecar are read one
// after the other, so a pair whose sizes disagree is taken to span two
// generations and is refused.
func (s *Service) Reload(ctx context.Context) error {
	gen, err := s.load(ctx, true)
	if err != nil {
		s.logger.Error("reload failed, keeping current generation", "error", err)
		return err
	}
	s.current.Store(gen)
	s.logger.Info("search index reloaded", "vectors", gen.index.Len())
	return nil
}

// Stats describes the generation being served.
type Stats struct {
	Vectors   int       `json:"vectors"`
	Dimension int       `json:"dimension"`
	Entries   int       `json:"sidecar_entries"`
	LoadedAt  time.Time `json:"loaded_at"`
}

func (s *Service) Stats() Stats {
	g := s.current.Load()
	return Stats{
		Vectors:   g.index.Len(),
		Dimension: g.index.Dimension(),
		Entries:   g.sidecar.Len(),
		LoadedAt:  g.loadedAt,
	}
}

// load reads and decodes the current pair. With strict set, an index and
// sidecar of different sizes is an error instead of a warning.
func (s *Service) load(ctx context.Context, strict bool) (*generation, error) {
	indexData, sidecarData, err := s.pair.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	index, err := flat.Load(bytes.NewReader(indexData))
	if err != nil {
		return nil, fmt.Errorf("search: %w", domain.NewArtifactError("decode", s.pair.IndexPath, err))
	}
	sc, err := sidecar.Decode(bytes.NewReader(sidecarData))
	if err != nil {
		return nil, fmt.Errorf("search: %w", domain.NewArtifactError("decode", s.pair.SidecarPath, err))
	}
	if dim := s.embedder.Dimension(); dim > 0 && dim != index.Dimension() {
		return nil, fmt.Errorf("search: embedder %s produces %d dims, index has %d", s.embedder.Name(), dim, index.Dimension())
	}
	if index.Len() != sc.Len() {
		if strict {
			return nil, fmt.Errorf("search: %w: index has %d vectors, sidecar %d entries",
				ErrMixedGeneration, index.Len(), sc.Len())
		}
		s.logger.Warn("index and sidecar sizes differ", "vectors", index.Len(), "sidecar_entries", sc.Len())
	}
	return &generation{index: index, sidecar: sc, loadedAt: time.Now().UTC()}, nil
}

// Search returns up to topK hits ordered by ascending distance. A blank
// query returns an empty result without calling the embedder. With
// hydrate set, hits carry their full record when the store has it; a store
// failure is logged and the hits are returned without records.
func (s *Service) Search(ctx context.Context, query string, topK int, hydrate bool) ([]domain.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.SearchHit{}, nil
	}
	if topK < 1 {
		return nil, domain.ErrInvalidTopK
	}

	ctx, span := tracer.Start(ctx, "search.Search")
	defer span.End()
	span.SetAttributes(
		attribute.Int("search.top_k", topK),
		attribute.Bool("search.hydrate", hydrate),
	)

	gen := s.current.Load()

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embed")
		return nil, fmt.Errorf("search: embed query: %w", err)
	}
	// Asking for more neighbours than stored vectors only adds sentinels.
	k := min(topK, gen.index.Len())
	if k == 0 {
		return []domain.SearchHit{}, nil
	}
	neighbors, err := gen.index.Search(vec, k)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "index")
		return nil, fmt.Errorf("search: index: %w", err)
	}

	hits := make([]domain.SearchHit, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Position == domain.NoNeighbor {
			continue
		}
		e, ok := gen.sidecar.Lookup(n.Position)
		if !ok {
			continue
		}
		hits = append(hits, domain.SearchHit{
			PlaceID:  e.PlaceID,
			Distance: n.Distance,
			Category: e.Category,
			Lat:      e.Lat,
			Lon:      e.Lon,
		})
	}
	span.SetAttributes(attribute.Int("search.hits", len(hits)))

	if hydrate && len(hits) > 0 {
		if err := s.hydrate(ctx, hits); err != nil {
			s.logger.Warn("hydration unavailable, returning index-only hits",
				"hits", len(hits), "error", err)
		}
	}
	return hits, nil
}

// hydrate attaches records to hits using one bulk lookup.
func (s *Service) hydrate(ctx context.Context, hits []domain.SearchHit) error {
	ctx, span := tracer.Start(ctx, "search.hydrate")
	defer span.End()

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.PlaceID != "" {
			ids = append(ids, h.PlaceID)
		}
	}
	records, err := s.store.GetMany(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store")
		return fmt.Errorf("%w: %w", domain.ErrEnrichmentUnavailable, err)
	}
	byID := make(map[string]*domain.SourceRecord, len(records))
	for i := range records {
		byID[records[i].ID] = &records[i]
	}
	for i := range hits {
		hits[i].Record = byID[hits[i].PlaceID]
	}
	span.SetAttributes(attribute.Int("search.hydrated", len(records)))
	return nil
}

// GetClosest returns the single best hit, or nil when there is none.
func (s *Service) GetClosest(ctx context.Context, query string, hydrate bool) (*domain.SearchHit, error) {
	hits, err := s.Search(ctx, query, 1, hydrate)
	if err != nil || len(hits) == 0 {
		return nil, err
	}
	return &hits[0], nil
}

// Get fetches one record from the store.
func (s *Service) Get(ctx context.Context, id string) (*domain.SourceRecord, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("search: get %s: %w", id, err)
	}
	return rec, nil
}

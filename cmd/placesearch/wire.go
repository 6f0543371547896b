package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"placesearch/internal/artifact"
	"placesearch/internal/builder"
	"placesearch/internal/config"
	"placesearch/internal/domain"
	"placesearch/internal/embedding"
	"placesearch/internal/embedding/hashing"
	"placesearch/internal/embedding/ollama"
	"placesearch/internal/embedding/openai"
	"placesearch/internal/events"
	"placesearch/internal/recordstore"
	"placesearch/internal/recordstore/badger"
	"placesearch/internal/recordstore/file"
	"placesearch/internal/recordstore/mongo"
	"placesearch/internal/recordstore/sqlite"
	"placesearch/internal/search"
	"placesearch/internal/summarizer"
)

// newLogger returns a JSON logger for long-running commands and a text
// logger for one-shot commands.
func newLogger(w io.Writer, json bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func newEmbedder(cfg config.EmbedderConfig) (embedding.Embedder, error) {
	switch cfg.Type {
	case "hashing", "":
		return hashing.NewEmbedder(cfg.Dimension), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Dimension: cfg.OpenAI.Dimension,
			Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case "ollama":
		if cfg.Ollama == nil {
			return nil, fmt.Errorf("ollama embedder config missing")
		}
		client, err := ollama.NewClient(ollama.Config{
			URL:        cfg.Ollama.URL,
			APIKeyEnv:  cfg.Ollama.APIKeyEnv,
			Model:      cfg.Ollama.Model,
			Dimension:  cfg.Ollama.Dimension,
			BatchSize:  cfg.Ollama.BatchSize,
			Timeout:    time.Duration(cfg.Ollama.TimeoutSecs) * time.Second,
			RatePerSec: cfg.Ollama.RatePerSec,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

func newPair(cfg config.ArtifactsConfig) (artifact.Pair, error) {
	pair := artifact.Pair{
		IndexPath:    cfg.IndexPath,
		SidecarPath:  cfg.SidecarPath,
		BackupSuffix: cfg.BackupSuffix,
	}
	switch cfg.Type {
	case "local", "":
		store, err := artifact.NewLocal(cfg.Dir)
		if err != nil {
			return pair, fmt.Errorf("artifact dir %s: %w", cfg.Dir, err)
		}
		pair.Store = store
	case "s3":
		if cfg.S3 == nil {
			return pair, fmt.Errorf("s3 artifact config missing")
		}
		client := artifact.NewS3Client(artifact.S3Config{
			Region:       cfg.S3.Region,
			Endpoint:     cfg.S3.Endpoint,
			AccessKeyEnv: cfg.S3.AccessKeyEnv,
			SecretKeyEnv: cfg.S3.SecretKeyEnv,
			PathStyle:    cfg.S3.PathStyle,
		})
		pair.Store = artifact.NewS3(client, cfg.S3.Bucket, cfg.S3.Prefix)
	default:
		return pair, fmt.Errorf("unknown artifacts type: %s", cfg.Type)
	}
	return pair, nil
}

// openRecordStore constructs the configured store. The caller owns Close.
func openRecordStore(ctx context.Context, cfg config.RecordStoreConfig, logger *slog.Logger) (domain.RecordStore, error) {
	var (
		store domain.RecordStore
		err   error
	)
	switch cfg.Type {
	case "none", "":
		return recordstore.Null{}, nil
	case "file":
		var s *file.Store
		if s, err = file.Open(cfg.FilePath); err == nil {
			store = s
		}
	case "sqlite":
		var s *sqlite.Store
		if s, err = sqlite.Open(ctx, cfg.SQLitePath); err == nil {
			store = s
		}
	case "badger":
		var s *badger.Store
		if s, err = badger.Open(badger.Options{Dir: cfg.BadgerDir, Logger: logger}); err == nil {
			store = s
		}
	case "mongo":
		if cfg.Mongo == nil {
			return nil, fmt.Errorf("mongo record store config missing")
		}
		uri := os.Getenv(cfg.Mongo.URIEnv)
		if uri == "" {
			return nil, fmt.Errorf("mongo: environment variable %s is empty", cfg.Mongo.URIEnv)
		}
		var s *mongo.Store
		s, err = mongo.Open(ctx, mongo.Config{
			URI:            uri,
			Database:       cfg.Mongo.Database,
			Collection:     cfg.Mongo.Collection,
			ConnectTimeout: time.Duration(cfg.Mongo.TimeoutSecs) * time.Second,
		})
		if err == nil {
			store = s
		}
	default:
		return nil, fmt.Errorf("unknown record store: %s", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s record store: %w", cfg.Type, err)
	}
	return store, nil
}

// newEvents returns the notification bus, or nil when events are disabled.
func newEvents(cfg config.EventsConfig, logger *slog.Logger) (*events.Bus, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "nats":
		if cfg.NATS == nil {
			return nil, fmt.Errorf("nats events config missing")
		}
		return events.Connect(cfg.NATS.URL, cfg.NATS.Subject, logger)
	default:
		return nil, fmt.Errorf("unknown events type: %s", cfg.Type)
	}
}

func publisher(bus *events.Bus) events.Publisher {
	if bus == nil {
		return events.Nop{}
	}
	return bus
}

func newExcerpter(cfg config.SummarizerConfig) (*summarizer.Excerpter, error) {
	switch cfg.Type {
	case "frequency", "":
		return summarizer.NewExcerpter(cfg.MaxSentences, 280), nil
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Type)
	}
}

// components are the collaborators shared by builder and search service
// within one process. The record store is opened once because some
// backends (badger) hold an exclusive lock.
type components struct {
	embedder embedding.Embedder
	pair     artifact.Pair
	store    domain.RecordStore
	bus      *events.Bus
}

func (a *app) assemble(ctx context.Context, logger *slog.Logger, withEvents bool) (*components, error) {
	emb, err := newEmbedder(a.cfg.Embedder)
	if err != nil {
		return nil, err
	}
	pair, err := newPair(a.cfg.Artifacts)
	if err != nil {
		return nil, err
	}
	store, err := openRecordStore(ctx, a.cfg.RecordStore, logger)
	if err != nil {
		return nil, err
	}
	c := &components{embedder: emb, pair: pair, store: store}
	if withEvents {
		if c.bus, err = newEvents(a.cfg.Events, logger); err != nil {
			store.Close()
			return nil, err
		}
	}
	return c, nil
}

func (c *components) builder(logger *slog.Logger) *builder.Builder {
	return builder.New(c.embedder, c.pair, c.store, builder.Options{
		Events: publisher(c.bus),
		Logger: logger,
	})
}

func (c *components) searchService(ctx context.Context, logger *slog.Logger) (*search.Service, error) {
	return search.Load(ctx, c.pair, c.embedder, c.store, search.Options{Logger: logger})
}

// Close releases the event bus and the record store.
func (c *components) Close() {
	if c.bus != nil {
		_ = c.bus.Close()
	}
	_ = c.store.Close()
}

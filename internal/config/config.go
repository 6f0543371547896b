package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI embeddings API.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	Dimension   int    `yaml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OllamaEmbedderConfig configures an Ollama or OpenAI-compatible embeddings endpoint.
type OllamaEmbedderConfig struct {
	URL         string  `yaml:"url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Dimension   int     `yaml:"dimension"`
	BatchSize   int     `yaml:"batch_size"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type string `yaml:"type"`
	// Dimension is used by the hashing embedder.
	Dimension int                   `yaml:"dimension,omitempty"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Ollama    *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
}

// S3Config locates artifacts in an S3-compatible bucket.
type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	AccessKeyEnv string `yaml:"access_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`
	PathStyle    bool   `yaml:"path_style"`
}

// ArtifactsConfig selects where the index and sidecar are stored.
type ArtifactsConfig struct {
	Type         string    `yaml:"type"`
	Dir          string    `yaml:"dir"`
	IndexPath    string    `yaml:"index_path"`
	SidecarPath  string    `yaml:"sidecar_path"`
	BackupSuffix string    `yaml:"backup_suffix"`
	S3           *S3Config `yaml:"s3,omitempty"`
}

// MongoConfig contains connection details for the MongoDB record store.
// The connection string is read from the environment variable URIEnv.
type MongoConfig struct {
	URIEnv      string `yaml:"uri_env"`
	Database    string `yaml:"database"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RecordStoreConfig selects the authoritative record store.
type RecordStoreConfig struct {
	Type       string       `yaml:"type"`
	FilePath   string       `yaml:"file_path,omitempty"`
	SQLitePath string       `yaml:"sqlite_path,omitempty"`
	BadgerDir  string       `yaml:"badger_dir,omitempty"`
	Mongo      *MongoConfig `yaml:"mongo,omitempty"`
}

// NATSConfig configures rebuild notifications.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// EventsConfig selects the rebuild notification transport.
type EventsConfig struct {
	Type string      `yaml:"type"`
	NATS *NATSConfig `yaml:"nats,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	CORSOrigin string `yaml:"cors_origin"`
	MaxTopK    int    `yaml:"max_top_k"`
}

// SummarizerConfig configures the description excerpts shown in results.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Artifacts   ArtifactsConfig   `yaml:"artifacts"`
	RecordStore RecordStoreConfig `yaml:"record_store"`
	Events      EventsConfig      `yaml:"events"`
	Server      ServerConfig      `yaml:"server"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./placesearch.yaml first, then ~/.config/placesearch/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "placesearch.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects unknown component types and missing required sections.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "hashing":
	case "openai":
		if c.Embedder.OpenAI == nil {
			return errors.New("embedder.openai section missing")
		}
	case "ollama":
		if c.Embedder.Ollama == nil {
			return errors.New("embedder.ollama section missing")
		}
		if c.Embedder.Ollama.Dimension <= 0 {
			return errors.New("embedder.ollama.dimension must be set")
		}
	default:
		return fmt.Errorf("unknown embedder type %q", c.Embedder.Type)
	}

	switch c.Artifacts.Type {
	case "local":
	case "s3":
		if c.Artifacts.S3 == nil || c.Artifacts.S3.Bucket == "" {
			return errors.New("artifacts.s3.bucket must be set")
		}
	default:
		return fmt.Errorf("unknown artifacts type %q", c.Artifacts.Type)
	}

	switch c.RecordStore.Type {
	case "none":
	case "file":
		if c.RecordStore.FilePath == "" {
			return errors.New("record_store.file_path must be set")
		}
	case "sqlite":
		if c.RecordStore.SQLitePath == "" {
			return errors.New("record_store.sqlite_path must be set")
		}
	case "badger":
		if c.RecordStore.BadgerDir == "" {
			return errors.New("record_store.badger_dir must be set")
		}
	case "mongo":
		if c.RecordStore.Mongo == nil || c.RecordStore.Mongo.Database == "" || c.RecordStore.Mongo.Collection == "" {
			return errors.New("record_store.mongo database and collection must be set")
		}
	default:
		return fmt.Errorf("unknown record_store type %q", c.RecordStore.Type)
	}

	switch c.Events.Type {
	case "none":
	case "nats":
		if c.Events.NATS == nil || c.Events.NATS.URL == "" {
			return errors.New("events.nats.url must be set")
		}
	default:
		return fmt.Errorf("unknown events type %q", c.Events.Type)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "placesearch", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder:    EmbedderConfig{Type: "hashing", Dimension: 384},
		Artifacts:   ArtifactsConfig{Type: "local", Dir: "data"},
		RecordStore: RecordStoreConfig{Type: "none"},
		Events:      EventsConfig{Type: "none"},
		Summarizer:  SummarizerConfig{Type: "frequency", MaxSentences: 2},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hashing"
	}
	if cfg.Embedder.Type == "hashing" && cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 384
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		o := cfg.Embedder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.Dimension == 0 {
			o.Dimension = 384
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
	}
	if cfg.Embedder.Type == "ollama" && cfg.Embedder.Ollama != nil {
		o := cfg.Embedder.Ollama
		if o.URL == "" {
			o.URL = "http://localhost:11434/api/embed"
		}
		if o.Model == "" {
			o.Model = "all-minilm"
		}
		if o.BatchSize == 0 {
			o.BatchSize = 32
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
	}

	a := &cfg.Artifacts
	if a.Type == "" {
		a.Type = "local"
	}
	if a.Dir == "" {
		a.Dir = "data"
	}
	if a.IndexPath == "" {
		a.IndexPath = "places.plix"
	}
	if a.SidecarPath == "" {
		a.SidecarPath = "places_metadata.json"
	}
	if a.BackupSuffix == "" {
		a.BackupSuffix = ".backup"
	}
	if a.S3 != nil && a.S3.Region == "" {
		a.S3.Region = "us-east-1"
	}

	if cfg.RecordStore.Type == "" {
		cfg.RecordStore.Type = "none"
	}
	if m := cfg.RecordStore.Mongo; m != nil {
		if m.URIEnv == "" {
			m.URIEnv = "MONGODB_URI"
		}
		if m.Collection == "" {
			m.Collection = "places"
		}
		if m.TimeoutSecs == 0 {
			m.TimeoutSecs = 10
		}
	}

	if cfg.Events.Type == "" {
		cfg.Events.Type = "none"
	}
	if n := cfg.Events.NATS; n != nil && n.Subject == "" {
		n.Subject = "placesearch.index.rebuilt"
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.CORSOrigin == "" {
		cfg.Server.CORSOrigin = "*"
	}
	if cfg.Server.MaxTopK == 0 {
		cfg.Server.MaxTopK = 500
	}

	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "frequency"
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 2
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "placesearch.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Embedder.Type != "hashing" || cfg.Embedder.Dimension != 384 {
		t.Fatalf("embedder = %+v", cfg.Embedder)
	}
	if cfg.Artifacts.IndexPath != "places.plix" || cfg.Artifacts.BackupSuffix != ".backup" {
		t.Fatalf("artifacts = %+v", cfg.Artifacts)
	}
	if cfg.RecordStore.Type != "none" || cfg.Server.Addr != ":8000" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadAppliesSectionDefaults(t *testing.T) {
	p := writeConfig(t, `
embedder:
  type: openai
  openai:
    model: text-embedding-3-large
record_store:
  type: mongo
  mongo:
    database: digital_sherpa
events:
  type: nats
  nats:
    url: nats://localhost:4222
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	o := cfg.Embedder.OpenAI
	if o.APIKeyEnv != "OPENAI_API_KEY" || o.Model != "text-embedding-3-large" || o.TimeoutSecs != 30 {
		t.Fatalf("openai = %+v", o)
	}
	m := cfg.RecordStore.Mongo
	if m.URIEnv != "MONGODB_URI" || m.Collection != "places" {
		t.Fatalf("mongo = %+v", m)
	}
	if cfg.Events.NATS.Subject != "placesearch.index.rebuilt" {
		t.Fatalf("nats = %+v", cfg.Events.NATS)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"unknown embedder":    "embedder:\n  type: word2vec\n",
		"ollama without dim":  "embedder:\n  type: ollama\n  ollama:\n    model: all-minilm\n",
		"s3 without bucket":   "artifacts:\n  type: s3\n  s3:\n    region: eu-west-1\n",
		"sqlite without path": "record_store:\n  type: sqlite\n",
		"unknown events":      "events:\n  type: kafka\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.RecordStore = RecordStoreConfig{Type: "sqlite", SQLitePath: "places.db"}
	if err := Save(p, cfg); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(p)
	if !strings.Contains(string(data), "sqlite_path: places.db") {
		t.Fatalf("saved = %s", data)
	}
	back, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if back.RecordStore.SQLitePath != "places.db" {
		t.Fatalf("reloaded = %+v", back.RecordStore)
	}
}

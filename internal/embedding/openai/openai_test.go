package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeServer answers every POST with an OpenAI-shaped embeddings response
// whose first component encodes the input position.
func fakeServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		type item struct {
			Object    string    `json:"object"`
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}
		data := make([]item, len(req.Input))
		for i := range req.Input {
			vec := make([]float64, dim)
			vec[0] = float64(i + 1)
			// reverse order to exercise index-based placement
			data[len(req.Input)-1-i] = item{Object: "embedding", Index: i, Embedding: vec}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "test-model",
			"data":   data,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func TestEmbedBatch(t *testing.T) {
	srv := fakeServer(t, 4)
	defer srv.Close()
	t.Setenv("TEST_OPENAI_KEY", "sk-test")

	c, err := NewClient(Config{BaseURL: srv.URL, APIKeyEnv: "TEST_OPENAI_KEY", Dimension: 4})
	if err != nil {
		t.Fatal(err)
	}
	vecs, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	for i, v := range vecs {
		if len(v) != 4 {
			t.Fatalf("vecs[%d] len = %d", i, len(v))
		}
		if v[0] != float32(i+1) {
			t.Errorf("vecs[%d][0] = %v, want %d", i, v[0], i+1)
		}
	}
}

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "")
	if _, err := NewClient(Config{APIKeyEnv: "TEST_OPENAI_KEY"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestEmbedBatch_Empty(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	c, err := NewClient(Config{APIKeyEnv: "TEST_OPENAI_KEY"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.EmbedBatch(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}

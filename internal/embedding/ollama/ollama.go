// Package ollama is an embeddings client for OpenAI-compatible HTTP
// endpoints, including Ollama's /api/embed and /v1/embeddings.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"placesearch/internal/embedding"
)

// Client is an OpenAI-compatible embeddings client implementing embedding.Embedder.
type Client struct {
	url        string
	apiKey     string
	model      string
	dimension  int
	batchSize  int
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

var _ embedding.Embedder = (*Client)(nil)

// Config configures the embeddings client.
type Config struct {
	// URL is the full embeddings endpoint, e.g. http://localhost:11434/api/embed.
	URL       string
	APIKeyEnv string
	Model     string
	Dimension int
	BatchSize int
	Timeout   time.Duration
	// RatePerSec limits outgoing requests; zero means unlimited.
	RatePerSec float64
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Dimension <= 0 {
		return nil, errors.New("ollama: dimension must be set")
	}
	if cfg.URL == "" {
		cfg.URL = "http://localhost:11434/api/embed"
	}
	if cfg.Model == "" {
		cfg.Model = "all-minilm"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	var key string
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	return &Client{
		url:        cfg.URL,
		apiKey:     key,
		model:      cfg.Model,
		dimension:  cfg.Dimension,
		batchSize:  cfg.BatchSize,
		client:     &http.Client{Timeout: t},
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: 5,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "ollama" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (c *Client) Dimension() int { return c.dimension }

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in chunks of the configured batch size, preserving order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, embedding.ErrEmptyBatch
	}
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += c.batchSize {
		end := min(i+c.batchSize, len(texts))
		vecs, err := c.post(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("ollama: embed batch [%d:%d]: %w", i, end, err)
		}
		out = append(out, vecs...)
	}
	if err := embedding.CheckBatch(out, len(texts), c.dimension); err != nil {
		return nil, err
	}
	return out, nil
}

type reqBody struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func (c *Client) post(ctx context.Context, texts []string) ([][]float32, error) {
	data, err := json.Marshal(reqBody{Input: texts, Model: c.model})
	if err != nil {
		return nil, err
	}
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if attempt < c.maxRetries && ctx.Err() == nil {
				if err := sleep(ctx, retryDelay(attempt)); err != nil {
					return nil, err
				}
				continue
			}
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			wait := retryDelay(attempt)
			// Respect Retry-After if provided
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
				wait = time.Duration(secs) * time.Second
			}
			_ = resp.Body.Close()
			if attempt < c.maxRetries {
				if err := sleep(ctx, wait); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("embeddings request failed: %s", resp.Status)
		}

		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("embeddings request failed: %s", resp.Status)
		}
		return decode(payload, len(texts))
	}
}

// decode accepts the OpenAI shape {"data":[{"index":i,"embedding":[...]}]},
// Ollama's {"embeddings":[[...]]} and the legacy single {"embedding":[...]}.
func decode(payload []byte, n int) ([][]float32, error) {
	var out struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
		Embeddings [][]float64 `json:"embeddings"`
		Embedding  []float64   `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode embeddings: %w", err)
	}
	vecs := make([][]float32, n)
	switch {
	case len(out.Data) > 0:
		for _, d := range out.Data {
			if d.Index < 0 || d.Index >= n {
				return nil, fmt.Errorf("unexpected embedding index %d for batch size %d", d.Index, n)
			}
			vecs[d.Index] = toFloat32(d.Embedding)
		}
	case len(out.Embeddings) > 0:
		if len(out.Embeddings) != n {
			return nil, fmt.Errorf("got %d embeddings for batch size %d", len(out.Embeddings), n)
		}
		for i, e := range out.Embeddings {
			vecs[i] = toFloat32(e)
		}
	case len(out.Embedding) > 0 && n == 1:
		vecs[0] = toFloat32(out.Embedding)
	default:
		return nil, errors.New("no embedding returned")
	}
	for i, v := range vecs {
		if len(v) == 0 {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
	}
	return vecs, nil
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

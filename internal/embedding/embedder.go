// Package embedding defines the text embedding contract used to build and
// query the place index.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// Embedder converts free text into a fixed-dimension float32 vector.
// Implementations must be deterministic for a given model version.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input, aligned by input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ErrEmptyBatch is returned when EmbedBatch is called without input.
var ErrEmptyBatch = errors.New("embedding: empty batch")

// CheckBatch verifies a provider returned exactly one vector of the
// expected dimension per input.
func CheckBatch(vectors [][]float32, n, dim int) error {
	if len(vectors) != n {
		return fmt.Errorf("embedding: got %d vectors for %d inputs", len(vectors), n)
	}
	if dim <= 0 {
		return nil
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("embedding: vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}
	return nil
}

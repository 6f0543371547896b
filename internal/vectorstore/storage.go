// Package vectorstore defines the positional vector index contract.
package vectorstore

import (
	"io"

	"placesearch/internal/domain"
)

// Index stores vectors at positions 0..Len()-1 in insertion order and
// answers k-nearest-neighbour queries by squared Euclidean distance.
type Index interface {
	Dimension() int
	Len() int
	// Add appends vectors; the first one receives position Len().
	Add(vectors [][]float32) error
	// Search returns neighbours ordered by ascending distance. Missing
	// neighbours are reported with position domain.NoNeighbor.
	Search(query []float32, k int) ([]domain.Neighbor, error)
	// Save writes the whole index to w.
	Save(w io.Writer) error
}

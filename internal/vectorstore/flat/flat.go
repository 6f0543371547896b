// Package flat is an exhaustive squared-L2 vector index with the same
// query semantics as FAISS IndexFlatL2.
package flat

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"placesearch/internal/domain"
	"placesearch/internal/vectorstore"
)

const (
	magic   = "PLIX"
	version = 1
)

// Index keeps all vectors in one contiguous slice.
// Searches may run concurrently with each other.
type Index struct {
	mu        sync.RWMutex
	dimension int
	data      []float32
}

var _ vectorstore.Index = (*Index)(nil)

// New creates an empty index for vectors of the given dimension.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, errors.New("flat: invalid dimension")
	}
	return &Index{dimension: dimension}, nil
}

func (x *Index) Dimension() int { return x.dimension }

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.data) / x.dimension
}

func (x *Index) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != x.dimension {
			return fmt.Errorf("flat: vector %d has dimension %d, want %d", i, len(v), x.dimension)
		}
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, v := range vectors {
		x.data = append(x.data, v...)
	}
	return nil
}

// Search always returns k neighbours; when the index holds fewer than k
// vectors the tail is padded with domain.NoNeighbor at +Inf distance.
// Equal distances keep ascending position order.
func (x *Index) Search(query []float32, k int) ([]domain.Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("flat: k must be positive, got %d", k)
	}
	if len(query) != x.dimension {
		return nil, fmt.Errorf("flat: query has dimension %d, want %d", len(query), x.dimension)
	}
	x.mu.RLock()
	n := len(x.data) / x.dimension
	scored := make([]domain.Neighbor, n)
	for i := 0; i < n; i++ {
		scored[i] = domain.Neighbor{
			Position: int64(i),
			Distance: l2sq(query, x.data[i*x.dimension:(i+1)*x.dimension]),
		}
	}
	x.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Distance < scored[j].Distance })
	if len(scored) > k {
		scored = scored[:k]
	}
	for len(scored) < k {
		scored = append(scored, domain.Neighbor{Position: domain.NoNeighbor, Distance: float32(math.Inf(1))})
	}
	return scored, nil
}

func l2sq(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// file is the on-disk representation of an index.
type file struct {
	Magic     string    `msgpack:"magic"`
	Version   int       `msgpack:"version"`
	Dimension int       `msgpack:"dim"`
	Count     int       `msgpack:"count"`
	Data      []float32 `msgpack:"data"`
}

// Save serializes the index as a single msgpack document.
func (x *Index) Save(w io.Writer) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	f := file{
		Magic:     magic,
		Version:   version,
		Dimension: x.dimension,
		Count:     len(x.data) / x.dimension,
		Data:      x.data,
	}
	if err := msgpack.NewEncoder(w).Encode(&f); err != nil {
		return fmt.Errorf("flat: save: %w", err)
	}
	return nil
}

// Load reads an index written by Save.
func Load(r io.Reader) (*Index, error) {
	var f file
	if err := msgpack.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("flat: load: %w", err)
	}
	if f.Magic != magic {
		return nil, fmt.Errorf("flat: load: bad magic %q", f.Magic)
	}
	if f.Version != version {
		return nil, fmt.Errorf("flat: load: unsupported version %d", f.Version)
	}
	if f.Dimension <= 0 || len(f.Data) != f.Dimension*f.Count {
		return nil, fmt.Errorf("flat: load: %d values do not fit %d vectors of dimension %d", len(f.Data), f.Count, f.Dimension)
	}
	return &Index{dimension: f.Dimension, data: f.Data}, nil
}

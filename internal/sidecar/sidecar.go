// Package sidecar stores the per-position metadata that accompanies a
// vector index. The serialized form is a JSON object keyed by the
// stringified index position.
package sidecar

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"placesearch/internal/domain"
)

// Sidecar maps index positions to place metadata. It is read-only once built.
type Sidecar struct {
	entries map[int64]domain.SidecarEntry
}

// FromEntries builds a dense sidecar where entries[i] is stored at position i.
func FromEntries(entries []domain.SidecarEntry) *Sidecar {
	m := make(map[int64]domain.SidecarEntry, len(entries))
	for i, e := range entries {
		m[int64(i)] = e
	}
	return &Sidecar{entries: m}
}

// Lookup returns the entry at pos, if any.
func (s *Sidecar) Lookup(pos int64) (domain.SidecarEntry, bool) {
	e, ok := s.entries[pos]
	return e, ok
}

// Len returns the number of entries.
func (s *Sidecar) Len() int { return len(s.entries) }

// Encode writes the sidecar as indented JSON.
func (s *Sidecar) Encode(w io.Writer) error {
	out := make(map[string]domain.SidecarEntry, len(s.entries))
	for pos, e := range s.entries {
		out[strconv.FormatInt(pos, 10)] = e
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("sidecar: encode: %w", err)
	}
	return nil
}

// Decode reads a sidecar. Keys need not form a dense range but must be
// non-negative integers.
func Decode(r io.Reader) (*Sidecar, error) {
	var raw map[string]domain.SidecarEntry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("sidecar: decode: %w", err)
	}
	m := make(map[int64]domain.SidecarEntry, len(raw))
	for k, e := range raw {
		pos, err := strconv.ParseInt(k, 10, 64)
		if err != nil || pos < 0 {
			return nil, fmt.Errorf("sidecar: decode: invalid position key %q", k)
		}
		m[pos] = e
	}
	return &Sidecar{entries: m}, nil
}

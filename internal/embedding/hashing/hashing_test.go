package hashing

import (
	"context"
	"math"
	"testing"
)

func TestEmbed_DeterministicAndNormalized(t *testing.T) {
	e := NewEmbedder(64)
	ctx := context.Background()
	a, err := e.Embed(ctx, "Ancient temple in the valley")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewEmbedder(64).Embed(ctx, "ancient TEMPLE valley")
	if len(a) != 64 {
		t.Fatalf("dimension = %d", len(a))
	}
	var norm float64
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d: %v vs %v", i, a[i], b[i])
		}
		norm += float64(a[i]) * float64(a[i])
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("norm = %v, want 1", norm)
	}
}

func TestEmbed_StopwordsOnlyIsZero(t *testing.T) {
	v, err := NewEmbedder(16).Embed(context.Background(), "the and of")
	if err != nil {
		t.Fatal(err)
	}
	for i, x := range v {
		if x != 0 {
			t.Fatalf("component %d = %v, want 0", i, x)
		}
	}
}

func TestEmbedBatch_Order(t *testing.T) {
	e := NewEmbedder(32)
	ctx := context.Background()
	texts := []string{"lake boat", "mountain trek", "temple"}
	vecs, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		t.Fatal(err)
	}
	for i, text := range texts {
		want, _ := e.Embed(ctx, text)
		for j := range want {
			if vecs[i][j] != want[j] {
				t.Fatalf("batch[%d] does not match Embed(%q)", i, text)
			}
		}
	}
}

func TestEmbedBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewEmbedder(8).EmbedBatch(ctx, []string{"x"}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestNewEmbedder_DefaultDimension(t *testing.T) {
	if d := NewEmbedder(0).Dimension(); d != DefaultDimension {
		t.Errorf("dimension = %d", d)
	}
}

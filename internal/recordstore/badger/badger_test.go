package badger

import (
	"context"
	"errors"
	"testing"

	"placesearch/internal/domain"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEnumerateSortedByID(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	err := s.Put(ctx, []domain.SourceRecord{
		{ID: "b", Name: "Bhaktapur Durbar Square"},
		{ID: "a", Name: "Asan"},
		{ID: "c", Name: "Chitwan"},
	})
	if err != nil {
		t.Fatal(err)
	}
	all, err := s.Enumerate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != "a" || all[1].ID != "b" || all[2].ID != "c" {
		t.Fatalf("Enumerate = %+v", all)
	}
}

func TestGetManySkipsUnknown(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	_ = s.Put(ctx, []domain.SourceRecord{{ID: "a"}, {ID: "c"}})

	got, err := s.GetMany(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("GetMany = %+v", got)
	}
	if _, err := s.Get(ctx, "b"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("Get missing = %v", err)
	}
}

func TestOpenRequiresDir(t *testing.T) {
	if _, err := Open(Options{}); err == nil {
		t.Fatal("expected error without Dir")
	}
}

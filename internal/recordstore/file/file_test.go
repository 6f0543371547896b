package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"placesearch/internal/domain"
)

const sample = `[
  {"_id": {"$oid": "65a1"}, "name": "Pashupatinath", "category": "temple",
   "coordinates": {"lat": 27.71, "lng": 85.35}},
  {"_id": "65a2", "name": "Boudhanath", "category": "stupa"},
  {"id": "65a3", "name": "Garden of Dreams", "coordinates": {"lat": 27.71, "lon": 85.31}}
]`

func writeTemp(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "places.json")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadIDShapes(t *testing.T) {
	recs, err := Load(writeTemp(t, sample))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"65a1", "65a2", "65a3"}
	for i, id := range want {
		if recs[i].ID != id {
			t.Errorf("record %d id = %q, want %q", i, recs[i].ID, id)
		}
	}
	if lon := recs[0].Coordinates.Lon; lon == nil || *lon != 85.35 {
		t.Errorf("lng not decoded: %v", lon)
	}
	if lon := recs[2].Coordinates.Lon; lon == nil || *lon != 85.31 {
		t.Errorf("lon not decoded: %v", lon)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, domain.ErrSourceNotFound) {
		t.Fatalf("missing: %v", err)
	}
	_, err = Load(writeTemp(t, "[]"))
	if !errors.Is(err, domain.ErrEmptySource) {
		t.Fatalf("empty: %v", err)
	}
	_, err = Load(writeTemp(t, "{not json"))
	if err == nil {
		t.Fatal("expected decode error")
	}
}

func TestStoreLookups(t *testing.T) {
	s, err := Open(writeTemp(t, sample))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	got, err := s.Get(ctx, "65a2")
	if err != nil || got.Name != "Boudhanath" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if _, err := s.Get(ctx, "zzz"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("Get missing err = %v", err)
	}

	many, err := s.GetMany(ctx, []string{"65a3", "dangling", "65a1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(many) != 2 {
		t.Fatalf("GetMany len = %d", len(many))
	}

	all, _ := s.Enumerate(ctx)
	if len(all) != 3 || all[0].ID != "65a1" {
		t.Fatalf("Enumerate = %+v", all)
	}
}

func TestSaveThenLoad(t *testing.T) {
	recs, err := Decode([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "filtered.json")
	if err := Save(out, recs); err != nil {
		t.Fatal(err)
	}
	again, err := Load(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 3 || again[0].ID != "65a1" {
		t.Fatalf("reloaded = %+v", again)
	}
}

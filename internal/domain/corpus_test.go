package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestCorpusText(t *testing.T) {
	rec := SourceRecord{
		Name:        "Pashupatinath",
		Description: "  ancient   temple ",
		Tags:        []string{"hindu", "", "river"},
		Category:    "heritage",
	}
	if got := CorpusText(rec, false); got != "ancient temple hindu river heritage" {
		t.Errorf("without name: %q", got)
	}
	if got := CorpusText(rec, true); got != "Pashupatinath ancient temple hindu river heritage" {
		t.Errorf("with name: %q", got)
	}
	if got := CorpusText(SourceRecord{}, true); got != "" {
		t.Errorf("empty record: %q", got)
	}
}

func TestPrepare_Aligned(t *testing.T) {
	recs := []SourceRecord{
		{ID: "a", Description: "one", Category: "x"},
		{ID: "b", Description: "two"},
		{ID: "c", Category: "z", Coordinates: &Coordinates{Lat: ptr(1), Lon: ptr(2)}},
	}
	corpus, entries := Prepare(recs, false)
	if len(corpus) != 3 || len(entries) != 3 {
		t.Fatalf("lengths: %d %d", len(corpus), len(entries))
	}
	for i, r := range recs {
		if entries[i].PlaceID != r.ID {
			t.Errorf("position %d: got %s want %s", i, entries[i].PlaceID, r.ID)
		}
	}
	if entries[1].Lat != nil || entries[1].Lon != nil {
		t.Error("expected absent coordinates")
	}
	if *entries[2].Lat != 1 || *entries[2].Lon != 2 {
		t.Errorf("coords: %v %v", *entries[2].Lat, *entries[2].Lon)
	}
}

func TestCoordinates_LngAndLon(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"lng", `{"lat":27.1,"lng":85.3}`, 85.3},
		{"lon", `{"lat":27.1,"lon":85.4}`, 85.4},
		{"both prefers lng", `{"lat":27.1,"lng":85.3,"lon":1}`, 85.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Coordinates
			if err := json.Unmarshal([]byte(tt.in), &c); err != nil {
				t.Fatal(err)
			}
			if c.Lon == nil || *c.Lon != tt.want {
				t.Fatalf("lon = %v, want %v", c.Lon, tt.want)
			}
			if c.Lat == nil || *c.Lat != 27.1 {
				t.Fatalf("lat = %v", c.Lat)
			}
		})
	}

	var c Coordinates
	if err := json.Unmarshal([]byte(`{}`), &c); err != nil {
		t.Fatal(err)
	}
	if c.Lat != nil || c.Lon != nil {
		t.Error("expected nil coordinates")
	}
}

func TestArtifactError_Unwrap(t *testing.T) {
	err := NewArtifactError("read", "places.index", ErrResourceNotFound)
	if !errors.Is(err, ErrResourceNotFound) {
		t.Fatal("expected wrapped sentinel")
	}
	if err.Error() != "artifact read places.index: resource not found" {
		t.Errorf("message: %s", err.Error())
	}
}

func ptr(f float64) *float64 { return &f }

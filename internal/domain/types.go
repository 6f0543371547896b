package domain

import (
	"encoding/json"
	"time"
)

// Coordinates is a geographic point. Either component may be absent.
type Coordinates struct {
	Lat *float64 `json:"lat,omitempty" bson:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty" bson:"lon,omitempty"`
}

// UnmarshalJSON accepts both the "lng" and "lon" spellings for longitude.
// When both are present "lng" wins, matching the place documents written by
// the admin backend.
func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var raw struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
		Lon *float64 `json:"lon"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = ResolveCoordinates(raw.Lat, raw.Lng, raw.Lon)
	return nil
}

// ResolveCoordinates applies the longitude rule shared by every decoder:
// lng is used when present, lon otherwise.
func ResolveCoordinates(lat, lng, lon *float64) Coordinates {
	c := Coordinates{Lat: lat, Lon: lng}
	if c.Lon == nil {
		c.Lon = lon
	}
	return c
}

// EntryFee lists admission prices per visitor group.
type EntryFee struct {
	Nepali  float64 `json:"nepali" bson:"nepali"`
	SAARC   float64 `json:"saarc" bson:"saarc"`
	Foreign float64 `json:"foreign" bson:"foreign"`
}

// SourceRecord is a catalog entry as held by the record store.
type SourceRecord struct {
	ID           string       `json:"id" bson:"-"`
	Name         string       `json:"name,omitempty" bson:"name,omitempty"`
	Slug         string       `json:"slug,omitempty" bson:"slug,omitempty"`
	Description  string       `json:"description,omitempty" bson:"description,omitempty"`
	Category     string       `json:"category,omitempty" bson:"category,omitempty"`
	Subcategory  string       `json:"subcategory,omitempty" bson:"subcategory,omitempty"`
	Tags         []string     `json:"tags,omitempty" bson:"tags,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
	Address      string       `json:"address,omitempty" bson:"address,omitempty"`
	ImageURL     string       `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Gallery      []string     `json:"gallery,omitempty" bson:"gallery,omitempty"`
	VideoURL     string       `json:"videoUrl,omitempty" bson:"videoUrl,omitempty"`
	OpeningHours string       `json:"openingHours,omitempty" bson:"openingHours,omitempty"`
	EntryFee     *EntryFee    `json:"entryFee,omitempty" bson:"entryFee,omitempty"`
	AudioURL     string       `json:"audioUrl,omitempty" bson:"audioUrl,omitempty"`
	HasWorkshop  bool         `json:"hasWorkshop,omitempty" bson:"hasWorkshop,omitempty"`
	IsSponsored  bool         `json:"isSponsored,omitempty" bson:"isSponsored,omitempty"`
}

// SidecarEntry holds the lightweight attributes stored next to each vector.
type SidecarEntry struct {
	PlaceID  string   `json:"place_id"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	Category string   `json:"category"`
}

// SearchHit is a single ranked match for a query.
// Distance is the raw squared L2 distance; lower is closer.
type SearchHit struct {
	PlaceID  string        `json:"place_id"`
	Distance float32       `json:"score"`
	Category string        `json:"category,omitempty"`
	Lat      *float64      `json:"lat,omitempty"`
	Lon      *float64      `json:"lon,omitempty"`
	Record   *SourceRecord `json:"place,omitempty"`
}

// NoNeighbor is the position reported by an index when fewer vectors exist
// than were requested.
const NoNeighbor int64 = -1

// Neighbor is a raw k-NN result: an index position and its distance.
type Neighbor struct {
	Position int64
	Distance float32
}

// Generation describes one published index/sidecar pair.
type Generation struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Count     int       `json:"count"`
	Dimension int       `json:"dimension"`
	BuiltAt   time.Time `json:"built_at"`
}

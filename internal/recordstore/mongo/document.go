package mongo

import (
	"go.mongodb.org/mongo-driver/bson"

	"placesearch/internal/domain"
)

// coordinates is the stored shape; documents use either "lng" or "lon".
type coordinates struct {
	Lat *float64 `bson:"lat,omitempty"`
	Lng *float64 `bson:"lng,omitempty"`
	Lon *float64 `bson:"lon,omitempty"`
}

type document struct {
	ID           bson.RawValue    `bson:"_id"`
	Name         string           `bson:"name,omitempty"`
	Slug         string           `bson:"slug,omitempty"`
	Description  string           `bson:"description,omitempty"`
	Category     string           `bson:"category,omitempty"`
	Subcategory  string           `bson:"subcategory,omitempty"`
	Tags         []string         `bson:"tags,omitempty"`
	Coordinates  *coordinates     `bson:"coordinates,omitempty"`
	Address      string           `bson:"address,omitempty"`
	ImageURL     string           `bson:"imageUrl,omitempty"`
	Gallery      []string         `bson:"gallery,omitempty"`
	VideoURL     string           `bson:"videoUrl,omitempty"`
	OpeningHours string           `bson:"openingHours,omitempty"`
	EntryFee     *domain.EntryFee `bson:"entryFee,omitempty"`
	AudioURL     string           `bson:"audioUrl,omitempty"`
	HasWorkshop  bool             `bson:"hasWorkshop,omitempty"`
	IsSponsored  bool             `bson:"isSponsored,omitempty"`
}

// idString renders an _id of any supported type as the record id.
func idString(v bson.RawValue) string {
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	return ""
}

func (d document) record() domain.SourceRecord {
	rec := domain.SourceRecord{
		ID:           idString(d.ID),
		Name:         d.Name,
		Slug:         d.Slug,
		Description:  d.Description,
		Category:     d.Category,
		Subcategory:  d.Subcategory,
		Tags:         d.Tags,
		Address:      d.Address,
		ImageURL:     d.ImageURL,
		Gallery:      d.Gallery,
		VideoURL:     d.VideoURL,
		OpeningHours: d.OpeningHours,
		EntryFee:     d.EntryFee,
		AudioURL:     d.AudioURL,
		HasWorkshop:  d.HasWorkshop,
		IsSponsored:  d.IsSponsored,
	}
	if d.Coordinates != nil {
		c := domain.ResolveCoordinates(d.Coordinates.Lat, d.Coordinates.Lng, d.Coordinates.Lon)
		rec.Coordinates = &c
	}
	return rec
}

// storedDocument is the write shape. Longitude is written as "lng" to
// match documents produced by the admin backend.
type storedDocument struct {
	ID           any              `bson:"_id"`
	Name         string           `bson:"name,omitempty"`
	Slug         string           `bson:"slug,omitempty"`
	Description  string           `bson:"description,omitempty"`
	Category     string           `bson:"category,omitempty"`
	Subcategory  string           `bson:"subcategory,omitempty"`
	Tags         []string         `bson:"tags,omitempty"`
	Coordinates  *coordinates     `bson:"coordinates,omitempty"`
	Address      string           `bson:"address,omitempty"`
	ImageURL     string           `bson:"imageUrl,omitempty"`
	Gallery      []string         `bson:"gallery,omitempty"`
	VideoURL     string           `bson:"videoUrl,omitempty"`
	OpeningHours string           `bson:"openingHours,omitempty"`
	EntryFee     *domain.EntryFee `bson:"entryFee,omitempty"`
	AudioURL     string           `bson:"audioUrl,omitempty"`
	HasWorkshop  bool             `bson:"hasWorkshop,omitempty"`
	IsSponsored  bool             `bson:"isSponsored,omitempty"`
}

func fromRecord(r domain.SourceRecord) storedDocument {
	doc := storedDocument{
		ID:           idValue(r.ID),
		Name:         r.Name,
		Slug:         r.Slug,
		Description:  r.Description,
		Category:     r.Category,
		Subcategory:  r.Subcategory,
		Tags:         r.Tags,
		Address:      r.Address,
		ImageURL:     r.ImageURL,
		Gallery:      r.Gallery,
		VideoURL:     r.VideoURL,
		OpeningHours: r.OpeningHours,
		EntryFee:     r.EntryFee,
		AudioURL:     r.AudioURL,
		HasWorkshop:  r.HasWorkshop,
		IsSponsored:  r.IsSponsored,
	}
	if r.Coordinates != nil {
		doc.Coordinates = &coordinates{Lat: r.Coordinates.Lat, Lng: r.Coordinates.Lon}
	}
	return doc
}

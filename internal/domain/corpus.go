package domain

import "strings"

// CorpusText builds the embedding input for a record: name (optional),
// description, tags and category separated by single spaces.
func CorpusText(rec SourceRecord, includeName bool) string {
	parts := make([]string, 0, len(rec.Tags)+3)
	if includeName {
		parts = append(parts, rec.Name)
	}
	parts = append(parts, rec.Description)
	parts = append(parts, rec.Tags...)
	parts = append(parts, rec.Category)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// NewSidecarEntry projects a record onto its sidecar attributes.
func NewSidecarEntry(rec SourceRecord) SidecarEntry {
	e := SidecarEntry{PlaceID: rec.ID, Category: rec.Category}
	if rec.Coordinates != nil {
		e.Lat = rec.Coordinates.Lat
		e.Lon = rec.Coordinates.Lon
	}
	return e
}

// Prepare converts records into position-aligned corpus texts and sidecar
// entries. Position i of both slices always refers to records[i].
func Prepare(records []SourceRecord, includeName bool) ([]string, []SidecarEntry) {
	corpus := make([]string, len(records))
	entries := make([]SidecarEntry, len(records))
	for i, rec := range records {
		corpus[i] = CorpusText(rec, includeName)
		entries[i] = NewSidecarEntry(rec)
	}
	return corpus, entries
}

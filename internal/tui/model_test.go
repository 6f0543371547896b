package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"placesearch/internal/domain"
)

type fakeSearch struct {
	hits  []domain.SearchHit
	err   error
	gotK  int
	calls int
}

func (f *fakeSearch) Search(_ context.Context, _ string, k int, _ bool) ([]domain.SearchHit, error) {
	f.calls++
	f.gotK = k
	return f.hits, f.err
}

func lat(f float64) *float64 { return &f }

func typeQuery(m Model, q string) Model {
	for _, r := range q {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func TestEnterRunsSearchAsync(t *testing.T) {
	fs := &fakeSearch{hits: []domain.SearchHit{
		{PlaceID: "p1", Distance: 0.2, Category: "temple", Lat: lat(27.7), Lon: lat(85.3),
			Record: &domain.SourceRecord{ID: "p1", Name: "Pashupatinath", Description: "Hindu temple of Shiva."}},
		{PlaceID: "p2", Distance: 0.9},
	}}
	m := New(fs, nil, "2 places indexed", Options{TopK: 5})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	m = typeQuery(next.(Model), "shiva temple")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if cmd == nil || !m.busy {
		t.Fatal("enter did not start a search")
	}
	next, _ = m.Update(cmd())
	m = next.(Model)

	if fs.calls != 1 || fs.gotK != 5 {
		t.Fatalf("calls=%d k=%d", fs.calls, fs.gotK)
	}
	view := m.renderCurrentResult()
	if !strings.Contains(view, "Pashupatinath") || !strings.Contains(view, "Result 1/2") {
		t.Fatalf("view = %q", view)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	if !strings.Contains(m.renderCurrentResult(), "p2") {
		t.Fatal("cursor did not advance")
	}
}

func TestSearchErrorShownInStatus(t *testing.T) {
	m := New(&fakeSearch{}, nil, "", Options{})
	next, _ := m.Update(resultsMsg{query: "x", err: errors.New("embedder down")})
	m = next.(Model)
	if !strings.Contains(m.status, "embedder down") || m.results != nil {
		t.Fatalf("status = %q", m.status)
	}
}

func TestBlankEnterIgnored(t *testing.T) {
	fs := &fakeSearch{}
	m := New(fs, nil, "", Options{})
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if next.(Model).busy || fs.calls != 0 {
		t.Fatal("blank query searched")
	}
}

func TestHighlightQueryTerms(t *testing.T) {
	out := highlightQueryTerms("Ancient temple by the river", "")
	if out != "Ancient temple by the river" {
		t.Fatalf("out = %q", out)
	}
	out = highlightQueryTerms("Ancient temple", "TEMPLE")
	if !strings.Contains(out, "temple") {
		t.Fatalf("out = %q", out)
	}
}

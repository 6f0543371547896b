// Package tui is an interactive terminal client for place search.
package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"placesearch/internal/domain"
)

// SearchPort is the TUI-facing subset of the search service.
type SearchPort interface {
	Search(ctx context.Context, query string, topK int, hydrate bool) ([]domain.SearchHit, error)
}

// Excerpter shortens descriptions for display.
type Excerpter interface {
	Excerpt(text, query string) string
}

// Options tunes the client.
type Options struct {
	TopK    int
	Hydrate bool
	Timeout time.Duration
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service   SearchPort
	excerpter Excerpter
	opts      Options
	input     textinput.Model
	viewport  viewport.Model
	results   []domain.SearchHit
	summary   string
	status    string
	cursor    int
	ready     bool
	busy      bool
	lastQuery string
}

// resultsMsg carries the outcome of an asynchronous search.
type resultsMsg struct {
	query string
	hits  []domain.SearchHit
	err   error
}

// New creates a new TUI model instance. summary is shown under the header.
func New(service SearchPort, excerpter Excerpter, summary string, opts Options) Model {
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Describe a place and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:   service,
		excerpter: excerpter,
		opts:      opts,
		input:     ti,
		viewport:  vp,
		summary:   summary,
		status:    "Ready. Type to search.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) searchCmd(q string) tea.Cmd {
	svc, opts := m.service, m.opts
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
		defer cancel()
		hits, err := svc.Search(ctx, q, opts.TopK, opts.Hydrate)
		return resultsMsg{query: q, hits: hits, err: err}
	}
}

// Update handles key, window and result events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + summary, status, input box, spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case resultsMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.results = nil
		} else {
			m.status = fmt.Sprintf("%d results for %q", len(msg.hits), msg.query)
			m.results = msg.hits
			m.cursor = 0
			m.lastQuery = msg.query
		}
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.busy {
				m.busy = true
				m.status = fmt.Sprintf("Searching %q...", q)
				return m, m.searchCmd(q)
			}
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Place Search")
	summary := dimStyle.Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	h := m.results[m.cursor]
	var b strings.Builder
	fmt.Fprintf(&b, "Result %d/%d  distance=%.4f\n\n", m.cursor+1, len(m.results), h.Distance)

	title := h.PlaceID
	if h.Record != nil && h.Record.Name != "" {
		title = h.Record.Name
	}
	b.WriteString(titleStyle.Render(title))
	if h.Category != "" {
		b.WriteString("  " + dimStyle.Render(h.Category))
	}
	b.WriteString("\n")
	if h.Lat != nil && h.Lon != nil {
		fmt.Fprintf(&b, "%s\n", dimStyle.Render(fmt.Sprintf("%.5f, %.5f", *h.Lat, *h.Lon)))
	}

	if r := h.Record; r != nil {
		if r.Address != "" {
			fmt.Fprintf(&b, "Address: %s\n", r.Address)
		}
		if r.OpeningHours != "" {
			fmt.Fprintf(&b, "Hours:   %s\n", r.OpeningHours)
		}
		if f := r.EntryFee; f != nil {
			fmt.Fprintf(&b, "Entry:   NPR %.0f / SAARC %.0f / Foreign %.0f\n", f.Nepali, f.SAARC, f.Foreign)
		}
		if r.Description != "" {
			text := r.Description
			if m.excerpter != nil {
				text = m.excerpter.Excerpt(text, m.lastQuery)
			}
			b.WriteString("\n" + highlightQueryTerms(text, m.lastQuery))
		}
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

// highlightQueryTerms renders words of text that occur in query.
func highlightQueryTerms(text, query string) string {
	terms := toTokenSet(query)
	if len(terms) == 0 {
		return text
	}
	return unicodeWordRe.ReplaceAllStringFunc(text, func(w string) string {
		if _, ok := terms[strings.ToLower(w)]; ok {
			return highlightStyle.Render(w)
		}
		return w
	})
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

package finder

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dshills/stdland/internal/searcher"
	"github.com/dshills/stdland/pkg/types"
)

// DefaultLimit is the number of rows shown, as on the website
const DefaultLimit = 6

// Options configures the finder
type Options struct {
	Dataset string
	Mode    searcher.SearchMode
	Limit   int
	Query   string // Initial query
}

// resultsMsg carries the results of the search started for seq
type resultsMsg struct {
	seq     int
	results []types.SearchResult
	err     error
}

// Model is the bubbletea model of the interactive finder
type Model struct {
	ctx      context.Context
	searcher *searcher.Searcher
	opts     Options

	input textinput.Model
	keys  KeyMap
	help  help.Model

	seq     int // Incremented per query; stale results are dropped
	results []types.SearchResult
	nav     Navigator
	err     error
	width   int

	chosen string
}

// NewModel creates a finder model backed by s
func NewModel(ctx context.Context, s *searcher.Searcher, opts Options) Model {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Mode == "" {
		opts.Mode = searcher.SearchModeFuzzy
	}

	ti := textinput.New()
	ti.Placeholder = "Search the Deno standard library"
	ti.Prompt = "⌕ "
	ti.CharLimit = 256
	ti.SetValue(opts.Query)
	ti.Focus()

	return Model{
		ctx:      ctx,
		searcher: s,
		opts:     opts,
		input:    ti,
		keys:     DefaultKeyMap(),
		help:     help.New(),
	}
}

// Chosen returns the URL picked with Enter, or "" if the finder was quit
func (m Model) Chosen() string {
	return m.chosen
}

// Init starts the cursor blink and the search for an initial query
func (m Model) Init() tea.Cmd {
	if strings.TrimSpace(m.input.Value()) == "" {
		return textinput.Blink
	}
	return tea.Batch(textinput.Blink, m.search(m.seq, m.input.Value()))
}

// Update handles key presses and search results
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case resultsMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.err = msg.err
		m.results = msg.results
		m.nav.Reset(len(m.results))
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Down):
			m.nav.Down()
			return m, nil
		case key.Matches(msg, m.keys.Up):
			m.nav.Up()
			return m, nil
		case key.Matches(msg, m.keys.Cancel):
			m.nav.Cancel()
			return m, nil
		case key.Matches(msg, m.keys.Go):
			if i, ok := m.nav.Go(); ok {
				m.chosen = m.results[i].URL
				return m, tea.Quit
			}
			return m, nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}

	m.seq++
	if strings.TrimSpace(m.input.Value()) == "" {
		m.results = nil
		m.err = nil
		m.nav.Reset(0)
		return m, cmd
	}
	return m, tea.Batch(cmd, m.search(m.seq, m.input.Value()))
}

// search runs a query off the update loop
func (m Model) search(seq int, query string) tea.Cmd {
	ctx, s, opts := m.ctx, m.searcher, m.opts
	return func() tea.Msg {
		resp, err := s.Search(ctx, searcher.SearchRequest{
			Query:    query,
			Dataset:  opts.Dataset,
			Limit:    opts.Limit,
			Mode:     opts.Mode,
			UseCache: true,
		})
		if err != nil {
			return resultsMsg{seq: seq, err: err}
		}
		return resultsMsg{seq: seq, results: resp.Results}
	}
}

// View renders the search box and result rows
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("std.land"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n")
	}

	selected, active := m.nav.Selection()
	for i, r := range m.results {
		row := fmt.Sprintf("%s %s  %s",
			iconStyle(r.Item.Type).Render(types.IconFor(r.Item.Type).Glyph),
			nameStyle.Render(r.Item.Name),
			pathStyle.Render(r.Item.Path),
		)
		if active && i == selected {
			b.WriteString(selectedStyle.Render(row))
		} else {
			b.WriteString(rowStyle.Render(row))
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	b.WriteString("\n")
	return b.String()
}

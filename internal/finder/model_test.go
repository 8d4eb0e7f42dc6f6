package finder

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/stdland/internal/catalog"
	"github.com/dshills/stdland/internal/searcher"
	"github.com/dshills/stdland/pkg/types"
)

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()

	symbols := []types.Symbol{
		{Name: "server.ts", Extension: "ts", Path: "http/server.ts", Type: types.TypeFile},
		{Name: "serve", Extension: "ts", Path: "http/server.ts", Type: types.TypeFunction, LineNumber: 612},
		{Name: "Server", Extension: "ts", Path: "http/server.ts", Type: types.TypeClass, LineNumber: 143},
		{Name: "serveTls", Extension: "ts", Path: "http/server.ts", Type: types.TypeFunction, LineNumber: 700},
		{Name: "delay", Extension: "ts", Path: "async/delay.ts", Type: types.TypeFunction, LineNumber: 16},
	}
	cat := catalog.New()
	cat.Put(catalog.NewDataset(types.DatasetStable, "https://deno.land/std/", "embedded", symbols))

	s := searcher.NewSearcher(cat, searcher.Options{})
	t.Cleanup(func() { _ = s.Close() })
	return NewModel(context.Background(), s, opts)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

// withResults runs the search for query and applies its results
func withResults(t *testing.T, m Model, query string) Model {
	t.Helper()
	m.input.SetValue(query)
	m.seq++
	msg := m.search(m.seq, query)()
	m, _ = update(t, m, msg)
	return m
}

func keyMsg(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func TestNewModel_Defaults(t *testing.T) {
	m := newTestModel(t, Options{})
	assert.Equal(t, DefaultLimit, m.opts.Limit)
	assert.Equal(t, searcher.SearchModeFuzzy, m.opts.Mode)
	assert.Empty(t, m.Chosen())
	assert.NotNil(t, m.Init())
}

func TestModel_TypingUpdatesQuery(t *testing.T) {
	m := newTestModel(t, Options{})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("serve")})
	assert.Equal(t, "serve", m.input.Value())
	assert.Equal(t, 1, m.seq)
	assert.NotNil(t, cmd)
}

func TestModel_Results(t *testing.T) {
	m := newTestModel(t, Options{})
	m = withResults(t, m, "serve")

	require.NotEmpty(t, m.results)
	assert.Equal(t, "serve", m.results[0].Item.Name)
	assert.LessOrEqual(t, len(m.results), DefaultLimit)
	assert.Equal(t, len(m.results), m.nav.Len())

	view := m.View()
	assert.Contains(t, view, "std.land")
	assert.Contains(t, view, "serveTls")
	assert.Contains(t, view, "http/server.ts")
}

func TestModel_StaleResultsDropped(t *testing.T) {
	m := newTestModel(t, Options{})
	m.seq = 2

	m, _ = update(t, m, resultsMsg{seq: 1, results: []types.SearchResult{{}}})
	assert.Empty(t, m.results)
}

func TestModel_Navigation(t *testing.T) {
	m := newTestModel(t, Options{})
	m = withResults(t, m, "serve")

	m, _ = update(t, m, keyMsg(tea.KeyDown))
	m, _ = update(t, m, keyMsg(tea.KeyDown))
	sel, ok := m.nav.Selection()
	require.True(t, ok)
	assert.Equal(t, 1, sel)

	m, _ = update(t, m, keyMsg(tea.KeyEsc))
	_, ok = m.nav.Selection()
	assert.False(t, ok)

	m, _ = update(t, m, keyMsg(tea.KeyUp))
	sel, _ = m.nav.Selection()
	assert.Equal(t, 0, sel)
}

func TestModel_EnterPicksSelection(t *testing.T) {
	m := newTestModel(t, Options{})
	m = withResults(t, m, "serve")

	m, cmd := update(t, m, keyMsg(tea.KeyEnter))
	assert.Equal(t, "https://deno.land/std/http/server.ts#L612", m.Chosen())
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_EnterWithoutResults(t *testing.T) {
	m := newTestModel(t, Options{})

	m, cmd := update(t, m, keyMsg(tea.KeyEnter))
	assert.Empty(t, m.Chosen())
	assert.Nil(t, cmd)
}

func TestModel_EmptyQueryClearsResults(t *testing.T) {
	m := newTestModel(t, Options{})
	m = withResults(t, m, "s")
	require.NotEmpty(t, m.results)
	m.nav.Down()

	m, _ = update(t, m, keyMsg(tea.KeyBackspace))
	assert.Equal(t, "", m.input.Value())
	assert.Empty(t, m.results)
	assert.Equal(t, 0, m.nav.Len())
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t, Options{})

	_, cmd := update(t, m, keyMsg(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_SearchError(t *testing.T) {
	m := newTestModel(t, Options{Dataset: "deno"})
	m = withResults(t, m, "serve")

	assert.Error(t, m.err)
	assert.True(t, strings.Contains(m.View(), "error:"))
}

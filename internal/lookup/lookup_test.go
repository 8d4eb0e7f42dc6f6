package lookup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/stdland/internal/catalog"
	"github.com/dshills/stdland/internal/searcher"
	"github.com/dshills/stdland/pkg/types"
)

func result(path string, score float64) types.SearchResult {
	return types.SearchResult{
		Item:  types.Symbol{Name: "x", Path: path, Type: types.TypeFunction},
		Score: score,
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		results []types.SearchResult
		query   string
		want    bool
	}{
		{"no results", nil, "serve", false},
		{"single perfect result", []types.SearchResult{result("a.ts", 0)}, "serve", true},
		{"clear winner", []types.SearchResult{result("a.ts", 0), result("b.ts", 0.05)}, "serve", true},
		{"tie", []types.SearchResult{result("a.ts", 0), result("b.ts", 0)}, "serve", false},
		{"gap too small", []types.SearchResult{result("a.ts", 0.0001), result("b.ts", 0.0002)}, "serve", false},
		{"gap just enough", []types.SearchResult{result("a.ts", 0), result("b.ts", 0.00021)}, "serve", true},
		{"best not good enough", []types.SearchResult{result("a.ts", 0.0003), result("b.ts", 0.5)}, "serve", false},
		{"path equals query", []types.SearchResult{result("http/server.ts", 0.2), result("b.ts", 0.2)}, "http/server.ts", true},
		{"path comparison is exact", []types.SearchResult{result("http/server.ts", 0.2), result("b.ts", 0.2)}, "HTTP/server.ts", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.results, tt.query, DefaultMaxScore, DefaultMinGap))
		})
	}
}

func TestDatasetForHost(t *testing.T) {
	tests := []struct {
		host   string
		prefix string
		want   string
	}{
		{"std.land", "git.", types.DatasetStable},
		{"git.std.land", "git.", types.DatasetGit},
		{"localhost:3000", "git.", types.DatasetStable},
		{"git.localhost:3000", "git.", types.DatasetGit},
		{"digit.std.land", "git.", types.DatasetStable},
		{"next.std.land", "next.", types.DatasetGit},
		{"git.std.land", "", types.DatasetStable},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, DatasetForHost(tt.host, tt.prefix))
		})
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	symbols := []types.Symbol{
		{Name: "server.ts", Extension: "ts", Path: "http/server.ts", Type: types.TypeFile},
		{Name: "serve", Extension: "ts", Path: "http/server.ts", Type: types.TypeFunction, LineNumber: 612},
		{Name: "Server", Extension: "ts", Path: "http/server.ts", Type: types.TypeClass, LineNumber: 143},
		{Name: "parse", Extension: "ts", Path: "datetime/mod.ts", Type: types.TypeFunction, LineNumber: 64},
		{Name: "parse", Extension: "ts", Path: "flags/mod.ts", Type: types.TypeFunction, LineNumber: 280},
		{Name: "parseArgs", Extension: "ts", Path: "cli/parse_args.ts", Type: types.TypeFunction, LineNumber: 520},
		{Name: "parseMediaType", Extension: "ts", Path: "media_types/parse_media_type.ts", Type: types.TypeFunction, LineNumber: 20},
		{Name: "parseRange", Extension: "ts", Path: "semver/parse_range.ts", Type: types.TypeFunction, LineNumber: 400},
	}
	git := []types.Symbol{
		{Name: "serve", Extension: "ts", Path: "http/server.ts", Type: types.TypeFunction, LineNumber: 640},
	}

	cat := catalog.New()
	cat.Put(catalog.NewDataset(types.DatasetStable, "https://deno.land/std/", "embedded", symbols))
	cat.Put(catalog.NewDataset(types.DatasetGit, "https://github.com/denoland/deno_std/blob/main/", "embedded", git))

	s := searcher.NewSearcher(cat, searcher.Options{})
	t.Cleanup(func() { _ = s.Close() })
	return NewService(s, Options{})
}

func TestLookup(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("empty id", func(t *testing.T) {
		res, err := svc.Lookup(ctx, "std.land", "")
		require.NoError(t, err)
		assert.Empty(t, res.Redirect)
		assert.Empty(t, res.Results)
		assert.Equal(t, types.DatasetStable, res.Dataset)
	})

	t.Run("exact name redirects with line", func(t *testing.T) {
		res, err := svc.Lookup(ctx, "std.land", "serve")
		require.NoError(t, err)
		assert.Equal(t, "https://deno.land/std/http/server.ts#L612", res.Redirect)
	})

	t.Run("name match ignores case", func(t *testing.T) {
		res, err := svc.Lookup(ctx, "std.land", "Server")
		require.NoError(t, err)
		assert.Equal(t, "https://deno.land/std/http/server.ts#L143", res.Redirect)
	})

	t.Run("exact path redirects to the file", func(t *testing.T) {
		res, err := svc.Lookup(ctx, "std.land", "http/server.ts")
		require.NoError(t, err)
		assert.Equal(t, "https://deno.land/std/http/server.ts", res.Redirect)
	})

	t.Run("ambiguous name shows results", func(t *testing.T) {
		res, err := svc.Lookup(ctx, "std.land", "parse")
		require.NoError(t, err)
		assert.Empty(t, res.Redirect)
		assert.Equal(t, "parse", res.Query)
		require.Len(t, res.Results, 4, "page results are capped")
		assert.Equal(t, "parse", res.Results[0].Item.Name)
		assert.Equal(t, "parse", res.Results[1].Item.Name)
	})

	t.Run("git host", func(t *testing.T) {
		res, err := svc.Lookup(ctx, "git.std.land", "serve")
		require.NoError(t, err)
		assert.Equal(t, types.DatasetGit, res.Dataset)
		assert.Equal(t, "https://github.com/denoland/deno_std/blob/main/http/server.ts#L640", res.Redirect)
	})

	t.Run("no match", func(t *testing.T) {
		res, err := svc.Lookup(ctx, "std.land", "qqqqqqqqqq")
		require.NoError(t, err)
		assert.Empty(t, res.Redirect)
		assert.Empty(t, res.Results)
	})
}

func TestResolve(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.Resolve(ctx, "", "serve")
	require.NoError(t, err)
	assert.Equal(t, types.DatasetStable, res.Dataset)
	assert.Equal(t, "https://deno.land/std/http/server.ts#L612", res.Redirect)

	res, err = svc.Resolve(ctx, types.DatasetGit, "serve")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/denoland/deno_std/blob/main/http/server.ts#L640", res.Redirect)

	_, err = svc.Resolve(ctx, "deno", "serve")
	assert.ErrorIs(t, err, catalog.ErrDatasetNotFound)
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(nil, Options{})
	assert.Equal(t, "git.", svc.opts.GitHostPrefix)
	assert.Equal(t, 4, svc.opts.PageResults)
	assert.Equal(t, DefaultMaxScore, svc.opts.MaxScore)
	assert.Equal(t, DefaultMinGap, svc.opts.MinGap)
	assert.Equal(t, types.DatasetGit, svc.DatasetForHost("git.example.com"))
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/stdland/internal/catalog"
	"github.com/dshills/stdland/internal/indexer"
	"github.com/dshills/stdland/pkg/types"
)

// run executes the command tree with args and returns stdout and stderr
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("STDLAND_CONFIG", "")
	t.Setenv("STDLAND_ADDR", "")
	t.Setenv("STDLAND_DB_PATH", "")

	cmd := NewRootCmd("1.2.3", "today")
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// stdTree lays out a tiny deno_std checkout
func stdTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "http/server.ts"), "export class Server {}\n\n\nexport function serve() {}\n")
	writeFile(t, filepath.Join(root, "async/delay.ts"), "export function delay(ms: number) {}\n")
	return root
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "stdland 1.2.3")
	assert.Contains(t, out, "Build Time: today")
	assert.Contains(t, out, "SQLite Driver:")
}

func TestHelp(t *testing.T) {
	out, _, err := run(t)
	require.NoError(t, err)
	for _, name := range []string{"serve", "mcp", "search", "find", "index", "import", "status"} {
		assert.Contains(t, out, name)
	}
}

func TestSearch(t *testing.T) {
	db := filepath.Join(t.TempDir(), "none.db")

	t.Run("redirect target", func(t *testing.T) {
		out, _, err := run(t, "--db", db, "search", "serve")
		require.NoError(t, err)
		assert.Equal(t, "https://deno.land/std/http/server.ts#L612\n", out)
	})

	t.Run("git dataset", func(t *testing.T) {
		out, _, err := run(t, "--db", db, "search", "--dataset", "git", "serve")
		require.NoError(t, err)
		assert.Equal(t, "https://github.com/denoland/deno_std/blob/main/http/server.ts#L640\n", out)
	})

	t.Run("ambiguous query lists results", func(t *testing.T) {
		out, _, err := run(t, "--db", db, "search", "parse")
		require.NoError(t, err)
		assert.Contains(t, out, "https://deno.land/std/datetime/mod.ts#L64")
		assert.Contains(t, out, "https://deno.land/std/flags/mod.ts#L280")
	})

	t.Run("all lists results for an exact match", func(t *testing.T) {
		out, _, err := run(t, "--db", db, "search", "--all", "--limit", "2", "serve")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		assert.Len(t, lines, 2)
		assert.Contains(t, lines[0], "serve")
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := run(t, "--db", db, "search", "--json", "--all", "--limit", "3", "delay")
		require.NoError(t, err)

		var results []types.SearchResult
		require.NoError(t, json.Unmarshal([]byte(out), &results))
		require.NotEmpty(t, results)
		assert.Equal(t, "delay", results[0].Item.Name)
	})

	t.Run("no results", func(t *testing.T) {
		out, _, err := run(t, "--db", db, "search", "qqqqqqqqqq")
		require.NoError(t, err)
		assert.Contains(t, out, "No results")
	})

	t.Run("invalid mode", func(t *testing.T) {
		_, _, err := run(t, "--db", db, "search", "--mode", "vector", "serve")
		assert.Error(t, err)
	})

	t.Run("unknown dataset", func(t *testing.T) {
		_, _, err := run(t, "--db", db, "search", "--dataset", "deno", "serve")
		assert.ErrorIs(t, err, catalog.ErrDatasetNotFound)
	})

	t.Run("requires a query", func(t *testing.T) {
		_, _, err := run(t, "--db", db, "search")
		assert.Error(t, err)
	})
}

func TestIndex_ToFile(t *testing.T) {
	root := stdTree(t)
	out := filepath.Join(t.TempDir(), "git.json")

	_, stderr, err := run(t, "index", "--dataset", "git", "--root", root, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stderr, "2 files indexed")

	symbols, err := catalog.LoadFile(out)
	require.NoError(t, err)
	require.Len(t, symbols, 5)
	assert.Equal(t, "delay.ts", symbols[0].Name)
	assert.Equal(t, "serve", symbols[4].Name)
	assert.Equal(t, 4, symbols[4].LineNumber)
}

func TestIndex_ToStdout(t *testing.T) {
	root := stdTree(t)

	out, _, err := run(t, "index", "--root", root, "--out", "-")
	require.NoError(t, err)

	symbols, err := catalog.LoadJSON(strings.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, symbols, 5)
}

func TestIndex_RequiresRoot(t *testing.T) {
	_, _, err := run(t, "index", "--out", "-")
	assert.Error(t, err)
}

func TestDatabaseWorkflow(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "stdland.db")
	root := stdTree(t)

	// Index the checkout as the git dataset
	_, stderr, err := run(t, "--db", db, "index", "--dataset", "git", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Saved")

	_, stderr, err = run(t, "--db", db, "index", "--dataset", "git", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, stderr, "up to date")

	// Import the embedded stable data
	symbols, err := catalog.Embedded("std")
	require.NoError(t, err)
	dataFile := filepath.Join(dir, "std.json")
	f, err := os.Create(dataFile)
	require.NoError(t, err)
	require.NoError(t, indexer.WriteJSON(f, symbols))
	require.NoError(t, f.Close())

	_, _, err = run(t, "--db", db, "import", "--dataset", "std", "--file", dataFile)
	require.NoError(t, err)

	// Status lists both stored datasets
	out, _, err := run(t, "--db", db, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Database")
	assert.Regexp(t, `git\s+index\s+5\s+2`, out)
	assert.Regexp(t, `std\s+import\s+`, out)

	// A config that serves git from the database finds the indexed line
	cfgPath := filepath.Join(dir, "config.yaml")
	writeFile(t, cfgPath, "datasets:\n  git:\n    source: sqlite\nstorage:\n  path: "+db+"\n")

	out, _, err = run(t, "--config", cfgPath, "search", "--dataset", "git", "serve")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/denoland/deno_std/blob/main/http/server.ts#L4\n", out)
}

func TestStatus_NoDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "missing", "stdland.db")

	out, _, err := run(t, "--db", db, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "std")
	assert.Contains(t, out, "git")
	assert.Contains(t, out, "No database")

	_, err = os.Stat(db)
	assert.True(t, os.IsNotExist(err), "status must not create the database")
}

func TestImport_MissingFile(t *testing.T) {
	db := filepath.Join(t.TempDir(), "stdland.db")
	_, _, err := run(t, "--db", db, "import", "--file", filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestFormatKinds(t *testing.T) {
	assert.Equal(t, "class=1 function=3", formatKinds(map[string]int{"function": 3, "class": 1}))
	assert.Equal(t, "", formatKinds(nil))
}

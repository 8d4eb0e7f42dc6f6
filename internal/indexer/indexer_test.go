package indexer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/stdland/internal/catalog"
	"github.com/dshills/stdland/internal/storage"
	"github.com/dshills/stdland/pkg/types"
)

// setupTestStorage creates an in-memory SQLite database for testing
func setupTestStorage(t testing.TB) storage.Storage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err, "Failed to create test storage")
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// createTestFile creates a temporary module file for testing
func createTestFile(t testing.TB, dir, name, content string) string {
	t.Helper()

	filePath := filepath.Join(dir, name)
	err := os.MkdirAll(filepath.Dir(filePath), 0755)
	require.NoError(t, err)

	err = os.WriteFile(filePath, []byte(content), 0644)
	require.NoError(t, err)

	return filePath
}

const serverSource = `// Copyright the Deno authors.
import { delay } from "../async/delay.ts";

export class Server {
  close() {}
}

export function serve(handler: Handler) {
  return new Server();
}
`

const delaySource = `export interface DelayOptions {
  signal?: AbortSignal;
}

export function delay(ms: number, options: DelayOptions = {}) {}
`

// createStdTree lays out a small std checkout
func createStdTree(t testing.TB) string {
	t.Helper()
	root := t.TempDir()

	createTestFile(t, root, "http/server.ts", serverSource)
	createTestFile(t, root, "async/delay.ts", delaySource)
	createTestFile(t, root, "http/server_test.ts", "export function testServe() {}\n")
	createTestFile(t, root, "http/_util.ts", "export function internalHelper() {}\n")
	createTestFile(t, root, "_tools/check.ts", "export function check() {}\n")
	createTestFile(t, root, ".github/setup.ts", "export function setup() {}\n")
	createTestFile(t, root, "node_modules/dep/index.js", "export function dep() {}\n")
	createTestFile(t, root, "README.md", "# std\n")

	return root
}

func TestNew(t *testing.T) {
	store := setupTestStorage(t)

	idx := New(store)

	assert.NotNil(t, idx)
	assert.NotNil(t, idx.parser)
	assert.NotNil(t, idx.storage)
	assert.Equal(t, runtime.NumCPU(), idx.workers)
}

func TestDiscoverFiles(t *testing.T) {
	root := createStdTree(t)
	idx := New(nil)

	t.Run("defaults", func(t *testing.T) {
		files, err := idx.discoverFiles(root, &Config{})
		require.NoError(t, err)

		assert.Equal(t, []string{
			filepath.Join(root, "async/delay.ts"),
			filepath.Join(root, "http/server.ts"),
		}, files)
	})

	t.Run("include tests", func(t *testing.T) {
		files, err := idx.discoverFiles(root, &Config{IncludeTests: true})
		require.NoError(t, err)
		assert.Contains(t, files, filepath.Join(root, "http/server_test.ts"))
		assert.Len(t, files, 3)
	})

	t.Run("include internal", func(t *testing.T) {
		files, err := idx.discoverFiles(root, &Config{IncludeInternal: true})
		require.NoError(t, err)
		assert.Contains(t, files, filepath.Join(root, "http/_util.ts"))
		assert.Contains(t, files, filepath.Join(root, "_tools/check.ts"))
		assert.NotContains(t, files, filepath.Join(root, ".github/setup.ts"))
		assert.NotContains(t, files, filepath.Join(root, "node_modules/dep/index.js"))
	})

	t.Run("empty directory", func(t *testing.T) {
		files, err := idx.discoverFiles(t.TempDir(), &Config{})
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := idx.discoverFiles(filepath.Join(t.TempDir(), "nope"), &Config{})
		assert.Error(t, err)
	})
}

func TestIsTestFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"server_test.ts", true},
		{"server.test.ts", true},
		{"server_bench.ts", true},
		{"server.ts", false},
		{"testing.ts", false},
		{"test.ts", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTestFile(tt.name))
		})
	}
}

func TestIndexDirectory_WithoutStorage(t *testing.T) {
	root := createStdTree(t)
	idx := New(nil)

	symbols, stats, err := idx.IndexDirectory(context.Background(), "git", root, &Config{Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesFailed)
	assert.Equal(t, 6, stats.SymbolsExtracted)
	assert.False(t, stats.Persisted)
	assert.Equal(t, catalog.Fingerprint(symbols), stats.Fingerprint)

	want := []types.Symbol{
		{Name: "delay.ts", Extension: "ts", Path: "async/delay.ts", Type: types.TypeFile},
		{Name: "DelayOptions", Extension: "ts", Path: "async/delay.ts", Type: types.TypeInterface, LineNumber: 1},
		{Name: "delay", Extension: "ts", Path: "async/delay.ts", Type: types.TypeFunction, LineNumber: 5},
		{Name: "server.ts", Extension: "ts", Path: "http/server.ts", Type: types.TypeFile},
		{Name: "Server", Extension: "ts", Path: "http/server.ts", Type: types.TypeClass, LineNumber: 4},
		{Name: "serve", Extension: "ts", Path: "http/server.ts", Type: types.TypeFunction, LineNumber: 8},
	}
	assert.Equal(t, want, symbols)
}

func TestIndexDirectory_OrderStableAcrossWorkers(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"a", "b", "c", "d", "e", "f"} {
		createTestFile(t, root, dir+"/mod.ts", "export const value = 1;\nexport function "+dir+"Fn() {}\n")
	}

	first, _, err := New(nil).IndexDirectory(context.Background(), "git", root, &Config{Workers: 1})
	require.NoError(t, err)
	second, _, err := New(nil).IndexDirectory(context.Background(), "git", root, &Config{Workers: 8})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 18)
}

func TestIndexDirectory_PersistsDataset(t *testing.T) {
	root := createStdTree(t)
	store := setupTestStorage(t)
	idx := New(store)
	ctx := context.Background()

	symbols, stats, err := idx.IndexDirectory(ctx, "git", root, nil)
	require.NoError(t, err)
	assert.True(t, stats.Persisted)
	assert.False(t, stats.Unchanged)

	ds, err := store.GetDataset(ctx, "git")
	require.NoError(t, err)
	assert.Equal(t, SourceIndex, ds.Source)
	assert.Equal(t, "https://github.com/denoland/deno_std/blob/main/", ds.BaseURL)
	assert.Equal(t, stats.Fingerprint, ds.Fingerprint)

	stored, err := store.ListSymbols(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, symbols, stored)

	t.Run("unchanged tree is not rewritten", func(t *testing.T) {
		_, again, err := idx.IndexDirectory(ctx, "git", root, nil)
		require.NoError(t, err)
		assert.True(t, again.Unchanged)
		assert.False(t, again.Persisted)
	})

	t.Run("changed tree replaces symbols", func(t *testing.T) {
		createTestFile(t, root, "async/abortable.ts", "export function abortable() {}\n")

		updated, again, err := idx.IndexDirectory(ctx, "git", root, nil)
		require.NoError(t, err)
		assert.True(t, again.Persisted)

		stored, err := store.ListSymbols(ctx, ds.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, stored)
		assert.Len(t, stored, 8)
	})

	t.Run("configured base URL", func(t *testing.T) {
		_, _, err := idx.IndexDirectory(ctx, "git", root, &Config{BaseURL: "https://example.com/std/"})
		require.NoError(t, err)

		ds, err := store.GetDataset(ctx, "git")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/std/", ds.BaseURL)
	})
}

func TestIndexDirectory_FailedFiles(t *testing.T) {
	root := t.TempDir()
	createTestFile(t, root, "ok.ts", "export function ok() {}\n")
	createTestFile(t, root, "broken.ts", "/* never closed\nexport function hidden() {}\n")

	symbols, stats, err := New(nil).IndexDirectory(context.Background(), "git", root, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 1, stats.FilesFailed)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "broken.ts")
	assert.Contains(t, stats.ErrorMessages[0], "unterminated block comment")
	assert.Len(t, symbols, 2)
}

func TestIndexDirectory_ContextCancelled(t *testing.T) {
	root := createStdTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New(nil).IndexDirectory(ctx, "git", root, &Config{Workers: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndexDirectory_ConcurrentRuns(t *testing.T) {
	idx := New(nil)
	require.True(t, idx.lock.TryAcquire())

	_, _, err := idx.IndexDirectory(context.Background(), "git", t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrIndexInProgress)

	idx.lock.Release()
	_, _, err = idx.IndexDirectory(context.Background(), "git", t.TempDir(), nil)
	assert.NoError(t, err)
}

func TestImportSymbols(t *testing.T) {
	ctx := context.Background()
	symbols, err := catalog.Embedded("std")
	require.NoError(t, err)

	t.Run("no storage", func(t *testing.T) {
		_, err := New(nil).ImportSymbols(ctx, "std", "", symbols)
		assert.ErrorIs(t, err, ErrNoStorage)
	})

	t.Run("imports dataset", func(t *testing.T) {
		store := setupTestStorage(t)
		idx := New(store)

		stats, err := idx.ImportSymbols(ctx, "std", "", symbols)
		require.NoError(t, err)
		assert.True(t, stats.Persisted)
		assert.Equal(t, len(symbols), stats.SymbolsExtracted)

		ds, err := store.GetDataset(ctx, "std")
		require.NoError(t, err)
		assert.Equal(t, SourceImport, ds.Source)
		assert.Equal(t, "https://deno.land/std/", ds.BaseURL)

		stored, err := store.ListSymbols(ctx, ds.ID)
		require.NoError(t, err)
		assert.Equal(t, symbols, stored)

		again, err := idx.ImportSymbols(ctx, "std", "", symbols)
		require.NoError(t, err)
		assert.True(t, again.Unchanged)
	})

	t.Run("invalid symbol", func(t *testing.T) {
		store := setupTestStorage(t)
		bad := []types.Symbol{{Name: "", Extension: "ts", Path: "x.ts", Type: types.TypeFile}}

		_, err := New(store).ImportSymbols(ctx, "std", "", bad)
		assert.Error(t, err)

		_, err = store.GetDataset(ctx, "std")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestWriteJSON(t *testing.T) {
	symbols := []types.Symbol{
		{Name: "serve", Extension: "ts", Path: "http/server.ts", Type: types.TypeFunction, LineNumber: 612},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, symbols))

	loaded, err := catalog.LoadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, symbols, loaded)

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestIndexLock(t *testing.T) {
	var lock IndexLock

	assert.True(t, lock.TryAcquire())
	assert.True(t, lock.Held())
	assert.False(t, lock.TryAcquire())

	lock.Release()
	assert.False(t, lock.Held())

	var wg sync.WaitGroup
	var acquired sync.Map
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if lock.TryAcquire() {
				acquired.Store(n, true)
			}
		}(i)
	}
	wg.Wait()

	count := 0
	acquired.Range(func(_, _ any) bool {
		count++
		return true
	})
	assert.Equal(t, 1, count)
}

// Package storage provides SQLite-based persistence for symbol datasets.
//
// A dataset is a named symbol index ("std", "git", or any custom name)
// produced by the indexer or imported from a JSON data file. Servers
// configured with a sqlite dataset source read their symbols from here.
//
// # Database Schema
//
// Tables:
//   - schema_version: Applied migrations (semver)
//   - datasets: Dataset metadata (name, base URL, fingerprint)
//   - symbols: Symbols per dataset, kept in insertion order
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("~/.stdland/stdland.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	ds, err := store.GetDataset(ctx, "std")
//	symbols, err := store.ListSymbols(ctx, ds.ID)
//
// # Transactions
//
// ReplaceDataset swaps a dataset's contents atomically:
//
//	ds := &storage.Dataset{Name: "git", BaseURL: baseURL, Source: "index"}
//	if err := storage.ReplaceDataset(ctx, store, ds, symbols); err != nil {
//	    return err
//	}
//
// Lower level operations are available on the Tx returned by BeginTx.
//
// # Build Tags
//
// Pure Go build (default, or the purego tag):
//
//   - Uses modernc.org/sqlite
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build ./...
//
// CGO build (sqlite_cgo tag):
//
//   - Uses github.com/mattn/go-sqlite3
//
//     CGO_ENABLED=1 go build -tags sqlite_cgo ./...
package storage

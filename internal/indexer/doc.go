// Package indexer builds symbol datasets from a Deno standard library
// checkout.
//
// # Basic Usage
//
//	idx := indexer.New(store)
//
//	symbols, stats, err := idx.IndexDirectory(ctx, "git", "/src/deno_std", &indexer.Config{
//	    Workers: 8,
//	})
//
//	fmt.Printf("Indexed %d files (%d symbols) in %v\n",
//	    stats.FilesIndexed, stats.SymbolsExtracted, stats.Duration)
//
// # Pipeline
//
//  1. Discovery: find .ts/.tsx/.js/.mjs modules, skipping hidden
//     directories, node_modules, testdata, _-prefixed internals and test files
//  2. Parse: extract exports concurrently (errgroup + semaphore)
//  3. Flatten: files in path order, each file's items in source order
//  4. Store: replace the dataset in one transaction
//
// A dataset whose fingerprint matches the stored one is not rewritten;
// Statistics.Unchanged reports that case.
//
// # Importing
//
// Published data files can be loaded into the store without a checkout:
//
//	symbols, _ := catalog.LoadFile("deno-data.stable.json")
//	stats, err := idx.ImportSymbols(ctx, "std", "", symbols)
//
// WriteJSON produces the same data file format.
package indexer

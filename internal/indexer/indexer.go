package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/stdland/internal/catalog"
	"github.com/dshills/stdland/internal/config"
	"github.com/dshills/stdland/internal/parser"
	"github.com/dshills/stdland/internal/storage"
	"github.com/dshills/stdland/pkg/types"
)

// Dataset sources recorded in storage
const (
	SourceIndex  = "index"
	SourceImport = "import"
)

var (
	// ErrIndexInProgress is returned when the indexer is already running
	ErrIndexInProgress = errors.New("indexing already in progress")
	// ErrNoStorage is returned when persisting without a store
	ErrNoStorage = errors.New("no storage configured")
)

// Indexer coordinates the indexing pipeline: discover -> parse -> store
type Indexer struct {
	parser  *parser.Parser
	storage storage.Storage
	lock    IndexLock

	// Worker pool configuration
	workers int
}

// Config contains configuration for the indexer
type Config struct {
	Workers         int    // Number of concurrent workers (default: runtime.NumCPU())
	IncludeTests    bool   // Whether to index test files (default: false)
	IncludeInternal bool   // Whether to index _-prefixed files and directories (default: false)
	BaseURL         string // Recorded with the dataset (default: the well-known base URL)
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	Dataset          string
	FilesIndexed     int
	FilesFailed      int
	SymbolsExtracted int
	Fingerprint      string
	Unchanged        bool // The stored dataset already had these symbols
	Persisted        bool
	Duration         time.Duration
	ErrorMessages    []string
}

// New creates a new Indexer instance. store may be nil, in which case
// symbols are extracted but not persisted.
func New(store storage.Storage) *Indexer {
	return &Indexer{
		parser:  parser.New(),
		storage: store,
		workers: runtime.NumCPU(),
	}
}

// IndexDirectory extracts the symbols of every module under rootPath and,
// when a store is configured, saves them as dataset. Symbols are returned
// in path order with each file's items in source order.
func (idx *Indexer) IndexDirectory(ctx context.Context, dataset, rootPath string, cfg *Config) ([]types.Symbol, *Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, nil, ErrIndexInProgress
	}
	defer idx.lock.Release()

	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	idx.workers = cfg.Workers

	startTime := time.Now()
	stats := &Statistics{
		Dataset:       dataset,
		ErrorMessages: make([]string, 0),
	}

	files, err := idx.discoverFiles(rootPath, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to discover files: %w", err)
	}

	symbols, err := idx.parseFiles(ctx, rootPath, files, stats)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to index files: %w", err)
	}
	stats.SymbolsExtracted = len(symbols)
	stats.Fingerprint = catalog.Fingerprint(symbols)

	if idx.storage != nil {
		if err := idx.persist(ctx, dataset, baseURL(dataset, cfg.BaseURL), SourceIndex, symbols, stats); err != nil {
			return nil, nil, err
		}
	}

	stats.Duration = time.Since(startTime)
	return symbols, stats, nil
}

// ImportSymbols validates symbols and saves them as dataset
func (idx *Indexer) ImportSymbols(ctx context.Context, dataset, url string, symbols []types.Symbol) (*Statistics, error) {
	if idx.storage == nil {
		return nil, ErrNoStorage
	}
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexInProgress
	}
	defer idx.lock.Release()

	startTime := time.Now()
	for i := range symbols {
		if err := symbols[i].Validate(); err != nil {
			return nil, fmt.Errorf("symbol %d: %w", i, err)
		}
	}

	stats := &Statistics{
		Dataset:          dataset,
		SymbolsExtracted: len(symbols),
		Fingerprint:      catalog.Fingerprint(symbols),
		ErrorMessages:    make([]string, 0),
	}

	if err := idx.persist(ctx, dataset, baseURL(dataset, url), SourceImport, symbols, stats); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

// WriteJSON writes symbols in the data file format
func WriteJSON(w io.Writer, symbols []types.Symbol) error {
	if symbols == nil {
		symbols = []types.Symbol{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(symbols)
}

// persist stores symbols unless the stored dataset has the same fingerprint
func (idx *Indexer) persist(ctx context.Context, dataset, url, source string, symbols []types.Symbol, stats *Statistics) error {
	existing, err := idx.storage.GetDataset(ctx, dataset)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to read dataset: %w", err)
	}
	if err == nil && existing.Fingerprint == stats.Fingerprint && existing.BaseURL == url {
		stats.Unchanged = true
		return nil
	}

	ds := &storage.Dataset{
		Name:        dataset,
		BaseURL:     url,
		Source:      source,
		Fingerprint: stats.Fingerprint,
	}
	if err := storage.ReplaceDataset(ctx, idx.storage, ds, symbols); err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}
	stats.Persisted = true
	return nil
}

func baseURL(dataset, configured string) string {
	if configured != "" {
		return configured
	}
	return config.DefaultBaseURLs[dataset]
}

// discoverFiles finds all module sources under rootPath, sorted by path
func (idx *Indexer) discoverFiles(rootPath string, cfg *Config) ([]string, error) {
	var files []string

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()
		if d.IsDir() {
			if path == rootPath {
				return nil
			}
			if strings.HasPrefix(name, ".") || name == "node_modules" || name == "testdata" {
				return filepath.SkipDir
			}
			if !cfg.IncludeInternal && strings.HasPrefix(name, "_") {
				return filepath.SkipDir
			}
			return nil
		}

		if !parser.Supported(name) {
			return nil
		}
		if !cfg.IncludeInternal && strings.HasPrefix(name, "_") {
			return nil
		}
		if !cfg.IncludeTests && isTestFile(name) {
			return nil
		}

		files = append(files, path)
		return nil
	})

	sort.Strings(files)
	return files, err
}

// isTestFile reports whether name is a test or benchmark module
func isTestFile(name string) bool {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.HasSuffix(base, "_test") || strings.HasSuffix(base, ".test") ||
		strings.HasSuffix(base, "_bench") || strings.HasSuffix(base, ".bench")
}

// parseFiles parses files concurrently and flattens the results in file order
func (idx *Indexer) parseFiles(ctx context.Context, rootPath string, files []string, stats *Statistics) ([]types.Symbol, error) {
	// Create worker pool with semaphore
	semaphore := make(chan struct{}, idx.workers)

	// Track progress with atomic counters
	var indexed, failed int32
	var mu sync.Mutex // Protect stats.ErrorMessages

	perFile := make([][]types.Symbol, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, filePath := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			symbols, err := idx.parseFile(rootPath, filePath)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", filePath, err))
				mu.Unlock()
				// Continue with other files
				return nil
			}

			perFile[i] = symbols
			atomic.AddInt32(&indexed, 1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.FilesIndexed = int(indexed)
	stats.FilesFailed = int(failed)
	sort.Strings(stats.ErrorMessages)

	symbols := make([]types.Symbol, 0)
	for _, fileSymbols := range perFile {
		symbols = append(symbols, fileSymbols...)
	}
	return symbols, nil
}

// parseFile parses a single file; non-fatal parse problems fail the file
// only when nothing could be extracted beyond the file item
func (idx *Indexer) parseFile(rootPath, filePath string) ([]types.Symbol, error) {
	relPath, err := filepath.Rel(rootPath, filePath)
	if err != nil {
		return nil, err
	}
	relPath = filepath.ToSlash(relPath)

	result, err := idx.parser.ParseFile(filePath, relPath)
	if err != nil {
		return nil, err
	}

	if result.HasErrors() && len(result.Symbols) <= 1 {
		first := result.Errors[0]
		return nil, fmt.Errorf("line %d: %s", first.Line, first.Message)
	}

	return result.Symbols, nil
}

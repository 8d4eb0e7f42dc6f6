package catalog

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/dshills/stdland/internal/config"
	"github.com/dshills/stdland/internal/storage"
	"github.com/dshills/stdland/pkg/types"
)

var (
	// ErrDatasetNotFound is returned when a dataset name is not registered
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrNoStorage is returned when a sqlite dataset is configured without a store
	ErrNoStorage = errors.New("dataset requires storage but none is configured")
)

//go:embed data/*.json
var embedded embed.FS

// Dataset is a loaded, immutable symbol list together with the site its
// items link to
type Dataset struct {
	Name        string
	BaseURL     string
	Source      string
	Symbols     []types.Symbol
	Fingerprint string
	LoadedAt    time.Time
}

// NewDataset builds a dataset and computes its fingerprint
func NewDataset(name, baseURL, source string, symbols []types.Symbol) *Dataset {
	return &Dataset{
		Name:        name,
		BaseURL:     baseURL,
		Source:      source,
		Symbols:     symbols,
		Fingerprint: Fingerprint(symbols),
		LoadedAt:    time.Now(),
	}
}

// URLFor returns the destination of sym: the base URL joined with its path,
// plus a line anchor when the line is known
func (d *Dataset) URLFor(sym types.Symbol) string {
	url := d.BaseURL + sym.Path
	if sym.LineNumber > 0 {
		url += "#L" + strconv.Itoa(sym.LineNumber)
	}
	return url
}

// Len returns the number of symbols
func (d *Dataset) Len() int {
	return len(d.Symbols)
}

// Fingerprint returns a hex SHA-256 over the symbols in order. Two lists
// with the same fingerprint rank identically.
func Fingerprint(symbols []types.Symbol) string {
	h := sha256.New()
	for i := range symbols {
		_, _ = io.WriteString(h, symbols[i].Key())
		_, _ = h.Write([]byte{0})
		_, _ = io.WriteString(h, symbols[i].Extension)
		_, _ = h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LoadJSON decodes a data file: a JSON array of symbols. Every symbol is
// validated.
func LoadJSON(r io.Reader) ([]types.Symbol, error) {
	var symbols []types.Symbol
	if err := json.NewDecoder(r).Decode(&symbols); err != nil {
		return nil, fmt.Errorf("failed to decode symbols: %w", err)
	}

	for i := range symbols {
		if err := symbols[i].Validate(); err != nil {
			return nil, fmt.Errorf("symbol %d: %w", i, err)
		}
	}

	return symbols, nil
}

// LoadFile reads a data file from disk
func LoadFile(path string) ([]types.Symbol, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer func() { _ = f.Close() }()

	symbols, err := LoadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return symbols, nil
}

// Embedded returns the snapshot of a well-known dataset compiled into the
// binary
func Embedded(name string) ([]types.Symbol, error) {
	f, err := embedded.Open("data/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: no embedded data for %q", ErrDatasetNotFound, name)
	}
	defer func() { _ = f.Close() }()

	return LoadJSON(f)
}

// Catalog is a concurrency-safe registry of datasets
type Catalog struct {
	mu          sync.RWMutex
	datasets    map[string]*Dataset
	defaultName string
}

// New creates an empty catalog whose default dataset is "std"
func New() *Catalog {
	return &Catalog{
		datasets:    make(map[string]*Dataset),
		defaultName: types.DatasetStable,
	}
}

// Put registers or replaces a dataset
func (c *Catalog) Put(ds *Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.datasets[ds.Name] = ds
}

// Get returns the named dataset
func (c *Catalog) Get(name string) (*Dataset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ds, ok := c.datasets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, name)
	}
	return ds, nil
}

// Names returns the registered dataset names, sorted
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.datasets))
	for name := range c.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the name used when a request does not pick a dataset
func (c *Catalog) Default() string {
	return c.defaultName
}

// LoadFromConfig loads every configured dataset from its source and
// registers it. store may be nil when no dataset uses the sqlite source.
func (c *Catalog) LoadFromConfig(ctx context.Context, cfg *config.Config, store storage.Storage) error {
	names := make([]string, 0, len(cfg.Datasets))
	for name := range cfg.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		dc := cfg.Datasets[name]
		symbols, baseURL, err := loadSymbols(ctx, name, dc, store)
		if err != nil {
			return fmt.Errorf("failed to load dataset %q: %w", name, err)
		}

		c.Put(NewDataset(name, baseURL, dc.Source, symbols))
	}

	return nil
}

// loadSymbols returns the dataset's symbols and the base URL its links use.
// A configured base URL wins; sqlite datasets fall back to the stored one.
func loadSymbols(ctx context.Context, name string, dc config.DatasetConfig, store storage.Storage) ([]types.Symbol, string, error) {
	switch dc.Source {
	case config.SourceEmbedded:
		symbols, err := Embedded(name)
		return symbols, dc.BaseURL, err
	case config.SourceFile:
		symbols, err := LoadFile(dc.Path)
		return symbols, dc.BaseURL, err
	case config.SourceSQLite:
		if store == nil {
			return nil, "", ErrNoStorage
		}
		ds, err := store.GetDataset(ctx, name)
		if err != nil {
			return nil, "", err
		}
		symbols, err := store.ListSymbols(ctx, ds.ID)
		if err != nil {
			return nil, "", err
		}
		baseURL := dc.BaseURL
		if baseURL == "" {
			baseURL = ds.BaseURL
		}
		if baseURL == "" {
			baseURL = config.DefaultBaseURLs[name]
		}
		return symbols, baseURL, nil
	default:
		return nil, "", fmt.Errorf("unknown source %q", dc.Source)
	}
}

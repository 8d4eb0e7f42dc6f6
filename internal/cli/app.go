package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/stdland/internal/catalog"
	"github.com/dshills/stdland/internal/config"
	"github.com/dshills/stdland/internal/lookup"
	"github.com/dshills/stdland/internal/searcher"
	"github.com/dshills/stdland/internal/storage"
)

// app holds the services a command runs against
type app struct {
	cfg      *config.Config
	store    storage.Storage // nil unless a dataset or the command needs it
	catalog  *catalog.Catalog
	searcher *searcher.Searcher
	lookup   *lookup.Service
}

// loadConfig reads the config file and applies the --db override
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.Storage.Path = o.dbPath
	}
	return cfg, nil
}

// storeMode says when a command opens the database
type storeMode int

const (
	storeIfConfigured storeMode = iota // Only when a dataset is loaded from it
	storeIfExists                      // Also when the database file already exists
	storeRequired                      // Always, creating it if needed
)

// openStorage opens the SQLite database at the configured path
func openStorage(cfg *config.Config) (storage.Storage, error) {
	path, err := config.ExpandPath(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

func databaseExists(cfg *config.Config) bool {
	path, err := config.ExpandPath(cfg.Storage.Path)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// newApp loads the datasets and builds the search services
func (o *rootOptions) newApp(ctx context.Context, mode storeMode) (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	needStore := cfg.UsesStorage() ||
		mode == storeRequired ||
		(mode == storeIfExists && databaseExists(cfg))
	if needStore {
		if a.store, err = openStorage(cfg); err != nil {
			return nil, err
		}
	}

	a.catalog = catalog.New()
	if err := a.catalog.LoadFromConfig(ctx, cfg, a.store); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to load datasets: %w", err)
	}

	a.searcher = searcher.NewSearcher(a.catalog, searcher.Options{
		Threshold: cfg.Search.Threshold,
		CacheSize: cfg.Search.CacheSize,
	})
	a.lookup = lookup.NewService(a.searcher, lookup.Options{
		GitHostPrefix: cfg.Server.GitHostPrefix,
		PageResults:   cfg.Search.PageResults,
		MaxScore:      cfg.Search.RedirectMaxScore,
		MinGap:        cfg.Search.RedirectMinGap,
		UseCache:      true,
	})

	return a, nil
}

// Close releases the searcher and the database
func (a *app) Close() error {
	var errs []error
	if a.searcher != nil {
		errs = append(errs, a.searcher.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

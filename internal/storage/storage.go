package storage

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/stdland/pkg/types"
)

// Storage defines the interface for persisting symbol datasets
type Storage interface {
	// Dataset operations
	CreateDataset(ctx context.Context, dataset *Dataset) error
	GetDataset(ctx context.Context, name string) (*Dataset, error)
	ListDatasets(ctx context.Context) ([]*Dataset, error)
	UpdateDataset(ctx context.Context, dataset *Dataset) error
	DeleteDataset(ctx context.Context, datasetID int64) error

	// Symbol operations
	InsertSymbols(ctx context.Context, datasetID int64, symbols []types.Symbol) error
	ListSymbols(ctx context.Context, datasetID int64) ([]types.Symbol, error)
	DeleteSymbolsByDataset(ctx context.Context, datasetID int64) error

	// Status operations
	GetStatus(ctx context.Context, datasetID int64) (*DatasetStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Dataset is a named, persisted symbol index (e.g. "std" or "git")
type Dataset struct {
	ID            int64
	Name          string
	BaseURL       string
	Source        string // Where the symbols came from: "index" or "import"
	Fingerprint   string // Hex SHA-256 over the symbol list
	SymbolCount   int
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DatasetStatus contains statistics about a stored dataset
type DatasetStatus struct {
	Dataset       *Dataset
	SymbolsCount  int
	FilesCount    int            // Distinct source paths
	KindCounts    map[string]int // Symbols per item type
	IndexSizeMB   float64
	LastIndexedAt time.Time
	Health        HealthStatus
}

// HealthStatus represents the health of the store
type HealthStatus struct {
	DatabaseAccessible bool
	SymbolsAvailable   bool
}

// ReplaceDataset creates or updates dataset and replaces its symbols in a
// single transaction. dataset.ID and timestamps are set on success.
func ReplaceDataset(ctx context.Context, store Storage, dataset *Dataset, symbols []types.Symbol) (err error) {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	dataset.SymbolCount = len(symbols)
	if dataset.LastIndexedAt.IsZero() {
		dataset.LastIndexedAt = time.Now()
	}

	existing, getErr := tx.GetDataset(ctx, dataset.Name)
	switch {
	case getErr == nil:
		dataset.ID = existing.ID
		dataset.CreatedAt = existing.CreatedAt
		if err = tx.UpdateDataset(ctx, dataset); err != nil {
			return err
		}
		if err = tx.DeleteSymbolsByDataset(ctx, dataset.ID); err != nil {
			return err
		}
	case errors.Is(getErr, ErrNotFound):
		if err = tx.CreateDataset(ctx, dataset); err != nil {
			return err
		}
	default:
		return getErr
	}

	if err = tx.InsertSymbols(ctx, dataset.ID, symbols); err != nil {
		return err
	}

	return tx.Commit()
}

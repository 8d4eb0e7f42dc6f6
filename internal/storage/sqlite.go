package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/stdland/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// insertBatchSize bounds the number of rows per multi-value INSERT
const insertBatchSize = 200

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer; this also keeps :memory: databases
	// on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Dataset operations

const datasetColumns = `id, name, base_url, source, fingerprint, symbol_count,
		       last_indexed_at, created_at, updated_at`

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDataset(row rowScanner) (*Dataset, error) {
	var dataset Dataset
	var lastIndexedAt sql.NullTime
	err := row.Scan(
		&dataset.ID, &dataset.Name, &dataset.BaseURL, &dataset.Source,
		&dataset.Fingerprint, &dataset.SymbolCount, &lastIndexedAt,
		&dataset.CreatedAt, &dataset.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastIndexedAt.Valid {
		dataset.LastIndexedAt = lastIndexedAt.Time
	}
	return &dataset, nil
}

// createDatasetWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createDatasetWithQuerier(ctx context.Context, q querier, dataset *Dataset) error {
	query := `
		INSERT INTO datasets (name, base_url, source, fingerprint, symbol_count, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	var lastIndexedAt interface{}
	if !dataset.LastIndexedAt.IsZero() {
		lastIndexedAt = dataset.LastIndexedAt
	}
	result, err := q.ExecContext(ctx, query,
		dataset.Name, dataset.BaseURL, dataset.Source, dataset.Fingerprint,
		dataset.SymbolCount, lastIndexedAt, now, now)
	if isUniqueViolation(err) {
		return fmt.Errorf("dataset %q: %w", dataset.Name, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	dataset.ID = id
	dataset.CreatedAt = now
	dataset.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateDataset(ctx context.Context, dataset *Dataset) error {
	return s.createDatasetWithQuerier(ctx, s.querier(), dataset)
}

// getDatasetWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getDatasetWithQuerier(ctx context.Context, q querier, name string) (*Dataset, error) {
	query := `SELECT ` + datasetColumns + ` FROM datasets WHERE name = ?`
	dataset, err := scanDataset(q.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return dataset, nil
}

func (s *SQLiteStorage) GetDataset(ctx context.Context, name string) (*Dataset, error) {
	return s.getDatasetWithQuerier(ctx, s.querier(), name)
}

// getDatasetByIDWithQuerier retrieves a dataset by ID
func (s *SQLiteStorage) getDatasetByIDWithQuerier(ctx context.Context, q querier, datasetID int64) (*Dataset, error) {
	query := `SELECT ` + datasetColumns + ` FROM datasets WHERE id = ?`
	dataset, err := scanDataset(q.QueryRowContext(ctx, query, datasetID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return dataset, nil
}

// listDatasetsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listDatasetsWithQuerier(ctx context.Context, q querier) ([]*Dataset, error) {
	query := `SELECT ` + datasetColumns + ` FROM datasets ORDER BY name`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	datasets := make([]*Dataset, 0)
	for rows.Next() {
		dataset, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, dataset)
	}
	return datasets, rows.Err()
}

func (s *SQLiteStorage) ListDatasets(ctx context.Context) ([]*Dataset, error) {
	return s.listDatasetsWithQuerier(ctx, s.querier())
}

// updateDatasetWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) updateDatasetWithQuerier(ctx context.Context, q querier, dataset *Dataset) error {
	query := `
		UPDATE datasets
		SET base_url = ?, source = ?, fingerprint = ?, symbol_count = ?,
		    last_indexed_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		dataset.BaseURL, dataset.Source, dataset.Fingerprint, dataset.SymbolCount,
		dataset.LastIndexedAt, now, dataset.ID)
	if err != nil {
		return fmt.Errorf("failed to update dataset: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	dataset.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateDataset(ctx context.Context, dataset *Dataset) error {
	return s.updateDatasetWithQuerier(ctx, s.querier(), dataset)
}

// deleteDatasetWithQuerier removes a dataset; its symbols cascade
func (s *SQLiteStorage) deleteDatasetWithQuerier(ctx context.Context, q querier, datasetID int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, datasetID)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteDataset(ctx context.Context, datasetID int64) error {
	return s.deleteDatasetWithQuerier(ctx, s.querier(), datasetID)
}

// Symbol operations

// insertSymbolsWithQuerier appends symbols after the dataset's existing ones,
// batching rows into multi-value INSERT statements
func (s *SQLiteStorage) insertSymbolsWithQuerier(ctx context.Context, q querier, datasetID int64, symbols []types.Symbol) error {
	if len(symbols) == 0 {
		return nil
	}

	var next int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM symbols WHERE dataset_id = ?`, datasetID).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to read symbol position: %w", err)
	}

	for start := 0; start < len(symbols); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		batch := symbols[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO symbols (dataset_id, name, extension, path, kind, line_number, position) VALUES `)
		args := make([]interface{}, 0, len(batch)*7)
		for i, sym := range batch {
			if err := sym.Validate(); err != nil {
				return fmt.Errorf("symbol %d: %w", start+i, err)
			}
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, datasetID, sym.Name, sym.Extension, sym.Path,
				string(sym.Type), sym.LineNumber, next)
			next++
		}

		if _, err := q.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("failed to insert symbols: %w", err)
		}
	}

	return nil
}

func (s *SQLiteStorage) InsertSymbols(ctx context.Context, datasetID int64, symbols []types.Symbol) error {
	return s.insertSymbolsWithQuerier(ctx, s.querier(), datasetID, symbols)
}

// listSymbolsWithQuerier returns a dataset's symbols in insertion order
func (s *SQLiteStorage) listSymbolsWithQuerier(ctx context.Context, q querier, datasetID int64) ([]types.Symbol, error) {
	query := `
		SELECT name, extension, path, kind, line_number
		FROM symbols
		WHERE dataset_id = ?
		ORDER BY position
	`
	rows, err := q.QueryContext(ctx, query, datasetID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	symbols := make([]types.Symbol, 0)
	for rows.Next() {
		var sym types.Symbol
		var kind string
		if err := rows.Scan(&sym.Name, &sym.Extension, &sym.Path, &kind, &sym.LineNumber); err != nil {
			return nil, err
		}
		sym.Type = types.ItemType(kind)
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

func (s *SQLiteStorage) ListSymbols(ctx context.Context, datasetID int64) ([]types.Symbol, error) {
	return s.listSymbolsWithQuerier(ctx, s.querier(), datasetID)
}

func (s *SQLiteStorage) deleteSymbolsByDatasetWithQuerier(ctx context.Context, q querier, datasetID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM symbols WHERE dataset_id = ?`, datasetID)
	return err
}

func (s *SQLiteStorage) DeleteSymbolsByDataset(ctx context.Context, datasetID int64) error {
	return s.deleteSymbolsByDatasetWithQuerier(ctx, s.querier(), datasetID)
}

// Status operations

// getStatusWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier, datasetID int64) (*DatasetStatus, error) {
	dataset, err := s.getDatasetByIDWithQuerier(ctx, q, datasetID)
	if err != nil {
		return nil, err
	}

	status := &DatasetStatus{
		Dataset:       dataset,
		LastIndexedAt: dataset.LastIndexedAt,
		KindCounts:    make(map[string]int),
	}

	err = q.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT path) FROM symbols WHERE dataset_id = ?", datasetID,
	).Scan(&status.SymbolsCount, &status.FilesCount)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx,
		"SELECT kind, COUNT(*) FROM symbols WHERE dataset_id = ? GROUP BY kind", datasetID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		status.KindCounts[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Calculate database size
	var pageCount, pageSize int
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	status.Health = HealthStatus{
		DatabaseAccessible: true,
		SymbolsAvailable:   status.SymbolsCount > 0,
	}

	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context, datasetID int64) (*DatasetStatus, error) {
	return s.getStatusWithQuerier(ctx, s.querier(), datasetID)
}

// Transaction operations

func (t *sqliteTx) CreateDataset(ctx context.Context, dataset *Dataset) error {
	return t.storage.createDatasetWithQuerier(ctx, t.querier(), dataset)
}

func (t *sqliteTx) GetDataset(ctx context.Context, name string) (*Dataset, error) {
	return t.storage.getDatasetWithQuerier(ctx, t.querier(), name)
}

func (t *sqliteTx) ListDatasets(ctx context.Context) ([]*Dataset, error) {
	return t.storage.listDatasetsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) UpdateDataset(ctx context.Context, dataset *Dataset) error {
	return t.storage.updateDatasetWithQuerier(ctx, t.querier(), dataset)
}

func (t *sqliteTx) DeleteDataset(ctx context.Context, datasetID int64) error {
	return t.storage.deleteDatasetWithQuerier(ctx, t.querier(), datasetID)
}

func (t *sqliteTx) InsertSymbols(ctx context.Context, datasetID int64, symbols []types.Symbol) error {
	return t.storage.insertSymbolsWithQuerier(ctx, t.querier(), datasetID, symbols)
}

func (t *sqliteTx) ListSymbols(ctx context.Context, datasetID int64) ([]types.Symbol, error) {
	return t.storage.listSymbolsWithQuerier(ctx, t.querier(), datasetID)
}

func (t *sqliteTx) DeleteSymbolsByDataset(ctx context.Context, datasetID int64) error {
	return t.storage.deleteSymbolsByDatasetWithQuerier(ctx, t.querier(), datasetID)
}

func (t *sqliteTx) GetStatus(ctx context.Context, datasetID int64) (*DatasetStatus, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier(), datasetID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}

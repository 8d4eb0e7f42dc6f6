package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/stdland/internal/catalog"
	"github.com/dshills/stdland/internal/searcher"
	"github.com/dshills/stdland/internal/storage"
	"github.com/dshills/stdland/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyQuery      = -32004 // Query parameter is empty
	ErrorCodeDatasetNotFound = -32005 // Dataset is not loaded
)

// handleSearchSymbols handles the search_symbols tool invocation
func (s *Server) handleSearchSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, err := requireQuery(args)
	if err != nil {
		return nil, err
	}
	dataset := getStringDefault(args, "dataset", types.DatasetStable)

	limit := getIntDefault(args, "limit", searcher.DefaultLimit)
	if limit < 1 || limit > searcher.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	modeName := getStringDefault(args, "search_mode", string(searcher.SearchModeFuzzy))
	mode, err := searcher.ParseMode(modeName)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid search_mode", map[string]interface{}{
			"param":   "search_mode",
			"value":   modeName,
			"allowed": searchModes,
		})
	}

	resp, err := s.searcher.Search(ctx, searcher.SearchRequest{
		Query:    query,
		Dataset:  dataset,
		Limit:    limit,
		Mode:     mode,
		UseCache: true,
	})
	if err != nil {
		return nil, searchError(dataset, err)
	}

	response := map[string]interface{}{
		"query":         query,
		"dataset":       resp.Dataset,
		"search_mode":   string(resp.SearchMode),
		"total_results": resp.TotalResults,
		"duration_ms":   resp.Duration.Milliseconds(),
		"cache_hit":     resp.CacheHit,
		"results":       formatResults(resp.Results),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleResolveSymbol handles the resolve_symbol tool invocation
func (s *Server) handleResolveSymbol(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, err := requireQuery(args)
	if err != nil {
		return nil, err
	}
	dataset := getStringDefault(args, "dataset", types.DatasetStable)

	res, err := s.lookup.Resolve(ctx, dataset, query)
	if err != nil {
		return nil, searchError(dataset, err)
	}

	response := map[string]interface{}{
		"query":    res.Query,
		"dataset":  res.Dataset,
		"resolved": res.Redirect != "",
	}
	if res.Redirect != "" {
		response["url"] = res.Redirect
	} else {
		response["candidates"] = formatResults(res.Results)
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	cat := s.searcher.Catalog()
	names := cat.Names()
	if name := getStringDefault(args, "dataset", ""); name != "" {
		names = []string{name}
	}

	datasets := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		ds, err := cat.Get(name)
		if err != nil {
			return nil, searchError(name, err)
		}

		entry := datasetSummary(ds)
		if s.storage != nil {
			stored, err := storedStatus(ctx, s.storage, name)
			if err != nil {
				return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
					"error": err.Error(),
				})
			}
			if stored != nil {
				entry["storage"] = stored
			}
		}
		datasets = append(datasets, entry)
	}

	response := map[string]interface{}{
		"default_dataset": cat.Default(),
		"datasets":        datasets,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// datasetSummary describes a loaded dataset
func datasetSummary(ds *catalog.Dataset) map[string]interface{} {
	kinds := make(map[string]int)
	files := 0
	for _, sym := range ds.Symbols {
		kinds[string(sym.Type)]++
		if sym.Type == types.TypeFile {
			files++
		}
	}

	return map[string]interface{}{
		"name":          ds.Name,
		"source":        ds.Source,
		"base_url":      ds.BaseURL,
		"fingerprint":   ds.Fingerprint,
		"loaded_at":     ds.LoadedAt.Format(time.RFC3339),
		"symbols_count": ds.Len(),
		"files_count":   files,
		"kind_counts":   kinds,
	}
}

// storedStatus reports what the database holds for name, or nil when the
// dataset was never indexed or imported
func storedStatus(ctx context.Context, store storage.Storage, name string) (map[string]interface{}, error) {
	ds, err := store.GetDataset(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	status, err := store.GetStatus(ctx, ds.ID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"source":          ds.Source,
		"fingerprint":     ds.Fingerprint,
		"symbols_count":   status.SymbolsCount,
		"files_count":     status.FilesCount,
		"kind_counts":     status.KindCounts,
		"last_indexed_at": status.LastIndexedAt.Format(time.RFC3339),
		"index_size_mb":   fmt.Sprintf("%.2f", status.IndexSizeMB),
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"symbols_available":   status.Health.SymbolsAvailable,
		},
	}, nil
}

func formatResults(results []types.SearchResult) []map[string]interface{} {
	formatted := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		entry := map[string]interface{}{
			"rank":  r.Rank,
			"score": r.Score,
			"name":  r.Item.Name,
			"type":  string(r.Item.Type),
			"path":  r.Item.Path,
			"url":   r.URL,
		}
		if r.Item.LineNumber > 0 {
			entry["line"] = r.Item.LineNumber
		}
		formatted = append(formatted, entry)
	}
	return formatted
}

func requireQuery(args map[string]interface{}) (string, error) {
	query, _ := args["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return "", newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}
	return query, nil
}

// searchError maps searcher and lookup failures to MCP errors
func searchError(dataset string, err error) error {
	switch {
	case errors.Is(err, catalog.ErrDatasetNotFound):
		return newMCPError(ErrorCodeDatasetNotFound, "dataset not found", map[string]interface{}{
			"dataset": dataset,
		})
	case errors.Is(err, searcher.ErrEmptyQuery):
		return newMCPError(ErrorCodeEmptyQuery, "query cannot be empty", nil)
	default:
		return newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Helper functions

// newMCPError creates a new MCP error with code and message
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as pretty-printed JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an int value with a default
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string value with a default
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}

package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var searchModes = []string{"fuzzy", "keyword", "hybrid"}

// searchSymbolsTool returns the tool definition for search_symbols
func searchSymbolsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_symbols",
		Description: "Fuzzy search the Deno standard library for classes, functions, enums, types and files",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Symbol name or path, e.g. 'serve' or 'http/server.ts'",
				},
				"dataset": map[string]interface{}{
					"type":        "string",
					"description": "Dataset to search: 'std' (latest release) or 'git' (main branch)",
					"default":     "std",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     6,
					"minimum":     1,
					"maximum":     100,
				},
				"search_mode": map[string]interface{}{
					"type":        "string",
					"description": "Ranking: fuzzy (subsequence + typo), keyword (BM25) or hybrid (both, fused)",
					"enum":        searchModes,
					"default":     "fuzzy",
				},
			},
			Required: []string{"query"},
		},
	}
}

// resolveSymbolTool returns the tool definition for resolve_symbol
func resolveSymbolTool() mcp.Tool {
	return mcp.Tool{
		Name:        "resolve_symbol",
		Description: "Resolve a query to a source URL when one symbol clearly matches, otherwise list candidates",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Symbol name or path as it would appear after std.land/",
				},
				"dataset": map[string]interface{}{
					"type":        "string",
					"description": "Dataset to resolve against: 'std' or 'git'",
					"default":     "std",
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report the loaded datasets with symbol counts by kind",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"dataset": map[string]interface{}{
					"type":        "string",
					"description": "Only report this dataset",
				},
			},
		},
	}
}

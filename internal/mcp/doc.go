// Package mcp implements the Model Context Protocol (MCP) server for std.land.
//
// The MCP server exposes three tools to AI coding assistants:
//   - search_symbols: Fuzzy, keyword or hybrid search over a dataset
//   - resolve_symbol: The same decision the website makes before redirecting
//   - get_status: Loaded datasets, their symbol counts and stored index state
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Logs go to stderr; stdout carries only protocol messages.
//
// # Basic Usage
//
//	stdland mcp
//
// # Tool: search_symbols
//
//	Request:
//	{
//	  "name": "search_symbols",
//	  "arguments": {
//	    "query": "serve",
//	    "dataset": "std",
//	    "limit": 6,
//	    "search_mode": "fuzzy"
//	  }
//	}
//
//	Response:
//	{
//	  "query": "serve",
//	  "dataset": "std",
//	  "search_mode": "fuzzy",
//	  "total_results": 4,
//	  "results": [
//	    {"rank": 1, "score": 0, "name": "serve", "type": "function",
//	     "path": "http/server.ts", "line": 612,
//	     "url": "https://deno.land/std/http/server.ts#L612"}
//	  ]
//	}
//
// # Tool: resolve_symbol
//
// Returns {"resolved": true, "url": ...} when the best match is clearly ahead
// of the runner-up, otherwise {"resolved": false, "candidates": [...]}.
//
// # Tool: get_status
//
// Returns one entry per dataset with kind counts; when a database is
// configured, entries that were indexed or imported include a "storage"
// object with the stored counts and health.
//
// # Error Codes
//
//	-32602  Invalid parameters (limit, search_mode)
//	-32603  Internal error
//	-32004  Empty query
//	-32005  Dataset not loaded
package mcp

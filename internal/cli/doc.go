// Package cli implements the stdland command line.
//
//	stdland serve              HTTP server (search page, redirects, API)
//	stdland mcp                MCP server on stdio
//	stdland search <query>     redirect target or ranked results
//	stdland find [query]       interactive terminal finder
//	stdland index              extract symbols from a deno_std checkout
//	stdland import             save a JSON data file to the database
//	stdland status             loaded datasets and database contents
//
// Every command accepts --config and --db.
package cli

// Package types provides shared type definitions for stdland.
//
// This package defines the domain types used across the catalog, searcher,
// lookup, web and MCP layers.
//
// # Core Types
//
// Symbol is one entry of the Deno standard library index. Its JSON form is
// the format of the published data files:
//
//	{"name": "serve", "extension": "ts", "path": "http/server.ts",
//	 "type": "function", "lineNumber": 120}
//
// ItemType enumerates the kinds of entries (class, enum, file, function,
// import, variable, interface, namespace, typeAlias).
//
// # Icons
//
// IconFor picks the icon and color a result row is drawn with:
//
//	icon := types.IconFor(types.TypeClass) // symbol-class, #32a852
//
// Types without a dedicated icon use a generic file glyph whose color is
// lighter in dark mode.
//
// # Search Results
//
// SearchResult pairs a Symbol with its match score and destination URL:
//
//	result := types.SearchResult{
//	    Item:  symbol,
//	    Score: 0.0001,
//	    Rank:  1,
//	    URL:   "https://deno.land/std/http/server.ts#L120",
//	}
//
// Scores follow the convention of the fuzzy matcher: 0 is a perfect match
// and 1 a complete mismatch, so lower is better.
package types

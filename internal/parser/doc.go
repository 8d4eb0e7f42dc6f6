// Package parser extracts the exported symbols of Deno standard library
// modules.
//
// The parser works line by line on TypeScript and JavaScript sources. It
// recognises top-level export statements and maps them to item types:
//
//	export [default] [async] function[*] name   -> function
//	export [default] [abstract] class Name      -> class
//	export [const] enum Name                    -> enum
//	export [declare] interface Name             -> interface
//	export type Name = ...                      -> typeAlias
//	export [declare] namespace Name             -> namespace
//	export const|let|var name                   -> variable
//	export * from "./mod.ts"                    -> import
//	export { a, b } from "./mod.ts"             -> import
//
// Block and line comments are skipped, so commented-out exports and
// examples inside doc comments are ignored. Re-exports are recorded with the
// module specifier as their name. Every file also yields one file item.
//
// # Basic Usage
//
//	p := parser.New()
//	result, err := p.ParseFile("/src/deno_std/http/server.ts", "http/server.ts")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, sym := range result.Symbols {
//	    fmt.Printf("%s %s:%d\n", sym.Type, sym.Name, sym.LineNumber)
//	}
//
// Problems that do not prevent extraction, such as an unterminated block
// comment, are collected in ParseResult.Errors.
package parser

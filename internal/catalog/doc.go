// Package catalog holds the symbol datasets served by stdland.
//
// Two datasets are well known: "std", the latest release of the Deno
// standard library, and "git", its main branch. Snapshots of both are
// embedded in the binary; a configuration can point either one (or any
// additional dataset) at a JSON data file or at the SQLite store.
//
// A Dataset knows the base URL its items link to, so the destination of a
// symbol is always Dataset.URLFor(symbol).
package catalog

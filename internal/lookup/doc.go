// Package lookup decides what a request for std.land/<id> does: redirect
// straight to the best matching symbol, or show the best few candidates.
//
// The host selects the dataset: hosts starting with "git." search the main
// branch, every other host the latest release.
package lookup

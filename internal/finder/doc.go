// Package finder is the terminal version of the std.land search box.
//
// Typing searches the dataset; ↑/↓ move through the results, Enter picks
// one and Esc clears the selection. The picked URL is returned by Run so
// the caller can print or open it.
package finder

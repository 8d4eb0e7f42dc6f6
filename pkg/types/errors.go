package types

import "errors"

// Domain errors for type validation
var (
	ErrInvalidSymbol   = errors.New("invalid symbol")
	ErrInvalidItemType = errors.New("invalid item type")
	ErrInvalidRank     = errors.New("rank must be >= 1")
	ErrInvalidScore    = errors.New("score must be between 0 and 1")
)

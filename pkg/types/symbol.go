package types

import (
	"fmt"
	"strconv"
)

// ItemType represents the kind of standard library item
type ItemType string

const (
	TypeClass     ItemType = "class"
	TypeEnum      ItemType = "enum"
	TypeFile      ItemType = "file"
	TypeFunction  ItemType = "function"
	TypeImport    ItemType = "import"
	TypeVariable  ItemType = "variable"
	TypeInterface ItemType = "interface"
	TypeNamespace ItemType = "namespace"
	TypeTypeAlias ItemType = "typeAlias"
)

// AllItemTypes lists every item type in display order
var AllItemTypes = []ItemType{
	TypeClass, TypeEnum, TypeFile, TypeFunction, TypeImport,
	TypeVariable, TypeInterface, TypeNamespace, TypeTypeAlias,
}

// Valid reports whether t is a known item type
func (t ItemType) Valid() bool {
	switch t {
	case TypeClass, TypeEnum, TypeFile, TypeFunction, TypeImport,
		TypeVariable, TypeInterface, TypeNamespace, TypeTypeAlias:
		return true
	default:
		return false
	}
}

// Symbol is a single searchable entry of the standard library index.
// The JSON layout matches the published data files.
type Symbol struct {
	Name       string   `json:"name"`
	Extension  string   `json:"extension"`
	Path       string   `json:"path"` // Relative to the std root, forward slashes
	Type       ItemType `json:"type"`
	LineNumber int      `json:"lineNumber,omitempty"`
}

// Validate checks that the symbol can be indexed and linked to
func (s *Symbol) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSymbol)
	}

	if s.Path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidSymbol)
	}

	if !s.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidItemType, s.Type)
	}

	if s.LineNumber < 0 {
		return fmt.Errorf("%w: line number must not be negative", ErrInvalidSymbol)
	}

	return nil
}

// Key returns a stable identity for the symbol, unique within a dataset
func (s *Symbol) Key() string {
	return s.Path + "-" + s.Name + "-" + string(s.Type) + "@" + strconv.Itoa(s.LineNumber)
}

package types

// Icon describes how a result row is decorated for its item type
type Icon struct {
	Name      string `json:"name"`
	Glyph     string `json:"glyph"` // Single-cell stand-in for terminals and plain pages
	Color     string `json:"color"`
	DarkColor string `json:"dark_color"`
}

// IconFor returns the icon for an item type. Types without a dedicated
// icon fall back to a generic file glyph that is lighter in dark mode.
func IconFor(t ItemType) Icon {
	switch t {
	case TypeClass:
		return Icon{Name: "symbol-class", Glyph: "◆", Color: "#32a852", DarkColor: "#32a852"}
	case TypeFunction:
		return Icon{Name: "symbol-method", Glyph: "ƒ", Color: "#a468bf", DarkColor: "#a468bf"}
	case TypeEnum:
		return Icon{Name: "symbol-enum", Glyph: "≡", Color: "#2fd5d5", DarkColor: "#2fd5d5"}
	case TypeTypeAlias:
		return Icon{Name: "link", Glyph: "∞", Color: "#1e5fb3", DarkColor: "#1e5fb3"}
	default:
		return Icon{Name: "file-code", Glyph: "□", Color: "#323232", DarkColor: "#888"}
	}
}

package sconcho

// SymbolKey is the stable identity of a symbol.
type SymbolKey struct {
	Category string
	Name     string
}

func (k SymbolKey) String() string { return k.Category + "::" + k.Name }

// Symbol describes one knitting stitch. Symbols are immutable once loaded
// and shared by every grid item that uses them.
type Symbol struct {
	Category          string
	Name              string
	Width             int
	SVGPath           string
	DefaultBackground Color
	Description       string
	SortPos           int
}

// Key returns the identity of the symbol.
func (s *Symbol) Key() SymbolKey {
	return SymbolKey{Category: s.Category, Name: s.Name}
}

// DefaultSymbol is the built-in knit stitch implicitly occupying every empty cell.
var DefaultSymbol = &Symbol{
	Category:          "basic",
	Name:              "knit",
	Width:             1,
	DefaultBackground: White,
	Description:       "knit",
}

// DefaultKey is the identity of DefaultSymbol.
var DefaultKey = DefaultSymbol.Key()

// isDefault reports whether a symbol and color pair is the implicit default cell.
func isDefault(s *Symbol, c Color) bool {
	return s.Key() == DefaultKey && c == White
}

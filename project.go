package sconcho

// APIVersion is the project format version written by this package.
const APIVersion = "1"

// Project is the complete state stored in one project file.
type Project struct {
	APIVersion string
	Rows, Cols int
	// Items holds the non-default grid items. Cells not covered are the
	// default knit stitch in white.
	Items  []Item
	Legend []LegendEntry

	// Colors replaces the palette on load, length included.
	Colors      []Color
	ActiveColor int

	// ActiveSymbol is nil when no symbol is active.
	ActiveSymbol *SymbolKey

	// VersionMismatch is set by the reader when the file declares an api
	// version other than APIVersion. The project was read on a best-effort basis.
	VersionMismatch bool
}

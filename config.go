package sconcho

import "time"

// FontSpec names a TrueType font file and its size in points.
// An empty Path selects the embedded Go regular font.
type FontSpec struct {
	Path string
	Size float64
}

// Config is the snapshot of application preferences consumed by the canvas.
// It is passed by value; the canvas never reads preferences from global state.
type Config struct {
	CellWidth  int
	CellHeight int

	LabelFont  FontSpec
	LegendFont FontSpec
	// LabelInterval is the distance between numbered row and column labels.
	// Zero hides the labels.
	LabelInterval int

	ExportGrid   bool
	ExportLegend bool

	Antialias   bool
	Transparent bool

	AutosaveInterval time.Duration
}

// DefaultConfig returns the preferences of a fresh installation.
func DefaultConfig() Config {
	return Config{
		CellWidth:        30,
		CellHeight:       30,
		LabelFont:        FontSpec{Size: 10},
		LegendFont:       FontSpec{Size: 12},
		LabelInterval:    1,
		ExportGrid:       true,
		ExportLegend:     true,
		Antialias:        true,
		AutosaveInterval: 10 * time.Second,
	}
}

// normalize replaces unusable values with their defaults.
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.CellWidth <= 0 {
		c.CellWidth = def.CellWidth
	}
	if c.CellHeight <= 0 {
		c.CellHeight = def.CellHeight
	}
	if c.LabelFont.Size <= 0 {
		c.LabelFont.Size = def.LabelFont.Size
	}
	if c.LegendFont.Size <= 0 {
		c.LegendFont.Size = def.LegendFont.Size
	}
	if c.LabelInterval < 0 {
		c.LabelInterval = 0
	}
	if c.AutosaveInterval <= 0 {
		c.AutosaveInterval = def.AutosaveInterval
	}
	return c
}

package sconcho

import (
	"fmt"
	"image"

	"github.com/esimov/sconcho/utils"
)

// Cell addresses one grid cell.
type Cell struct {
	Row, Col int
}

// less orders cells row-major.
func (c Cell) less(o Cell) bool {
	if c.Row != o.Row {
		return c.Row < o.Row
	}
	return c.Col < o.Col
}

// Region is a rectangle of cells covering rows [Top, Bottom) and columns [Left, Right).
type Region struct {
	Top, Left, Bottom, Right int
}

// RegionOf returns the smallest region containing both cells.
func RegionOf(a, b Cell) Region {
	return Region{
		Top:    utils.Min(a.Row, b.Row),
		Left:   utils.Min(a.Col, b.Col),
		Bottom: utils.Max(a.Row, b.Row) + 1,
		Right:  utils.Max(a.Col, b.Col) + 1,
	}
}

// CellRegion returns the region covering the single cell c.
func CellRegion(c Cell) Region { return RegionOf(c, c) }

func (r Region) String() string {
	return fmt.Sprintf("rows [%d,%d) cols [%d,%d)", r.Top, r.Bottom, r.Left, r.Right)
}

// Empty reports whether the region covers no cell.
func (r Region) Empty() bool { return r.Top >= r.Bottom || r.Left >= r.Right }

// Rows returns the number of rows spanned.
func (r Region) Rows() int { return utils.Max(r.Bottom-r.Top, 0) }

// Cols returns the number of columns spanned.
func (r Region) Cols() int { return utils.Max(r.Right-r.Left, 0) }

// Contains reports whether c lies inside the region.
func (r Region) Contains(c Cell) bool {
	return c.Row >= r.Top && c.Row < r.Bottom && c.Col >= r.Left && c.Col < r.Right
}

// Intersect returns the largest region contained in both r and s.
func (r Region) Intersect(s Region) Region {
	out := Region{
		Top:    utils.Max(r.Top, s.Top),
		Left:   utils.Max(r.Left, s.Left),
		Bottom: utils.Min(r.Bottom, s.Bottom),
		Right:  utils.Min(r.Right, s.Right),
	}
	if out.Empty() {
		return Region{}
	}
	return out
}

// Union returns the bounding box of r and s. Empty regions are ignored.
func (r Region) Union(s Region) Region {
	switch {
	case r.Empty():
		return s
	case s.Empty():
		return r
	}
	return Region{
		Top:    utils.Min(r.Top, s.Top),
		Left:   utils.Min(r.Left, s.Left),
		Bottom: utils.Max(r.Bottom, s.Bottom),
		Right:  utils.Max(r.Right, s.Right),
	}
}

// SceneToRegion translates a rubber band rectangle given in scene pixels into
// the bounding box of the touched cells, intersected with a rows×cols grid.
// ok is false when the band touches no cell of the grid.
func SceneToRegion(band image.Rectangle, cellW, cellH, rows, cols int) (reg Region, ok bool) {
	band = band.Canon()
	if cellW <= 0 || cellH <= 0 {
		return Region{}, false
	}
	// Max is exclusive; a band ending exactly on a cell edge does not touch the next cell.
	maxX, maxY := band.Max.X-1, band.Max.Y-1
	if band.Dx() == 0 {
		maxX = band.Min.X
	}
	if band.Dy() == 0 {
		maxY = band.Min.Y
	}
	touched := RegionOf(
		Cell{Row: utils.FloorDiv(band.Min.Y, cellH), Col: utils.FloorDiv(band.Min.X, cellW)},
		Cell{Row: utils.FloorDiv(maxY, cellH), Col: utils.FloorDiv(maxX, cellW)},
	)
	reg = touched.Intersect(Region{Bottom: rows, Right: cols})
	return reg, !reg.Empty()
}

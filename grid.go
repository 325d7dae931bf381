package sconcho

import (
	"fmt"
	"sort"

	"golang.org/x/exp/slices"
)

// Placement selects on which side of the pivot row or column new lines are inserted.
type Placement int

const (
	Before Placement = iota
	After
)

// Aliases matching how the editor names the insertion side.
const (
	Above = Before
	Below = After
	Left  = Before
	Right = After
)

// Item is a placed symbol occupying one row and Symbol.Width consecutive columns
// starting at Col.
type Item struct {
	Row, Col int
	Symbol   *Symbol
	Color    Color
}

// Width returns the number of cells covered by the item.
func (it Item) Width() int { return it.Symbol.Width }

// Height is always one cell.
func (it Item) Height() int { return 1 }

// end returns the first column after the item.
func (it Item) end() int { return it.Col + it.Symbol.Width }

// IsDefault reports whether the item is the implicit knit stitch in white.
func (it Item) IsDefault() bool { return isDefault(it.Symbol, it.Color) }

// Covers reports whether the item occupies cell c.
func (it Item) Covers(c Cell) bool {
	return c.Row == it.Row && c.Col >= it.Col && c.Col < it.end()
}

// LegendKey returns the identity under which the item appears in the legend.
func (it Item) LegendKey() LegendKey {
	return LegendKey{Category: it.Symbol.Category, Name: it.Symbol.Name, Color: it.Color}
}

func (it Item) String() string {
	return fmt.Sprintf("%v@(%d,%d)w%d %s", it.Symbol.Key(), it.Row, it.Col, it.Width(), it.Color.Hex())
}

// Grid is a rows×cols chart tiled by non-overlapping items. Only items that
// differ from the default stitch are stored; every other cell holds the
// default knit stitch in white.
//
// Items are kept per row, sorted by column, which gives O(log n) cell lookup
// and linear checks for column insertion and deletion.
type Grid struct {
	rows, cols int
	lines      [][]Item
	onChange   []func()
}

// NewGrid returns a grid of the given size filled with the default stitch.
func NewGrid(rows, cols int) (*Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: grid size %dx%d", ErrOutOfBounds, rows, cols)
	}
	return &Grid{
		rows:  rows,
		cols:  cols,
		lines: make([][]Item, rows),
	}, nil
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Bounds returns the region covering the whole grid.
func (g *Grid) Bounds() Region { return Region{Bottom: g.rows, Right: g.cols} }

// OnChange registers fn to be called after every successful mutation.
func (g *Grid) OnChange(fn func()) {
	g.onChange = append(g.onChange, fn)
}

func (g *Grid) changed() {
	for _, fn := range g.onChange {
		fn()
	}
}

// ItemAt returns the item covering cell (r, c), or the synthetic default
// item when no stored item covers it. ok is false outside the grid.
func (g *Grid) ItemAt(r, c int) (it Item, ok bool) {
	if r < 0 || r >= g.rows || c < 0 || c >= g.cols {
		return Item{}, false
	}
	line := g.lines[r]
	// First item starting right of c; its predecessor is the only candidate.
	i := sort.Search(len(line), func(i int) bool { return line[i].Col > c })
	if i > 0 && line[i-1].end() > c {
		return line[i-1], true
	}
	return Item{Row: r, Col: c, Symbol: DefaultSymbol, Color: White}, true
}

// Items returns the stored (non-default) items in row-major order.
func (g *Grid) Items() []Item {
	var items []Item
	for _, line := range g.lines {
		items = append(items, line...)
	}
	return items
}

// Cells returns the complete tiling of the grid in row-major order,
// materialising the default stitch in every otherwise empty cell.
func (g *Grid) Cells() []Item {
	items := make([]Item, 0, g.rows*g.cols)
	for r, line := range g.lines {
		col := 0
		for _, it := range line {
			for ; col < it.Col; col++ {
				items = append(items, Item{Row: r, Col: col, Symbol: DefaultSymbol, Color: White})
			}
			items = append(items, it)
			col = it.end()
		}
		for ; col < g.cols; col++ {
			items = append(items, Item{Row: r, Col: col, Symbol: DefaultSymbol, Color: White})
		}
	}
	return items
}

// Clone returns a deep copy of the grid without its observers.
func (g *Grid) Clone() *Grid {
	lines := make([][]Item, len(g.lines))
	for i, line := range g.lines {
		lines[i] = append([]Item(nil), line...)
	}
	return &Grid{rows: g.rows, cols: g.cols, lines: lines}
}

// checkRegion verifies that reg is non-empty and lies inside the grid.
func (g *Grid) checkRegion(reg Region) error {
	if reg.Empty() || reg.Top < 0 || reg.Left < 0 || reg.Bottom > g.rows || reg.Right > g.cols {
		return fmt.Errorf("%w: %v in %dx%d grid", ErrOutOfBounds, reg, g.rows, g.cols)
	}
	return nil
}

// replaceSpan removes every item of row r intersecting columns [left, right)
// and inserts fill in their place. fill must be sorted and lie inside the span.
func (g *Grid) replaceSpan(r, left, right int, fill []Item) {
	line := g.lines[r]
	out := make([]Item, 0, len(line)+len(fill))
	inserted := false
	for _, it := range line {
		if it.end() <= left {
			out = append(out, it)
			continue
		}
		if !inserted {
			out = append(out, fill...)
			inserted = true
		}
		if it.Col >= right {
			out = append(out, it)
		}
	}
	if !inserted {
		out = append(out, fill...)
	}
	g.lines[r] = out
}

// Stamp tiles reg with s in color c. The region must start on a column that
// is a multiple of the symbol width and span a multiple of it.
// Any item intersecting the region is removed in full.
func (g *Grid) Stamp(reg Region, s *Symbol, c Color) error {
	if s == nil || s.Width < 1 {
		return fmt.Errorf("%w: invalid symbol", ErrIncompatibleRegion)
	}
	if err := g.checkRegion(reg); err != nil {
		return err
	}
	if reg.Left%s.Width != 0 {
		return fmt.Errorf("%w: column %d is not aligned on %v of width %d", ErrIncompatibleRegion, reg.Left, s.Key(), s.Width)
	}
	if reg.Cols()%s.Width != 0 {
		return fmt.Errorf("%w: %d columns for %v of width %d", ErrIncompatibleRegion, reg.Cols(), s.Key(), s.Width)
	}

	for r := reg.Top; r < reg.Bottom; r++ {
		var fill []Item
		if !isDefault(s, c) {
			for col := reg.Left; col < reg.Right; col += s.Width {
				fill = append(fill, Item{Row: r, Col: col, Symbol: s, Color: c})
			}
		}
		g.replaceSpan(r, reg.Left, reg.Right, fill)
	}
	g.changed()
	return nil
}

// Clear reverts reg to the default stitch. It fails with ErrRegionSplitsItem
// when the region boundary cuts through a multi-cell item.
func (g *Grid) Clear(reg Region) error {
	if err := g.checkRegion(reg); err != nil {
		return err
	}
	for r := reg.Top; r < reg.Bottom; r++ {
		for _, it := range g.lines[r] {
			if it.Col < reg.Right && it.end() > reg.Left && (it.Col < reg.Left || it.end() > reg.Right) {
				return fmt.Errorf("%w: %v at %v", ErrRegionSplitsItem, it, reg)
			}
		}
	}
	return g.clear(reg)
}

// ClearSplitting reverts reg to the default stitch. Multi-cell items cut by
// the region boundary are removed in full.
func (g *Grid) ClearSplitting(reg Region) error {
	if err := g.checkRegion(reg); err != nil {
		return err
	}
	return g.clear(reg)
}

func (g *Grid) clear(reg Region) error {
	for r := reg.Top; r < reg.Bottom; r++ {
		g.replaceSpan(r, reg.Left, reg.Right, nil)
	}
	g.changed()
	return nil
}

// InsertRows inserts n default rows above or below the pivot row.
func (g *Grid) InsertRows(pivot, n int, mode Placement) error {
	if err := g.insertRows(pivot, n, mode); err != nil {
		return err
	}
	g.changed()
	return nil
}

func (g *Grid) insertRows(pivot, n int, mode Placement) error {
	if n < 1 || pivot < 0 || pivot >= g.rows {
		return fmt.Errorf("%w: insert %d rows at %d of %d", ErrOutOfBounds, n, pivot, g.rows)
	}
	at := pivot
	if mode == After {
		at++
	}
	lines := make([][]Item, 0, g.rows+n)
	lines = append(lines, g.lines[:at]...)
	lines = append(lines, make([][]Item, n)...)
	lines = append(lines, g.lines[at:]...)
	g.lines = lines
	g.rows += n
	g.renumberRows(at + n)
	return nil
}

// DeleteRows removes rows [pivot, pivot+n). At least one row must remain.
func (g *Grid) DeleteRows(pivot, n int) error {
	if err := g.deleteRows(pivot, n); err != nil {
		return err
	}
	g.changed()
	return nil
}

func (g *Grid) deleteRows(pivot, n int) error {
	if n < 1 || pivot < 0 || pivot+n > g.rows || n >= g.rows {
		return fmt.Errorf("%w: delete %d rows at %d of %d", ErrOutOfBounds, n, pivot, g.rows)
	}
	g.lines = append(g.lines[:pivot], g.lines[pivot+n:]...)
	g.rows -= n
	g.renumberRows(pivot)
	return nil
}

// renumberRows rewrites the row coordinate of every item from row `from` on.
func (g *Grid) renumberRows(from int) {
	for r := from; r < g.rows; r++ {
		for i := range g.lines[r] {
			g.lines[r][i].Row = r
		}
	}
}

// InsertColumns inserts n default columns left or right of the pivot column.
// It fails with ErrColumnSplitsItem when the insertion boundary runs through
// a multi-cell item in any row.
func (g *Grid) InsertColumns(pivot, n int, mode Placement) error {
	if err := g.insertColumns(pivot, n, mode); err != nil {
		return err
	}
	g.changed()
	return nil
}

func (g *Grid) insertColumns(pivot, n int, mode Placement) error {
	if n < 1 || pivot < 0 || pivot >= g.cols {
		return fmt.Errorf("%w: insert %d columns at %d of %d", ErrOutOfBounds, n, pivot, g.cols)
	}
	at := pivot
	if mode == After {
		at++
	}
	for _, line := range g.lines {
		for _, it := range line {
			if it.Col < at && it.end() > at {
				return fmt.Errorf("%w: %v at column boundary %d", ErrColumnSplitsItem, it, at)
			}
		}
	}
	for _, line := range g.lines {
		for i := range line {
			if line[i].Col >= at {
				line[i].Col += n
			}
		}
	}
	g.cols += n
	return nil
}

// DeleteColumns removes columns [pivot, pivot+n). Items lying wholly inside
// the span are removed; a multi-cell item straddling either edge makes the
// deletion fail with ErrDeletionSplitsItem. At least one column must remain.
func (g *Grid) DeleteColumns(pivot, n int) error {
	if err := g.deleteColumns(pivot, n); err != nil {
		return err
	}
	g.changed()
	return nil
}

func (g *Grid) deleteColumns(pivot, n int) error {
	if n < 1 || pivot < 0 || pivot+n > g.cols || n >= g.cols {
		return fmt.Errorf("%w: delete %d columns at %d of %d", ErrOutOfBounds, n, pivot, g.cols)
	}
	end := pivot + n
	for _, line := range g.lines {
		for _, it := range line {
			if it.Col < end && it.end() > pivot && (it.Col < pivot || it.end() > end) {
				return fmt.Errorf("%w: %v across columns [%d,%d)", ErrDeletionSplitsItem, it, pivot, end)
			}
		}
	}
	for r, line := range g.lines {
		out := line[:0]
		for _, it := range line {
			switch {
			case it.end() <= pivot:
				out = append(out, it)
			case it.Col >= end:
				it.Col -= n
				out = append(out, it)
			}
		}
		g.lines[r] = out
	}
	g.cols -= n
	return nil
}

// Resize grows or shrinks the grid to rows×cols. New cells hold the default
// stitch; shrinking removes trailing rows and columns and fails like
// DeleteRows and DeleteColumns. The grid is unchanged on failure.
func (g *Grid) Resize(rows, cols int) error {
	if rows < 1 || cols < 1 {
		return fmt.Errorf("%w: grid size %dx%d", ErrOutOfBounds, rows, cols)
	}
	if rows == g.rows && cols == g.cols {
		return nil
	}
	tmp := g.Clone()
	switch {
	case rows > tmp.rows:
		if err := tmp.insertRows(tmp.rows-1, rows-tmp.rows, After); err != nil {
			return err
		}
	case rows < tmp.rows:
		if err := tmp.deleteRows(rows, tmp.rows-rows); err != nil {
			return err
		}
	}
	switch {
	case cols > tmp.cols:
		if err := tmp.insertColumns(tmp.cols-1, cols-tmp.cols, After); err != nil {
			return err
		}
	case cols < tmp.cols:
		if err := tmp.deleteColumns(cols, tmp.cols-cols); err != nil {
			return err
		}
	}
	g.rows, g.cols, g.lines = tmp.rows, tmp.cols, tmp.lines
	g.changed()
	return nil
}

// Load replaces the grid contents with items on a rows×cols grid.
// Items equal to the default stitch are accepted and dropped. The grid is
// unchanged when an item is out of bounds or two items overlap.
func (g *Grid) Load(items []Item, rows, cols int) error {
	if rows < 1 || cols < 1 {
		return fmt.Errorf("%w: grid size %dx%d", ErrOutOfBounds, rows, cols)
	}
	lines := make([][]Item, rows)
	for _, it := range items {
		if it.Symbol == nil || it.Symbol.Width < 1 {
			return fmt.Errorf("%w: item at (%d,%d) has no symbol", ErrOutOfBounds, it.Row, it.Col)
		}
		if it.Row < 0 || it.Row >= rows || it.Col < 0 || it.end() > cols {
			return fmt.Errorf("%w: %v in %dx%d grid", ErrOutOfBounds, it, rows, cols)
		}
		lines[it.Row] = append(lines[it.Row], it)
	}
	for r, line := range lines {
		slices.SortStableFunc(line, func(a, b Item) bool { return a.Col < b.Col })
		out := line[:0]
		for i, it := range line {
			if i > 0 && line[i-1].end() > it.Col {
				return fmt.Errorf("%w: %v and %v", ErrOverlap, line[i-1], it)
			}
			if !it.IsDefault() {
				out = append(out, it)
			}
		}
		lines[r] = out
	}
	g.rows, g.cols, g.lines = rows, cols, lines
	g.changed()
	return nil
}

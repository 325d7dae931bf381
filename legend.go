package sconcho

import (
	"fmt"
	"image"

	"github.com/esimov/sconcho/utils"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// LegendKey identifies a legend entry: a symbol in one background color.
type LegendKey struct {
	Category string
	Name     string
	Color    Color
}

// SymbolKey returns the symbol part of the key.
func (k LegendKey) SymbolKey() SymbolKey {
	return SymbolKey{Category: k.Category, Name: k.Name}
}

func (k LegendKey) String() string {
	return fmt.Sprintf("%s::%s %s", k.Category, k.Name, k.Color.Hex())
}

func (k LegendKey) less(o LegendKey) bool {
	if k.Category != o.Category {
		return k.Category < o.Category
	}
	if k.Name != o.Name {
		return k.Name < o.Name
	}
	return k.Color.Hex() < o.Color.Hex()
}

// PositionKind selects the part of a legend entry being moved.
type PositionKind int

const (
	SwatchPosition PositionKind = iota
	LabelPosition
)

// LegendEntry is a positioned symbol swatch with an editable text label.
// Positions are scene pixels.
type LegendEntry struct {
	Key       LegendKey
	Symbol    *Symbol
	SwatchPos image.Point
	LabelPos  image.Point
	Text      string
}

// legendSpacing is the vertical gap between consecutive swatches.
const legendSpacing = 10

// Legend keeps one entry per symbol and color pair placed on the grid,
// except for the default knit stitch in white. User edits to positions and
// text survive refreshes for as long as the pair stays on the grid.
type Legend struct {
	entries  map[LegendKey]*LegendEntry
	onChange []func()
}

// NewLegend returns an empty legend.
func NewLegend() *Legend {
	return &Legend{entries: make(map[LegendKey]*LegendEntry)}
}

// OnChange registers fn to be called after every change of the legend.
func (l *Legend) OnChange(fn func()) {
	l.onChange = append(l.onChange, fn)
}

func (l *Legend) changed() {
	for _, fn := range l.onChange {
		fn()
	}
}

// Len returns the number of entries.
func (l *Legend) Len() int { return len(l.entries) }

// Entry returns a copy of the entry stored under key.
func (l *Legend) Entry(key LegendKey) (LegendEntry, bool) {
	e, ok := l.entries[key]
	if !ok {
		return LegendEntry{}, false
	}
	return *e, true
}

// Keys returns the legend keys in canonical order.
func (l *Legend) Keys() []LegendKey {
	keys := maps.Keys(l.entries)
	slices.SortFunc(keys, LegendKey.less)
	return keys
}

// Entries returns copies of all entries in canonical order.
func (l *Legend) Entries() []LegendEntry {
	keys := l.Keys()
	out := make([]LegendEntry, 0, len(keys))
	for _, k := range keys {
		out = append(out, *l.entries[k])
	}
	return out
}

// needsLegend reports whether a grid item gets a legend entry.
func needsLegend(it Item) bool {
	return it.Symbol.Width > 1 || !it.IsDefault()
}

// Needed computes the set of legend keys required by the grid contents,
// together with the symbol of each key.
func Needed(g *Grid) map[LegendKey]*Symbol {
	needed := make(map[LegendKey]*Symbol)
	for _, it := range g.Items() {
		if needsLegend(it) {
			needed[it.LegendKey()] = it.Symbol
		}
	}
	return needed
}

// Refresh brings the legend in sync with the grid. New entries are placed in
// the next free slot below the grid; entries whose key left the grid are
// dropped; the remaining entries are untouched.
func (l *Legend) Refresh(g *Grid, cfg Config) {
	needed := Needed(g)
	dirty := false

	for k := range l.entries {
		if _, ok := needed[k]; !ok {
			delete(l.entries, k)
			dirty = true
		}
	}

	var added []LegendKey
	for k := range needed {
		if _, ok := l.entries[k]; !ok {
			added = append(added, k)
		}
	}
	slices.SortFunc(added, LegendKey.less)

	for _, k := range added {
		sym := needed[k]
		swatch := l.nextSlot(g, cfg)
		l.entries[k] = &LegendEntry{
			Key:       k,
			Symbol:    sym,
			SwatchPos: swatch,
			LabelPos:  swatch.Add(labelOffset(sym, cfg)),
			Text:      sym.Description,
		}
		dirty = true
	}

	if dirty {
		l.changed()
	}
}

// labelOffset is the default distance from a swatch to its label.
func labelOffset(sym *Symbol, cfg Config) image.Point {
	return image.Pt(sym.Width*cfg.CellWidth+legendSpacing, cfg.CellHeight/6)
}

// nextSlot returns the swatch position following the lowest existing swatch,
// never higher than the first slot below the grid and its labels.
func (l *Legend) nextSlot(g *Grid, cfg Config) image.Point {
	y := g.Rows()*cfg.CellHeight + cfg.CellHeight
	if cfg.LabelInterval > 0 {
		y += cfg.CellHeight
	}
	for _, e := range l.entries {
		y = utils.Max(y, e.SwatchPos.Y+cfg.CellHeight+legendSpacing)
	}
	return image.Pt(cfg.CellWidth, y)
}

// SetPosition moves the swatch or the label of an entry.
func (l *Legend) SetPosition(key LegendKey, kind PositionKind, pos image.Point) error {
	e, ok := l.entries[key]
	if !ok {
		return fmt.Errorf("no legend entry for %v", key)
	}
	target := &e.SwatchPos
	if kind == LabelPosition {
		target = &e.LabelPos
	}
	if *target == pos {
		return nil
	}
	*target = pos
	l.changed()
	return nil
}

// SetText replaces the label text of an entry.
func (l *Legend) SetText(key LegendKey, text string) error {
	e, ok := l.entries[key]
	if !ok {
		return fmt.Errorf("no legend entry for %v", key)
	}
	if e.Text == text {
		return nil
	}
	e.Text = text
	l.changed()
	return nil
}

// Clear removes every entry.
func (l *Legend) Clear() {
	if len(l.entries) == 0 {
		return
	}
	l.entries = make(map[LegendKey]*LegendEntry)
	l.changed()
}

// restore replaces the legend with the given entries.
func (l *Legend) restore(entries []LegendEntry) {
	l.entries = make(map[LegendKey]*LegendEntry, len(entries))
	for i := range entries {
		e := entries[i]
		l.entries[e.Key] = &e
	}
	l.changed()
}

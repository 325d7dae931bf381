package sconcho

import (
	"fmt"
	"image"
	"log"

	"golang.org/x/exp/slices"
)

// Modifier is the set of keyboard modifiers held during a gesture.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModControl
)

// EditKind selects a row or column edit.
type EditKind int

const (
	InsertRows EditKind = iota
	DeleteRows
	InsertColumns
	DeleteColumns
)

func (k EditKind) String() string {
	switch k {
	case InsertRows:
		return "insert rows"
	case DeleteRows:
		return "delete rows"
	case InsertColumns:
		return "insert columns"
	case DeleteColumns:
		return "delete columns"
	}
	return fmt.Sprintf("EditKind(%d)", int(k))
}

type gestureState int

const (
	idle gestureState = iota
	pressing
)

// defaultRows and defaultCols size the grid of a new canvas.
const (
	defaultRows = 10
	defaultCols = 10
)

// Canvas is the controller of one open pattern. It owns the grid and the
// legend, references the shared palette and symbol tracker, turns user
// gestures into grid operations and tracks whether the project is dirty.
//
// A canvas is not safe for concurrent use; all calls must come from the
// goroutine running the editor loop.
type Canvas struct {
	cfg     Config
	lib     *Library
	grid    *Grid
	legend  *Legend
	palette *Palette
	symbols *SymbolTracker

	activeKey   SymbolKey
	hasActive   bool
	activeColor Color

	selection map[Cell]struct{}

	state  gestureState
	anchor Cell
	cursor Cell
	mods   Modifier

	dirty      bool
	loading    bool
	refreshing bool

	// Reporter receives the user-visible message of every rejected edit.
	Reporter func(msg string)

	onScene []func()
	onDirty []func(dirty bool)

	renderer *Renderer
}

// New creates a canvas showing an empty default-sized grid. The palette and
// the symbol tracker are shared with the rest of the editor.
func New(lib *Library, palette *Palette, tracker *SymbolTracker, cfg Config) *Canvas {
	if lib == nil {
		lib = NewLibrary()
	}
	if palette == nil {
		palette = DefaultPalette()
	}
	if tracker == nil {
		tracker = NewSymbolTracker()
	}
	c := &Canvas{
		cfg:       cfg.normalize(),
		lib:       lib,
		legend:    NewLegend(),
		palette:   palette,
		symbols:   tracker,
		selection: make(map[Cell]struct{}),
		Reporter: func(msg string) {
			log.Printf("sconcho: %s", msg)
		},
	}
	c.grid, _ = NewGrid(defaultRows, defaultCols)
	c.grid.OnChange(c.sceneChanged)
	c.legend.OnChange(c.legendChanged)

	_, c.activeColor = palette.Active()
	c.activeKey, c.hasActive = tracker.Active()

	palette.OnColorChanged(func(_ int, col Color) { c.OnActiveColorChanged(col) })
	palette.OnChanged(c.markDirty)
	tracker.OnActiveChanged(func(key SymbolKey, ok bool) {
		c.OnActiveSymbolChanged(key, ok)
		c.markDirty()
	})
	return c
}

// Grid returns the grid model. Callers must not mutate it behind the
// canvas' back except through its exported operations.
func (c *Canvas) Grid() *Grid { return c.grid }

// Legend returns the legend model.
func (c *Canvas) Legend() *Legend { return c.legend }

// Palette returns the shared palette.
func (c *Canvas) Palette() *Palette { return c.palette }

// Symbols returns the shared symbol tracker.
func (c *Canvas) Symbols() *SymbolTracker { return c.symbols }

// Library returns the symbol library.
func (c *Canvas) Library() *Library { return c.lib }

// Config returns the current preference snapshot.
func (c *Canvas) Config() Config { return c.cfg }

// SetConfig installs a new preference snapshot. Only the presentation changes.
func (c *Canvas) SetConfig(cfg Config) {
	c.cfg = cfg.normalize()
	if c.renderer != nil {
		c.renderer.SetConfig(c.cfg)
	}
	c.emitScene()
}

// OnSceneChanged registers fn to be called whenever the visible scene changes.
func (c *Canvas) OnSceneChanged(fn func()) {
	c.onScene = append(c.onScene, fn)
}

// OnDirtyChanged registers fn to be called when the dirty flag flips.
func (c *Canvas) OnDirtyChanged(fn func(dirty bool)) {
	c.onDirty = append(c.onDirty, fn)
}

// Dirty reports whether the project has unsaved changes.
func (c *Canvas) Dirty() bool { return c.dirty }

// MarkClean clears the dirty flag, typically after a save.
func (c *Canvas) MarkClean() { c.setDirty(false) }

func (c *Canvas) markDirty() {
	if !c.loading {
		c.setDirty(true)
	}
}

func (c *Canvas) setDirty(d bool) {
	if c.dirty == d {
		return
	}
	c.dirty = d
	for _, fn := range c.onDirty {
		fn(d)
	}
}

func (c *Canvas) emitScene() {
	for _, fn := range c.onScene {
		fn()
	}
}

// sceneChanged runs after every grid mutation.
func (c *Canvas) sceneChanged() {
	c.refreshing = true
	c.legend.Refresh(c.grid, c.cfg)
	c.refreshing = false
	c.markDirty()
	c.emitScene()
}

func (c *Canvas) legendChanged() {
	if c.refreshing {
		return
	}
	c.markDirty()
	c.emitScene()
}

func (c *Canvas) report(err error) error {
	if err != nil && c.Reporter != nil {
		c.Reporter(Message(err))
	}
	return err
}

// OnActiveSymbolChanged records the active symbol. It never touches the grid.
func (c *Canvas) OnActiveSymbolChanged(key SymbolKey, ok bool) {
	c.activeKey, c.hasActive = key, ok
}

// OnActiveColorChanged records the active color. It never touches the grid.
func (c *Canvas) OnActiveColorChanged(col Color) {
	c.activeColor = col
}

// ActiveSymbol returns the symbol used by the next stamp.
func (c *Canvas) ActiveSymbol() (*Symbol, bool) {
	if !c.hasActive {
		return nil, false
	}
	return c.lib.Lookup(c.activeKey)
}

// ActiveColor returns the color used by the next stamp.
func (c *Canvas) ActiveColor() Color { return c.activeColor }

// NewCanvas replaces the grid with an empty rows×cols grid and clears the
// legend and the selection. The fresh project starts clean.
func (c *Canvas) NewCanvas(rows, cols int) error {
	g, err := NewGrid(rows, cols)
	if err != nil {
		return c.report(err)
	}
	c.loading = true
	defer func() { c.loading = false }()

	c.cancelGesture()
	c.selection = make(map[Cell]struct{})
	c.replaceGrid(g)
	c.legend.Clear()
	c.setDirty(false)
	c.emitScene()
	return nil
}

func (c *Canvas) replaceGrid(g *Grid) {
	g.OnChange(c.sceneChanged)
	c.grid = g
}

// Stamp places the active symbol in the active color over reg.
func (c *Canvas) Stamp(reg Region) error {
	sym, ok := c.ActiveSymbol()
	if !ok {
		if c.hasActive {
			return c.report(fmt.Errorf("%w: unknown symbol %v", ErrIncompatibleRegion, c.activeKey))
		}
		return c.report(fmt.Errorf("%w: no active symbol", ErrIncompatibleRegion))
	}
	return c.report(c.grid.Stamp(reg, sym, c.activeColor))
}

// Clear reverts reg to the default stitch. Regions cutting through a
// multi-cell item are refused.
func (c *Canvas) Clear(reg Region) error {
	return c.report(c.grid.Clear(reg))
}

// Press starts a gesture on cell. A gesture already in progress is cancelled.
func (c *Canvas) Press(cell Cell, mods Modifier) {
	c.state = pressing
	c.anchor, c.cursor, c.mods = cell, cell, mods
}

// Drag extends the gesture in progress to cell.
func (c *Canvas) Drag(cell Cell) {
	if c.state == pressing {
		c.cursor = cell
	}
}

// Release completes the gesture in progress: with an active symbol the
// touched region is stamped, otherwise it updates the selection.
func (c *Canvas) Release() error {
	if c.state != pressing {
		return nil
	}
	c.state = idle
	reg := RegionOf(c.anchor, c.cursor).Intersect(c.grid.Bounds())
	if reg.Empty() {
		return nil
	}
	click := c.anchor == c.cursor
	return c.commit(reg, c.mods, click)
}

// Cancel aborts the gesture in progress without touching the grid.
func (c *Canvas) Cancel() { c.cancelGesture() }

func (c *Canvas) cancelGesture() { c.state = idle }

// Gesturing reports whether a press is in progress.
func (c *Canvas) Gesturing() bool { return c.state == pressing }

// OnCellPress handles a click on cell.
func (c *Canvas) OnCellPress(cell Cell, mods Modifier) error {
	c.Press(cell, mods)
	return c.Release()
}

// OnDragSelect handles a completed rubber band selection over reg.
func (c *Canvas) OnDragSelect(reg Region, mods Modifier) error {
	c.cancelGesture()
	reg = reg.Intersect(c.grid.Bounds())
	if reg.Empty() {
		return nil
	}
	return c.commit(reg, mods, false)
}

// SceneToRegion converts a rubber band in scene pixels into a grid region.
func (c *Canvas) SceneToRegion(x0, y0, x1, y1 int) (Region, bool) {
	return SceneToRegion(image.Rect(x0, y0, x1, y1), c.cfg.CellWidth, c.cfg.CellHeight, c.grid.Rows(), c.grid.Cols())
}

func (c *Canvas) commit(reg Region, mods Modifier, click bool) error {
	if c.hasActive {
		return c.Stamp(reg)
	}

	switch {
	case click:
		cell := Cell{Row: reg.Top, Col: reg.Left}
		if _, ok := c.selection[cell]; ok {
			delete(c.selection, cell)
		} else {
			c.selection[cell] = struct{}{}
		}
	case mods&ModControl != 0:
		c.toggleRegion(reg)
	case mods&ModShift != 0:
		c.selectRegion(reg)
	default:
		c.selection = make(map[Cell]struct{})
		c.selectRegion(reg)
	}
	c.emitScene()
	return nil
}

func (c *Canvas) selectRegion(reg Region) {
	for r := reg.Top; r < reg.Bottom; r++ {
		for col := reg.Left; col < reg.Right; col++ {
			c.selection[Cell{Row: r, Col: col}] = struct{}{}
		}
	}
}

func (c *Canvas) toggleRegion(reg Region) {
	for r := reg.Top; r < reg.Bottom; r++ {
		for col := reg.Left; col < reg.Right; col++ {
			cell := Cell{Row: r, Col: col}
			if _, ok := c.selection[cell]; ok {
				delete(c.selection, cell)
			} else {
				c.selection[cell] = struct{}{}
			}
		}
	}
}

// SelectedCells returns the selected cells in row-major order.
func (c *Canvas) SelectedCells() []Cell {
	cells := make([]Cell, 0, len(c.selection))
	for cell := range c.selection {
		cells = append(cells, cell)
	}
	slices.SortFunc(cells, Cell.less)
	return cells
}

// Selection returns the bounding box of the selected cells.
func (c *Canvas) Selection() (Region, bool) {
	var reg Region
	for cell := range c.selection {
		reg = reg.Union(CellRegion(cell))
	}
	return reg, !reg.Empty()
}

// Deselect empties the selection.
func (c *Canvas) Deselect() {
	if len(c.selection) == 0 {
		return
	}
	c.selection = make(map[Cell]struct{})
	c.emitScene()
}

// StampSelection stamps the active symbol over the bounding box of the selection.
func (c *Canvas) StampSelection() error {
	reg, ok := c.Selection()
	if !ok {
		return nil
	}
	if err := c.Stamp(reg); err != nil {
		return err
	}
	c.Deselect()
	return nil
}

// ClearSelected reverts the bounding box of the selection to the default stitch.
func (c *Canvas) ClearSelected() error {
	reg, ok := c.Selection()
	if !ok {
		return nil
	}
	if err := c.Clear(reg); err != nil {
		return err
	}
	c.Deselect()
	return nil
}

// OnInsertDeleteRequested performs a row or column edit around pivot.
// The selection is dropped since its coordinates no longer apply.
func (c *Canvas) OnInsertDeleteRequested(kind EditKind, n, pivot int, mode Placement) error {
	var err error
	switch kind {
	case InsertRows:
		err = c.grid.InsertRows(pivot, n, mode)
	case DeleteRows:
		err = c.grid.DeleteRows(pivot, n)
	case InsertColumns:
		err = c.grid.InsertColumns(pivot, n, mode)
	case DeleteColumns:
		err = c.grid.DeleteColumns(pivot, n)
	default:
		err = fmt.Errorf("unknown edit %v", kind)
	}
	if err != nil {
		return c.report(err)
	}
	c.Deselect()
	return nil
}

// Resize changes the grid size, deleting trailing rows or columns when shrinking.
func (c *Canvas) Resize(rows, cols int) error {
	if err := c.grid.Resize(rows, cols); err != nil {
		return c.report(err)
	}
	c.selection = make(map[Cell]struct{})
	return nil
}

// SetLegendPosition moves a legend swatch or label.
func (c *Canvas) SetLegendPosition(key LegendKey, kind PositionKind, x, y int) error {
	return c.legend.SetPosition(key, kind, image.Pt(x, y))
}

// SetLegendText edits a legend label.
func (c *Canvas) SetLegendText(key LegendKey, text string) error {
	return c.legend.SetText(key, text)
}

// Project returns a snapshot of the open project.
func (c *Canvas) Project() *Project {
	p := &Project{
		APIVersion: APIVersion,
		Rows:       c.grid.Rows(),
		Cols:       c.grid.Cols(),
		Items:      c.grid.Items(),
		Legend:     c.legend.Entries(),
		Colors:     c.palette.Colors(),
	}
	p.ActiveColor, _ = c.palette.Active()
	if key, ok := c.symbols.Active(); ok {
		p.ActiveSymbol = &key
	}
	return p
}

// LoadProject replaces the grid, the legend, the palette state and the
// active symbol with those of p. Nothing changes when p violates a project
// invariant. Legend entries missing from p are created like on a refresh.
func (c *Canvas) LoadProject(p *Project) error {
	if err := c.loadProject(p); err != nil {
		return c.report(err)
	}
	return nil
}

func (c *Canvas) loadProject(p *Project) error {
	g, err := NewGrid(p.Rows, p.Cols)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProjectInvariantViolated, err)
	}
	if err := g.Load(p.Items, p.Rows, p.Cols); err != nil {
		return fmt.Errorf("%w: %v", ErrProjectInvariantViolated, err)
	}
	for _, it := range p.Items {
		if sym, ok := c.lib.Lookup(it.Symbol.Key()); !ok || sym.Width != it.Symbol.Width {
			return fmt.Errorf("%w: item %v does not match the symbol library", ErrProjectInvariantViolated, it)
		}
	}

	needed := Needed(g)
	entries := make([]LegendEntry, 0, len(p.Legend))
	for _, e := range p.Legend {
		sym, ok := needed[e.Key]
		if !ok {
			return fmt.Errorf("%w: legend entry %v has no grid item", ErrProjectInvariantViolated, e.Key)
		}
		e.Symbol = sym
		entries = append(entries, e)
	}

	if len(p.Colors) == 0 || p.ActiveColor < 0 || p.ActiveColor >= len(p.Colors) {
		return fmt.Errorf("%w: active color %d of %d", ErrProjectInvariantViolated, p.ActiveColor, len(p.Colors))
	}

	var active SymbolKey
	hasActive := p.ActiveSymbol != nil
	if hasActive {
		active = *p.ActiveSymbol
		if _, ok := c.lib.Lookup(active); !ok {
			return fmt.Errorf("%w: unknown active symbol %v", ErrProjectInvariantViolated, active)
		}
	}

	c.loading = true
	defer func() { c.loading = false }()

	c.cancelGesture()
	c.selection = make(map[Cell]struct{})
	c.replaceGrid(g)
	c.legend.restore(entries)
	c.legend.Refresh(c.grid, c.cfg)
	if err := c.palette.restore(p.Colors, p.ActiveColor); err != nil {
		return err
	}
	c.symbols.restore(active, hasActive)

	c.setDirty(false)
	c.emitScene()
	return nil
}

package sconcho

import (
	"errors"
	"fmt"
)

// DefaultColors is the palette of a new project.
var DefaultColors = []Color{
	White,
	MustParseColor("#000000"),
	MustParseColor("#ff0000"),
	MustParseColor("#00aa00"),
	MustParseColor("#0000ff"),
	MustParseColor("#ffff00"),
	MustParseColor("#ff8800"),
	MustParseColor("#aa00ff"),
	MustParseColor("#888888"),
}

// Palette is a fixed-length ordered list of colors with exactly one active slot.
// Unlike the symbol tracker it never transitions to a state without selection.
// Its length only changes when a project is loaded: the project file decides
// how many slots there are.
type Palette struct {
	colors    []Color
	active    int
	onColor   []func(index int, c Color)
	onChanged []func()
}

// NewPalette creates a palette whose first slot is active.
// A palette needs at least one color.
func NewPalette(colors ...Color) (*Palette, error) {
	if len(colors) == 0 {
		return nil, errors.New("palette needs at least one color")
	}
	return &Palette{colors: append([]Color(nil), colors...)}, nil
}

// DefaultPalette returns a palette holding DefaultColors.
func DefaultPalette() *Palette {
	p, _ := NewPalette(DefaultColors...)
	return p
}

// Len returns the number of color slots.
func (p *Palette) Len() int { return len(p.colors) }

// Colors returns a copy of the color slots.
func (p *Palette) Colors() []Color { return append([]Color(nil), p.colors...) }

// Color returns the color in slot i.
func (p *Palette) Color(i int) Color { return p.colors[i] }

// Active returns the active slot and its color.
func (p *Palette) Active() (int, Color) { return p.active, p.colors[p.active] }

// OnColorChanged registers fn to receive the active color after every selection.
func (p *Palette) OnColorChanged(fn func(index int, c Color)) {
	p.onColor = append(p.onColor, fn)
}

// OnChanged registers fn to be called after any mutation of the palette.
func (p *Palette) OnChanged(fn func()) {
	p.onChanged = append(p.onChanged, fn)
}

// SetActive makes slot i the active color. Re-selecting the active slot
// emits the notification again so that consumers can redraw.
func (p *Palette) SetActive(i int) error {
	if i < 0 || i >= len(p.colors) {
		return fmt.Errorf("%w: color slot %d of %d", ErrOutOfBounds, i, len(p.colors))
	}
	p.active = i
	p.emitColor()
	p.emitChanged()
	return nil
}

// Recolor replaces the color of slot i. The active index is unchanged.
func (p *Palette) Recolor(i int, c Color) error {
	if i < 0 || i >= len(p.colors) {
		return fmt.Errorf("%w: color slot %d of %d", ErrOutOfBounds, i, len(p.colors))
	}
	p.colors[i] = c
	if i == p.active {
		p.emitColor()
	}
	p.emitChanged()
	return nil
}

// restore replaces every slot and the active index in one step.
func (p *Palette) restore(colors []Color, active int) error {
	if len(colors) == 0 {
		return errors.New("palette needs at least one color")
	}
	if active < 0 || active >= len(colors) {
		return fmt.Errorf("%w: active color slot %d of %d", ErrOutOfBounds, active, len(colors))
	}
	p.colors = append([]Color(nil), colors...)
	p.active = active
	p.emitColor()
	return nil
}

func (p *Palette) emitColor() {
	for _, fn := range p.onColor {
		fn(p.active, p.colors[p.active])
	}
}

func (p *Palette) emitChanged() {
	for _, fn := range p.onChanged {
		fn()
	}
}

// Package preview shows a chart in a Gio window. The user can stamp the
// active symbol, rubber-band select cells, clear the selection and save
// the project while the window is open.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"path/filepath"

	"gioui.org/app"
	"gioui.org/f32"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"github.com/esimov/sconcho"
	"github.com/esimov/sconcho/utils"
)

const (
	MaxScreenX = 1366
	MaxScreenY = 768
)

var defaultBkgColor = color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}

// Gui renders the document of the editor loop into a window and turns
// pointer and key events into canvas operations. Every canvas access is
// posted to the loop.
type Gui struct {
	doc  *sconcho.Document
	loop *sconcho.Loop
	win  *app.Window

	// Prompt is asked before a dirty project is closed.
	Prompt sconcho.PromptFunc

	stale chan struct{}

	// Last rendered scene and its placement in the window.
	img    *image.NRGBA
	bounds image.Rectangle
	cell   image.Point
	title  string
	scale  float32
	origin f32.Point

	band struct {
		active     bool
		start, end f32.Point
	}
}

// NewGUI initializes the preview of doc. The document must only be
// modified through loop while the window is open.
func NewGUI(doc *sconcho.Document, loop *sconcho.Loop) *Gui {
	return &Gui{
		doc:   doc,
		loop:  loop,
		stale: make(chan struct{}, 1),
		scale: 1,
	}
}

// invalidate runs on the loop whenever the scene or the dirty flag changes.
func (g *Gui) invalidate() {
	select {
	case g.stale <- struct{}{}:
	default:
	}
}

// sync runs fn on the loop and waits for it to finish. It reports false
// when the loop has stopped.
func (g *Gui) sync(fn func()) bool {
	done := make(chan struct{})
	if !g.loop.Post(func() {
		defer close(done)
		fn()
	}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-g.loop.Done():
		return false
	}
}

// refresh renders the current scene on the loop.
func (g *Gui) refresh() {
	g.sync(func() {
		c := g.doc.Canvas()
		b := c.Renderer().Bounds(c.Scene(), sconcho.AllLayers)
		img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		if err := c.RenderLayers(img, b, sconcho.AllLayers); err != nil {
			log.Printf("sconcho: %v", err)
			return
		}
		cfg := c.Config()
		g.img, g.bounds = img, b
		g.cell = image.Pt(cfg.CellWidth, cfg.CellHeight)
		g.title = windowTitle(g.doc.Path(), g.doc.Dirty())
	})
}

func windowTitle(path string, dirty bool) string {
	name := "untitled"
	if path != "" {
		name = filepath.Base(path)
	}
	if dirty {
		name += " *"
	}
	return fmt.Sprintf("sconcho - %s", name)
}

// windowSize returns the initial window size: the scene size, scaled down
// to the screen limits keeping the aspect ratio.
func windowSize(w, h int) (float32, float32) {
	nw, nh := float64(w), float64(h)
	if w > MaxScreenX || h > MaxScreenY {
		ratio := math.Min(float64(MaxScreenX)/nw, float64(MaxScreenY)/nh)
		nw, nh = nw*ratio, nh*ratio
	}
	return float32(utils.Max(nw, 200)), float32(utils.Max(nh, 200))
}

// Run opens the window and processes its events until the window is
// destroyed or the loop stops. It must not be called from the goroutine
// running the loop.
func (g *Gui) Run() error {
	g.sync(func() {
		c := g.doc.Canvas()
		c.OnSceneChanged(g.invalidate)
		c.OnDirtyChanged(func(bool) { g.invalidate() })
	})
	g.refresh()
	if g.img == nil {
		return errors.New("the editor loop is not running")
	}

	width, height := windowSize(g.img.Bounds().Dx(), g.img.Bounds().Dy())
	g.win = app.NewWindow(
		app.Title(g.title),
		app.Size(unit.Dp(width), unit.Dp(height)),
	)

	var ops op.Ops
	loopDone := g.loop.Done()
	for {
		select {
		case e := <-g.win.Events():
			switch e := e.(type) {
			case system.FrameEvent:
				gtx := layout.NewContext(&ops, e)
				g.draw(gtx)
				e.Frame(gtx.Ops)
			case key.Event:
				g.handleKey(e)
			case system.DestroyEvent:
				g.sync(func() {
					if err := g.doc.Close(g.Prompt); err != nil && !errors.Is(err, sconcho.ErrCancelled) {
						log.Printf("sconcho: %v", err)
					}
				})
				return e.Err
			}
		case <-g.stale:
			title := g.title
			g.refresh()
			if g.title != title {
				g.win.Option(app.Title(g.title))
			}
			g.win.Invalidate()
		case <-loopDone:
			loopDone = nil
			g.win.Perform(system.ActionClose)
		}
	}
}

// draw lays the rendered scene out centered in the window, scaled to fit.
func (g *Gui) draw(gtx layout.Context) {
	paint.Fill(gtx.Ops, defaultBkgColor)
	if g.img == nil {
		return
	}

	screen := layout.FPt(gtx.Constraints.Max)
	iw, ih := float32(g.img.Bounds().Dx()), float32(g.img.Bounds().Dy())
	g.scale = utils.Min(screen.X/iw, screen.Y/ih)
	g.origin = f32.Pt((screen.X-iw*g.scale)/2, (screen.Y-ih*g.scale)/2)

	area := clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops)
	pointer.InputOp{
		Tag:   g,
		Types: pointer.Press | pointer.Drag | pointer.Release | pointer.Cancel,
	}.Add(gtx.Ops)
	area.Pop()

	for _, ev := range gtx.Events(g) {
		if e, ok := ev.(pointer.Event); ok {
			g.handlePointer(e)
		}
	}

	tr := op.Affine(f32.Affine2D{}.
		Scale(f32.Point{}, f32.Pt(g.scale, g.scale)).
		Offset(g.origin),
	).Push(gtx.Ops)
	src := paint.NewImageOp(g.img)
	src.Add(gtx.Ops)
	pic := clip.Rect{Max: g.img.Bounds().Size()}.Push(gtx.Ops)
	paint.PaintOp{}.Add(gtx.Ops)
	pic.Pop()
	tr.Pop()

	if g.band.active {
		g.drawBand(gtx.Ops, g.band.start, g.band.end)
	}
}

// toCell converts a window position into the grid cell below it.
func (g *Gui) toCell(p f32.Point) sconcho.Cell {
	x := int(math.Floor(float64((p.X-g.origin.X)/g.scale))) + g.bounds.Min.X
	y := int(math.Floor(float64((p.Y-g.origin.Y)/g.scale))) + g.bounds.Min.Y
	return sconcho.Cell{
		Row: utils.FloorDiv(y, utils.Max(g.cell.Y, 1)),
		Col: utils.FloorDiv(x, utils.Max(g.cell.X, 1)),
	}
}

func modifiers(m key.Modifiers) sconcho.Modifier {
	var mods sconcho.Modifier
	if m.Contain(key.ModShift) {
		mods |= sconcho.ModShift
	}
	if m.Contain(key.ModCtrl) || m.Contain(key.ModCommand) {
		mods |= sconcho.ModControl
	}
	return mods
}

func (g *Gui) handlePointer(e pointer.Event) {
	cell := g.toCell(e.Position)
	switch e.Type {
	case pointer.Press:
		g.band.active = true
		g.band.start, g.band.end = e.Position, e.Position
		mods := modifiers(e.Modifiers)
		g.sync(func() { g.doc.Canvas().Press(cell, mods) })
	case pointer.Drag:
		g.band.end = e.Position
		g.sync(func() { g.doc.Canvas().Drag(cell) })
		g.win.Invalidate()
	case pointer.Release:
		g.band.active = false
		g.sync(func() {
			c := g.doc.Canvas()
			c.Drag(cell)
			// Rejected stamps are reported by the canvas.
			_ = c.Release()
		})
		g.win.Invalidate()
	case pointer.Cancel:
		g.band.active = false
		g.sync(func() { g.doc.Canvas().Cancel() })
		g.win.Invalidate()
	}
}

func (g *Gui) handleKey(e key.Event) {
	if e.State != key.Press {
		return
	}
	switch {
	case e.Name == key.NameEscape:
		var gesturing bool
		g.sync(func() {
			c := g.doc.Canvas()
			if gesturing = c.Gesturing(); gesturing {
				c.Cancel()
			}
		})
		if gesturing {
			g.band.active = false
			g.win.Invalidate()
			return
		}
		g.win.Perform(system.ActionClose)
	case e.Name == key.NameDeleteForward || e.Name == key.NameDeleteBackward:
		g.sync(func() { _ = g.doc.Canvas().ClearSelected() })
	case e.Name == key.NameReturn || e.Name == key.NameEnter:
		g.sync(func() { _ = g.doc.Canvas().StampSelection() })
	case e.Name == "S" && e.Modifiers.Contain(key.ModShortcut):
		g.sync(func() {
			if err := g.doc.Save(); err != nil {
				log.Printf("sconcho: %s", sconcho.Message(err))
			}
		})
	}
}

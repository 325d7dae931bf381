package preview

import (
	"image/color"

	"gioui.org/f32"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"github.com/esimov/sconcho/utils"
)

var bandColor = color.NRGBA{R: 0x2e, G: 0x8b, B: 0xff, A: 0xff}

// drawBand outlines the rubber band spanned by the pointer from p1 to p2.
func (g *Gui) drawBand(ops *op.Ops, p1, p2 f32.Point) {
	var (
		minPt = f32.Pt(utils.Min(p1.X, p2.X), utils.Min(p1.Y, p2.Y))
		maxPt = f32.Pt(utils.Max(p1.X, p2.X), utils.Max(p1.Y, p2.Y))
		path  clip.Path
	)

	path.Begin(ops)
	path.MoveTo(minPt)
	path.LineTo(f32.Pt(maxPt.X, minPt.Y))
	path.LineTo(maxPt)
	path.LineTo(f32.Pt(minPt.X, maxPt.Y))
	path.Close()

	defer clip.Stroke{Path: path.End(), Width: 1.5}.Op().Push(ops).Pop()
	paint.ColorOp{Color: bandColor}.Add(ops)
	paint.PaintOp{}.Add(ops)
}

package imop

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/esimov/sconcho/utils"
)

const (
	Copy    = "copy"
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcIn   = "src_in"
	DstIn   = "dst_in"
	SrcOut  = "src_out"
	DstOut  = "dst_out"
	SrcAtop = "src_atop"
	DstAtop = "dst_atop"
	Xor     = "xor"
)

// Bitmap is the destination of a composition.
type Bitmap struct {
	Img *image.NRGBA
}

// Composite holds the currently active composition operation.
type Composite struct {
	current string
	ops     []string
}

// NewBitmap allocates a transparent bitmap.
func NewBitmap(rect image.Rectangle) *Bitmap {
	return &Bitmap{
		Img: image.NewNRGBA(rect),
	}
}

// InitOp returns a Composite set to the Copy operation.
func InitOp() *Composite {
	return &Composite{
		current: Copy,
		ops: []string{
			Copy,
			SrcOver,
			DstOver,
			SrcIn,
			DstIn,
			SrcOut,
			DstOut,
			SrcAtop,
			DstAtop,
			Xor,
		},
	}
}

// Set activates one of the supported composition operations.
func (op *Composite) Set(cop string) error {
	if !utils.Contains(op.ops, cop) {
		return fmt.Errorf("unsupported composition operation: %v", cop)
	}
	op.current = cop
	return nil
}

// Get returns the active composition operation.
func (op *Composite) Get() string {
	return op.current
}

// coefficients returns the Porter-Duff weights of source and backdrop.
func (op *Composite) coefficients(as, ab float64) (fa, fb float64) {
	switch op.current {
	case SrcOver:
		return 1, 1 - as
	case DstOver:
		return 1 - ab, 1
	case SrcIn:
		return ab, 0
	case DstIn:
		return 0, as
	case SrcOut:
		return 1 - ab, 0
	case DstOut:
		return 0, 1 - as
	case SrcAtop:
		return ab, 1 - as
	case DstAtop:
		return 1 - ab, as
	case Xor:
		return 1 - ab, 1 - as
	}
	return 1, 0
}

// Draw composites src over the backdrop dst into bitmap. When blend is not
// nil the source color is first mixed with the backdrop using the blend mode.
// src and dst must have the same bounds.
func (op *Composite) Draw(bitmap *Bitmap, src, dst *image.NRGBA, blend *Blend) {
	bounds := src.Bounds()
	if bitmap == nil {
		bitmap = NewBitmap(bounds)
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			s := src.NRGBAAt(x, y)
			b := dst.NRGBAAt(x, y)

			as, ab := norm(s.A), norm(b.A)
			cs := [3]float64{norm(s.R), norm(s.G), norm(s.B)}
			cb := [3]float64{norm(b.R), norm(b.G), norm(b.B)}

			if blend != nil && blend.OpType != "" {
				for i := range cs {
					cs[i] = (1-ab)*cs[i] + ab*blend.apply(cs[i], cb[i])
				}
			}

			fa, fb := op.coefficients(as, ab)
			ao := as*fa + ab*fb

			var co [3]float64
			if ao > 0 {
				for i := range co {
					co[i] = (as*fa*cs[i] + ab*fb*cb[i]) / ao
				}
			}

			bitmap.Img.SetNRGBA(x, y, color.NRGBA{
				R: denorm(co[0]),
				G: denorm(co[1]),
				B: denorm(co[2]),
				A: denorm(ao),
			})
		}
	}
}

func norm(v uint8) float64 {
	return float64(v) / 255
}

func denorm(v float64) uint8 {
	return uint8(utils.Clamp(math.Round(v*255), 0, 255))
}

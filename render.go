package sconcho

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/esimov/sconcho/imop"
	"github.com/esimov/sconcho/utils"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Layer selects the parts of the scene drawn by a render pass.
type Layer uint8

const (
	// LayerGrid covers the cells, grid lines and row and column labels.
	LayerGrid Layer = 1 << iota
	// LayerLegend covers the legend swatches and their labels.
	LayerLegend
	// LayerSelection highlights the selected cells.
	LayerSelection

	SceneLayers = LayerGrid | LayerLegend
	AllLayers   = LayerGrid | LayerLegend | LayerSelection
)

var (
	lineColor      = color.NRGBA{A: 0xff}
	textColor      = color.NRGBA{A: 0xff}
	selectionColor = color.NRGBA{R: 0x2e, G: 0x8b, B: 0xff, A: 0x60}
)

// Scene is the read-only view of a canvas consumed by the renderer.
type Scene struct {
	Grid      *Grid
	Legend    *Legend
	Selection []Cell
}

type tileKey struct {
	path  string
	color Color
	w, h  int
}

// Renderer rasterises scenes. Symbol tiles are cached per symbol graphic,
// color and size. A Renderer is not safe for concurrent use.
type Renderer struct {
	cfg        Config
	labelFace  font.Face
	legendFace font.Face

	tiles map[tileKey]*image.NRGBA
	comp  *imop.Composite
	blend *imop.Blend
}

// NewRenderer returns a renderer for the given preferences.
func NewRenderer(cfg Config) *Renderer {
	r := &Renderer{
		comp:  imop.InitOp(),
		blend: imop.NewBlend(),
	}
	if err := r.comp.Set(imop.SrcOver); err != nil {
		log.Printf("sconcho: %v", err)
	}
	if err := r.blend.Set(imop.Multiply); err != nil {
		log.Printf("sconcho: %v", err)
	}
	r.SetConfig(cfg)
	return r
}

// SetConfig installs a new preference snapshot. Fonts which cannot be
// loaded are replaced by the embedded Go regular font.
func (r *Renderer) SetConfig(cfg Config) {
	cfg = cfg.normalize()
	if r.labelFace == nil || cfg.LabelFont != r.cfg.LabelFont {
		r.labelFace = loadFace(cfg.LabelFont)
	}
	if r.legendFace == nil || cfg.LegendFont != r.cfg.LegendFont {
		r.legendFace = loadFace(cfg.LegendFont)
	}
	if cfg.CellWidth != r.cfg.CellWidth || cfg.CellHeight != r.cfg.CellHeight {
		r.tiles = nil
	}
	r.cfg = cfg
}

func loadFace(spec FontSpec) font.Face {
	data := goregular.TTF
	if spec.Path != "" {
		b, err := os.ReadFile(spec.Path)
		if err != nil {
			log.Printf("sconcho: could not read font %q, using the default font: %v", spec.Path, err)
		} else {
			data = b
		}
	}
	f, err := truetype.Parse(data)
	if err != nil {
		log.Printf("sconcho: could not parse font %q, using the default font: %v", spec.Path, err)
		f, _ = truetype.Parse(goregular.TTF)
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    spec.Size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// labelBand returns the size of the row label column right of the grid and
// of the column label row below it.
func (r *Renderer) labelBand() image.Point {
	if r.cfg.LabelInterval == 0 {
		return image.Point{}
	}
	return image.Pt(r.cfg.CellWidth, r.cfg.CellHeight)
}

func (r *Renderer) gridRect(g *Grid) image.Rectangle {
	return image.Rect(0, 0, g.Cols()*r.cfg.CellWidth, g.Rows()*r.cfg.CellHeight)
}

func (r *Renderer) swatchRect(e LegendEntry) image.Rectangle {
	w := r.cfg.CellWidth
	if e.Symbol != nil {
		w *= e.Symbol.Width
	}
	return image.Rectangle{Min: e.SwatchPos, Max: e.SwatchPos.Add(image.Pt(w, r.cfg.CellHeight))}
}

func (r *Renderer) textRect(e LegendEntry) image.Rectangle {
	lines := strings.Split(e.Text, "\n")
	height := r.legendFace.Metrics().Height.Ceil()
	width := 0
	for _, line := range lines {
		width = utils.Max(width, font.MeasureString(r.legendFace, line).Ceil())
	}
	return image.Rectangle{Min: e.LabelPos, Max: e.LabelPos.Add(image.Pt(width, height*len(lines)))}
}

// Bounds returns the scene rectangle occupied by the selected layers.
func (r *Renderer) Bounds(s Scene, layers Layer) image.Rectangle {
	var b image.Rectangle
	if layers&(LayerGrid|LayerSelection) != 0 {
		gr := r.gridRect(s.Grid)
		if layers&LayerGrid != 0 {
			gr.Max = gr.Max.Add(r.labelBand())
		}
		b = b.Union(gr)
	}
	if layers&LayerLegend != 0 && s.Legend != nil {
		for _, e := range s.Legend.Entries() {
			b = b.Union(r.swatchRect(e)).Union(r.textRect(e))
		}
	}
	return b
}

// Draw renders the src rectangle of the scene into dst at one dst pixel per
// scene pixel, aligning src.Min with dst.Bounds().Min. The background is
// white unless the configuration asks for transparency.
func (r *Renderer) Draw(dst draw.Image, src image.Rectangle, s Scene, layers Layer) error {
	if src.Empty() {
		return fmt.Errorf("%w: empty render rectangle %v", ErrOutOfBounds, src)
	}
	dc := gg.NewContext(src.Dx(), src.Dy())
	if !r.cfg.Transparent {
		dc.SetColor(color.White)
		dc.Clear()
	}
	off := src.Min

	if layers&LayerGrid != 0 {
		r.drawCells(dc, off, s.Grid)
		r.drawLabels(dc, off, s.Grid)
	}
	if layers&LayerSelection != 0 {
		r.drawSelection(dc, off, s.Selection)
	}
	if layers&LayerLegend != 0 && s.Legend != nil {
		r.drawLegend(dc, off, s.Legend)
	}

	db := dst.Bounds()
	draw.Draw(dst, db, dc.Image(), image.Point{}, draw.Over)
	return nil
}

func (r *Renderer) drawCells(dc *gg.Context, off image.Point, g *Grid) {
	cw, ch := r.cfg.CellWidth, r.cfg.CellHeight
	for _, it := range g.Cells() {
		rect := image.Rect(it.Col*cw, it.Row*ch, it.end()*cw, (it.Row+1)*ch).Sub(off)
		r.drawTile(dc, rect, it.Symbol, it.Color)
		r.outline(dc, rect)
	}
}

// drawTile paints the symbol graphic over its background color.
func (r *Renderer) drawTile(dc *gg.Context, rect image.Rectangle, sym *Symbol, c Color) {
	tile := r.tile(sym, c, rect.Dx(), rect.Dy())
	dc.DrawImage(tile, rect.Min.X, rect.Min.Y)
}

// outline strokes the border of rect. Without anti-aliasing the border is
// set pixel by pixel so that it stays one pixel wide and crisp.
func (r *Renderer) outline(dc *gg.Context, rect image.Rectangle) {
	if r.cfg.Antialias {
		dc.SetColor(lineColor)
		dc.SetLineWidth(1)
		dc.DrawRectangle(float64(rect.Min.X)+0.5, float64(rect.Min.Y)+0.5, float64(rect.Dx()), float64(rect.Dy()))
		dc.Stroke()
		return
	}
	im, ok := dc.Image().(*image.RGBA)
	if !ok {
		return
	}
	line := &image.Uniform{C: lineColor}
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X+1, rect.Min.Y+1),
		image.Rect(rect.Min.X, rect.Max.Y, rect.Max.X+1, rect.Max.Y+1),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+1, rect.Max.Y+1),
		image.Rect(rect.Max.X, rect.Min.Y, rect.Max.X+1, rect.Max.Y+1),
	}
	for _, e := range edges {
		draw.Draw(im, e, line, image.Point{}, draw.Src)
	}
}

// showLabel reports whether the row or column number n is labelled.
func (r *Renderer) showLabel(n int) bool {
	iv := r.cfg.LabelInterval
	return iv > 0 && (n == 1 || n%iv == 0)
}

// drawLabels numbers rows on the right from the bottom and columns below
// the grid from the right, the way a knitter reads a chart.
func (r *Renderer) drawLabels(dc *gg.Context, off image.Point, g *Grid) {
	if r.cfg.LabelInterval == 0 {
		return
	}
	cw, ch := float64(r.cfg.CellWidth), float64(r.cfg.CellHeight)
	ox, oy := float64(off.X), float64(off.Y)
	rows, cols := g.Rows(), g.Cols()

	dc.SetFontFace(r.labelFace)
	dc.SetColor(textColor)
	for row := 0; row < rows; row++ {
		n := rows - row
		if r.showLabel(n) {
			x := float64(cols)*cw + cw/2 - ox
			y := float64(row)*ch + ch/2 - oy
			dc.DrawStringAnchored(strconv.Itoa(n), x, y, 0.5, 0.35)
		}
	}
	for col := 0; col < cols; col++ {
		n := cols - col
		if r.showLabel(n) {
			x := float64(col)*cw + cw/2 - ox
			y := float64(rows)*ch + ch/2 - oy
			dc.DrawStringAnchored(strconv.Itoa(n), x, y, 0.5, 0.35)
		}
	}
}

func (r *Renderer) drawSelection(dc *gg.Context, off image.Point, cells []Cell) {
	cw, ch := r.cfg.CellWidth, r.cfg.CellHeight
	dc.SetColor(selectionColor)
	for _, c := range cells {
		x, y := c.Col*cw-off.X, c.Row*ch-off.Y
		dc.DrawRectangle(float64(x), float64(y), float64(cw), float64(ch))
		dc.Fill()
	}
}

func (r *Renderer) drawLegend(dc *gg.Context, off image.Point, l *Legend) {
	height := float64(r.legendFace.Metrics().Height.Ceil())
	ascent := float64(r.legendFace.Metrics().Ascent.Ceil())

	for _, e := range l.Entries() {
		if e.Symbol == nil {
			continue
		}
		rect := r.swatchRect(e).Sub(off)
		r.drawTile(dc, rect, e.Symbol, e.Key.Color)
		r.outline(dc, rect)

		dc.SetFontFace(r.legendFace)
		dc.SetColor(textColor)
		x := float64(e.LabelPos.X - off.X)
		y := float64(e.LabelPos.Y-off.Y) + ascent
		for i, line := range strings.Split(e.Text, "\n") {
			dc.DrawString(line, x, y+float64(i)*height)
		}
	}
}

// tile returns the cell image of sym in color c at the given pixel size.
func (r *Renderer) tile(sym *Symbol, c Color, w, h int) *image.NRGBA {
	key := tileKey{path: sym.SVGPath, color: c, w: w, h: h}
	if t, ok := r.tiles[key]; ok {
		return t
	}
	if r.tiles == nil {
		r.tiles = make(map[tileKey]*image.NRGBA)
	}

	rect := image.Rect(0, 0, w, h)
	backdrop := image.NewNRGBA(rect)
	draw.Draw(backdrop, rect, &image.Uniform{C: c.NRGBA()}, image.Point{}, draw.Src)

	t := backdrop
	if icon := r.icon(sym.SVGPath, w, h); icon != nil {
		t = image.NewNRGBA(rect)
		r.comp.Draw(&imop.Bitmap{Img: t}, icon, backdrop, r.blend)
	}
	r.tiles[key] = t
	return t
}

// icon rasterises the SVG file at path into a w×h image. It returns nil for
// symbols without a graphic or when the file cannot be read.
func (r *Renderer) icon(path string, w, h int) *image.NRGBA {
	if path == "" {
		return nil
	}
	svg, err := oksvg.ReadIcon(path, oksvg.WarnErrorMode)
	if err != nil {
		log.Printf("sconcho: could not read symbol graphic %q: %v", path, err)
		return nil
	}
	svg.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	svg.Draw(raster, 1.0)

	return imgToNRGBA(img)
}

// Renderer returns the renderer of the canvas, creating it on first use.
func (c *Canvas) Renderer() *Renderer {
	if c.renderer == nil {
		c.renderer = NewRenderer(c.cfg)
	}
	return c.renderer
}

// Scene returns the current view of the canvas.
func (c *Canvas) Scene() Scene {
	return Scene{Grid: c.grid, Legend: c.legend, Selection: c.SelectedCells()}
}

// SceneBounds returns the bounding rectangle of the grid, its labels and the legend.
func (c *Canvas) SceneBounds() image.Rectangle {
	return c.Renderer().Bounds(c.Scene(), SceneLayers)
}

// Render draws the src rectangle of the grid and the legend into dst,
// honouring the anti-aliasing and transparency preferences. It does not
// modify the canvas.
func (c *Canvas) Render(dst draw.Image, src image.Rectangle) error {
	return c.RenderLayers(dst, src, SceneLayers)
}

// RenderLayers is like Render but draws only the selected layers.
func (c *Canvas) RenderLayers(dst draw.Image, src image.Rectangle, layers Layer) error {
	return c.Renderer().Draw(dst, src, c.Scene(), layers)
}

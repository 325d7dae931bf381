package sconcho

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/esimov/sconcho/utils"
)

// ProjectSuffix is the file suffix of sconcho projects.
const ProjectSuffix = ".spf"

// Element names of the project format.
const (
	elRoot            = "sconcho"
	elAPI             = "api"
	elCanvasItem      = "canvasItem"
	elGridItem        = "patternGridItem"
	elLegendEntry     = "legendEntry"
	elProjectColors   = "projectColors"
	elColor           = "color"
	elActiveSymbol    = "activeSymbol"
	elColIndex        = "colIndex"
	elRowIndex        = "rowIndex"
	elWidth           = "width"
	elHeight          = "height"
	elBackgroundColor = "backgroundColor"
	elCategory        = "patternCategory"
	elName            = "patternName"
	elItemX           = "itemXPos"
	elItemY           = "itemYPos"
	elLabelX          = "labelXPos"
	elLabelY          = "labelYPos"
	elDescription     = "description"
	elColorName       = "name"
	elColorActive     = "active"

	noActiveSymbol = "None"
)

// projectWriter emits the element tree with a fixed element order so that
// equal projects produce identical files.
type projectWriter struct {
	enc *xml.Encoder
	err error
}

func (w *projectWriter) token(t xml.Token) {
	if w.err == nil {
		w.err = w.enc.EncodeToken(t)
	}
}

func (w *projectWriter) start(name string) {
	w.token(xml.StartElement{Name: xml.Name{Local: name}})
}

func (w *projectWriter) end(name string) {
	w.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (w *projectWriter) leaf(name, value string) {
	w.start(name)
	if value != "" {
		w.token(xml.CharData(value))
	}
	w.end(name)
}

func (w *projectWriter) int(name string, v int) {
	w.leaf(name, strconv.Itoa(v))
}

// WriteProject serializes p. Every cell of the grid is written, default
// stitches included, so that the grid size can be recovered on reading.
func WriteProject(out io.Writer, p *Project) error {
	g, err := NewGrid(p.Rows, p.Cols)
	if err != nil {
		return err
	}
	if err := g.Load(p.Items, p.Rows, p.Cols); err != nil {
		return err
	}

	bw := bufio.NewWriter(out)
	if _, err := bw.WriteString(xml.Header); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}

	enc := xml.NewEncoder(bw)
	enc.Indent("", "  ")
	w := &projectWriter{enc: enc}

	w.start(elRoot)
	w.leaf(elAPI, APIVersion)

	for _, it := range g.Cells() {
		w.start(elCanvasItem)
		w.start(elGridItem)
		w.int(elColIndex, it.Col)
		w.int(elRowIndex, it.Row)
		w.int(elWidth, it.Width())
		w.int(elHeight, it.Height())
		w.leaf(elBackgroundColor, it.Color.Hex())
		w.leaf(elCategory, it.Symbol.Category)
		w.leaf(elName, it.Symbol.Name)
		w.end(elGridItem)
		w.end(elCanvasItem)
	}

	for _, e := range p.Legend {
		w.start(elCanvasItem)
		w.start(elLegendEntry)
		w.leaf(elCategory, e.Key.Category)
		w.leaf(elName, e.Key.Name)
		w.int(elItemX, e.SwatchPos.X)
		w.int(elItemY, e.SwatchPos.Y)
		w.int(elLabelX, e.LabelPos.X)
		w.int(elLabelY, e.LabelPos.Y)
		w.leaf(elBackgroundColor, e.Key.Color.Hex())
		w.leaf(elDescription, e.Text)
		w.end(elLegendEntry)
		w.end(elCanvasItem)
	}

	w.start(elProjectColors)
	for i, c := range p.Colors {
		active := 0
		if i == p.ActiveColor {
			active = 1
		}
		w.start(elColor)
		w.leaf(elColorName, c.Hex())
		w.int(elColorActive, active)
		w.end(elColor)
	}
	w.end(elProjectColors)

	w.start(elActiveSymbol)
	if p.ActiveSymbol != nil {
		w.leaf(elCategory, p.ActiveSymbol.Category)
		w.leaf(elName, p.ActiveSymbol.Name)
	} else {
		w.leaf(elName, noActiveSymbol)
	}
	w.end(elActiveSymbol)

	w.end(elRoot)
	if w.err == nil {
		w.err = enc.Flush()
	}
	if w.err == nil {
		_, w.err = bw.WriteString("\n")
	}
	if w.err == nil {
		w.err = bw.Flush()
	}
	if w.err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, w.err)
	}
	return nil
}

// node is a generic element subtree.
type node struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
	Nodes   []node `xml:",any"`
}

// child returns the first child element called name.
func (n *node) child(name string) (*node, bool) {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			return &n.Nodes[i], true
		}
	}
	return nil, false
}

// fieldReader extracts typed leaves from a node, remembering the first failure.
type fieldReader struct {
	n   *node
	err error
}

func (f *fieldReader) fail(format string, args ...interface{}) {
	if f.err == nil {
		f.err = fmt.Errorf("%w: <%s> %s", ErrMalformedItem, f.n.XMLName.Local, fmt.Sprintf(format, args...))
	}
}

func (f *fieldReader) str(name string) string {
	return strings.TrimSpace(f.text(name))
}

// text returns the character data of the child name verbatim.
func (f *fieldReader) text(name string) string {
	c, ok := f.n.child(name)
	if !ok {
		f.fail("missing <%s>", name)
		return ""
	}
	return c.Text
}

func (f *fieldReader) int(name string) int {
	s := f.str(name)
	if f.err != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		f.fail("<%s> is not an integer: %q", name, s)
	}
	return v
}

// pos reads a pixel coordinate. Fractional values are rounded.
func (f *fieldReader) pos(name string) int {
	s := f.str(name)
	if f.err != nil {
		return 0
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		f.fail("<%s> is not a number: %q", name, s)
		return 0
	}
	return int(math.Round(v))
}

func (f *fieldReader) color(name string) Color {
	s := f.str(name)
	if f.err != nil {
		return Color{}
	}
	c, err := ParseColor(s)
	if err != nil {
		f.fail("<%s>: %v", name, err)
	}
	return c
}

func (f *fieldReader) symbol(lib *Library, category, name string) *Symbol {
	if f.err != nil {
		return nil
	}
	sym, ok := lib.Lookup(SymbolKey{Category: category, Name: name})
	if !ok {
		f.fail("unknown symbol %s::%s", category, name)
	}
	return sym
}

// projectReader accumulates the project while the document is scanned.
type projectReader struct {
	lib       *Library
	p         *Project
	api       string
	hasAPI    bool
	hasColors bool
	// cells holds every grid item of the file, default stitches included.
	cells []Item
}

// ReadProject parses a project document. Grid items and legend entries are
// resolved against lib. Unknown elements are skipped; a missing or malformed
// field aborts the read with a *PatternReadError wrapping ErrMalformedItem,
// overlapping grid items with one wrapping ErrOverlap.
// A foreign api version is read on a best-effort basis and flagged in
// Project.VersionMismatch.
func ReadProject(in io.Reader, lib *Library) (*Project, error) {
	d := xml.NewDecoder(in)
	fail := func(err error) (*Project, error) {
		return nil, &PatternReadError{Offset: d.InputOffset(), Err: err}
	}

	if err := findRoot(d); err != nil {
		return fail(err)
	}

	pr := &projectReader{lib: lib, p: &Project{}}
	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fail(fmt.Errorf("%w: unexpected end of document", ErrMalformedItem))
			}
			return fail(fmt.Errorf("%w: %v", ErrMalformedItem, err))
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := pr.element(d, t); err != nil {
				return fail(err)
			}
		case xml.EndElement:
			p, err := pr.finish()
			if err != nil {
				return fail(err)
			}
			return p, nil
		}
	}
}

// findRoot advances the decoder past the opening root element.
func findRoot(d *xml.Decoder) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return fmt.Errorf("%w: not a project document: %v", ErrUnsupportedFormat, err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			if se.Name.Local != elRoot {
				return fmt.Errorf("%w: unexpected root <%s>", ErrUnsupportedFormat, se.Name.Local)
			}
			return nil
		}
	}
}

func (pr *projectReader) element(d *xml.Decoder, se xml.StartElement) error {
	switch se.Name.Local {
	case elAPI:
		var v string
		if err := d.DecodeElement(&v, &se); err != nil {
			return fmt.Errorf("%w: <api>: %v", ErrMalformedItem, err)
		}
		pr.api, pr.hasAPI = strings.TrimSpace(v), true
	case elCanvasItem, elProjectColors, elActiveSymbol:
		var n node
		if err := d.DecodeElement(&n, &se); err != nil {
			return fmt.Errorf("%w: <%s>: %v", ErrMalformedItem, se.Name.Local, err)
		}
		switch se.Name.Local {
		case elCanvasItem:
			return pr.canvasItem(&n)
		case elProjectColors:
			return pr.colors(&n)
		default:
			return pr.activeSymbol(&n)
		}
	default:
		return d.Skip()
	}
	return nil
}

func (pr *projectReader) canvasItem(n *node) error {
	if c, ok := n.child(elGridItem); ok {
		return pr.gridItem(c)
	}
	if c, ok := n.child(elLegendEntry); ok {
		return pr.legendEntry(c)
	}
	return nil
}

func (pr *projectReader) gridItem(n *node) error {
	f := &fieldReader{n: n}
	col := f.int(elColIndex)
	row := f.int(elRowIndex)
	width := f.int(elWidth)
	height := f.int(elHeight)
	color := f.color(elBackgroundColor)
	sym := f.symbol(pr.lib, f.str(elCategory), f.str(elName))
	if f.err != nil {
		return f.err
	}
	if width != sym.Width || height != 1 {
		f.fail("size %dx%d does not match %v", width, height, sym.Key())
		return f.err
	}
	if row < 0 || col < 0 {
		f.fail("negative position (%d,%d)", row, col)
		return f.err
	}

	it := Item{Row: row, Col: col, Symbol: sym, Color: color}
	pr.p.Rows = utils.Max(pr.p.Rows, row+1)
	pr.p.Cols = utils.Max(pr.p.Cols, it.end())
	pr.cells = append(pr.cells, it)
	return nil
}

func (pr *projectReader) legendEntry(n *node) error {
	f := &fieldReader{n: n}
	category, name := f.str(elCategory), f.str(elName)
	swatch := image.Pt(f.pos(elItemX), f.pos(elItemY))
	label := image.Pt(f.pos(elLabelX), f.pos(elLabelY))
	color := f.color(elBackgroundColor)
	text := f.text(elDescription)
	sym := f.symbol(pr.lib, category, name)
	if f.err != nil {
		return f.err
	}
	pr.p.Legend = append(pr.p.Legend, LegendEntry{
		Key:       LegendKey{Category: category, Name: name, Color: color},
		Symbol:    sym,
		SwatchPos: swatch,
		LabelPos:  label,
		Text:      text,
	})
	return nil
}

func (pr *projectReader) colors(n *node) error {
	var (
		colors []Color
		active = -1
	)
	for i := range n.Nodes {
		c := &n.Nodes[i]
		if c.XMLName.Local != elColor {
			continue
		}
		f := &fieldReader{n: c}
		col := f.color(elColorName)
		flag := f.int(elColorActive)
		if f.err != nil {
			return f.err
		}
		if flag == 1 {
			if active >= 0 {
				return fmt.Errorf("%w: more than one active project color", ErrMalformedItem)
			}
			active = len(colors)
		}
		colors = append(colors, col)
	}
	if active < 0 {
		return fmt.Errorf("%w: no active project color", ErrMalformedItem)
	}
	pr.p.Colors, pr.p.ActiveColor, pr.hasColors = colors, active, true
	return nil
}

func (pr *projectReader) activeSymbol(n *node) error {
	f := &fieldReader{n: n}
	name := f.str(elName)
	if f.err != nil {
		return f.err
	}
	if name == noActiveSymbol {
		pr.p.ActiveSymbol = nil
		return nil
	}
	category := f.str(elCategory)
	if f.err != nil {
		return f.err
	}
	pr.p.ActiveSymbol = &SymbolKey{Category: category, Name: name}
	return nil
}

func (pr *projectReader) finish() (*Project, error) {
	p := pr.p
	if p.Rows == 0 || p.Cols == 0 {
		return nil, fmt.Errorf("%w: project has no grid items", ErrMalformedItem)
	}
	g, err := NewGrid(p.Rows, p.Cols)
	if err != nil {
		return nil, err
	}
	if err := g.Load(pr.cells, p.Rows, p.Cols); err != nil {
		return nil, err
	}
	p.Items = g.Items()
	if !pr.hasColors {
		p.Colors, p.ActiveColor = append([]Color(nil), DefaultColors...), 0
	}
	p.APIVersion = pr.api
	if !pr.hasAPI || pr.api != APIVersion {
		p.VersionMismatch = true
		log.Printf("project api version %q differs from %q, reading on a best-effort basis", pr.api, APIVersion)
	}
	return p, nil
}

// SaveProject writes p to path. The file is replaced atomically.
func SaveProject(path string, p *Project) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteProject(tmp, p); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	return nil
}

// OpenProject reads the project stored at path.
func OpenProject(path string, lib *Library) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("could not close the opened file: %v", err)
		}
	}()
	return ReadProject(bufio.NewReader(f), lib)
}

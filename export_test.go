package sconcho

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func TestExport_FormatOf(t *testing.T) {
	for path, want := range map[string]string{
		"chart.png":      FormatPNG,
		"chart.PNG":      FormatPNG,
		"dir/chart.tif":  FormatTIFF,
		"dir/chart.tiff": FormatTIFF,
		"chart.bmp":      FormatBMP,
		"chart.jpg":      FormatJPEG,
		"chart.jpeg":     FormatJPEG,
	} {
		got, err := FormatOf(path)
		assert.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatOf("chart.gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = FormatOf("chart")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExport_SizeKeepsAspectRatio(t *testing.T) {
	for _, tc := range []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"natural", 0, 0, 200, 100},
		{"width only", 100, 0, 100, 50},
		{"height only", 0, 300, 600, 300},
		{"both", 50, 70, 50, 70},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w, h, err := exportSize(200, 100, tc.width, tc.height)
			assert.NoError(t, err)
			assert.Equal(t, tc.wantW, w)
			assert.Equal(t, tc.wantH, h)
		})
	}

	_, _, err := exportSize(200, 100, -1, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, _, err = exportSize(1000, 10, 10, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestExport_ImageHasTransparentMargin(t *testing.T) {
	assert := assert.New(t)
	c, _ := newTestCanvas(t, 2, 3)
	cfg := c.Config()

	img, err := c.ExportImage(0, 0)
	require.NoError(t, err)

	content := c.Renderer().Bounds(c.Scene(), cfg.ExportLayers())
	assert.Equal(content.Dx()+2*ExportMargin, img.Bounds().Dx())
	assert.Equal(content.Dy()+2*ExportMargin, img.Bounds().Dy())

	// The margin is transparent, the content background is opaque white.
	assert.Equal(uint8(0), img.NRGBAAt(0, 0).A)
	assert.Equal(uint8(0), img.NRGBAAt(img.Bounds().Dx()-1, img.Bounds().Dy()-1).A)
	inside := img.NRGBAAt(ExportMargin+cfg.CellWidth/2, ExportMargin+cfg.CellHeight/2)
	assert.Equal(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, inside)
}

func TestExport_TransparentBackground(t *testing.T) {
	c, _ := newTestCanvas(t, 2, 2)
	cfg := c.Config()
	cfg.Transparent = true
	cfg.ExportLegend = false
	c.SetConfig(cfg)

	img, err := c.ExportImage(0, 0)
	require.NoError(t, err)

	// The label band right of the grid has no background.
	x := ExportMargin + 2*cfg.CellWidth + 2
	y := ExportMargin + 2*cfg.CellHeight + 2
	assert.Equal(t, uint8(0), img.NRGBAAt(x, y).A)
}

func TestExport_ResizesToRequestedWidth(t *testing.T) {
	c, _ := newTestCanvas(t, 4, 4)
	natural, err := c.ExportImage(0, 0)
	require.NoError(t, err)

	img, err := c.ExportImage(natural.Bounds().Dx()/2, 0)
	require.NoError(t, err)
	assert.Equal(t, natural.Bounds().Dx()/2, img.Bounds().Dx())
	assert.InDelta(t, natural.Bounds().Dy()/2, img.Bounds().Dy(), 1)
}

func TestExport_NothingSelected(t *testing.T) {
	c, _ := newTestCanvas(t, 2, 2)
	cfg := c.Config()
	cfg.ExportGrid, cfg.ExportLegend = false, false
	c.SetConfig(cfg)

	_, err := c.ExportImage(0, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestExport_WritesFiles(t *testing.T) {
	c, _ := newTestCanvas(t, 3, 3)
	c.Symbols().Select(symC2.Key())
	require.NoError(t, c.Stamp(Region{Bottom: 1, Right: 2}))
	want, err := c.ExportImage(0, 0)
	require.NoError(t, err)
	dir := t.TempDir()

	for _, tc := range []struct {
		name   string
		decode func(f *os.File) (image.Image, error)
	}{
		{"chart.png", func(f *os.File) (image.Image, error) { return png.Decode(f) }},
		{"chart.tiff", func(f *os.File) (image.Image, error) { return tiff.Decode(f) }},
		{"chart.bmp", func(f *os.File) (image.Image, error) { return bmp.Decode(f) }},
		{"chart.jpg", nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name)
			require.NoError(t, c.Export(path, 0, 0))

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()

			if tc.decode == nil {
				cfg, format, err := image.DecodeConfig(f)
				require.NoError(t, err)
				assert.Equal(t, "jpeg", format)
				assert.Equal(t, want.Bounds().Dx(), cfg.Width)
				return
			}
			img, err := tc.decode(f)
			require.NoError(t, err)
			assert.Equal(t, want.Bounds().Size(), img.Bounds().Size())
		})
	}

	assert.ErrorIs(t, c.Export(filepath.Join(dir, "chart.gif"), 0, 0), ErrUnsupportedFormat)
}

func TestExport_EncodeUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := EncodeImage(&buf, "webp", image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExport_FlattenJPEGOverWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(1, 0, color.NRGBA{R: 0xff, A: 0xff})

	flat := flatten(img)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, flat.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, flat.NRGBAAt(1, 0))
}

package sconcho

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ExportMargin is the transparent border added around an exported chart.
const ExportMargin = 10

// Image formats understood by the exporter.
const (
	FormatPNG  = "png"
	FormatTIFF = "tiff"
	FormatBMP  = "bmp"
	FormatJPEG = "jpeg"
)

// FormatOf returns the image format selected by the suffix of path.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	case ".bmp":
		return FormatBMP, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	}
	return "", fmt.Errorf("%w: image suffix %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// ExportLayers returns the layers selected by the export preferences.
func (cfg Config) ExportLayers() Layer {
	var layers Layer
	if cfg.ExportGrid {
		layers |= LayerGrid
	}
	if cfg.ExportLegend {
		layers |= LayerLegend
	}
	return layers
}

// exportSize returns the output size for a natural size of w×h. A zero
// dimension follows the other one at the natural aspect ratio.
func exportSize(w, h, width, height int) (int, int, error) {
	if width < 0 || height < 0 {
		return 0, 0, fmt.Errorf("%w: export size %dx%d", ErrOutOfBounds, width, height)
	}
	switch {
	case width == 0 && height == 0:
		return w, h, nil
	case height == 0:
		height = int(math.Round(float64(width) * float64(h) / float64(w)))
	case width == 0:
		width = int(math.Round(float64(height) * float64(w) / float64(h)))
	}
	if width < 1 || height < 1 {
		return 0, 0, fmt.Errorf("%w: export size %dx%d", ErrOutOfBounds, width, height)
	}
	return width, height, nil
}

// ExportImage renders the chart with the layers chosen in the export
// preferences, surrounded by a transparent margin. A zero width and height
// keep the natural size; a single zero dimension keeps the aspect ratio.
func (c *Canvas) ExportImage(width, height int) (*image.NRGBA, error) {
	layers := c.cfg.ExportLayers()
	if layers == 0 {
		return nil, fmt.Errorf("%w: neither grid nor legend selected for export", ErrOutOfBounds)
	}
	content := c.Renderer().Bounds(c.Scene(), layers)
	if content.Empty() {
		return nil, fmt.Errorf("%w: nothing to export", ErrOutOfBounds)
	}

	frame := content.Sub(content.Min).Inset(-ExportMargin)
	img := image.NewNRGBA(frame.Sub(frame.Min))
	area := image.Rect(ExportMargin, ExportMargin, ExportMargin+content.Dx(), ExportMargin+content.Dy())
	if err := c.Renderer().Draw(img.SubImage(area).(*image.NRGBA), content, c.Scene(), layers); err != nil {
		return nil, err
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	dw, dh, err := exportSize(w, h, width, height)
	if err != nil {
		return nil, err
	}
	if dw == w && dh == h {
		return img, nil
	}
	return imaging.Resize(img, dw, dh, imaging.Lanczos), nil
}

// Export renders the chart into the image file at path. The format is
// chosen by the file suffix.
func (c *Canvas) Export(path string, width, height int) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	img, err := c.ExportImage(width, height)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if err := EncodeImage(f, format, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	return nil
}

// EncodeImage encodes img in the given format to w.
func EncodeImage(w io.Writer, format string, img image.Image) error {
	var err error
	switch format {
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case FormatBMP:
		err = bmp.Encode(w, img)
	case FormatJPEG:
		// JPEG has no alpha channel; the transparent margin becomes white.
		err = jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: 100})
	default:
		return fmt.Errorf("%w: image format %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	return nil
}

// flatten composes img over an opaque white background.
func flatten(img image.Image) *image.NRGBA {
	bg := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
	return imaging.Overlay(bg, imgToNRGBA(img), image.Point{}, 1.0)
}

// imgToNRGBA converts any image type to *image.NRGBA with min-point at (0, 0).
func imgToNRGBA(img image.Image) *image.NRGBA {
	srcBounds := img.Bounds()
	if srcBounds.Min.X == 0 && srcBounds.Min.Y == 0 {
		if src0, ok := img.(*image.NRGBA); ok {
			return src0
		}
	}
	srcMinX := srcBounds.Min.X
	srcMinY := srcBounds.Min.Y

	dstBounds := srcBounds.Sub(srcBounds.Min)
	dstW := dstBounds.Dx()
	dstH := dstBounds.Dy()
	dst := image.NewNRGBA(dstBounds)

	switch src := img.(type) {
	case *image.NRGBA:
		rowSize := dstW * 4
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			si := src.PixOffset(srcMinX, srcMinY+dstY)
			copy(dst.Pix[di:di+rowSize], src.Pix[si:si+rowSize])
		}
	default:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				c := color.NRGBAModel.Convert(img.At(srcMinX+dstX, srcMinY+dstY)).(color.NRGBA)
				dst.Pix[di+0] = c.R
				dst.Pix[di+1] = c.G
				dst.Pix[di+2] = c.B
				dst.Pix[di+3] = c.A
				di += 4
			}
		}
	}

	return dst
}

package utils

import (
	"bytes"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUtils_HexToRGBA(t *testing.T) {
	assert := assert.New(t)

	c, err := HexToRGBA("#ff8000")
	assert.NoError(err)
	assert.Equal(color.NRGBA{R: 0xff, G: 0x80, B: 0x00, A: 0xff}, c)

	c, err = HexToRGBA("#abc")
	assert.NoError(err)
	assert.Equal(color.NRGBA{R: 0xaa, G: 0xbb, B: 0xcc, A: 0xff}, c)

	_, err = HexToRGBA("#12345")
	assert.Error(err)
	_, err = HexToRGBA("#gggggg")
	assert.Error(err)
}

func TestUtils_RGBAToHex(t *testing.T) {
	assert.Equal(t, "#0a0b0c", RGBAToHex(color.NRGBA{R: 10, G: 11, B: 12, A: 0xff}))
	assert.Equal(t, "#ffffff", RGBAToHex(color.White))
}

func TestUtils_MinMaxClamp(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(1, Min(1, 2))
	assert.Equal(1, Min(2, 1))
	assert.Equal(2, Max(1, 2))
	assert.Equal(0, Clamp(-4, 0, 10))
	assert.Equal(10, Clamp(14, 0, 10))
	assert.Equal(5, Clamp(5, 0, 10))
}

func TestUtils_FloorDiv(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0, FloorDiv(29, 30))
	assert.Equal(1, FloorDiv(30, 30))
	assert.Equal(-1, FloorDiv(-1, 30))
	assert.Equal(-1, FloorDiv(-30, 30))
	assert.Equal(-2, FloorDiv(-31, 30))
}

func TestUtils_Contains(t *testing.T) {
	assert.True(t, Contains([]string{".png", ".tif"}, ".tif"))
	assert.False(t, Contains([]string{".png", ".tif"}, ".gif"))
}

func TestUtils_DecorateText(t *testing.T) {
	defer func(v bool) { NoColor = v }(NoColor)
	NoColor = false

	s := DecorateText("done", SuccessMessage)
	assert.True(t, strings.HasPrefix(s, SuccessColor))
	assert.True(t, strings.HasSuffix(s, DefaultColor))
	assert.Contains(t, StatusLine("saved", "✔", SuccessMessage), "saved")

	NoColor = true
	assert.Equal(t, AppBadge+" saved ✔", StatusLine("saved", "✔", SuccessMessage))
}

func TestUtils_FormatTime(t *testing.T) {
	assert.Equal(t, "1.50s", FormatTime(1500*time.Millisecond))
	assert.Equal(t, "2m 3.00s", FormatTime(2*time.Minute+3*time.Second))
	assert.Equal(t, "26h 1m 0.50s", FormatTime(26*time.Hour+time.Minute+500*time.Millisecond))
}

func TestUtils_ShouldDetectXMLContentType(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "description")
	err := os.WriteFile(fname, []byte(`<?xml version="1.0"?><symbol></symbol>`), 0644)
	assert.NoError(t, err)

	ctype, err := DetectContentType(fname)
	assert.NoError(t, err)
	assert.Contains(t, ctype, "xml")
}

func TestSpinner_BusyReturnsError(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "saving", time.Millisecond, false)
	s.StopMsg = "stopped"

	want := errors.New("boom")
	err := s.Busy(func() error { return want })
	assert.ErrorIs(t, err, want)
	assert.Contains(t, buf.String(), "stopped")

	// Stop on an idle spinner must not block.
	s.Stop()
}

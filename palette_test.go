package sconcho

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPalette_AlwaysOneActive(t *testing.T) {
	assert := assert.New(t)
	p := DefaultPalette()
	assert.Equal(len(DefaultColors), p.Len())

	idx, c := p.Active()
	assert.Equal(0, idx)
	assert.Equal(White, c)

	assert.NoError(p.SetActive(2))
	idx, c = p.Active()
	assert.Equal(2, idx)
	assert.Equal(red, c)

	assert.ErrorIs(p.SetActive(-1), ErrOutOfBounds)
	assert.ErrorIs(p.SetActive(p.Len()), ErrOutOfBounds)
	idx, _ = p.Active()
	assert.Equal(2, idx)
}

func TestPalette_ReselectEmitsAgain(t *testing.T) {
	p := DefaultPalette()
	var got []int
	p.OnColorChanged(func(i int, _ Color) { got = append(got, i) })

	assert.NoError(t, p.SetActive(3))
	assert.NoError(t, p.SetActive(3))
	assert.Equal(t, []int{3, 3}, got)
}

func TestPalette_RecolorKeepsActive(t *testing.T) {
	assert := assert.New(t)
	p := DefaultPalette()
	assert.NoError(p.SetActive(1))

	var emitted []Color
	p.OnColorChanged(func(_ int, c Color) { emitted = append(emitted, c) })

	blue := MustParseColor("#123456")
	assert.NoError(p.Recolor(4, blue))
	assert.Empty(emitted)
	assert.Equal(blue, p.Color(4))

	assert.NoError(p.Recolor(1, blue))
	assert.Equal([]Color{blue}, emitted)
	idx, c := p.Active()
	assert.Equal(1, idx)
	assert.Equal(blue, c)

	assert.ErrorIs(p.Recolor(99, blue), ErrOutOfBounds)
}

func TestPalette_NeedsColors(t *testing.T) {
	_, err := NewPalette()
	assert.Error(t, err)
}

func TestColor_Parse(t *testing.T) {
	assert := assert.New(t)
	c, err := ParseColor("#Ff8800")
	assert.NoError(err)
	assert.Equal("#ff8800", c.Hex())
	assert.Equal(c, ColorOf(c.NRGBA()))

	_, err = ParseColor("ff88")
	assert.Error(err)
}

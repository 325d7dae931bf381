package sconcho

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegion_Basics(t *testing.T) {
	assert := assert.New(t)
	r := RegionOf(Cell{Row: 3, Col: 1}, Cell{Row: 1, Col: 4})
	assert.Equal(Region{Top: 1, Left: 1, Bottom: 4, Right: 5}, r)
	assert.Equal(3, r.Rows())
	assert.Equal(4, r.Cols())
	assert.True(r.Contains(Cell{Row: 1, Col: 4}))
	assert.False(r.Contains(Cell{Row: 4, Col: 4}))

	assert.True(r.Intersect(Region{Top: 10, Bottom: 11, Right: 1}).Empty())
	assert.Equal(Region{Top: 1, Left: 1, Bottom: 2, Right: 2}, r.Intersect(Region{Bottom: 2, Right: 2}))
	assert.Equal(Region{Left: 0, Top: 0, Bottom: 4, Right: 5}, r.Union(Region{Bottom: 1, Right: 1}))
	assert.Equal(r, Region{}.Union(r))
}

func TestRegion_SceneToRegion(t *testing.T) {
	for _, tc := range []struct {
		name string
		band image.Rectangle
		want Region
		ok   bool
	}{
		{"single point", image.Rect(45, 15, 45, 15), Region{Top: 0, Left: 1, Bottom: 1, Right: 2}, true},
		{"inside one cell", image.Rect(31, 31, 59, 59), Region{Top: 1, Left: 1, Bottom: 2, Right: 2}, true},
		{"edge is exclusive", image.Rect(0, 0, 60, 30), Region{Bottom: 1, Right: 2}, true},
		{"reversed band", image.Rect(89, 61, 10, 5), Region{Bottom: 3, Right: 3}, true},
		{"clipped to grid", image.Rect(-50, -50, 500, 20), Region{Bottom: 1, Right: 4}, true},
		{"outside grid", image.Rect(-50, -50, -10, -10), Region{}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := SceneToRegion(tc.band, 30, 30, 3, 4)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

package sconcho

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	symYO = &Symbol{Category: "basic", Name: "yo", Width: 1, DefaultBackground: White, Description: "yarn over"}
	symC2 = &Symbol{Category: "cables", Name: "c2", Width: 2, DefaultBackground: White, Description: "cable, 2 over 2"}
	symC3 = &Symbol{Category: "cables", Name: "c3", Width: 3, DefaultBackground: White, Description: "cable, 3 over 3"}

	red = MustParseColor("#ff0000")
)

func testLibrary() *Library {
	return NewLibrary(symYO, symC2, symC3)
}

func newTestGrid(t *testing.T, rows, cols int) *Grid {
	t.Helper()
	g, err := NewGrid(rows, cols)
	require.NoError(t, err)
	return g
}

// newTestCanvas returns a canvas with a rows×cols grid and the messages
// reported by the canvas.
func newTestCanvas(t *testing.T, rows, cols int) (*Canvas, *[]string) {
	t.Helper()
	c := New(testLibrary(), nil, nil, DefaultConfig())
	var msgs []string
	c.Reporter = func(msg string) { msgs = append(msgs, msg) }
	require.NoError(t, c.NewCanvas(rows, cols))
	return c, &msgs
}

// assertTiling checks that every in-bounds cell is covered by at most one
// stored item and that every item lies inside the grid.
func assertTiling(t *testing.T, g *Grid) {
	t.Helper()
	covered := make(map[Cell]Item)
	for _, it := range g.Items() {
		require.Equal(t, it.Symbol.Width, it.Width())
		require.GreaterOrEqual(t, it.Row, 0)
		require.Less(t, it.Row, g.Rows())
		require.GreaterOrEqual(t, it.Col, 0)
		require.LessOrEqual(t, it.Col+it.Width(), g.Cols())
		for c := it.Col; c < it.Col+it.Width(); c++ {
			cell := Cell{Row: it.Row, Col: c}
			prev, dup := covered[cell]
			require.False(t, dup, "cell %v covered by %v and %v", cell, prev, it)
			covered[cell] = it
		}
	}
}

package preview

import (
	"context"
	"image"
	"testing"

	"gioui.org/f32"
	"gioui.org/io/key"
	"github.com/esimov/sconcho"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreview_WindowTitle(t *testing.T) {
	assert.Equal(t, "sconcho - untitled", windowTitle("", false))
	assert.Equal(t, "sconcho - untitled *", windowTitle("", true))
	assert.Equal(t, "sconcho - chart.spf *", windowTitle("/tmp/charts/chart.spf", true))
}

func TestPreview_WindowSize(t *testing.T) {
	for _, tc := range []struct {
		w, h         int
		wantW, wantH float32
	}{
		{640, 480, 640, 480},
		{50, 50, 200, 200},
		{2732, 768, 1366, 384},
		{1000, 1536, 500, 768},
	} {
		w, h := windowSize(tc.w, tc.h)
		assert.Equal(t, tc.wantW, w)
		assert.Equal(t, tc.wantH, h)
	}
}

func TestPreview_Modifiers(t *testing.T) {
	assert.Equal(t, sconcho.Modifier(0), modifiers(0))
	assert.Equal(t, sconcho.ModShift, modifiers(key.ModShift))
	assert.Equal(t, sconcho.ModControl, modifiers(key.ModCtrl))
	assert.Equal(t, sconcho.ModControl, modifiers(key.ModCommand))
	assert.Equal(t, sconcho.ModShift|sconcho.ModControl, modifiers(key.ModShift|key.ModCtrl))
}

func TestPreview_ToCell(t *testing.T) {
	g := &Gui{scale: 2, origin: f32.Pt(10, 20), cell: image.Pt(30, 30)}
	assert.Equal(t, sconcho.Cell{Row: 0, Col: 0}, g.toCell(f32.Pt(10, 20)))
	assert.Equal(t, sconcho.Cell{Row: 1, Col: 2}, g.toCell(f32.Pt(10+2*65, 20+2*31)))
	assert.Equal(t, sconcho.Cell{Row: -1, Col: -1}, g.toCell(f32.Pt(8, 18)))
}

func TestPreview_RefreshOnLoop(t *testing.T) {
	assert := assert.New(t)
	c := sconcho.New(sconcho.NewLibrary(), nil, nil, sconcho.DefaultConfig())
	c.Reporter = nil
	doc := sconcho.NewDocument(c)
	require.NoError(t, doc.New(2, 3, nil))

	loop := sconcho.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	g := NewGUI(doc, loop)
	g.refresh()
	require.NotNil(t, g.img)

	cfg := c.Config()
	assert.Equal(c.Renderer().Bounds(c.Scene(), sconcho.AllLayers).Size(), g.img.Bounds().Size())
	assert.Equal(cfg.CellWidth, g.cell.X)
	assert.Equal("sconcho - untitled", g.title)

	cancel()
	<-loop.Done()
	assert.False(g.sync(func() { t.Fatal("ran after the loop stopped") }))
}

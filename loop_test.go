package sconcho

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsInOrder(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()

	var got []int
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		i := i
		require.True(t, loop.Post(func() { got = append(got, i) }))
	}
	require.True(t, loop.Post(func() { close(done) }))
	<-done
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	<-loop.Done()
	assert.False(t, loop.Post(func() {}))
}

func TestAutosaver_TicksOnLoop(t *testing.T) {
	c, _ := newTestCanvas(t, 2, 2)
	doc := NewDocument(c)
	path := filepath.Join(t.TempDir(), "auto.spf")
	require.NoError(t, doc.SaveAs(path))

	c.Symbols().Select(symYO.Key())
	require.NoError(t, c.Stamp(CellRegion(Cell{})))

	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	saved := make(chan string, 1)
	saver := &Autosaver{
		Doc: doc,
		OnSave: func(p string) {
			select {
			case saved <- p:
			default:
			}
		},
		OnError: func(err error) { t.Errorf("autosave failed: %v", err) },
	}
	saver.Schedule(ctx, loop, 10*time.Millisecond)
	go loop.Run(ctx)

	select {
	case p := <-saved:
		assert.Equal(t, path, p)
	case <-time.After(5 * time.Second):
		t.Fatal("autosave did not run")
	}

	dirty := make(chan bool)
	require.True(t, loop.Post(func() { dirty <- doc.Dirty() }))
	assert.False(t, <-dirty)
}

package sconcho

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// savedDocument returns a document backed by a freshly saved 3×3 project.
func savedDocument(t *testing.T) (*Document, string) {
	t.Helper()
	c, _ := newTestCanvas(t, 3, 3)
	doc := NewDocument(c)
	path := filepath.Join(t.TempDir(), "chart.spf")
	require.NoError(t, doc.SaveAs(path))
	return doc, path
}

func TestDocument_AutosaveNoop(t *testing.T) {
	assert := assert.New(t)
	_, path := savedDocument(t)

	// Push the mtime into the past so that a rewrite would be visible.
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, old, old))

	c, _ := newTestCanvas(t, 1, 1)
	doc, err := OpenDocument(c, path)
	require.NoError(t, err)

	saved, err := doc.AutosaveTick()
	assert.NoError(err)
	assert.False(saved)
	assert.False(doc.Dirty())

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(fi.ModTime().Equal(old))
}

func TestDocument_AutosaveWritesDirtyProject(t *testing.T) {
	assert := assert.New(t)
	doc, path := savedDocument(t)
	c := doc.Canvas()
	c.Symbols().Select(symYO.Key())
	require.NoError(t, c.Stamp(CellRegion(Cell{Row: 1, Col: 1})))
	assert.True(doc.Dirty())

	saved, err := doc.AutosaveTick()
	assert.NoError(err)
	assert.True(saved)
	assert.False(doc.Dirty())

	p, err := OpenProject(path, testLibrary())
	require.NoError(t, err)
	assert.Len(p.Items, 1)
}

func TestDocument_AutosaveWithoutPath(t *testing.T) {
	c, _ := newTestCanvas(t, 2, 2)
	c.Symbols().Select(symYO.Key())
	require.NoError(t, c.Stamp(CellRegion(Cell{})))

	doc := NewDocument(c)
	saved, err := doc.AutosaveTick()
	assert.NoError(t, err)
	assert.False(t, saved)
	assert.True(t, doc.Dirty())
	assert.ErrorIs(t, doc.Save(), ErrNoPath)
}

func TestDocument_ClosePrompt(t *testing.T) {
	for _, tc := range []struct {
		decision Decision
		err      error
		dirty    bool
	}{
		{SaveChanges, nil, false},
		{DiscardChanges, nil, true},
		{CancelClose, ErrCancelled, true},
	} {
		t.Run(tc.decision.String(), func(t *testing.T) {
			doc, _ := savedDocument(t)
			doc.Canvas().Symbols().Select(symYO.Key())
			require.NoError(t, doc.Canvas().Stamp(CellRegion(Cell{})))

			var asked int
			err := doc.Close(func(d *Document) Decision {
				asked++
				assert.Same(t, doc, d)
				return tc.decision
			})
			assert.Equal(t, 1, asked)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.dirty, doc.Dirty())
		})
	}
}

func TestDocument_CleanCloseSkipsPrompt(t *testing.T) {
	doc, _ := savedDocument(t)
	err := doc.Close(func(*Document) Decision {
		t.Fatal("prompt shown for a clean project")
		return CancelClose
	})
	assert.NoError(t, err)
}

func TestDocument_NewAndOpenHonourPrompt(t *testing.T) {
	assert := assert.New(t)
	doc, path := savedDocument(t)
	c := doc.Canvas()
	c.Symbols().Select(symYO.Key())
	require.NoError(t, c.Stamp(CellRegion(Cell{})))

	cancel := func(*Document) Decision { return CancelClose }
	assert.ErrorIs(doc.New(4, 4, cancel), ErrCancelled)
	assert.Equal(3, c.Grid().Rows())
	assert.Equal(path, doc.Path())

	discard := func(*Document) Decision { return DiscardChanges }
	assert.NoError(doc.New(4, 4, discard))
	assert.Equal(4, c.Grid().Rows())
	assert.Empty(doc.Path())
	assert.False(doc.Dirty())

	assert.NoError(doc.Open(path, discard))
	assert.Equal(3, c.Grid().Rows())
	assert.Equal(path, doc.Path())
}

func TestDocument_FailedOpenKeepsProject(t *testing.T) {
	assert := assert.New(t)
	doc, path := savedDocument(t)
	bad := filepath.Join(filepath.Dir(path), "bad.spf")
	require.NoError(t, os.WriteFile(bad, []byte("<sconcho><api>1</api>"), 0644))

	err := doc.Open(bad, nil)
	var perr *PatternReadError
	assert.True(errors.As(err, &perr))
	assert.Equal(path, doc.Path())
	assert.Equal(3, doc.Canvas().Grid().Rows())
}

func TestDocument_BusyWrapsSave(t *testing.T) {
	doc, path := savedDocument(t)
	var calls int
	doc.Busy = func(fn func() error) error {
		calls++
		return fn()
	}
	require.NoError(t, doc.SaveAs(path))
	require.NoError(t, doc.Export(filepath.Join(filepath.Dir(path), "chart.png"), 0, 0))
	assert.Equal(t, 2, calls)
}

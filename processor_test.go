package sconcho

import (
	"bytes"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/esimov/sconcho/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeProject saves a small stamped chart to dir/name and returns its path.
func writeProject(t *testing.T, dir, name string) string {
	t.Helper()
	c, _ := newTestCanvas(t, 3, 4)
	c.Symbols().Select(symC2.Key())
	require.NoError(t, c.Stamp(Region{Top: 1, Bottom: 2, Right: 2}))
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, SaveProject(path, c.Project()))
	return path
}

func TestProcessor_Process(t *testing.T) {
	path := writeProject(t, t.TempDir(), "chart.spf")
	in, err := os.ReadFile(path)
	require.NoError(t, err)

	p := &Processor{Library: testLibrary(), Config: DefaultConfig()}
	c, err := p.Load(bytes.NewReader(in))
	require.NoError(t, err)
	want, err := c.ExportImage(0, 0)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, p.Process(bytes.NewReader(in), &out, FormatPNG))
	img, err := png.Decode(&out)
	require.NoError(t, err)
	assert.Equal(t, want.Bounds().Size(), img.Bounds().Size())
}

func TestProcessor_ProcessResizes(t *testing.T) {
	path := writeProject(t, t.TempDir(), "chart.spf")
	in, err := os.ReadFile(path)
	require.NoError(t, err)

	p := &Processor{Library: testLibrary(), Config: DefaultConfig(), NewWidth: 64}
	var out bytes.Buffer
	require.NoError(t, p.Process(bytes.NewReader(in), &out, FormatPNG))
	img, err := png.Decode(&out)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
}

func TestProcessor_ProcessMalformed(t *testing.T) {
	p := &Processor{Library: testLibrary()}
	err := p.Process(bytes.NewBufferString("<sconcho><api>1"), io.Discard, FormatPNG)
	var perr *PatternReadError
	assert.ErrorAs(t, err, &perr)
}

func TestProcessor_ExecuteFile(t *testing.T) {
	dir := t.TempDir()
	src := writeProject(t, dir, "chart.spf")
	dst := filepath.Join(dir, "chart.bmp")

	p := &Processor{Library: testLibrary(), Config: DefaultConfig()}
	require.NoError(t, p.Execute(&Ops{Src: src, Dst: dst, PipeName: "-", Out: io.Discard}))
	fi, err := os.Stat(dst)
	require.NoError(t, err)
	assert.NotZero(t, fi.Size())

	err = p.Execute(&Ops{Src: src, Dst: filepath.Join(dir, "chart.gif"), PipeName: "-", Out: io.Discard})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestProcessor_ExecuteDirectory(t *testing.T) {
	assert := assert.New(t)
	src := t.TempDir()
	writeProject(t, src, "a.spf")
	writeProject(t, src, "nested/b.SPF")
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("skip me"), 0644))

	dst := filepath.Join(t.TempDir(), "out")
	p := &Processor{Library: testLibrary(), Config: DefaultConfig()}
	require.NoError(t, p.Execute(&Ops{Src: src, Dst: dst, PipeName: "-", Format: FormatTIFF, Workers: 2, Out: io.Discard}))

	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch([]string{"a.tiff", "b.tiff"}, names)
}

func TestProcessor_ExecuteDirectoryReportsFailures(t *testing.T) {
	src := t.TempDir()
	writeProject(t, src, "good.spf")
	require.NoError(t, os.WriteFile(filepath.Join(src, "bad.spf"), []byte("<sconcho>"), 0644))

	dst := filepath.Join(t.TempDir(), "out")
	p := &Processor{Library: testLibrary(), Config: DefaultConfig()}
	var status bytes.Buffer
	err := p.Execute(&Ops{Src: src, Dst: dst, PipeName: "-", Out: &status})

	var perr *PatternReadError
	assert.ErrorAs(t, err, &perr)
	assert.FileExists(t, filepath.Join(dst, "good.png"))
	assert.NoFileExists(t, filepath.Join(dst, "bad.png"))
	assert.Contains(t, status.String(), "bad.spf")
}

func TestProcessor_ExecuteMissingSource(t *testing.T) {
	p := &Processor{}
	err := p.Execute(&Ops{Src: filepath.Join(t.TempDir(), "none.spf"), Dst: "out.png", PipeName: "-", Out: io.Discard})
	assert.ErrorIs(t, err, ErrIOFailure)
}

func TestProcessor_SpinnerOnlyWithOneWorker(t *testing.T) {
	src := t.TempDir()
	writeProject(t, src, "a.spf")
	writeProject(t, src, "b.spf")

	for _, tc := range []struct {
		workers int
		spins   bool
	}{
		{1, true},
		{4, false},
	} {
		var buf bytes.Buffer
		p := &Processor{
			Library: testLibrary(),
			Config:  DefaultConfig(),
			Spinner: utils.NewSpinner(&buf, "exporting", time.Millisecond, false),
		}
		dst := filepath.Join(t.TempDir(), "out")
		require.NoError(t, p.Execute(&Ops{Src: src, Dst: dst, PipeName: "-", Workers: tc.workers, Out: io.Discard}))

		assert.Contains(t, p.Spinner.StopMsg, "exported successfully")
		assert.Equal(t, tc.spins, strings.Contains(buf.String(), "exported successfully"), "workers=%d", tc.workers)
		assert.FileExists(t, filepath.Join(dst, "a.png"))
		assert.FileExists(t, filepath.Join(dst, "b.png"))
	}
}

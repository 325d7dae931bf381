package sconcho

import (
	"fmt"
	"log"
)

// Decision is the answer to the prompt shown before a dirty project is closed.
type Decision int

const (
	SaveChanges Decision = iota
	DiscardChanges
	CancelClose
)

func (d Decision) String() string {
	switch d {
	case SaveChanges:
		return "save"
	case DiscardChanges:
		return "discard"
	case CancelClose:
		return "cancel"
	}
	return fmt.Sprintf("Decision(%d)", int(d))
}

// PromptFunc asks the user what to do with the unsaved changes of doc.
type PromptFunc func(doc *Document) Decision

// Document binds the open project of a canvas to its file. It handles
// opening, saving, exporting and the close prompt. The canvas keeps the
// dirty flag; a successful save clears it.
type Document struct {
	canvas *Canvas
	path   string

	// Busy wraps long running synchronous work such as saving and
	// exporting. It runs fn directly when nil.
	Busy func(fn func() error) error
}

// NewDocument returns an unsaved document for the project shown by c.
func NewDocument(c *Canvas) *Document {
	return &Document{canvas: c}
}

// OpenDocument reads the project at path into c.
func OpenDocument(c *Canvas, path string) (*Document, error) {
	d := NewDocument(c)
	if err := d.load(path); err != nil {
		return nil, err
	}
	return d, nil
}

// Canvas returns the canvas showing the project.
func (d *Document) Canvas() *Canvas { return d.canvas }

// Path returns the destination file, empty for a project never saved.
func (d *Document) Path() string { return d.path }

// Dirty reports whether the project has unsaved changes.
func (d *Document) Dirty() bool { return d.canvas.Dirty() }

func (d *Document) busy(fn func() error) error {
	if d.Busy == nil {
		return fn()
	}
	return d.Busy(fn)
}

// confirm runs the close prompt for a dirty project. It returns ErrCancelled
// when the user keeps the project open.
func (d *Document) confirm(prompt PromptFunc) error {
	if !d.Dirty() || prompt == nil {
		return nil
	}
	switch prompt(d) {
	case SaveChanges:
		return d.Save()
	case DiscardChanges:
		return nil
	default:
		return ErrCancelled
	}
}

// New replaces the project with an empty rows×cols one.
func (d *Document) New(rows, cols int, prompt PromptFunc) error {
	if err := d.confirm(prompt); err != nil {
		return err
	}
	if err := d.canvas.NewCanvas(rows, cols); err != nil {
		return err
	}
	d.path = ""
	return nil
}

// Open replaces the project with the one stored at path. The open project
// is untouched when the file cannot be read.
func (d *Document) Open(path string, prompt PromptFunc) error {
	if err := d.confirm(prompt); err != nil {
		return err
	}
	return d.load(path)
}

func (d *Document) load(path string) error {
	p, err := OpenProject(path, d.canvas.Library())
	if err != nil {
		return err
	}
	if p.VersionMismatch {
		d.canvas.report(fmt.Errorf("%s was written by another version (api %q)", path, p.APIVersion))
	}
	if err := d.canvas.LoadProject(p); err != nil {
		return err
	}
	d.path = path
	return nil
}

// Save writes the project to its file.
func (d *Document) Save() error {
	if d.path == "" {
		return ErrNoPath
	}
	return d.SaveAs(d.path)
}

// SaveAs writes the project to path, which becomes the destination of
// subsequent saves.
func (d *Document) SaveAs(path string) error {
	if path == "" {
		return ErrNoPath
	}
	p := d.canvas.Project()
	if err := d.busy(func() error { return SaveProject(path, p) }); err != nil {
		return d.canvas.report(err)
	}
	d.path = path
	d.canvas.MarkClean()
	return nil
}

// Export renders the chart into the image file at path.
func (d *Document) Export(path string, width, height int) error {
	return d.canvas.report(d.busy(func() error {
		return d.canvas.Export(path, width, height)
	}))
}

// AutosaveTick saves the project when it has a file and unsaved changes.
// It reports whether the project was written.
func (d *Document) AutosaveTick() (bool, error) {
	if d.path == "" || !d.Dirty() {
		return false, nil
	}
	if err := d.Save(); err != nil {
		return false, err
	}
	log.Printf("sconcho: autosaved %s", d.path)
	return true, nil
}

// Close asks what to do with unsaved changes. It returns ErrCancelled when
// the project must stay open.
func (d *Document) Close(prompt PromptFunc) error {
	return d.confirm(prompt)
}

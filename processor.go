package sconcho

import (
	"io"

	"github.com/esimov/sconcho/utils"
)

// Processor options
type Processor struct {
	Library   *Library
	Config    Config
	NewWidth  int
	NewHeight int
	Spinner   *utils.Spinner
}

func (p *Processor) library() *Library {
	if p.Library == nil {
		p.Library = NewLibrary()
	}
	return p.Library
}

// Load reads a project from r and returns a canvas showing it.
func (p *Processor) Load(r io.Reader) (*Canvas, error) {
	proj, err := ReadProject(r, p.library())
	if err != nil {
		return nil, err
	}
	c := New(p.library(), nil, nil, p.Config)
	c.Reporter = nil
	if err := c.LoadProject(proj); err != nil {
		return nil, err
	}
	return c, nil
}

// Process reads the project from r and encodes the exported chart into w.
// We are using the io package, since we can provide different input and output types,
// as long as they implement the io.Reader and io.Writer interface.
func (p *Processor) Process(r io.Reader, w io.Writer, format string) error {
	c, err := p.Load(r)
	if err != nil {
		return err
	}
	return p.Encode(c, w, format)
}

// Encode writes the exported chart of c into w.
func (p *Processor) Encode(c *Canvas, w io.Writer, format string) error {
	img, err := c.ExportImage(p.NewWidth, p.NewHeight)
	if err != nil {
		return err
	}
	return EncodeImage(w, format, img)
}

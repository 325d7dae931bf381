package sconcho

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/esimov/sconcho/utils"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// Ops describes one command line run: a project file or a directory of
// projects as source, an image file or a directory as destination.
type Ops struct {
	Src, Dst, PipeName string
	// Format is the image format written for every project of a directory.
	Format  string
	Workers int
	// Out receives the status lines; os.Stderr when nil.
	Out io.Writer
}

// result holds the outcome of exporting a single project.
type result struct {
	path string
	err  error
}

var suffixes = map[string]string{
	FormatPNG:  ".png",
	FormatTIFF: ".tiff",
	FormatBMP:  ".bmp",
	FormatJPEG: ".jpg",
}

func (op *Ops) out() io.Writer {
	if op.Out == nil {
		return os.Stderr
	}
	return op.Out
}

// Execute exports the source project, or every project found under the
// source directory, into the destination.
func (p *Processor) Execute(op *Ops) error {
	var (
		fs  os.FileInfo
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if op.Src == op.PipeName {
		fs, err = os.Stdin.Stat()
	} else {
		fs, err = os.Stat(op.Src)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to load the source project: %v", ErrIOFailure, err)
	}

	if p.Spinner != nil {
		p.Spinner.StopMsg = utils.StatusLine("⇢ the chart has been exported successfully", "✔", utils.SuccessMessage)
	}
	now := time.Now()

	switch mode := fs.Mode(); {
	case mode.IsDir():
		err = p.executeDir(op)
	case mode.IsRegular() || mode&os.ModeNamedPipe != 0 || op.Src == op.PipeName:
		format := FormatPNG
		if op.Dst != op.PipeName {
			if format, err = FormatOf(op.Dst); err != nil {
				return err
			}
		}
		err = op.process(p, op.Src, op.Dst, format, p.Spinner)
		op.printOpStatus(op.Dst, err)
	default:
		return fmt.Errorf("%w: %s is not a regular file", ErrIOFailure, op.Src)
	}

	if err == nil {
		fmt.Fprintf(op.out(), "\nExecution time: %s\n", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	}
	return err
}

// executeDir exports every project of the source tree concurrently.
func (p *Processor) executeDir(op *Ops) error {
	var wg sync.WaitGroup

	if err := os.MkdirAll(op.Dst, 0755); err != nil {
		return fmt.Errorf("%w: unable to create the destination directory: %v", ErrIOFailure, err)
	}
	format := op.Format
	if format == "" {
		format = FormatPNG
	}
	if _, ok := suffixes[format]; !ok {
		return fmt.Errorf("%w: image format %q", ErrUnsupportedFormat, format)
	}

	// Limit the concurrently running workers to maxWorkers.
	if op.Workers <= 0 || op.Workers > maxWorkers {
		op.Workers = runtime.NumCPU()
	}

	// Process recursively the project files from the specified directory concurrently.
	ch := make(chan result)
	done := make(chan interface{})
	defer close(done)

	paths, errc := walkDir(done, op.Src, func(name string) bool {
		return strings.EqualFold(filepath.Ext(name), ProjectSuffix)
	})

	// The spinner redraws a single status line, so it only runs with one worker.
	var spinner *utils.Spinner
	if op.Workers == 1 {
		spinner = p.Spinner
	}

	wg.Add(op.Workers)
	for i := 0; i < op.Workers; i++ {
		go func() {
			defer wg.Done()
			op.consumer(p, spinner, op.Dst, format, ch, done, paths)
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(ch)
		wg.Wait()
	}()

	var errs []error
	for res := range ch {
		if res.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.path, res.err))
		}
		op.printOpStatus(res.path, res.err)
	}
	if err := <-errc; err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrIOFailure, err))
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// consumer reads the path names from the paths channel and exports each project.
func (op *Ops) consumer(
	p *Processor,
	spinner *utils.Spinner,
	dest, format string,
	res chan<- result,
	done <-chan interface{},
	paths <-chan string,
) {
	for src := range paths {
		base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		dst := filepath.Join(dest, base+suffixes[format])
		err := op.process(p, src, dst, format, spinner)

		select {
		case <-done:
			return
		case res <- result{
			path: src,
			err:  err,
		}:
		}
	}
}

// process exports the project in into out and returns the error in case exists.
// A nil spinner exports without a busy indicator.
func (op *Ops) process(p *Processor, in, out, format string, spinner *utils.Spinner) error {
	src, dst, err := op.pathToFile(in, out)
	if err != nil {
		return err
	}

	defer func() {
		if f, ok := src.(*os.File); ok && f != os.Stdin {
			if err := f.Close(); err != nil {
				log.Printf("could not close the opened file: %v", err)
			}
		}
	}()

	run := func() error { return p.Process(src, dst, format) }
	if spinner != nil {
		err = spinner.Busy(run)
	} else {
		err = run()
	}

	if f, ok := dst.(*os.File); ok && f != os.Stdout {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %v", ErrIOFailure, cerr)
		}
		if err != nil {
			// remove the generated image file in case of an error
			os.Remove(f.Name())
		}
	}
	return err
}

// pathToFile converts the source and destination paths to readable and writable files.
func (op *Ops) pathToFile(in, out string) (io.Reader, io.Writer, error) {
	var (
		src io.Reader
		dst io.Writer
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if in == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdin")
		}
		src = os.Stdin
	} else {
		src, err = os.Open(in)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: unable to open the source file: %v", ErrIOFailure, err)
		}
	}

	// Check if the destination is a pipe name or a regular file.
	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			if f, ok := src.(*os.File); ok && f != os.Stdin {
				f.Close()
			}
			return nil, nil, errors.New("`-` should be used with a pipe for stdout")
		}
		dst = os.Stdout
	} else {
		dst, err = os.OpenFile(out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
		if err != nil {
			if f, ok := src.(*os.File); ok && f != os.Stdin {
				f.Close()
			}
			return nil, nil, fmt.Errorf("%w: unable to create the destination file: %v", ErrIOFailure, err)
		}
	}
	return src, dst, nil
}

// printOpStatus displays the relevant information about the export.
func (op *Ops) printOpStatus(fname string, err error) {
	w := op.out()
	if err != nil {
		fmt.Fprintf(w, "\n%s %s\n",
			utils.DecorateText("Error exporting "+filepath.Base(fname)+":", utils.ErrorMessage),
			utils.DecorateText(Message(err), utils.DefaultMessage),
		)
		return
	}
	if fname != op.PipeName {
		fmt.Fprintf(w, "\nThe chart has been saved as: %s %s\n",
			utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
			utils.DefaultColor,
		)
	}
}

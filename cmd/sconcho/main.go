package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gioui.org/app"
	"github.com/esimov/sconcho"
	"github.com/esimov/sconcho/preview"
	"github.com/esimov/sconcho/utils"
	"golang.org/x/term"
)

const HelpBanner = `
┌─┐┌─┐┌─┐┌┐┌┌─┐┬ ┬┌─┐
└─┐│  │ ││││└  ├─┤│ │
└─┘└─┘└─┘┘└┘└─┘┴ ┴└─┘

Knitting chart editor and exporter.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

// libDirs collects the repeatable -lib flag.
type libDirs []string

func (l *libDirs) String() string { return strings.Join(*l, ",") }

func (l *libDirs) Set(v string) error {
	for _, dir := range strings.Split(v, ",") {
		if dir = strings.TrimSpace(dir); dir != "" {
			*l = append(*l, dir)
		}
	}
	return nil
}

var (
	// Flags
	source      = flag.String("in", pipeName, "Source project or directory of projects")
	destination = flag.String("out", pipeName, "Destination image, project or directory")
	newSize     = flag.String("new", "", "Create an empty project of the given size, e.g. 20x30")
	newWidth    = flag.Int("width", 0, "Exported image width")
	newHeight   = flag.Int("height", 0, "Exported image height")
	cellSize    = flag.Int("cell", 30, "Cell size in pixels")
	interval    = flag.Int("interval", 1, "Row and column label interval (0 hides the labels)")
	antialias   = flag.Bool("aa", true, "Anti-aliased rendering")
	transparent = flag.Bool("transparent", false, "Transparent background")
	noGrid      = flag.Bool("nogrid", false, "Leave the grid out of the exported image")
	noLegend    = flag.Bool("nolegend", false, "Leave the legend out of the exported image")
	format      = flag.String("format", sconcho.FormatPNG, "Image format used for a directory of projects")
	info        = flag.Bool("info", false, "Print a summary of the project")
	showPreview = flag.Bool("preview", false, "Show the chart in an editor window")
	autosave    = flag.Duration("autosave", 10*time.Second, "Autosave interval of the editor window")
	workers     = flag.Int("conc", runtime.NumCPU(), "Number of files to process concurrently")
	libraries   libDirs
)

func main() {
	log.SetFlags(0)

	flag.Var(&libraries, "lib", "Symbol library directory (repeatable or comma separated)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	lib, err := sconcho.LoadLibrary(libraries...)
	if err != nil {
		fatal("Failed to load the symbol library:", err)
	}

	cfg := sconcho.DefaultConfig()
	cfg.CellWidth, cfg.CellHeight = *cellSize, *cellSize
	cfg.LabelInterval = *interval
	cfg.Antialias = *antialias
	cfg.Transparent = *transparent
	cfg.ExportGrid = !*noGrid
	cfg.ExportLegend = !*noLegend
	cfg.AutosaveInterval = *autosave

	if !term.IsTerminal(int(os.Stderr.Fd())) {
		utils.NoColor = true
	}
	spinner := utils.NewSpinner(os.Stderr,
		utils.StatusLine("is exporting the chart...", "", utils.DefaultMessage),
		time.Millisecond*200, true)

	proc := &sconcho.Processor{
		Library:   lib,
		Config:    cfg,
		NewWidth:  *newWidth,
		NewHeight: *newHeight,
		Spinner:   spinner,
	}

	// Capture CTRL-C signal and restore the cursor visibility back.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		spinner.RestoreCursor()
		os.Exit(1)
	}()

	switch {
	case *newSize != "":
		rows, cols, err := parseSize(*newSize)
		if err != nil {
			flag.Usage()
			fatal("Invalid -new value:", err)
		}
		doc := sconcho.NewDocument(sconcho.New(lib, nil, nil, cfg))
		if err := doc.New(rows, cols, nil); err != nil {
			fatal("Failed to create the project:", err)
		}
		if *showPreview {
			runPreview(doc)
			return
		}
		if err := writeDocument(doc, proc, *destination); err != nil {
			fatal("Failed to write the project:", err)
		}
	case *info:
		c, err := loadCanvas(proc, *source)
		if err != nil {
			fatal("Failed to read the project:", err)
		}
		printInfo(c)
	case *showPreview:
		if *source == pipeName {
			fatal("Preview needs a project file:", errors.New("stdin can not be saved back"))
		}
		doc, err := sconcho.OpenDocument(sconcho.New(lib, nil, nil, cfg), *source)
		if err != nil {
			fatal("Failed to open the project:", err)
		}
		runPreview(doc)
	default:
		err := proc.Execute(&sconcho.Ops{
			Src:      *source,
			Dst:      *destination,
			PipeName: pipeName,
			Format:   *format,
			Workers:  *workers,
		})
		if err != nil {
			os.Exit(1)
		}
	}
}

// parseSize parses a RxC grid size.
func parseSize(s string) (int, int, error) {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return r == 'x' || r == '×' })
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected ROWSxCOLS, got %q", s)
	}
	rows, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	cols, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return rows, cols, nil
}

// writeDocument saves a fresh project or exports it, depending on the
// destination suffix.
func writeDocument(doc *sconcho.Document, proc *sconcho.Processor, out string) error {
	if strings.EqualFold(filepath.Ext(out), sconcho.ProjectSuffix) {
		return doc.SaveAs(out)
	}
	if out == pipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("`-` should be used with a pipe for stdout")
		}
		return proc.Encode(doc.Canvas(), os.Stdout, sconcho.FormatPNG)
	}
	doc.Busy = proc.Spinner.Busy
	return doc.Export(out, proc.NewWidth, proc.NewHeight)
}

// loadCanvas reads the project at path, or from stdin for the pipe name.
func loadCanvas(proc *sconcho.Processor, path string) (*sconcho.Canvas, error) {
	if path == pipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdin")
		}
		return proc.Load(bufio.NewReader(os.Stdin))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return proc.Load(bufio.NewReader(f))
}

// printInfo displays a summary of the project.
func printInfo(c *sconcho.Canvas) {
	g := c.Grid()
	fmt.Printf("%s %dx%d grid, %d placed stitches\n",
		utils.DecorateText(utils.AppBadge, utils.StatusMessage), g.Rows(), g.Cols(), len(g.Items()))

	fmt.Println(utils.DecorateText("Legend:", utils.SuccessMessage))
	for _, e := range c.Legend().Entries() {
		fmt.Printf("  %-28s %s\n", e.Key, e.Text)
	}

	idx, active := c.Palette().Active()
	fmt.Printf("%s %d colors, active %d (%s)\n",
		utils.DecorateText("Palette:", utils.SuccessMessage), c.Palette().Len(), idx, active.Hex())

	if sym, ok := c.ActiveSymbol(); ok {
		fmt.Printf("%s %v\n", utils.DecorateText("Active symbol:", utils.SuccessMessage), sym.Key())
	}
}

// runPreview opens the editor window. The canvas is driven by a loop
// shared with the autosave ticks.
func runPreview(doc *sconcho.Document) {
	loop := sconcho.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())

	saver := &sconcho.Autosaver{
		Doc: doc,
		OnSave: func(path string) {
			fmt.Fprintln(os.Stderr, utils.StatusLine("autosaved "+filepath.Base(path), "✔", utils.SuccessMessage))
		},
	}
	saver.Schedule(ctx, loop, doc.Canvas().Config().AutosaveInterval)
	go loop.Run(ctx)

	gui := preview.NewGUI(doc, loop)
	gui.Prompt = terminalPrompt

	go func() {
		err := gui.Run()
		cancel()
		if err != nil {
			fatal("Preview failed:", err)
		}
		os.Exit(0)
	}()
	app.Main()
}

// terminalPrompt asks on the terminal what to do with unsaved changes.
func terminalPrompt(doc *sconcho.Document) sconcho.Decision {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		if doc.Path() != "" {
			return sconcho.SaveChanges
		}
		return sconcho.DiscardChanges
	}
	name := "the new project"
	if doc.Path() != "" {
		name = filepath.Base(doc.Path())
	}
	fmt.Fprintf(os.Stderr, "%s [s]ave, [d]iscard, [c]ancel: ",
		utils.StatusLine("Save the changes of "+name+"?", "", utils.DefaultMessage))

	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "s", "save", "y", "yes":
		return sconcho.SaveChanges
	case "d", "discard", "n", "no":
		return sconcho.DiscardChanges
	}
	return sconcho.CancelClose
}

func fatal(msg string, err error) {
	log.Fatalf("%s %s",
		utils.DecorateText(msg, utils.ErrorMessage),
		utils.DecorateText(sconcho.Message(err), utils.DefaultMessage),
	)
}

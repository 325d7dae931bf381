package sconcho

import (
	"encoding/xml"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/esimov/sconcho/utils"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// descriptionFile is the name of the metadata file inside every symbol directory.
const descriptionFile = "description"

// Library is the set of symbols available to a project, indexed by identity.
// It is loaded once and then shared read-only.
type Library struct {
	symbols map[SymbolKey]*Symbol
}

// NewLibrary builds a library from the given symbols. The built-in knit
// stitch is always present.
func NewLibrary(symbols ...*Symbol) *Library {
	l := &Library{symbols: map[SymbolKey]*Symbol{DefaultKey: DefaultSymbol}}
	for _, s := range symbols {
		l.add(s)
	}
	return l
}

// add registers a symbol, replacing any previous one with the same key.
func (l *Library) add(s *Symbol) {
	if s.Key() == DefaultKey && s.Width != 1 {
		log.Printf("ignoring %v: the default stitch must be one cell wide", s.Key())
		return
	}
	l.symbols[s.Key()] = s
}

// Lookup returns the symbol registered under key.
func (l *Library) Lookup(key SymbolKey) (*Symbol, bool) {
	s, ok := l.symbols[key]
	return s, ok
}

// Len returns the number of symbols in the library.
func (l *Library) Len() int { return len(l.symbols) }

// Symbols lists every symbol ordered by category, sort position and name.
func (l *Library) Symbols() []*Symbol {
	syms := maps.Values(l.symbols)
	slices.SortFunc(syms, func(a, b *Symbol) bool {
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.SortPos != b.SortPos {
			return a.SortPos < b.SortPos
		}
		return a.Name < b.Name
	})
	return syms
}

// Categories lists the distinct symbol categories in sorted order.
func (l *Library) Categories() []string {
	seen := make(map[string]struct{})
	for k := range l.symbols {
		seen[k.Category] = struct{}{}
	}
	cats := maps.Keys(seen)
	slices.Sort(cats)
	return cats
}

// symbolDescription mirrors the fields of a description file. The fields are
// direct children of the root element, whatever its name.
type symbolDescription struct {
	Category        string `xml:"category"`
	Name            string `xml:"name"`
	Width           string `xml:"width"`
	SVGPath         string `xml:"svgPath"`
	BackgroundColor string `xml:"backgroundColor"`
	SortPos         string `xml:"sortPos"`
	Description     string `xml:"description"`
}

// parsed holds the outcome of reading one description file.
type parsed struct {
	path string
	sym  *Symbol
	err  error
}

// LoadLibrary scans each directory tree for symbol description files and
// returns the resulting library. Directories later in the list override
// symbols of earlier ones. Unreadable descriptions are logged and skipped.
func LoadLibrary(dirs ...string) (*Library, error) {
	lib := NewLibrary()
	for _, dir := range dirs {
		fi, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: symbol library %s: %v", ErrIOFailure, dir, err)
		}
		if !fi.IsDir() {
			return nil, fmt.Errorf("%w: symbol library %s is not a directory", ErrIOFailure, dir)
		}

		results, err := scanLibrary(dir)
		if err != nil {
			return nil, err
		}

		seen := make(map[SymbolKey]string)
		for _, res := range results {
			if res.err != nil {
				log.Printf("skipping symbol %s: %v", res.path, res.err)
				continue
			}
			key := res.sym.Key()
			if prev, ok := seen[key]; ok {
				log.Printf("duplicate symbol %v in %s, keeping %s", key, res.path, prev)
				continue
			}
			seen[key] = res.path
			lib.add(res.sym)
		}
	}
	return lib, nil
}

// scanLibrary parses the description files of one directory tree concurrently
// and returns the results ordered by path.
func scanLibrary(dir string) ([]parsed, error) {
	var wg sync.WaitGroup

	done := make(chan interface{})
	defer close(done)

	paths, errc := walkDir(done, dir, func(name string) bool {
		return name == descriptionFile
	})

	workers := utils.Min(runtime.NumCPU(), maxWorkers)
	ch := make(chan parsed)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for path := range paths {
				sym, err := readDescription(path)
				select {
				case <-done:
					return
				case ch <- parsed{path: path, sym: sym, err: err}:
				}
			}
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(ch)
		wg.Wait()
	}()

	var results []parsed
	for res := range ch {
		results = append(results, res)
	}
	if err := <-errc; err != nil {
		return nil, fmt.Errorf("%w: scanning %s: %v", ErrIOFailure, dir, err)
	}

	slices.SortFunc(results, func(a, b parsed) bool { return a.path < b.path })
	return results, nil
}

// readDescription parses one description file into a symbol.
func readDescription(path string) (*Symbol, error) {
	ctype, err := utils.DetectContentType(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(ctype, "text/") {
		return nil, fmt.Errorf("description has content type %s", ctype)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var desc symbolDescription
	if err := xml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("invalid description: %v", err)
	}

	category := strings.TrimSpace(desc.Category)
	name := strings.TrimSpace(desc.Name)
	if category == "" || name == "" {
		return nil, errors.New("missing category or name")
	}

	width, err := strconv.Atoi(strings.TrimSpace(desc.Width))
	if err != nil || width < 1 {
		return nil, fmt.Errorf("invalid width %q", desc.Width)
	}

	sortPos := 0
	if s := strings.TrimSpace(desc.SortPos); s != "" {
		if sortPos, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("invalid sortPos %q", desc.SortPos)
		}
	}

	bg := White
	if s := strings.TrimSpace(desc.BackgroundColor); s != "" {
		if bg, err = ParseColor(s); err != nil {
			return nil, err
		}
	}

	svgPath := strings.TrimSpace(desc.SVGPath)
	if svgPath != "" && !filepath.IsAbs(svgPath) {
		svgPath = filepath.Join(filepath.Dir(path), svgPath)
	}

	return &Symbol{
		Category:          category,
		Name:              name,
		Width:             width,
		SVGPath:           svgPath,
		DefaultBackground: bg,
		Description:       strings.TrimSpace(desc.Description),
		SortPos:           sortPos,
	}, nil
}

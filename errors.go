package sconcho

import (
	"errors"
	"fmt"
)

// Error kinds returned by the grid, the canvas controller and the project serializer.
// They are compared with errors.Is; call sites wrap them with the failing coordinates.
var (
	ErrIncompatibleRegion       = errors.New("selection is not aligned for the symbol width")
	ErrRegionSplitsItem         = errors.New("region boundary splits a multi-cell item")
	ErrColumnSplitsItem         = errors.New("column insertion splits a multi-cell item")
	ErrDeletionSplitsItem       = errors.New("deletion splits a multi-cell item")
	ErrOverlap                  = errors.New("grid items overlap")
	ErrOutOfBounds              = errors.New("grid item out of bounds")
	ErrMalformedItem            = errors.New("malformed project item")
	ErrIOFailure                = errors.New("i/o failure")
	ErrUnsupportedFormat        = errors.New("unsupported format")
	ErrProjectInvariantViolated = errors.New("project invariant violated")

	// ErrCancelled is returned when the user cancels a close or replace prompt.
	ErrCancelled = errors.New("operation cancelled")
	// ErrNoPath is returned when a document without a destination is saved.
	ErrNoPath = errors.New("no destination path set")
)

// PatternReadError is the fatal error raised by the project reader.
// Offset is the input byte offset at which the offending node ended.
type PatternReadError struct {
	Offset int64
	Err    error
}

func (e *PatternReadError) Error() string {
	return fmt.Sprintf("pattern read error at offset %d: %v", e.Offset, e.Err)
}

func (e *PatternReadError) Unwrap() error { return e.Err }

// Message translates an error into the sentence shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIncompatibleRegion):
		return "The selected region does not fit the width of the active symbol."
	case errors.Is(err, ErrRegionSplitsItem):
		return "The selection cuts through a multi-cell symbol."
	case errors.Is(err, ErrColumnSplitsItem):
		return "Columns can not be inserted through a multi-cell symbol."
	case errors.Is(err, ErrDeletionSplitsItem):
		return "The deleted span cuts through a multi-cell symbol."
	case errors.Is(err, ErrOverlap), errors.Is(err, ErrOutOfBounds):
		return "The pattern grid is corrupt."
	case errors.Is(err, ErrMalformedItem):
		return "The project file is damaged and could not be read."
	case errors.Is(err, ErrIOFailure):
		return "The file could not be accessed."
	case errors.Is(err, ErrUnsupportedFormat):
		return "The file format is not supported."
	case errors.Is(err, ErrProjectInvariantViolated):
		return "The project is inconsistent and could not be loaded."
	case errors.Is(err, ErrCancelled):
		return "Cancelled."
	case errors.Is(err, ErrNoPath):
		return "Please choose a file name first."
	}
	return err.Error()
}

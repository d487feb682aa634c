package xlcalc

import (
	"errors"
	"fmt"
)

// DefaultMaxRangeCells bounds how many cells a single range may expand to.
const DefaultMaxRangeCells = 1_000_000

var errRangeTooLarge = errors.New("range too large")

// Resolver maps references to concrete cells.
type Resolver struct {
	// HasSheet reports whether a sheet with the given name exists.
	HasSheet func(name string) bool
	// MaxCells bounds range expansion; zero means DefaultMaxRangeCells.
	MaxCells int
}

// SheetOf returns the sheet a reference points at when written on owner.
func SheetOf(ref Reference, owner string) string {
	if ref.Sheet != "" {
		return ref.Sheet
	}
	return owner
}

// Expand returns the cells covered by ref, row-major (top to bottom, then
// left to right). It fails with ErrSheetNotFound when the target sheet does
// not exist, which callers surface as #REF.
func (r Resolver) Expand(ref Reference, owner string) ([]CellKey, error) {
	sheet := SheetOf(ref, owner)
	if r.HasSheet != nil && !r.HasSheet(sheet) {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	limit := r.MaxCells
	if limit <= 0 {
		limit = DefaultMaxRangeCells
	}
	rows, cols := ref.Rows(), ref.Cols()
	if rows > limit || cols > limit || rows*cols > limit {
		return nil, fmt.Errorf("%w: %s spans %dx%d cells", errRangeTooLarge, ref, rows, cols)
	}

	keys := make([]CellKey, 0, rows*cols)
	for row := ref.Start.Row; row <= ref.End.Row; row++ {
		for col := ref.Start.Col; col <= ref.End.Col; col++ {
			keys = append(keys, CellKey{Sheet: sheet, Cell: CellID{Row: row, Col: col}})
		}
	}
	return keys, nil
}

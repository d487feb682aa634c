package xlcalc

import (
	"strings"
)

// State is the recalculation state of a cell.
type State int

const (
	StateClean      State = iota // cached value trusted
	StateDirty                   // value stale, recompute needed
	StateEvaluating              // on the active evaluation stack
	StateCircular                // on or downstream of a dependency cycle
	StateError                   // formula evaluated to an error value
)

// String returns a human-readable name for the State.
func (s State) String() string {
	switch s {
	case StateClean:
		return "Clean"
	case StateDirty:
		return "Dirty"
	case StateEvaluating:
		return "Evaluating"
	case StateCircular:
		return "Circular"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// stateFor maps an evaluation result to the state it leaves the cell in.
func stateFor(v Value) State {
	if !v.IsError() {
		return StateClean
	}
	if v.Err == ErrorCircular {
		return StateCircular
	}
	return StateError
}

// Content is what a caller writes into a cell: a literal or a formula.
type Content struct {
	formula string
	literal Value
}

// Formula creates formula content. A missing leading "=" is added.
func Formula(text string) Content {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "=") {
		text = "=" + text
	}
	return Content{formula: text}
}

// Literal creates literal content.
func Literal(v Value) Content {
	return Content{literal: v}
}

// ParseContent interprets raw user input: text starting with "=" is a
// formula, an empty string clears the cell, anything else is stored as Text.
func ParseContent(raw string) Content {
	switch {
	case strings.HasPrefix(raw, "="):
		return Content{formula: raw}
	case raw == "":
		return Content{}
	default:
		return Content{literal: Text(raw)}
	}
}

// IsFormula reports whether c holds a formula.
func (c Content) IsFormula() bool { return c.formula != "" }

// FormulaText returns the formula including its leading "=", or "".
func (c Content) FormulaText() string { return c.formula }

// LiteralValue returns the literal value; Empty for formulas.
func (c Content) LiteralValue() Value { return c.literal }

// Raw returns the content as a user would type it.
func (c Content) Raw() string {
	if c.IsFormula() {
		return c.formula
	}
	return c.literal.String()
}

// IsEmpty reports whether writing c clears the cell.
func (c Content) IsEmpty() bool {
	return !c.IsFormula() && c.literal.IsEmpty()
}

// cell is the stored state of one sheet cell. Exactly one of literal and
// formula is authoritative; value, state and ast are derived from formula.
type cell struct {
	literal Value
	formula string
	ast     Node
	value   Value
	state   State
}

func (c *cell) isFormula() bool {
	return c.formula != ""
}

// display returns the value a grid shows for the cell.
func (c *cell) display() Value {
	if c.isFormula() {
		return c.value
	}
	return c.literal
}

func (c *cell) content() Content {
	if c.isFormula() {
		return Content{formula: c.formula}
	}
	return Content{literal: c.literal}
}

// CellUpdate reports the new value and state of one cell.
type CellUpdate struct {
	Key   CellKey
	Value Value
	State State
}

// AffectedCells is the result of a single cell write.
type AffectedCells struct {
	// Written is the cell that was written, after recalculation.
	Written CellUpdate
	// Cells lists every other cell whose value or state changed, in
	// evaluation order.
	Cells []CellUpdate
}

// GridCell is one rendered cell.
type GridCell struct {
	ID         CellID
	Value      Value
	HasFormula bool
	Raw        string // formula text with "=", or the literal as typed
	State      State
}

// GridRow holds the populated cells of one row, left to right.
type GridRow struct {
	Index int // 0-based row index
	Cells []GridCell
}

// Grid is the rendered content of one sheet, top to bottom.
type Grid struct {
	Sheet string
	Rows  []GridRow
}

// Cells returns every cell of the grid in row-major order.
func (g Grid) Cells() []GridCell {
	var out []GridCell
	for _, r := range g.Rows {
		out = append(out, r.Cells...)
	}
	return out
}

// Lookup returns the grid cell at id, if populated.
func (g Grid) Lookup(id CellID) (GridCell, bool) {
	for _, r := range g.Rows {
		if r.Index != id.Row {
			continue
		}
		for _, c := range r.Cells {
			if c.ID == id {
				return c, true
			}
		}
	}
	return GridCell{}, false
}

// FullGrid is every sheet's grid, in workbook order.
type FullGrid struct {
	Sheets []Grid
}

// Sheet returns the grid for name.
func (f FullGrid) Sheet(name string) (Grid, bool) {
	for _, g := range f.Sheets {
		if g.Sheet == name {
			return g, true
		}
	}
	return Grid{}, false
}

// CellSnapshot is the authoritative content of one cell.
type CellSnapshot struct {
	ID      CellID
	Content Content
}

// SheetSnapshot is the authoritative content of one sheet.
type SheetSnapshot struct {
	Name  string
	Cells []CellSnapshot
}

// Snapshot is the authoritative content of a whole workbook, the unit
// exchanged with persistence layers.
type Snapshot []SheetSnapshot

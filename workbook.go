package xlcalc

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// sheet is a named sparse grid of cells.
type sheet struct {
	name  string
	cells map[CellID]*cell
}

// Workbook is an ordered set of sheets whose formula values are kept
// consistent with the cells they read. All methods are safe for concurrent
// use: writes are serialized and readers never observe a partial write.
type Workbook struct {
	mu     sync.RWMutex
	id     uuid.UUID
	opts   *Options
	sheets []*sheet
	byName map[string]*sheet
	graph  *dependencyGraph
}

// NewWorkbook creates an empty workbook.
func NewWorkbook(opts ...Option) *Workbook {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Workbook{
		id:     uuid.New(),
		opts:   o,
		byName: make(map[string]*sheet),
		graph:  newDependencyGraph(),
	}
}

// ID returns the session identifier of the workbook.
func (w *Workbook) ID() string {
	return w.id.String()
}

func (w *Workbook) resolver() Resolver {
	return Resolver{
		HasSheet: func(name string) bool {
			_, ok := w.byName[name]
			return ok
		},
		MaxCells: w.opts.maxRangeCells,
	}
}

func (w *Workbook) cellAt(key CellKey) *cell {
	s, ok := w.byName[key.Sheet]
	if !ok {
		return nil
	}
	return s.cells[key.Cell]
}

func (w *Workbook) valueAt(key CellKey) Value {
	if c := w.cellAt(key); c != nil {
		return c.display()
	}
	return Empty
}

func (w *Workbook) update(key CellKey) CellUpdate {
	u := CellUpdate{Key: key}
	if c := w.cellAt(key); c != nil {
		u.Value = c.display()
		u.State = c.state
	}
	return u
}

func (w *Workbook) lookupSheet(name string) (*sheet, error) {
	s, ok := w.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	return s, nil
}

// Sheets returns the sheet names in workbook order.
func (w *Workbook) Sheets() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	names := make([]string, len(w.sheets))
	for i, s := range w.sheets {
		names[i] = s.name
	}
	return names
}

// ApplyCellWrite stores content in one cell and recalculates every cell
// that depends on it. Writing empty content clears the cell.
func (w *Workbook) ApplyCellWrite(sheetName, cellID string, content Content) (AffectedCells, error) {
	id, err := ParseCellID(cellID)
	if err != nil {
		return AffectedCells{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	s, err := w.lookupSheet(sheetName)
	if err != nil {
		return AffectedCells{}, err
	}

	key := CellKey{Sheet: s.name, Cell: id}
	w.setContent(s, key, content)
	node := w.graph.node(key)

	var result AffectedCells
	for _, u := range w.recalc([]int{node}) {
		if u.Key != key {
			result.Cells = append(result.Cells, u)
		}
	}
	result.Written = w.update(key)
	w.prune([]int{node})

	w.opts.logger.Debug("cell written",
		slog.String("workbook", w.id.String()),
		slog.String("sheet", s.name),
		slog.String("cell", id.String()),
		slog.Int("affected", len(result.Cells)),
	)
	return result, nil
}

// setContent replaces the authoritative content of a cell and rebuilds the
// edges it owns.
func (w *Workbook) setContent(s *sheet, key CellKey, content Content) {
	switch {
	case content.IsEmpty():
		delete(s.cells, key.Cell)
	case content.IsFormula():
		c := &cell{formula: content.FormulaText(), state: StateDirty}
		if ast, err := ParseFormula(c.formula); err != nil {
			c.value, c.state = Error(ErrorParse), StateError
			w.opts.logger.Debug("formula rejected",
				slog.String("cell", key.String()),
				slog.Any("error", err),
			)
		} else {
			c.ast = ast
		}
		s.cells[key.Cell] = c
	default:
		s.cells[key.Cell] = &cell{literal: content.LiteralValue()}
	}

	if id, ok := w.graph.lookup(key); ok || content.IsFormula() {
		if !ok {
			id = w.graph.node(key)
		}
		w.bind(id)
	}
}

// ApplyFullReplace discards the whole workbook, loads snapshot, and runs one
// full recalculation. On error the workbook is left unchanged.
func (w *Workbook) ApplyFullReplace(snapshot Snapshot) (FullGrid, error) {
	seen := make(map[string]bool, len(snapshot))
	for _, ss := range snapshot {
		if err := ValidateSheetName(ss.Name); err != nil {
			return FullGrid{}, err
		}
		if seen[ss.Name] {
			return FullGrid{}, fmt.Errorf("%w: %q", ErrSheetExists, ss.Name)
		}
		seen[ss.Name] = true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.sheets = nil
	w.byName = make(map[string]*sheet, len(snapshot))
	w.graph = newDependencyGraph()

	for _, ss := range snapshot {
		s := &sheet{name: ss.Name, cells: make(map[CellID]*cell, len(ss.Cells))}
		w.sheets = append(w.sheets, s)
		w.byName[s.name] = s
	}
	for i, ss := range snapshot {
		for _, cs := range ss.Cells {
			w.setContent(w.sheets[i], CellKey{Sheet: ss.Name, Cell: cs.ID}, cs.Content)
		}
	}
	w.recalc(w.formulaNodes())

	w.opts.logger.Info("workbook replaced",
		slog.String("workbook", w.id.String()),
		slog.Int("sheets", len(w.sheets)),
		slog.Int("nodes", w.graph.nodeCount()),
	)
	return w.fullGrid(), nil
}

// Recalculate re-evaluates every formula in the workbook. On an unchanged
// workbook it reports no changes.
func (w *Workbook) Recalculate() []CellUpdate {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.recalc(w.formulaNodes())
}

// AddSheet appends an empty sheet. Formulas that already name it are
// re-resolved.
func (w *Workbook) AddSheet(name string) ([]CellUpdate, error) {
	if err := ValidateSheetName(name); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.byName[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetExists, name)
	}
	s := &sheet{name: name, cells: make(map[CellID]*cell)}
	w.sheets = append(w.sheets, s)
	w.byName[name] = s

	return w.rebindAll(w.graph.referencing(name)), nil
}

// DeleteSheet removes a sheet and its cells. Formulas on other sheets that
// read it evaluate to #REF.
func (w *Workbook) DeleteSheet(name string) ([]CellUpdate, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, err := w.lookupSheet(name)
	if err != nil {
		return nil, err
	}
	w.sheets = slices.DeleteFunc(w.sheets, func(other *sheet) bool { return other == s })
	delete(w.byName, name)

	var readers []int
	for _, id := range w.graph.referencing(name) {
		if w.graph.key(id).Sheet != name {
			readers = append(readers, id)
		}
	}

	// Unbind the removed sheet's formulas, then drop its nodes.
	for _, id := range w.graph.sheetNodes(name) {
		w.bind(id)
	}
	for _, id := range readers {
		w.bind(id)
	}
	w.prune(w.graph.sheetNodes(name))

	return w.recalc(readers), nil
}

// RenameSheet renames a sheet and rewrites every formula that names it.
func (w *Workbook) RenameSheet(from, to string) ([]CellUpdate, error) {
	if err := ValidateSheetName(to); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	s, err := w.lookupSheet(from)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, nil
	}
	if _, ok := w.byName[to]; ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetExists, to)
	}

	affected := append(w.graph.referencing(from), w.graph.referencing(to)...)
	s.name = to
	delete(w.byName, from)
	w.byName[to] = s
	w.graph.renameSheet(from, to)

	for _, id := range w.graph.referencing(from) {
		c := w.cellAt(w.graph.key(id))
		if c != nil && c.ast != nil && renameSheetRefs(c.ast, from, to) {
			c.formula = "=" + c.ast.String()
		}
	}

	w.opts.logger.Debug("sheet renamed",
		slog.String("workbook", w.id.String()),
		slog.String("from", from),
		slog.String("to", to),
		slog.Int("formulas", len(affected)),
	)
	return w.rebindAll(affected), nil
}

// rebindAll re-resolves the given formula nodes and recalculates them.
func (w *Workbook) rebindAll(ids []int) []CellUpdate {
	ids = sortedUnique(ids)
	for _, id := range ids {
		w.bind(id)
	}
	return w.recalc(ids)
}

func sortedUnique(ids []int) []int {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// ReadGrid returns the populated cells of a sheet in row-major order.
func (w *Workbook) ReadGrid(name string) (Grid, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	s, err := w.lookupSheet(name)
	if err != nil {
		return Grid{}, err
	}
	return w.grid(s), nil
}

// Cell returns the current content and value of one cell. An unpopulated
// cell is returned as Empty.
func (w *Workbook) Cell(sheetName, cellID string) (GridCell, error) {
	id, err := ParseCellID(cellID)
	if err != nil {
		return GridCell{}, err
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	s, err := w.lookupSheet(sheetName)
	if err != nil {
		return GridCell{}, err
	}
	c, ok := s.cells[id]
	if !ok {
		return GridCell{ID: id}, nil
	}
	return gridCell(id, c), nil
}

// Snapshot returns the authoritative content of every cell.
func (w *Workbook) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	snap := make(Snapshot, 0, len(w.sheets))
	for _, s := range w.sheets {
		ss := SheetSnapshot{Name: s.name}
		for _, id := range sortedCellIDs(s) {
			ss.Cells = append(ss.Cells, CellSnapshot{ID: id, Content: s.cells[id].content()})
		}
		snap = append(snap, ss)
	}
	return snap
}

func (w *Workbook) fullGrid() FullGrid {
	full := FullGrid{Sheets: make([]Grid, 0, len(w.sheets))}
	for _, s := range w.sheets {
		full.Sheets = append(full.Sheets, w.grid(s))
	}
	return full
}

func (w *Workbook) grid(s *sheet) Grid {
	g := Grid{Sheet: s.name}
	for _, id := range sortedCellIDs(s) {
		if n := len(g.Rows); n == 0 || g.Rows[n-1].Index != id.Row {
			g.Rows = append(g.Rows, GridRow{Index: id.Row})
		}
		row := &g.Rows[len(g.Rows)-1]
		row.Cells = append(row.Cells, gridCell(id, s.cells[id]))
	}
	return g
}

func gridCell(id CellID, c *cell) GridCell {
	return GridCell{
		ID:         id,
		Value:      c.display(),
		HasFormula: c.isFormula(),
		Raw:        c.content().Raw(),
		State:      c.state,
	}
}

func sortedCellIDs(s *sheet) []CellID {
	ids := make([]CellID, 0, len(s.cells))
	for id := range s.cells {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

package xlcalc

import "log/slog"

// priorState is a cell's value and state before a pass, used to report
// only real changes.
type priorState struct {
	value Value
	state State
}

// bind replaces the edges of formula node id with edges from every cell its
// references resolve to. Unresolvable references contribute no edge but
// still record the sheet name, so the formula is re-bound when that sheet
// appears, disappears or is renamed. Precedent nodes orphaned by the
// change are released.
func (w *Workbook) bind(id int) {
	key := w.graph.key(id)
	old := w.graph.directPrecedents(id)

	c := w.cellAt(key)
	if c == nil || c.ast == nil {
		w.graph.clearEdges(id)
		w.prune(old)
		return
	}

	var (
		precedents []int
		sheets     []string
		seen       = make(map[string]bool)
	)
	resolver := w.resolver()
	for _, ref := range References(c.ast) {
		name := SheetOf(ref, key.Sheet)
		if !seen[name] {
			seen[name] = true
			sheets = append(sheets, name)
		}
		keys, err := resolver.Expand(ref, key.Sheet)
		if err != nil {
			continue
		}
		for _, k := range keys {
			precedents = append(precedents, w.graph.node(k))
		}
	}
	w.graph.setEdges(id, precedents, sheets)
	w.prune(old)
}

// prune releases nodes that no longer hold a cell, own no edges and are
// read by no formula.
func (w *Workbook) prune(ids []int) {
	for _, id := range ids {
		if !w.graph.live[id] {
			continue
		}
		if c := w.cellAt(w.graph.key(id)); c != nil && c.isFormula() {
			continue
		}
		w.graph.release(id)
	}
}

// recalc marks seeds and all their transitive dependents dirty, then
// evaluates them precedents first. It returns every cell whose value or
// state changed, in evaluation order.
func (w *Workbook) recalc(seeds []int) []CellUpdate {
	comps := w.graph.components(w.graph.closure(seeds))

	var order []int
	for _, comp := range comps {
		order = append(order, comp.nodes...)
	}

	before := make(map[int]priorState, len(order))
	dirty := make([]CellKey, 0, len(order))
	for _, id := range order {
		key := w.graph.key(id)
		c := w.cellAt(key)
		if c == nil {
			continue
		}
		before[id] = priorState{value: c.display(), state: c.state}
		if c.isFormula() {
			c.state = StateDirty
			dirty = append(dirty, key)
		}
	}
	for _, l := range w.opts.listeners {
		l.BeforeRecalc(dirty)
	}

	var (
		changes   []CellUpdate
		evaluated int
		circular  int
	)
	for _, comp := range comps {
		for _, id := range comp.nodes {
			key := w.graph.key(id)
			c := w.cellAt(key)
			if c == nil {
				continue
			}
			if c.isFormula() {
				w.evaluateCell(id, key, c, comp.cyclic)
				evaluated++
				if c.state == StateCircular {
					circular++
				}
				for _, l := range w.opts.listeners {
					l.AfterEvaluate(CellUpdate{Key: key, Value: c.value, State: c.state})
				}
			}
			prev, ok := before[id]
			if !ok || !prev.value.Equal(c.display()) || prev.state != c.state {
				changes = append(changes, CellUpdate{Key: key, Value: c.display(), State: c.state})
			}
		}
	}

	w.opts.logger.Debug("recalculated",
		slog.String("workbook", w.id.String()),
		slog.Int("seeds", len(seeds)),
		slog.Int("evaluated", evaluated),
		slog.Int("circular", circular),
		slog.Int("changed", len(changes)),
	)
	return changes
}

// evaluateCell computes one formula cell whose precedents are final.
func (w *Workbook) evaluateCell(id int, key CellKey, c *cell, cyclic bool) {
	switch {
	case c.ast == nil:
		c.value, c.state = Error(ErrorParse), StateError
	case cyclic || w.readsCircular(id):
		c.value, c.state = Error(ErrorCircular), StateCircular
	default:
		c.state = StateEvaluating
		c.value = evaluateFormula(c.ast, evalEnv{
			sheet:    key.Sheet,
			resolver: w.resolver(),
			value:    w.valueAt,
		})
		c.state = stateFor(c.value)
	}
}

// readsCircular reports whether any direct precedent is Circular.
func (w *Workbook) readsCircular(id int) bool {
	for p := range w.graph.precedents[id] {
		if c := w.cellAt(w.graph.key(p)); c != nil && c.state == StateCircular {
			return true
		}
	}
	return false
}

// formulaNodes returns a node for every formula cell in the workbook.
func (w *Workbook) formulaNodes() []int {
	var ids []int
	for _, s := range w.sheets {
		for cellID, c := range s.cells {
			if c.isFormula() {
				ids = append(ids, w.graph.node(CellKey{Sheet: s.name, Cell: cellID}))
			}
		}
	}
	w.graph.sortIDs(ids)
	return ids
}

package xlcalc

import (
	"fmt"
	"slices"
	"strings"
)

// maxDescribeDepth bounds how deep the precedent tree is printed.
const maxDescribeDepth = 8

// Describe returns a human-readable tree of every formula on a sheet and
// the cells it reads, with current values and states.
// Useful for debugging why a cell shows a given value.
func (w *Workbook) Describe(sheetName string) (string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	s, err := w.lookupSheet(sheetName)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Sheet: %s\n", s.name)
	for _, id := range sortedCellIDs(s) {
		if !s.cells[id].isFormula() {
			continue
		}
		key := CellKey{Sheet: s.name, Cell: id}
		w.describeCell(&b, key, s.name, 1, map[CellKey]bool{})
	}
	return b.String(), nil
}

// describeCell writes one cell line and recurses into its precedents.
// path holds the cells on the current branch to stop at cycles.
func (w *Workbook) describeCell(b *strings.Builder, key CellKey, owner string, indent int, path map[CellKey]bool) {
	prefix := strings.Repeat("  ", indent)
	name := key.Cell.String()
	if key.Sheet != owner {
		name = key.String()
	}

	c := w.cellAt(key)
	switch {
	case c == nil:
		fmt.Fprintf(b, "%s%s (empty)\n", prefix, name)
		return
	case !c.isFormula():
		fmt.Fprintf(b, "%s%s %s\n", prefix, name, describeValue(c.literal))
		return
	}

	fmt.Fprintf(b, "%s%s %s = %s [%s]\n", prefix, name, c.formula, describeValue(c.value), c.state)
	if path[key] {
		fmt.Fprintf(b, "%s  (cycle)\n", prefix)
		return
	}
	if indent >= maxDescribeDepth {
		fmt.Fprintf(b, "%s  ...\n", prefix)
		return
	}

	id, ok := w.graph.lookup(key)
	if !ok {
		return
	}
	path[key] = true
	defer delete(path, key)

	for _, p := range w.graph.directPrecedents(id) {
		w.describeCell(b, w.graph.key(p), owner, indent+1, path)
	}
	for _, missing := range w.missingSheets(id) {
		fmt.Fprintf(b, "%s  %s! (sheet not found)\n", prefix, FormatSheetName(missing))
	}
}

// missingSheets returns the sheet names a formula mentions that do not exist.
func (w *Workbook) missingSheets(id int) []string {
	var out []string
	for name := range w.graph.nodeSheets[id] {
		if _, ok := w.byName[name]; !ok {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

func describeValue(v Value) string {
	if v.Kind == KindText {
		return fmt.Sprintf("%q", v.Str)
	}
	if v.IsEmpty() {
		return "(empty)"
	}
	return v.String()
}

package xlcalc

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadSnapshot reads every sheet of an xlsx workbook into a Snapshot.
// Formula cells become formulas; other cells keep their stored type.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return snapshotFromFile(f)
}

// OpenSnapshot reads an xlsx file from disk.
func OpenSnapshot(path string) (Snapshot, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	defer f.Close()
	return snapshotFromFile(f)
}

func snapshotFromFile(f *excelize.File) (Snapshot, error) {
	var snap Snapshot
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read rows from sheet %q: %w", name, err)
		}

		ss := SheetSnapshot{Name: name}
		for rowIdx, row := range rows {
			for colIdx, raw := range row {
				id := NewCellID(rowIdx, colIdx)
				content, err := readContent(f, name, id.String(), raw)
				if err != nil {
					return nil, err
				}
				if !content.IsEmpty() {
					ss.Cells = append(ss.Cells, CellSnapshot{ID: id, Content: content})
				}
			}
		}

		// GetRows omits formula cells that carry no cached value.
		seen := make(map[CellID]bool, len(ss.Cells))
		for _, cs := range ss.Cells {
			seen[cs.ID] = true
		}
		formulas, err := formulaCells(f, name)
		if err != nil {
			return nil, err
		}
		for _, cs := range formulas {
			if !seen[cs.ID] {
				ss.Cells = append(ss.Cells, cs)
			}
		}
		snap = append(snap, ss)
	}
	return snap, nil
}

func readContent(f *excelize.File, sheetName, cellName, raw string) (Content, error) {
	formula, err := f.GetCellFormula(sheetName, cellName)
	if err != nil {
		return Content{}, fmt.Errorf("read formula %s!%s: %w", sheetName, cellName, err)
	}
	if formula != "" {
		return Formula(formula), nil
	}
	if raw == "" {
		return Content{}, nil
	}

	typ, err := f.GetCellType(sheetName, cellName)
	if err != nil {
		return Content{}, fmt.Errorf("read type %s!%s: %w", sheetName, cellName, err)
	}
	switch typ {
	case excelize.CellTypeBool:
		return Literal(Bool(raw == "1" || strings.EqualFold(raw, "TRUE"))), nil
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if n, ok := parseNumber(raw); ok {
			return Literal(Number(n)), nil
		}
	}
	return Literal(Text(raw)), nil
}

// formulaCells scans a sheet's used range for formulas.
func formulaCells(f *excelize.File, sheetName string) ([]CellSnapshot, error) {
	dim, err := f.GetSheetDimension(sheetName)
	if err != nil || dim == "" {
		return nil, nil
	}
	ref, err := ParseReference(dim)
	if err != nil || ref.Rows()*ref.Cols() > DefaultMaxRangeCells {
		return nil, nil
	}

	var out []CellSnapshot
	for row := ref.Start.Row; row <= ref.End.Row; row++ {
		for col := ref.Start.Col; col <= ref.End.Col; col++ {
			id := NewCellID(row, col)
			formula, err := f.GetCellFormula(sheetName, id.String())
			if err != nil {
				return nil, fmt.Errorf("read formula %s!%s: %w", sheetName, id, err)
			}
			if formula != "" {
				out = append(out, CellSnapshot{ID: id, Content: Formula(formula)})
			}
		}
	}
	return out, nil
}

// WriteXLSX writes the workbook content as an xlsx file. Formulas are stored
// without their cached values and the file asks Excel to recalculate on open.
func (w *Workbook) WriteXLSX(out io.Writer) error {
	return WriteSnapshot(out, w.Snapshot())
}

// WriteSnapshot writes snap as an xlsx file.
func WriteSnapshot(out io.Writer, snap Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	const defaultSheet = "Sheet1"
	for i, ss := range snap {
		if i == 0 {
			if ss.Name != defaultSheet {
				if err := f.SetSheetName(defaultSheet, ss.Name); err != nil {
					return fmt.Errorf("rename sheet %q: %w", ss.Name, err)
				}
			}
		} else if _, err := f.NewSheet(ss.Name); err != nil {
			return fmt.Errorf("create sheet %q: %w", ss.Name, err)
		}

		for _, cs := range ss.Cells {
			if err := writeContent(f, ss.Name, cs.ID.String(), cs.Content); err != nil {
				return fmt.Errorf("write %s!%s: %w", ss.Name, cs.ID, err)
			}
		}
		if used, ok := usedRange(ss); ok {
			if err := f.SetSheetDimension(ss.Name, used.String()); err != nil {
				return fmt.Errorf("set dimension of %q: %w", ss.Name, err)
			}
		}
	}

	fullCalc := true
	if err := f.SetCalcProps(&excelize.CalcPropsOptions{FullCalcOnLoad: &fullCalc}); err != nil {
		return fmt.Errorf("set calc properties: %w", err)
	}
	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// usedRange returns the smallest range covering every cell of ss.
func usedRange(ss SheetSnapshot) (Reference, bool) {
	if len(ss.Cells) == 0 {
		return Reference{}, false
	}
	first, last := ss.Cells[0].ID, ss.Cells[0].ID
	for _, cs := range ss.Cells[1:] {
		first.Row, first.Col = min(first.Row, cs.ID.Row), min(first.Col, cs.ID.Col)
		last.Row, last.Col = max(last.Row, cs.ID.Row), max(last.Col, cs.ID.Col)
	}
	return NewRangeReference("", first, last), true
}

func writeContent(f *excelize.File, sheetName, cellName string, c Content) error {
	if c.IsFormula() {
		return f.SetCellFormula(sheetName, cellName, strings.TrimPrefix(c.FormulaText(), "="))
	}
	v := c.LiteralValue()
	switch v.Kind {
	case KindNumber:
		return f.SetCellFloat(sheetName, cellName, v.Num, -1, 64)
	case KindBool:
		return f.SetCellBool(sheetName, cellName, v.Bool)
	case KindText:
		return f.SetCellStr(sheetName, cellName, v.Str)
	case KindError:
		return f.SetCellStr(sheetName, cellName, v.String())
	}
	return nil
}

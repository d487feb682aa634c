package xlcalc

import (
	"errors"
	"fmt"
	"sort"
)

// Severity indicates the severity of a validation issue.
type Severity int

const (
	SeverityError   Severity = iota // Cell will show an error value
	SeverityWarning                 // Cell may produce unexpected results
)

// ValidationIssue represents a single problem found in a snapshot.
type ValidationIssue struct {
	Severity Severity
	Sheet    string
	Cell     *CellID // nil for issues about the whole sheet
	Message  string
}

// String formats the issue as "[ERROR] Sheet1!A2: message" or "[WARN] ...".
func (v ValidationIssue) String() string {
	sev := "ERROR"
	if v.Severity == SeverityWarning {
		sev = "WARN"
	}
	where := FormatSheetName(v.Sheet)
	if v.Cell != nil {
		where = CellKey{Sheet: v.Sheet, Cell: *v.Cell}.String()
	}
	return fmt.Sprintf("[%s] %s: %s", sev, where, v.Message)
}

func (v ValidationIssue) less(other ValidationIssue) bool {
	if v.Sheet != other.Sheet {
		return v.Sheet < other.Sheet
	}
	if v.Cell == nil || other.Cell == nil {
		return v.Cell == nil && other.Cell != nil
	}
	return v.Cell.Less(*other.Cell)
}

// Validate checks a snapshot for problems without loading it into a
// workbook: invalid or duplicate sheet names, formulas that do not parse,
// references to missing sheets, oversized ranges, and circular references.
// Issues are ordered by cell.
func Validate(snapshot Snapshot, opts ...Option) []ValidationIssue {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	var issues []ValidationIssue
	issues = append(issues, validateSheetNames(snapshot)...)
	if len(issues) > 0 {
		return issues
	}
	issues = append(issues, validateFormulas(snapshot, o.maxRangeCells)...)
	issues = append(issues, validateCycles(snapshot, o.maxRangeCells)...)

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].less(issues[j])
	})
	return issues
}

// validateSheetNames reports names that cannot be loaded.
func validateSheetNames(snapshot Snapshot) []ValidationIssue {
	var issues []ValidationIssue
	seen := make(map[string]bool, len(snapshot))
	for _, ss := range snapshot {
		if err := ValidateSheetName(ss.Name); err != nil {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Sheet:    ss.Name,
				Message:  fmt.Sprintf("sheet name is not usable: %v", err),
			})
			continue
		}
		if seen[ss.Name] {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Sheet:    ss.Name,
				Message:  "sheet name is used more than once",
			})
		}
		seen[ss.Name] = true
	}
	return issues
}

// validateFormulas parses every formula and checks its references.
func validateFormulas(snapshot Snapshot, maxCells int) []ValidationIssue {
	sheets := make(map[string]bool, len(snapshot))
	for _, ss := range snapshot {
		sheets[ss.Name] = true
	}
	resolver := Resolver{
		HasSheet: func(name string) bool { return sheets[name] },
		MaxCells: maxCells,
	}

	var issues []ValidationIssue
	for _, ss := range snapshot {
		for _, cs := range ss.Cells {
			if !cs.Content.IsFormula() {
				continue
			}
			id := cs.ID
			ast, err := ParseFormula(cs.Content.FormulaText())
			if err != nil {
				var perr *ParseError
				msg := err.Error()
				if errors.As(err, &perr) {
					msg = perr.Message
				}
				issues = append(issues, ValidationIssue{
					Severity: SeverityError,
					Sheet:    ss.Name,
					Cell:     &id,
					Message:  fmt.Sprintf("formula %q does not parse: %s", cs.Content.FormulaText(), msg),
				})
				continue
			}
			for _, ref := range References(ast) {
				if _, err := resolver.Expand(ref, ss.Name); err != nil {
					issues = append(issues, ValidationIssue{
						Severity: SeverityWarning,
						Sheet:    ss.Name,
						Cell:     &id,
						Message:  fmt.Sprintf("reference %s evaluates to #REF: %v", ref, err),
					})
				}
			}
		}
	}
	return issues
}

// validateCycles loads the snapshot into a scratch workbook and reports
// every cell that ends up circular.
func validateCycles(snapshot Snapshot, maxCells int) []ValidationIssue {
	wb := NewWorkbook(WithMaxRangeCells(maxCells))
	full, err := wb.ApplyFullReplace(snapshot)
	if err != nil {
		return nil
	}

	var issues []ValidationIssue
	for _, g := range full.Sheets {
		for _, c := range g.Cells() {
			if c.State != StateCircular {
				continue
			}
			id := c.ID
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Sheet:    g.Sheet,
				Cell:     &id,
				Message:  fmt.Sprintf("formula %q is part of or depends on a circular reference", c.Raw),
			})
		}
	}
	return issues
}

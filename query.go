package xlcalc

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// cellEnv is the environment a FindCells condition is evaluated against.
type cellEnv struct {
	Value     any     `expr:"value"`     // float64, string, bool, or nil
	Text      string  `expr:"text"`      // displayed value
	Number    float64 `expr:"number"`    // numeric value, 0 when not a number
	Row       int     `expr:"row"`       // 1-based
	Col       int     `expr:"col"`       // 1-based
	Cell      string  `expr:"cell"`      // "B2"
	Formula   string  `expr:"formula"`   // "=SUM(A1:A3)" or ""
	Error     string  `expr:"error"`     // "#DIV0" or ""
	State     string  `expr:"state"`     // "Clean", "Circular", ...
	IsFormula bool    `expr:"isFormula"` // formula cell
}

func newCellEnv(c GridCell) cellEnv {
	env := cellEnv{
		Text:      c.Value.String(),
		Row:       c.ID.Row + 1,
		Col:       c.ID.Col + 1,
		Cell:      c.ID.String(),
		State:     c.State.String(),
		IsFormula: c.HasFormula,
	}
	if c.HasFormula {
		env.Formula = c.Raw
	}
	switch c.Value.Kind {
	case KindNumber:
		env.Value = c.Value.Num
		env.Number = c.Value.Num
	case KindText:
		env.Value = c.Value.Str
		if n, ok := parseNumber(c.Value.Str); ok {
			env.Number = n
		}
	case KindBool:
		env.Value = c.Value.Bool
	case KindError:
		env.Value = c.Value.Err.String()
		env.Error = c.Value.Err.String()
	}
	return env
}

// conditionCache compiles FindCells conditions once per distinct text.
type conditionCache struct {
	programs sync.Map // condition string → compiled *vm.Program
}

var conditions conditionCache

func (c *conditionCache) compile(condition string) (*vm.Program, error) {
	if cached, ok := c.programs.Load(condition); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(condition, expr.Env(cellEnv{}), expr.AsBool())
	if err != nil {
		return nil, err
	}
	c.programs.Store(condition, program)
	return program, nil
}

// CompileCondition checks that condition is a valid FindCells condition.
func CompileCondition(condition string) error {
	if _, err := conditions.compile(condition); err != nil {
		return fmt.Errorf("compile condition %q: %w", condition, err)
	}
	return nil
}

// FindCells returns the populated cells of a sheet, row-major, for which
// condition evaluates to true. Conditions see value, text, number, row,
// col, cell, formula, error, state and isFormula, for example
//
//	isFormula && number > 100
//	error == "#DIV0"
//
// A condition that fails at run time for a cell (such as comparing text
// with a number) does not match that cell.
func (w *Workbook) FindCells(sheetName, condition string) ([]GridCell, error) {
	program, err := conditions.compile(condition)
	if err != nil {
		return nil, fmt.Errorf("compile condition %q: %w", condition, err)
	}

	g, err := w.ReadGrid(sheetName)
	if err != nil {
		return nil, err
	}

	var matches []GridCell
	for _, c := range g.Cells() {
		result, err := expr.Run(program, newCellEnv(c))
		if err != nil {
			continue
		}
		if ok, _ := result.(bool); ok {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

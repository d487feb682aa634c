package xlcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func foundIDs(cells []GridCell) []string {
	ids := make([]string, len(cells))
	for i, c := range cells {
		ids[i] = c.ID.String()
	}
	return ids
}

func TestFindCells(t *testing.T) {
	wb := newWorkbook(t, salesSheet())
	_, err := wb.ApplyCellWrite("Sales", "E4", Formula("=B4/C4"))
	require.NoError(t, err)

	tests := []struct {
		name      string
		condition string
		want      []string
	}{
		{"large formulas", "isFormula && number > 50", []string{"D3", "D4"}},
		{"errors", `error == "#DIV0"`, []string{"E4"}},
		{"text prefix", `text startsWith "W"`, []string{"A2"}},
		{"by position", "row == 1 && col <= 2", []string{"A1", "B1"}},
		{"formula text", `formula contains "SUM"`, []string{"D4"}},
		{"mixed value types", "value > 10", []string{"B2", "D2", "B3", "D3", "D4"}},
		{"nothing", "false", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := wb.FindCells("Sales", tt.condition)
			require.NoError(t, err)
			assert.Equal(t, tt.want, foundIDs(got))
		})
	}
}

func TestFindCells_InvalidCondition(t *testing.T) {
	wb := newWorkbook(t, salesSheet())

	_, err := wb.FindCells("Sales", "number >")
	assert.Error(t, err)
	_, err = wb.FindCells("Sales", "number + 1")
	assert.Error(t, err, "condition must be boolean")
	_, err = wb.FindCells("Sales", "unknownField == 1")
	assert.Error(t, err)

	_, err = wb.FindCells("Nope", "true")
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestCompileCondition(t *testing.T) {
	assert.NoError(t, CompileCondition("state == \"Circular\""))
	assert.Error(t, CompileCondition("state =="))
}

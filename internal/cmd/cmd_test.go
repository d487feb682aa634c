package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/javajack/xlcalc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBook(t *testing.T, snap xlcalc.Snapshot) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, xlcalc.WriteSnapshot(&buf, snap))
	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func salesBook(t *testing.T) string {
	t.Helper()
	cell := func(id string, c xlcalc.Content) xlcalc.CellSnapshot {
		return xlcalc.CellSnapshot{ID: xlcalc.MustCellID(id), Content: c}
	}
	return writeBook(t, xlcalc.Snapshot{{
		Name: "Sales",
		Cells: []xlcalc.CellSnapshot{
			cell("A1", xlcalc.Literal(xlcalc.Text("Item"))),
			cell("B2", xlcalc.Literal(xlcalc.Number(10.5))),
			cell("C2", xlcalc.Literal(xlcalc.Number(4))),
			cell("D2", xlcalc.Formula("=B2*C2")),
			cell("B3", xlcalc.Literal(xlcalc.Number(15.75))),
			cell("C3", xlcalc.Literal(xlcalc.Number(6))),
			cell("D3", xlcalc.Formula("=B3*C3")),
			cell("D4", xlcalc.Formula("=SUM(D2:D3)")),
		},
	}})
}

// run executes the root command with args and a config path that does not
// exist, so defaults apply.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	evalSheet, setDryRun, verbose = "", false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.toml")))
	err := rootCmd.Execute()
	return out.String(), err
}

func loadValue(t *testing.T, path, sheet, id string) xlcalc.Value {
	t.Helper()
	snap, err := xlcalc.OpenSnapshot(path)
	require.NoError(t, err)
	wb := xlcalc.NewWorkbook()
	_, err = wb.ApplyFullReplace(snap)
	require.NoError(t, err)
	c, err := wb.Cell(sheet, id)
	require.NoError(t, err)
	return c.Value
}

func TestEval(t *testing.T) {
	path := salesBook(t)

	out, err := run(t, "eval", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Sales")
	assert.Contains(t, out, "136.5")
	assert.Contains(t, out, "=SUM(D2:D3)")
	assert.Contains(t, out, "Item")
}

func TestEval_UnknownSheet(t *testing.T) {
	_, err := run(t, "eval", salesBook(t), "--sheet", "Nope")
	assert.ErrorIs(t, err, xlcalc.ErrSheetNotFound)
}

func TestSet_WritesAndSaves(t *testing.T) {
	path := salesBook(t)

	out, err := run(t, "set", path, "Sales", "B2", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "Sales!B2 = 20")
	assert.Contains(t, out, "Sales!D2 = 80")
	assert.Contains(t, out, "Sales!D4 = 174.5")
	assert.NotContains(t, out, "Sales!D3")

	assert.Equal(t, xlcalc.Number(174.5), loadValue(t, path, "Sales", "D4"))
}

func TestSet_DryRunLeavesFile(t *testing.T) {
	path := salesBook(t)

	out, err := run(t, "set", path, "Sales", "D4", "=D2-D3", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Sales!D4 = -52.5")

	assert.Equal(t, xlcalc.Number(136.5), loadValue(t, path, "Sales", "D4"))
}

func TestSet_InvalidCell(t *testing.T) {
	_, err := run(t, "set", salesBook(t), "Sales", "not-a-cell", "1")
	assert.ErrorIs(t, err, xlcalc.ErrInvalidCellID)
}

func TestDescribe(t *testing.T) {
	out, err := run(t, "describe", salesBook(t), "Sales")
	require.NoError(t, err)
	assert.Contains(t, out, "D4 =SUM(D2:D3) = 136.5 [Clean]")
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate", salesBook(t))
	require.NoError(t, err)
	assert.Contains(t, out, "no errors")

	broken := writeBook(t, xlcalc.Snapshot{{
		Name: "Sheet1",
		Cells: []xlcalc.CellSnapshot{
			{ID: xlcalc.MustCellID("A1"), Content: xlcalc.Formula("=A1+1")},
		},
	}})
	out, err = run(t, "validate", broken)
	require.Error(t, err)
	assert.Equal(t, "1 error(s) found", err.Error())
	assert.Contains(t, out, "Sheet1!A1")
}

func TestFind(t *testing.T) {
	out, err := run(t, "find", salesBook(t), "Sales", "number > 100")
	require.NoError(t, err)
	assert.Contains(t, out, "136.5")
	assert.NotContains(t, out, "94.5")

	_, err = run(t, "find", salesBook(t), "Sales", "number >")
	assert.Error(t, err)
}

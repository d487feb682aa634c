package cmd

import (
	"github.com/javajack/xlcalc"
	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find <file> <sheet> <condition>",
	Short: "List cells matching a condition",
	Long: `Print the cells of a sheet for which a condition is true.

Conditions are expressions over value, text, number, row, col, cell,
formula, error, state and isFormula.

Examples:
  xlcalc find book.xlsx Sales 'number > 100'
  xlcalc find book.xlsx Sales 'error != ""'
  xlcalc find book.xlsx Sales 'isFormula && row >= 2'`,
	Args: cobra.ExactArgs(3),
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	if err := xlcalc.CompileCondition(args[2]); err != nil {
		return err
	}
	wb, err := loadWorkbook(args[0])
	if err != nil {
		return err
	}
	cells, err := wb.FindCells(args[1], args[2])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, c := range cells {
		printCell(out, c.ID.String(), c)
	}
	return nil
}

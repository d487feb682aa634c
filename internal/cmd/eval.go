package cmd

import (
	"fmt"

	"github.com/javajack/xlcalc/internal/style"
	"github.com/spf13/cobra"
)

var evalSheet string

var evalCmd = &cobra.Command{
	Use:   "eval <file>",
	Short: "Print computed values",
	Long: `Recalculate a workbook and print every populated cell with its value.

Formula cells also show their formula text. Error values are printed in red,
circular cells in yellow.

Examples:
  xlcalc eval book.xlsx
  xlcalc eval book.xlsx --sheet Summary`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalSheet, "sheet", "", "only print this sheet")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	wb, err := loadWorkbook(args[0])
	if err != nil {
		return err
	}

	sheets := wb.Sheets()
	if evalSheet != "" {
		sheets = []string{evalSheet}
	}

	out := cmd.OutOrStdout()
	for _, name := range sheets {
		grid, err := wb.ReadGrid(name)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, style.Bold.Render(name))
		for _, c := range grid.Cells() {
			printCell(out, c.ID.String(), c)
		}
	}
	return nil
}

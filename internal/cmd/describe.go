package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe <file> <sheet>",
	Short: "Show the dependency tree of each formula",
	Long: `Print every formula on a sheet with the cells it reads, recursively,
along with current values and states. Cycles are marked where they close.

Examples:
  xlcalc describe book.xlsx Summary`,
	Args: cobra.ExactArgs(2),
	RunE: runDescribe,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	wb, err := loadWorkbook(args[0])
	if err != nil {
		return err
	}
	tree, err := wb.Describe(args[1])
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), tree)
	return nil
}

package cmd

import (
	"fmt"

	"github.com/javajack/xlcalc"
	"github.com/javajack/xlcalc/internal/style"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Report formulas that will not evaluate cleanly",
	Long: `Check a workbook for formulas that do not parse, references to missing
sheets, oversized ranges, and circular references. Exits non-zero when any
error is found.

Examples:
  xlcalc validate book.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := xlcalc.LoadConfig(configPath)
	if err != nil {
		return err
	}
	snap, err := xlcalc.OpenSnapshot(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	issues := xlcalc.Validate(snap, cfg.Options(nil)...)
	errCount := 0
	for _, issue := range issues {
		prefix := style.WarningPrefix
		if issue.Severity == xlcalc.SeverityError {
			prefix = style.ErrorPrefix
			errCount++
		}
		fmt.Fprintf(out, "%s %s\n", prefix, issue)
	}
	if errCount > 0 {
		return fmt.Errorf("%d error(s) found", errCount)
	}
	fmt.Fprintf(out, "%s %s: no errors\n", style.SuccessPrefix, args[0])
	return nil
}

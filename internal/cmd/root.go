// Package cmd implements the xlcalc command line.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/javajack/xlcalc"
	"github.com/javajack/xlcalc/internal/style"
	"github.com/spf13/cobra"
)

// Global flags
var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "xlcalc",
	Short: "Evaluate spreadsheet formulas in xlsx workbooks",
	Long: `xlcalc loads an xlsx workbook, recalculates every formula with its own
engine, and prints or updates the result.

Commands:
  xlcalc eval book.xlsx                      Print every sheet with computed values
  xlcalc set book.xlsx Sheet1 B2 20          Write a cell and show what changed
  xlcalc describe book.xlsx Sheet1           Show each formula's dependency tree
  xlcalc validate book.xlsx                  Report parse errors, #REF and cycles
  xlcalc find book.xlsx Sheet1 'number > 10' List cells matching a condition`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "xlcalc.toml", "path to the TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log recalculation events to stderr")
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", style.ErrorPrefix, err)
		return 1
	}
	return 0
}

// loadWorkbook reads path and recalculates it with the configured options.
func loadWorkbook(path string) (*xlcalc.Workbook, error) {
	cfg, err := xlcalc.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	var logOut io.Writer
	if verbose {
		logOut = os.Stderr
	}

	snap, err := xlcalc.OpenSnapshot(path)
	if err != nil {
		return nil, err
	}
	wb := xlcalc.NewWorkbook(cfg.Options(logOut)...)
	if _, err := wb.ApplyFullReplace(snap); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return wb, nil
}

// renderValue styles a value for terminal output.
func renderValue(v xlcalc.Value, state xlcalc.State) string {
	switch {
	case state == xlcalc.StateCircular:
		return style.Warning.Render(v.String())
	case v.IsError():
		return style.Error.Render(v.String())
	default:
		return v.String()
	}
}

// printCell writes one grid cell as "B2  42  =B1*2".
func printCell(w io.Writer, label string, c xlcalc.GridCell) {
	if c.HasFormula {
		fmt.Fprintf(w, "  %-8s %s  %s\n", label, renderValue(c.Value, c.State), style.Dim.Render(c.Raw))
		return
	}
	fmt.Fprintf(w, "  %-8s %s\n", label, renderValue(c.Value, c.State))
}

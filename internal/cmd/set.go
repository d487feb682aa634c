package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/javajack/xlcalc"
	"github.com/javajack/xlcalc/internal/style"
	"github.com/spf13/cobra"
)

const fileLockTimeout = 5 * time.Second

var setDryRun bool

var setCmd = &cobra.Command{
	Use:   "set <file> <sheet> <cell> <content>",
	Short: "Write a cell and save the workbook",
	Long: `Write one cell, recalculate, print every cell whose value changed, and
save the workbook.

Content starting with "=" is a formula; an empty string clears the cell;
anything else is stored as text. The file is locked while it is rewritten.

Examples:
  xlcalc set book.xlsx Sales B2 20
  xlcalc set book.xlsx Summary B2 '=Sales!D4'
  xlcalc set book.xlsx Sales C4 '' --dry-run`,
	Args: cobra.ExactArgs(4),
	RunE: runSet,
}

func init() {
	setCmd.Flags().BoolVar(&setDryRun, "dry-run", false, "print the changes without saving")
	rootCmd.AddCommand(setCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	path, sheetName, cellID, raw := args[0], args[1], args[2], args[3]

	lock, err := lockFile(path)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	wb, err := loadWorkbook(path)
	if err != nil {
		return err
	}
	affected, err := wb.ApplyCellWrite(sheetName, cellID, xlcalc.ParseContent(raw))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s = %s\n", style.SuccessPrefix, affected.Written.Key, renderValue(affected.Written.Value, affected.Written.State))
	for _, u := range affected.Cells {
		fmt.Fprintf(out, "  %s = %s\n", u.Key, renderValue(u.Value, u.State))
	}
	if setDryRun {
		return nil
	}

	var buf bytes.Buffer
	if err := wb.WriteXLSX(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// lockFile takes an exclusive lock on path+".lock".
func lockFile(path string) (*flock.Flock, error) {
	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), fileLockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("timeout waiting for lock on %s", path)
	}
	return lock, nil
}

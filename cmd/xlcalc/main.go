// xlcalc evaluates the formulas of xlsx workbooks from the command line.
package main

import (
	"os"

	"github.com/javajack/xlcalc/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}

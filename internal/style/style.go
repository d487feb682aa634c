// Package style provides consistent terminal styling using Lipgloss.
package style

import "github.com/charmbracelet/lipgloss"

var (
	// Success style for positive outcomes (green)
	Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color("2")).
		Bold(true)

	// Warning style for circular cells and warnings (yellow)
	Warning = lipgloss.NewStyle().
		Foreground(lipgloss.Color("3")).
		Bold(true)

	// Error style for error values and failures (red)
	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("1")).
		Bold(true)

	// Dim style for formulas and secondary information (gray)
	Dim = lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))

	// Bold style for sheet headers
	Bold = lipgloss.NewStyle().
		Bold(true)

	SuccessPrefix = Success.Render("✓")
	WarningPrefix = Warning.Render("⚠")
	ErrorPrefix   = Error.Render("✗")
)

package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"varbuf/internal/diag"
)

var (
	sevErrorColor   = color.New(color.FgRed, color.Bold)
	sevWarningColor = color.New(color.FgYellow, color.Bold)
	sevInfoColor    = color.New(color.FgCyan)

	summaryOKStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	summaryWarnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	summaryFailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

func sevPrinter(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return sevErrorColor
	case diag.SevWarning:
		return sevWarningColor
	default:
		return sevInfoColor
	}
}

// printDiagnostics renders a bag as one line per diagnostic:
// <kernel>: <SEV> <CODE>: <message>, capped at max entries.
func printDiagnostics(out io.Writer, kernel string, bag *diag.Bag, max int) int {
	printed := 0
	for _, d := range bag.Items() {
		if printed >= max {
			fmt.Fprintf(out, "%s: ... and %d more\n", kernel, bag.Len()-printed)
			break
		}
		sev := sevPrinter(d.Severity).Sprint(d.Severity.String())
		fmt.Fprintf(out, "%s: %s %s: %s\n", kernel, sev, d.Code.ID(), d.Message)
		for _, n := range d.Notes {
			fmt.Fprintf(out, "%s:   note: %s\n", kernel, n.Msg)
		}
		printed++
	}
	return printed
}

// summaryLine styles a one-line verdict for the whole run.
func summaryLine(kernels, cached, warnings, errors int) string {
	text := fmt.Sprintf("%d kernels compiled", kernels)
	if cached > 0 {
		text += fmt.Sprintf(" (%d cached)", cached)
	}
	switch {
	case errors > 0:
		return summaryFailStyle.Render(fmt.Sprintf("%s, %d errors", text, errors))
	case warnings > 0:
		return summaryWarnStyle.Render(fmt.Sprintf("%s, %d warnings", text, warnings))
	default:
		return summaryOKStyle.Render(text + ", ok")
	}
}

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/GriffinCanCode/playground/internal/domain/bundle"
)

const (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorWarning = lipgloss.Color("#F59E0B")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorError).
			Padding(0, 1)
)

func printSuccess(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, successStyle.Render("✓ ")+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, warningStyle.Render("! ")+fmt.Sprintf(format, args...))
}

// renderDiagnostics renders build diagnostics as one card each
func renderDiagnostics(diags []bundle.Diagnostic) string {
	cards := make([]string, 0, len(diags))
	for _, d := range diags {
		var b strings.Builder
		b.WriteString(errorStyle.Render(strings.ReplaceAll(string(d.Kind), "_", " ")))
		if loc := location(d); loc != "" {
			b.WriteString(" " + mutedStyle.Render(loc))
		}
		b.WriteString("\n" + d.Message)
		if d.Fatal {
			cards = append(cards, cardStyle.Render(b.String()))
		} else {
			cards = append(cards, cardStyle.BorderForeground(colorWarning).Render(b.String()))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func location(d bundle.Diagnostic) string {
	switch {
	case d.File != "" && d.Line > 0:
		return fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Column)
	case d.File != "":
		return d.File
	default:
		return d.Locator
	}
}

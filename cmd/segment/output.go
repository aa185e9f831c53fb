package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgallion1/docsegment/internal/outline"
	"github.com/dgallion1/docsegment/internal/segment"
)

var (
	fileStyle = lipgloss.NewStyle().
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	refStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Underline(true)
)

// printDiagnostics writes a short report for one document.
func printDiagnostics(w io.Writer, name string, res *segment.Result) {
	status := successStyle.Render("ok")
	if !res.WellStructured() {
		status = errorStyle.Render("not well-structured")
	}
	fmt.Fprintf(w, "%s %s %s\n", fileStyle.Render(name), status,
		dimStyle.Render(fmt.Sprintf("(%d headings, %d sections)", len(res.Items), len(res.Sections))))

	for _, d := range res.Diagnostics {
		label := errorStyle.Render("error")
		if d.Severity == outline.SeverityWarning {
			label = warnStyle.Render("warning")
		}
		where := ""
		if d.Index >= 0 {
			where = dimStyle.Render(fmt.Sprintf("heading %d: ", d.Index+1))
		}
		fmt.Fprintf(w, "  %s %s%s\n", label, where, d.Title)
		if d.Description != "" {
			fmt.Fprintf(w, "    %s\n", dimStyle.Render(d.Description))
		}
		if d.Ref != "" {
			fmt.Fprintf(w, "    %s\n", refStyle.Render(d.Ref))
		}
	}
}

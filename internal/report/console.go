package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Sena-ops/wpguard/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	gradeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226"))

	severityStyles = map[model.Severity]lipgloss.Style{
		model.SevCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		model.SevSerious:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("202")),
		model.SevHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		model.SevMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		model.SevModerate: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		model.SevLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
)

// Console escreve o resumo colorido de uma auditoria.
func Console(w io.Writer, rep *model.Report, written []string) {
	fmt.Fprintln(w, titleStyle.Render(rep.Title))
	fmt.Fprintf(w, "%s %d arquivo(s), %d finding(s), nota %s\n",
		dimStyle.Render("  →"), rep.FilesScanned, rep.Summary.Total, gradeStyle.Render(rep.Summary.Grade))

	var parts []string
	for _, sev := range model.Severities {
		if n := rep.Summary.BySeverity[sev]; n > 0 {
			parts = append(parts, severityStyles[sev].Render(fmt.Sprintf("%s: %d", sev, n)))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(w, "    %s\n", strings.Join(parts, "  "))
	}
	for _, c := range rep.Categories {
		if len(c.Findings) > 0 {
			fmt.Fprintf(w, "    %s %d\n", dimStyle.Render(c.Title+":"), len(c.Findings))
		}
	}
	if len(rep.Warnings) > 0 {
		fmt.Fprintf(w, "    %s\n", severityStyles[model.SevMedium].Render(fmt.Sprintf("%d aviso(s), veja o relatório", len(rep.Warnings))))
	}
	for _, p := range written {
		fmt.Fprintf(w, "    %s %s\n", dimStyle.Render("salvo em"), p)
	}
}

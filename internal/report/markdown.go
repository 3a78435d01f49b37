package report

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Sena-ops/wpguard/internal/model"
)

const codeCellWidth = 80

// Markdown renderiza o relatório. Cada categoria mostra no máximo limit linhas
// seguidas de "… and N more"; limit <= 0 mostra tudo.
func Markdown(rep *model.Report, limit int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", rep.Title)
	fmt.Fprintf(&b, "- **Audit:** `%s`\n", rep.Audit)
	fmt.Fprintf(&b, "- **Run:** `%s`\n", rep.RunID)
	fmt.Fprintf(&b, "- **Generated:** %s\n", rep.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Root:** `%s`\n", rep.Root)
	fmt.Fprintf(&b, "- **Files scanned:** %d\n\n", rep.FilesScanned)

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total issues | %d |\n", rep.Summary.Total)
	fmt.Fprintf(&b, "| Grade | %s |\n", escapeCell(rep.Summary.Grade))
	for _, sev := range model.Severities {
		if n := rep.Summary.BySeverity[sev]; n > 0 {
			fmt.Fprintf(&b, "| %s | %d |\n", sev, n)
		}
	}
	for _, c := range rep.Categories {
		fmt.Fprintf(&b, "| %s | %d |\n", escapeCell(c.Title), len(c.Findings))
	}
	b.WriteString("\n")

	if len(rep.Meta) > 0 {
		b.WriteString("## Details\n\n| Key | Value |\n|---|---|\n")
		keys := make([]string, 0, len(rep.Meta))
		for k := range rep.Meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "| %s | %s |\n", k, escapeCell(rep.Meta[k]))
		}
		b.WriteString("\n")
	}

	if len(rep.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range rep.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	for _, c := range rep.Categories {
		writeCategory(&b, c, limit)
	}
	return b.String()
}

func writeCategory(b *strings.Builder, c model.Category, limit int) {
	fmt.Fprintf(b, "## %s (%d)\n\n", c.Title, len(c.Findings))
	if len(c.Findings) == 0 {
		b.WriteString("_No issues found._\n\n")
		return
	}

	shown := c.Findings
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	b.WriteString("| Severity | Location | Rule | Message | Suggestion | Code |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, f := range shown {
		code := ""
		if f.Code != "" {
			code = "`" + escapeCell(truncate(f.Code, codeCellWidth)) + "`"
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s |\n",
			f.Severity, escapeCell(f.Location()), escapeCell(f.Rule),
			escapeCell(f.Message), escapeCell(f.Suggestion), code)
	}
	if rest := len(c.Findings) - len(shown); rest > 0 {
		fmt.Fprintf(b, "\n… and %d more\n", rest)
	}
	b.WriteString("\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// truncate corta em n runas.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

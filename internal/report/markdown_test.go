package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sena-ops/wpguard/internal/config"
	"github.com/Sena-ops/wpguard/internal/model"
)

func countPrefix(s, prefix string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

func TestMarkdownCapsEachCategory(t *testing.T) {
	rep := reportWith("important", repeat(model.SevLow, 26)...)
	Summarize(rep, config.Defaults().Grading)

	tests := []struct {
		limit    int
		wantRows int
		wantMore string
	}{
		{10, 20, "… and 3 more"},
		{13, 26, ""},
		{0, 26, ""},
		{-1, 26, ""},
	}
	for _, tt := range tests {
		md := Markdown(rep, tt.limit)
		assert.Equal(t, tt.wantRows, countPrefix(md, "| low | x.scss:"), "limit %d", tt.limit)
		if tt.wantMore == "" {
			assert.NotContains(t, md, "more\n", "limit %d", tt.limit)
			continue
		}
		assert.Equal(t, 2, strings.Count(md, tt.wantMore+"\n"))
	}
}

func TestMarkdownLayout(t *testing.T) {
	rep := reportWith("accessibility", model.SevCritical)
	rep.RunID = "run-1"
	rep.Meta["wcag_level"] = "AA"
	rep.Warn("b.scss: conteúdo não é UTF-8 válido")
	Summarize(rep, config.Defaults().Grading)

	md := Markdown(rep, 10)
	assert.True(t, strings.HasPrefix(md, "# Test accessibility\n"))
	assert.Contains(t, md, "- **Run:** `run-1`")
	assert.Contains(t, md, "| Total issues | 1 |")
	assert.Contains(t, md, "| Grade | good |")
	assert.Contains(t, md, "| critical | 1 |")
	assert.Contains(t, md, "| wcag_level | AA |")
	assert.Contains(t, md, "## Warnings\n\n- b.scss: conteúdo não é UTF-8 válido")
	assert.Contains(t, md, "## A (1)")
	assert.Contains(t, md, "## B (0)\n\n_No issues found._")

	// resumo antes dos detalhes
	assert.Less(t, strings.Index(md, "## Summary"), strings.Index(md, "## A (1)"))
}

func TestMarkdownEscapesAndTruncatesCode(t *testing.T) {
	rep := model.NewReport("php-security", "PHP", []model.Category{{ID: "c", Title: "C"}})
	rep.Add(model.Finding{
		Severity: model.SevHigh,
		Category: "c",
		File:     "a.php",
		Line:     3,
		Rule:     "r",
		Message:  "a | b\nc",
		Code:     strings.Repeat("é", 100),
	})

	md := Markdown(rep, 10)
	assert.Contains(t, md, `a \| b c`)
	assert.Contains(t, md, "`"+strings.Repeat("é", 80)+"`")
	assert.NotContains(t, md, strings.Repeat("é", 81))
}

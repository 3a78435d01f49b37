package scanner

import (
	"strings"

	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/rules"
)

// ScanTable aplica as categorias da tabela a cada fonte. A saída segue a ordem
// arquivo, linha, categoria, regra.
func ScanTable(sources []Source, table *rules.Table) []model.Finding {
	var findings []model.Finding
	for _, src := range sources {
		kind := string(src.Kind)

		for li, line := range src.Lines {
			trimmed := strings.TrimSpace(line)
			for ci := range table.Categories {
				cat := &table.Categories[ci]
				if cat.IsFileScope() || len(cat.Rules) == 0 || !cat.AppliesTo(kind) {
					continue
				}
				if cat.SkipComments && isCommentLine(trimmed, src.Kind) {
					continue
				}
				for ri := range cat.Rules {
					rule := &cat.Rules[ri]
					groups, _, ok := rule.Match(line)
					if !ok || cat.Suppressed(rule, line) {
						continue
					}
					findings = append(findings, newFinding(src, li+1, trimmed, cat, rule, groups))
					if cat.FirstMatchOnly {
						break
					}
				}
			}
		}

		for ci := range table.Categories {
			cat := &table.Categories[ci]
			if !cat.IsFileScope() || !cat.AppliesTo(kind) {
				continue
			}
			findings = append(findings, scanFile(src, cat)...)
		}
	}
	return findings
}

func scanFile(src Source, cat *rules.Category) []model.Finding {
	var findings []model.Finding
	for ri := range cat.Rules {
		rule := &cat.Rules[ri]
		groups, start, ok := rule.Match(src.Content)
		if !ok {
			continue
		}
		ln := lineAt(src.Content, start)
		line := src.Lines[ln-1]
		if cat.Suppressed(rule, line) {
			continue
		}
		findings = append(findings, newFinding(src, ln, strings.TrimSpace(line), cat, rule, groups))
		if cat.FirstMatchOnly {
			break
		}
	}
	return findings
}

func newFinding(src Source, line int, code string, cat *rules.Category, rule *rules.Rule, groups []string) model.Finding {
	f := model.Finding{
		Severity:   model.Severity(rule.Severity),
		File:       src.Rel,
		Line:       line,
		Category:   cat.ID,
		Rule:       rule.ID,
		Message:    rules.Render(rule.Message, groups),
		Suggestion: rules.Render(rule.Suggestion, groups),
		Code:       code,
	}
	if len(rule.Extra) > 0 {
		f.Extra = make(map[string]string, len(rule.Extra))
		for k, v := range rule.Extra {
			f.Extra[k] = v
		}
	}
	return f
}

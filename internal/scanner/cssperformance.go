package scanner

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Sena-ops/wpguard/internal/config"
	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/parser"
)

var (
	nestedSelector = regexp.MustCompile(`([.#]?[a-zA-Z][\w-]*(?:\s*[>+~]\s*[.#]?[a-zA-Z][\w-]*)*)\s*[:{]`)
	elementToken   = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9-]*`)
	mediaQuery     = regexp.MustCompile(`@media\s+([^{]+)`)
	pixelValue     = regexp.MustCompile(`(\d+)px`)
	aboveFoldClass = regexp.MustCompile(`\.(?:header|nav|hero|banner|cta|logo|menu|top-bar|site-title|main-content|primary)[\s{,:]`)
)

// RunCSSPerformance procura aninhamento por indentação, seletores caros,
// media queries repetidas e classes candidatas a CSS crítico.
func RunCSSPerformance(env Env) (*model.Report, error) {
	table, err := env.table("css-performance")
	if err != nil {
		return nil, err
	}
	rep := env.newReport(table)

	sources, err := env.collect(rep, []string{env.Config.Paths.SCSSDir}, parser.SCSS, parser.CSS)
	if err != nil {
		return nil, err
	}
	th := env.Config.Thresholds
	for _, src := range sources {
		rep.AddAll(checkIndentNesting(src, th.IndentNestingLevel))
	}
	rep.AddAll(ScanTable(sources, table))
	rep.AddAll(checkMediaQueries(sources, th))

	critical := aboveFoldClasses(sources)
	rep.Meta["above_fold_classes"] = strings.Join(critical, " ")
	kb := criticalCSSKB(len(critical))
	rep.Meta["critical_css_estimate"] = fmt.Sprintf("%.1fKB", kb)
	rep.Meta["critical_css_recommendation"] = criticalCSSRecommendation(kb)
	return rep, nil
}

// criticalCSSKB estima ~200 bytes por classe acima da dobra, arredondado a 0.1KB.
func criticalCSSKB(classes int) float64 {
	return math.Round(float64(classes*200)/1024*10) / 10
}

func criticalCSSRecommendation(kb float64) string {
	if kb > 5 {
		return fmt.Sprintf("Extract %.1fKB of critical CSS to inline in <head>. "+
			"Consider using critical CSS extraction tools like penthouse or critical.", kb)
	}
	return fmt.Sprintf("Critical CSS is small (%.1fKB). "+
		"Can be safely inlined without significant overhead.", kb)
}

// checkIndentNesting estima o nível pela indentação (2 espaços por nível, tab
// conta como um nível). Declarações terminadas em ";" não são seletores.
func checkIndentNesting(src Source, limit int) []model.Finding {
	var findings []model.Finding
	for i, line := range src.Lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isCommentLine(trimmed, src.Kind) {
			continue
		}
		if strings.Contains(trimmed, "@import") || strings.Contains(trimmed, "@use") || strings.HasSuffix(trimmed, ";") {
			continue
		}
		if !strings.Contains(line, "{") && !strings.Contains(trimmed, ":") {
			continue
		}
		indent := strings.ReplaceAll(line[:len(line)-len(strings.TrimLeft(line, " \t"))], "\t", "  ")
		level := len(indent) / 2
		if level <= limit {
			continue
		}
		m := nestedSelector.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		selector := strings.TrimSpace(m[1])
		if len(strings.Fields(selector)) > 5 {
			continue
		}
		sev := model.SevMedium
		if level > limit+1 {
			sev = model.SevHigh
		}
		findings = append(findings, model.Finding{
			Severity:   sev,
			File:       src.Rel,
			Line:       i + 1,
			Category:   "deep_nesting",
			Rule:       "indent-depth",
			Message:    fmt.Sprintf("Selector %s nested %d levels deep", selector, level),
			Suggestion: "Flatten to 2-3 levels using BEM classes or component modifiers",
			Code:       trimmed,
			Extra: map[string]string{
				"selector":      selector,
				"nesting_level": strconv.Itoa(level),
				"specificity":   specificity(selector),
			},
		})
	}
	return findings
}

// specificity no formato "0,ids,classes,elementos".
func specificity(selector string) string {
	ids := strings.Count(selector, "#")
	classes := strings.Count(selector, ".") + strings.Count(selector, "[")
	elements := len(elementToken.FindAllString(selector, -1)) - ids - classes
	if elements < 0 {
		elements = 0
	}
	return fmt.Sprintf("0,%d,%d,%d", ids, classes, elements)
}

func checkMediaQueries(sources []Source, th config.Thresholds) []model.Finding {
	type use struct {
		file, code string
		line       int
	}
	breakpoints := map[string][]use{}
	var order []string
	var findings []model.Finding

	for _, src := range sources {
		for i, line := range src.Lines {
			m := mediaQuery.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			cond := strings.TrimSpace(m[1])
			u := use{src.Rel, strings.TrimSpace(line), i + 1}
			for _, bp := range pixelValue.FindAllStringSubmatch(cond, -1) {
				if _, ok := breakpoints[bp[1]]; !ok {
					order = append(order, bp[1])
				}
				breakpoints[bp[1]] = append(breakpoints[bp[1]], u)
			}

			if strings.Contains(cond, "max-width") && !strings.Contains(cond, "min-width") {
				bp := pixelValue.FindStringSubmatch(cond)
				if bp == nil {
					continue
				}
				if px, _ := strconv.Atoi(bp[1]); px < th.MobileFirstBreakpoint {
					findings = append(findings, model.Finding{
						Severity:   model.SevLow,
						File:       src.Rel,
						Line:       i + 1,
						Category:   "media_queries",
						Rule:       "not-mobile-first",
						Message:    fmt.Sprintf("max-width %spx query without min-width", bp[1]),
						Suggestion: "Consider mobile-first approach: use min-width instead of max-width",
						Code:       u.code,
						Extra:      map[string]string{"breakpoint": bp[1] + "px"},
					})
				}
			}
		}
	}

	for _, bp := range order {
		uses := breakpoints[bp]
		if len(uses) <= th.BreakpointReuse {
			continue
		}
		locs := make([]string, 0, len(uses))
		for _, u := range uses {
			locs = append(locs, fmt.Sprintf("%s:%d", u.file, u.line))
		}
		findings = append(findings, model.Finding{
			Severity:   model.SevMedium,
			File:       uses[0].file,
			Line:       uses[0].line,
			Category:   "media_queries",
			Rule:       "duplicate-breakpoint",
			Message:    fmt.Sprintf("Breakpoint %spx repeated in %d media queries", bp, len(uses)),
			Suggestion: fmt.Sprintf("Use shared breakpoint mixin for %spx", bp),
			Code:       uses[0].code,
			Extra: map[string]string{
				"breakpoint": bp + "px",
				"locations":  strings.Join(locs, ", "),
			},
		})
	}
	return findings
}

func aboveFoldClasses(sources []Source) []string {
	seen := map[string]bool{}
	for _, src := range sources {
		for _, m := range aboveFoldClass.FindAllString(src.Content, -1) {
			seen[strings.TrimRight(strings.TrimSpace(m), "{,:")] = true
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

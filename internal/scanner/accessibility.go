package scanner

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Sena-ops/wpguard/internal/contrast"
	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/parser"
)

var (
	interactiveElement = regexp.MustCompile(`(^|[\s>+~,])(button|a|input|select|textarea)([\s>+~,:.\[]|$)`)
	selectorStart      = regexp.MustCompile(`^[.#\[\w:\-*+>~\s&]`)

	scssDirectives = []string{
		"@use", "@import", "@include", "@extend", "@mixin", "@function",
		"@return", "@if", "@else", "@for", "@each", "@while", "@warn",
		"@error", "@debug", "@at-root", "@content", "@charset", "@namespace",
		"@supports", "@keyframes", "@media", "@font-face", "@page",
	}
	interactiveHints = []string{
		`role="button"`, `role='button'`, `role="link"`, `role='link'`,
		`role="tab"`, `role='tab'`, `role="menuitem"`, `role='menuitem'`,
		`role="checkbox"`, `role='checkbox'`, `role="radio"`, `role='radio'`,
		"tabindex",
		".aps-button", ".aps-link", ".aps-tab", ".aps-menu-item",
		".aps-checkbox", ".aps-radio", ".aps-toggle",
	}
)

// RunAccessibility verifica foco, contraste, redimensionamento de texto e conteúdo oculto.
func RunAccessibility(env Env) (*model.Report, error) {
	table, err := env.table("accessibility")
	if err != nil {
		return nil, err
	}
	rep := env.newReport(table)
	rep.Meta["wcag_level"] = "AA"

	sources, err := env.collect(rep, []string{env.Config.Paths.SCSSDir}, parser.SCSS, parser.CSS)
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		rep.AddAll(checkFocusStates(src))
		rep.AddAll(checkColorContrast(src))
	}
	rep.AddAll(ScanTable(sources, table))
	return rep, nil
}

func checkFocusStates(src Source) []model.Finding {
	var findings []model.Finding
	lines := src.Lines
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "/*") {
			continue
		}
		if !strings.HasSuffix(line, "{") {
			continue
		}
		selector := strings.TrimSpace(strings.TrimSuffix(line, "{"))
		if isSCSSDirective(selector) || skipsFocusCheck(selector) || !isInteractive(selector) {
			continue
		}

		// corpo do bloco até fechar as chaves abertas
		var body strings.Builder
		depth := 1
		for j := i + 1; j < len(lines) && depth > 0; j++ {
			depth += strings.Count(lines[j], "{") - strings.Count(lines[j], "}")
			body.WriteString(lines[j])
		}
		if strings.Contains(body.String(), ":focus") {
			continue
		}

		element := strings.TrimSpace(strings.Split(selector, ",")[0])
		if parts := strings.Fields(element); len(parts) > 0 {
			element = parts[0]
		}
		findings = append(findings, model.Finding{
			Severity:   model.SevCritical,
			File:       src.Rel,
			Line:       i + 1,
			Category:   "focus_states",
			Rule:       "missing-focus-state",
			Message:    fmt.Sprintf("No focus state defined for %s", element),
			Suggestion: "Add :focus and :focus-visible styles for keyboard navigation",
			Code:       line,
			Extra: map[string]string{
				"element":        element,
				"wcag_criterion": "2.4.7 Focus Visible",
			},
		})
	}
	return findings
}

func isSCSSDirective(selector string) bool {
	for _, d := range scssDirectives {
		if strings.HasPrefix(selector, d) {
			return true
		}
	}
	return selector != "" && !selectorStart.MatchString(selector)
}

// pseudo-elementos e estados que não são o elemento base
func skipsFocusCheck(selector string) bool {
	for _, s := range []string{"::before", "::after", "::first-letter", "::first-line", ":hover", ":active", ":visited", ":focus"} {
		if strings.Contains(selector, s) {
			return true
		}
	}
	return false
}

func isInteractive(selector string) bool {
	lower := strings.ToLower(selector)
	if interactiveElement.MatchString(lower) {
		return true
	}
	for _, h := range interactiveHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

func checkColorContrast(src Source) []model.Finding {
	var findings []model.Finding
	for _, b := range contrast.ExtractBlocks(src.Content) {
		fgHex, okFg := contrast.HexToken(b.Color)
		bgHex, okBg := contrast.HexToken(b.Background)
		if !okFg || !okBg || isInterpolation(fgHex) || isInterpolation(bgHex) {
			continue
		}

		ratio, err := contrast.ContrastRatio(fgHex, bgHex)
		if errors.Is(err, contrast.ErrUnparseable) {
			findings = append(findings, model.Finding{
				Severity:   model.SevLow,
				File:       src.Rel,
				Line:       b.Line,
				Category:   "color_contrast",
				Rule:       "contrast-unparseable-color",
				Message:    fmt.Sprintf("Could not parse color pair %s / %s: %v", fgHex, bgHex, err),
				Suggestion: "Use #rgb or #rrggbb hex values so contrast can be verified",
				Code:       b.Selector,
				Extra:      map[string]string{"foreground": fgHex, "background": bgHex},
			})
			continue
		}

		large := b.Large()
		required := contrast.RequiredRatio(large)
		if ratio >= required {
			continue
		}
		findings = append(findings, model.Finding{
			Severity:   model.SevSerious,
			File:       src.Rel,
			Line:       b.Line,
			Category:   "color_contrast",
			Rule:       "insufficient-contrast",
			Message:    fmt.Sprintf("Contrast %.2f:1 between %s and %s is below %.1f:1", ratio, fgHex, bgHex, required),
			Suggestion: fmt.Sprintf("Increase contrast - current ratio %.2f:1, minimum required %.1f:1", ratio, required),
			Code:       b.Selector,
			Extra: map[string]string{
				"foreground":        fgHex,
				"background":        bgHex,
				"ratio":             fmt.Sprintf("%.2f", ratio),
				"wcag_aa_required":  fmt.Sprintf("%.1f", required),
				"wcag_aaa_required": fmt.Sprintf("%.1f", contrast.AAA),
				"large_text":        fmt.Sprintf("%t", large),
				"wcag_criterion":    "1.4.3 Contrast (Minimum)",
			},
		})
	}
	return findings
}

// "#{$var}" é interpolação SCSS, não cor
func isInterpolation(tok string) bool {
	return strings.HasPrefix(tok, "#{")
}

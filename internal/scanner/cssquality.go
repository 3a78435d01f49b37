package scanner

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Sena-ops/wpguard/internal/config"
	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/parser"
)

const maxValueLocations = 10

var (
	markupClassAttr = regexp.MustCompile(`class(?:Name)?\s*=\s*["']([^"']*)["']`)
	classListCall   = regexp.MustCompile(`classList\.(?:add|remove|toggle|contains)\s*\(\s*["']([^"']+)["']`)

	hexColor   = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	rgbColor   = regexp.MustCompile(`^rgba?\([^)]+\)$`)
	unitLength = regexp.MustCompile(`^\d+(?:px|em|rem|vh|vw|%)$`)

	namedColors = map[string]string{
		"#000000": "black", "#000": "black", "black": "black",
		"#ffffff": "white", "#fff": "white", "white": "white",
		"#ff0000": "red", "#f00": "red", "red": "red",
		"#00ff00": "green", "#0f0": "green", "green": "green",
		"#0000ff": "blue", "#00f": "blue", "blue": "blue",
		"#ffff00": "yellow", "#ff0": "yellow", "yellow": "yellow",
		"#ff00ff": "magenta", "#f0f": "magenta", "magenta": "magenta",
		"#00ffff": "cyan", "#0ff": "cyan", "cyan": "cyan",
	}
)

// RunCSSQuality analisa regras duplicadas, blocos longos, valores repetidos,
// classes sem uso e violações de padrão nos SCSS.
func RunCSSQuality(env Env) (*model.Report, error) {
	table, err := env.table("css-quality")
	if err != nil {
		return nil, err
	}
	rep := env.newReport(table)

	styles, err := env.collect(rep, []string{env.Config.Paths.SCSSDir}, parser.SCSS)
	if err != nil {
		return nil, err
	}
	markupDirs := append(append([]string(nil), env.Config.Paths.PHPDirs...), env.Config.Paths.JSDirs...)
	markup := env.collectOptional(rep, markupDirs, parser.PHP, parser.JS)

	var rules []cssRule
	for _, src := range styles {
		rules = append(rules, parseCSSRules(src)...)
	}
	rep.Meta["rules_parsed"] = strconv.Itoa(len(rules))

	used := usedClasses(markup)
	rep.Meta["used_classes"] = strconv.Itoa(len(used))

	rep.AddAll(detectDuplicateRules(rules))
	rep.AddAll(detectLongBlocks(rules, env.Config.Thresholds))
	rep.AddAll(detectRepeatedValues(rules, env.Config.Thresholds.RepeatedValueMin))
	rep.AddAll(detectUnusedClasses(rules, used))
	rep.AddAll(ScanTable(styles, table))
	return rep, nil
}

// usedClasses colhe classes de atributos class/className e de chamadas classList.
func usedClasses(sources []Source) map[string]bool {
	used := map[string]bool{}
	for _, src := range sources {
		for _, m := range markupClassAttr.FindAllStringSubmatch(src.Content, -1) {
			for _, cls := range strings.Fields(m[1]) {
				used[cls] = true
			}
		}
		for _, m := range classListCall.FindAllStringSubmatch(src.Content, -1) {
			used[m[1]] = true
		}
	}
	return used
}

func detectDuplicateRules(rules []cssRule) []model.Finding {
	groups := map[string][]cssRule{}
	var order []string
	for _, r := range rules {
		decls := make([]string, 0, len(r.Properties))
		for _, p := range r.Properties {
			decls = append(decls, p.Name+":"+p.Value)
		}
		sort.Strings(decls)
		sig := strings.Join(decls, ";")
		if _, ok := groups[sig]; !ok {
			order = append(order, sig)
		}
		groups[sig] = append(groups[sig], r)
	}

	var findings []model.Finding
	for _, sig := range order {
		g := groups[sig]
		if len(g) < 2 {
			continue
		}
		sev := model.SevMedium
		if len(g) > 2 {
			sev = model.SevHigh
		}
		others := make([]string, 0, len(g)-1)
		for _, r := range g[1:] {
			others = append(others, fmt.Sprintf("%s:%d", r.File, r.Line))
		}
		findings = append(findings, model.Finding{
			Severity:   sev,
			File:       g[0].File,
			Line:       g[0].Line,
			Category:   "duplicate_rules",
			Rule:       "duplicate-declarations",
			Message:    fmt.Sprintf("%s has the same declarations as %d other rule(s)", g[0].Selector, len(g)-1),
			Suggestion: "Extract to shared mixin or extend placeholder",
			Code:       g[0].Selector,
			Extra: map[string]string{
				"selector":            g[0].Selector,
				"duplicates_found_at": strings.Join(others, ", "),
			},
		})
	}
	return findings
}

func detectLongBlocks(rules []cssRule, th config.Thresholds) []model.Finding {
	var findings []model.Finding
	for _, r := range rules {
		lines, props := r.LineCount(), len(r.Properties)
		if lines <= th.LongBlockLines && props <= th.LongBlockProperties {
			continue
		}
		sev := model.SevMedium
		if lines > 2*th.LongBlockLines || props > th.LongBlockProperties*3/2 {
			sev = model.SevHigh
		}
		component := blockComponent(r.Selector)
		findings = append(findings, model.Finding{
			Severity:   sev,
			File:       r.File,
			Line:       r.Line,
			Category:   "long_blocks",
			Rule:       "long-block",
			Message:    fmt.Sprintf("Block %s spans %d lines with %d properties", r.Selector, lines, props),
			Suggestion: fmt.Sprintf("Break into smaller components: _%s.scss, _%s-header.scss, etc.", component, component),
			Code:       r.Selector,
			Extra: map[string]string{
				"line_count":     strconv.Itoa(lines),
				"property_count": strconv.Itoa(props),
				"component":      component,
			},
		})
	}
	return findings
}

// blockComponent pega o nome da primeira classe do seletor.
func blockComponent(selector string) string {
	if classes := selectorClasses(selector); len(classes) > 0 {
		return classes[0]
	}
	return "unknown"
}

func valueType(prop, value string) string {
	switch {
	case hexColor.MatchString(value), rgbColor.MatchString(value):
		return "color"
	case unitLength.MatchString(value):
		return "spacing"
	case prop == "font-size" || prop == "line-height":
		return "typography"
	case prop == "margin" || prop == "padding" || prop == "gap":
		return "spacing"
	}
	return ""
}

func detectRepeatedValues(rules []cssRule, min int) []model.Finding {
	type usage struct {
		kind      string
		value     string
		locations []string
		first     cssProperty
		file      string
	}
	counts := map[string]*usage{}
	var order []string
	for _, r := range rules {
		for _, p := range r.Properties {
			kind := valueType(p.Name, p.Value)
			if kind == "" {
				continue
			}
			key := kind + "\x00" + p.Value
			u, ok := counts[key]
			if !ok {
				u = &usage{kind: kind, value: p.Value, first: p, file: r.File}
				counts[key] = u
				order = append(order, key)
			}
			u.locations = append(u.locations, fmt.Sprintf("%s:%d", r.File, p.Line))
		}
	}

	var findings []model.Finding
	for _, key := range order {
		u := counts[key]
		if len(u.locations) < min {
			continue
		}
		var suggestion string
		switch u.kind {
		case "color":
			name, ok := namedColors[strings.ToLower(u.value)]
			if !ok {
				name = "custom"
			}
			suggestion = fmt.Sprintf("Create $color-%s variable", name)
		case "spacing":
			suggestion = "Create spacing scale variable"
		default:
			suggestion = "Create typography scale variable"
		}
		locs := u.locations
		if len(locs) > maxValueLocations {
			locs = locs[:maxValueLocations]
		}
		findings = append(findings, model.Finding{
			Severity:   model.SevMedium,
			File:       u.file,
			Line:       u.first.Line,
			Category:   "repeated_values",
			Rule:       "repeated-" + u.kind,
			Message:    fmt.Sprintf("%s value %s repeated %d times", u.kind, u.value, len(u.locations)),
			Suggestion: suggestion,
			Code:       u.first.Name + ": " + u.value,
			Extra: map[string]string{
				"type":        u.kind,
				"value":       u.value,
				"occurrences": strconv.Itoa(len(u.locations)),
				"locations":   strings.Join(locs, ", "),
			},
		})
	}
	return findings
}

// detectUnusedClasses: classes BEM (com "__" ou "--") podem ser montadas
// dinamicamente e ficam de fora; o prefixo js- baixa a confiança.
func detectUnusedClasses(rules []cssRule, used map[string]bool) []model.Finding {
	var findings []model.Finding
	for _, r := range rules {
		for _, cls := range selectorClasses(r.Selector) {
			if used[cls] || strings.Contains(cls, "--") || strings.Contains(cls, "__") {
				continue
			}
			confidence, hint := "high", "Remove if truly unused"
			if strings.HasPrefix(cls, "js-") {
				confidence, hint = "low", "Verify usage before removing"
			}
			findings = append(findings, model.Finding{
				Severity:   model.SevLow,
				File:       r.File,
				Line:       r.Line,
				Category:   "unused_classes",
				Rule:       "unused-class",
				Message:    fmt.Sprintf("Class .%s is not referenced in PHP or JS markup", cls),
				Suggestion: hint,
				Code:       r.Selector,
				Extra:      map[string]string{"class": "." + cls, "confidence": confidence},
			})
		}
	}
	return findings
}

package scanner

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/parser"
)

var (
	classSelector = regexp.MustCompile(`\.([a-zA-Z][a-zA-Z0-9_-]*)`)
	scssImport    = regexp.MustCompile(`^@import\s+['"]([^'"]+)['"];`)

	namingProblems = []struct {
		rule    string
		pattern *regexp.Regexp
		hint    string
	}{
		{"too-many-hyphens", regexp.MustCompile(`^[a-z]+-[a-z]+-[a-z]+-[a-z]+`), "Use BEM: .block__element--modifier instead of long hyphen chains"},
		{"js-hook-class", regexp.MustCompile(`^js-`), "Do not style js- hook classes; keep them for behavior only"},
		{"camelCase-class", regexp.MustCompile(`^[a-z]+[A-Z]`), "Avoid camelCase in class names"},
	}
)

// RunCSSArchitecture verifica convenção BEM, profundidade de chaves e a
// organização dos arquivos SCSS.
func RunCSSArchitecture(env Env) (*model.Report, error) {
	table, err := env.table("css-architecture")
	if err != nil {
		return nil, err
	}
	rep := env.newReport(table)

	scssDir := env.Config.Paths.SCSSDir
	sources, err := env.collect(rep, []string{scssDir}, parser.SCSS)
	if err != nil {
		return nil, err
	}

	maxDepth, imports := 0, 0
	for _, src := range sources {
		rep.AddAll(checkBEMNaming(src))
		findings, depth := checkBraceNesting(src, env.Config.Thresholds.BraceNestingDepth)
		rep.AddAll(findings)
		if depth > maxDepth {
			maxDepth = depth
		}
		for _, line := range src.Lines {
			if scssImport.MatchString(strings.TrimSpace(line)) {
				imports++
			}
		}
	}

	base := relDir(env, scssDir)
	dirs := scssSubdirs(sources, base)
	rep.AddAll(checkOrganization(sources, base, dirs))

	rep.Meta["max_nesting_depth"] = strconv.Itoa(maxDepth)
	rep.Meta["imports"] = strconv.Itoa(imports)
	rep.Meta["directories"] = strings.Join(dirs, ", ")
	rep.AddAll(ScanTable(sources, table))
	return rep, nil
}

// checkBEMNaming: os padrões problemáticos valem mesmo para nomes kebab-case
// que seriam BEM válidos.
func checkBEMNaming(src Source) []model.Finding {
	var findings []model.Finding
	for i, line := range src.Lines {
		if isCommentLine(strings.TrimSpace(line), src.Kind) {
			continue
		}
		for _, m := range classSelector.FindAllStringSubmatch(line, -1) {
			cls := m[1]
			if strings.HasPrefix(cls, "wp-") || strings.HasPrefix(cls, "admin") {
				continue
			}
			for _, p := range namingProblems {
				if !p.pattern.MatchString(cls) {
					continue
				}
				findings = append(findings, model.Finding{
					Severity:   model.SevMedium,
					File:       src.Rel,
					Line:       i + 1,
					Category:   "naming_conventions",
					Rule:       p.rule,
					Message:    fmt.Sprintf("Class .%s does not follow BEM naming", cls),
					Suggestion: p.hint,
					Code:       strings.TrimSpace(line),
					Extra:      map[string]string{"selector": "." + cls},
				})
				break
			}
		}
	}
	return findings
}

// checkBraceNesting conta a profundidade de chaves linha a linha; cada linha
// acima do limite é um finding.
func checkBraceNesting(src Source, limit int) ([]model.Finding, int) {
	var findings []model.Finding
	depth, deepest := 0, 0
	for i, line := range src.Lines {
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth > deepest {
			deepest = depth
		}
		if depth > limit {
			findings = append(findings, model.Finding{
				Severity:   model.SevMedium,
				File:       src.Rel,
				Line:       i + 1,
				Category:   "deep_nesting",
				Rule:       "brace-depth",
				Message:    fmt.Sprintf("Nesting depth %d exceeds %d", depth, limit),
				Suggestion: "Flatten selectors; keep nesting at 3-4 levels",
				Code:       strings.TrimSpace(line),
				Extra:      map[string]string{"depth": strconv.Itoa(depth)},
			})
		}
	}
	return findings, deepest
}

// scssSubdirs lista os diretórios de primeiro nível sob a raiz SCSS.
func scssSubdirs(sources []Source, base string) []string {
	seen := map[string]bool{}
	for _, src := range sources {
		rel := strings.TrimPrefix(src.Rel, base+"/")
		if i := strings.Index(rel, "/"); i > 0 {
			seen[rel[:i]] = true
		}
	}
	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

func checkOrganization(sources []Source, base string, dirs []string) []model.Finding {
	var findings []model.Finding
	hasMain := false
	for _, src := range sources {
		if path.Base(src.Rel) == "main.scss" {
			hasMain = true
			break
		}
	}
	if !hasMain {
		findings = append(findings, model.Finding{
			Severity:   model.SevHigh,
			File:       path.Join(base, "main.scss"),
			Line:       1,
			Category:   "organization",
			Rule:       "missing-main",
			Message:    "No main.scss entry point found",
			Suggestion: "Add a main.scss that imports abstracts, base, components and layouts",
		})
	}
	if len(sources) > 0 && len(dirs) < 3 {
		findings = append(findings, model.Finding{
			Severity:   model.SevLow,
			File:       base,
			Line:       1,
			Category:   "organization",
			Rule:       "flat-structure",
			Message:    fmt.Sprintf("SCSS is organized in only %d directories", len(dirs)),
			Suggestion: "Split into base/, components/, layouts/ and pages/",
			Extra:      map[string]string{"directories": strconv.Itoa(len(dirs))},
		})
	}
	return findings
}

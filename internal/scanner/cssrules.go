package scanner

import (
	"regexp"
	"strings"
)

var (
	cssDeclaration = regexp.MustCompile(`^\s*([\w-]+)\s*:\s*([^;]+);?`)
	cssClassRef    = regexp.MustCompile(`\.([\w-]+)`)
)

type cssProperty struct {
	Line  int
	Name  string
	Value string
}

// cssRule é um bloco de regra. Declarações de blocos aninhados (SCSS) contam
// para o bloco externo; regras dentro de at-rules (@media, @supports) são
// blocos próprios.
type cssRule struct {
	File       string
	Line       int
	EndLine    int
	Selector   string
	Properties []cssProperty
}

func (r cssRule) LineCount() int { return r.EndLine - r.Line + 1 }

// parseCSSRules extrai os blocos de regra de uma fonte SCSS/CSS. At-rules não
// viram regra; só abrem um nível de chaves.
func parseCSSRules(src Source) []cssRule {
	var (
		rules []cssRule
		cur   *cssRule
		depth int
		base  int // profundidade fora do bloco atual
	)
	finish := func(end int) {
		if cur != nil && len(cur.Properties) > 0 {
			cur.EndLine = end
			rules = append(rules, *cur)
		}
		cur = nil
	}
	addDecls := func(text string, ln int) {
		for _, decl := range strings.Split(text, ";") {
			if m := cssDeclaration.FindStringSubmatch(decl); m != nil {
				cur.Properties = append(cur.Properties, cssProperty{ln, m[1], strings.TrimSpace(m[2])})
			}
		}
	}

	for i, line := range src.Lines {
		ln := i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") {
			continue
		}
		opens := strings.Count(line, "{")
		closes := strings.Count(line, "}")
		before := depth
		depth += opens - closes
		if depth < 0 {
			depth = 0
		}

		if cur == nil {
			if opens == 0 {
				continue
			}
			brace := strings.Index(line, "{")
			selector := strings.TrimSpace(line[:brace])
			if strings.HasPrefix(selector, "@") || selector == "" {
				continue
			}
			cur = &cssRule{File: src.Rel, Line: ln, Selector: selector}
			base = before
			if depth <= base {
				// regra numa linha só: ".a { color: red; }"
				inner := line[brace+1:]
				if end := strings.LastIndex(inner, "}"); end >= 0 {
					inner = inner[:end]
				}
				addDecls(inner, ln)
				finish(ln)
			}
			continue
		}

		if opens == 0 && !strings.HasPrefix(trimmed, "@") {
			text := line
			if idx := strings.Index(text, "}"); idx >= 0 {
				text = text[:idx]
			}
			addDecls(text, ln)
		}
		if depth <= base {
			finish(ln)
		}
	}
	return rules
}

// selectorClasses devolve as classes citadas no seletor, na ordem.
func selectorClasses(selector string) []string {
	var out []string
	for _, m := range cssClassRef.FindAllStringSubmatch(selector, -1) {
		out = append(out, m[1])
	}
	return out
}

package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Sena-ops/wpguard/internal/config"
	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/parser"
)

// limites de findings por categoria; o resto só é contado em Meta
const (
	maxUnused        = 20
	maxNamingIssues  = 30
	maxMissingPHPDoc = 30
)

var (
	phpFunctionDecl = regexp.MustCompile(`(?m)(?:public|private|protected|static|final|abstract)?\s*function\s+(\w+)\s*\((.*?)\)\s*[:{]`)
	phpFunctionName = regexp.MustCompile(`\bfunction\s+(\w+)`)
	phpClassName    = regexp.MustCompile(`\bclass\s+(\w+)`)
	phpShortVar     = regexp.MustCompile(`\$([a-z])\b`)
	phpCall         = regexp.MustCompile(`(\w+)\s*\(`)
	phpStringRef    = regexp.MustCompile(`['"](\w+)['"]`)

	snakeCase  = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	pascalCase = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`)

	lineComment  = regexp.MustCompile(`(?m)//.*$`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	whitespace   = regexp.MustCompile(`\s+`)
	phpVariable  = regexp.MustCompile(`\$\w+`)

	complexityTokens = []*regexp.Regexp{
		regexp.MustCompile(`\bif\b`),
		regexp.MustCompile(`\belseif\b`),
		regexp.MustCompile(`\belse\b`),
		regexp.MustCompile(`\bfor\b`),
		regexp.MustCompile(`\bforeach\b`),
		regexp.MustCompile(`\bwhile\b`),
		regexp.MustCompile(`\bcase\b`),
		regexp.MustCompile(`\bcatch\b`),
		regexp.MustCompile(`&&`),
		regexp.MustCompile(`\|\|`),
		regexp.MustCompile(`\?`),
	}

	phpKeywords = toSet(
		"if", "for", "foreach", "while", "switch", "array", "echo", "print",
		"isset", "empty", "unset", "count", "strlen", "str_replace", "in_array",
		"array_key_exists", "is_array", "is_string", "is_int", "is_bool",
		"return", "new", "class", "function", "public", "private", "protected",
		"static", "abstract", "final", "interface", "trait", "use", "namespace",
		"require", "include", "require_once", "include_once", "throw", "try",
		"catch", "finally", "else", "elseif", "do", "break", "continue", "case",
		"default", "exit", "die", "list", "clone", "var", "global", "const",
	)
	wpEntryPoints = toSet(
		"init", "wp_loaded", "admin_init", "admin_menu", "wp_enqueue_scripts",
		"register_activation_hook", "register_deactivation_hook",
	)
	shortVarAllowed = toSet("i", "j", "k", "x", "y", "z", "n", "m")
	classKeywords   = toSet("extends", "implements")
)

type phpFunction struct {
	Name       string
	Line       int
	LineCount  int
	Complexity int
	Params     int
	HasDoc     bool
}

// RunPHPQuality mede tamanho e complexidade de funções, PHPDoc, nomes,
// blocos duplicados e funções sem chamadas.
func RunPHPQuality(env Env) (*model.Report, error) {
	table, err := env.table("php-quality")
	if err != nil {
		return nil, err
	}
	rep := env.newReport(table)
	rep.Meta["tools_used"] = "wpguard"

	sources, err := env.collect(rep, env.Config.Paths.PHPDirs, parser.PHP)
	if err != nil {
		return nil, err
	}
	th := env.Config.Thresholds

	rep.AddAll(detectDuplicateCode(sources, th.DuplicateWindow))

	var docs, naming []model.Finding
	for _, src := range sources {
		fns := extractPHPFunctions(src)
		rep.AddAll(checkLongFunctions(src, fns, th))
		docs = append(docs, checkPHPDoc(src, fns)...)
		naming = append(naming, checkPHPNaming(src)...)
	}
	rep.AddAll(capFindings(rep, "unused_code", detectUnusedFunctions(sources), maxUnused))
	rep.AddAll(capFindings(rep, "naming_issues", naming, maxNamingIssues))
	rep.AddAll(capFindings(rep, "missing_documentation", docs, maxMissingPHPDoc))
	return rep, nil
}

func extractPHPFunctions(src Source) []phpFunction {
	var fns []phpFunction
	content := src.Content
	for _, m := range phpFunctionDecl.FindAllStringSubmatchIndex(content, -1) {
		start := m[0]
		for start < m[1] && strings.ContainsRune(" \t\n", rune(content[start])) {
			start++
		}
		end := functionEnd(content, start, m[1])
		body := content[start:end]
		line := lineAt(content, m[2])

		fns = append(fns, phpFunction{
			Name:       content[m[2]:m[3]],
			Line:       line,
			LineCount:  strings.Count(body, "\n") + 1,
			Complexity: cyclomaticComplexity(body),
			Params:     countParams(content[m[4]:m[5]]),
			HasDoc:     hasPHPDoc(src.Lines, line),
		})
	}
	return fns
}

// functionEnd acha a chave que fecha o corpo. Declarações abstratas terminam no ";".
func functionEnd(content string, start, fallback int) int {
	depth := 0
	opened := false
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
			opened = true
		case '}':
			depth--
			if opened && depth == 0 {
				return i + 1
			}
		case ';':
			if !opened {
				return i + 1
			}
		}
	}
	return fallback
}

func cyclomaticComplexity(body string) int {
	c := 1
	for _, re := range complexityTokens {
		c += len(re.FindAllStringIndex(body, -1))
	}
	return c
}

func countParams(sig string) int {
	n := 0
	for _, p := range strings.Split(sig, ",") {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

// hasPHPDoc sobe a partir da linha da função, pulando linhas vazias e atributos,
// e verifica se o comentário imediatamente acima começa com "/**".
func hasPHPDoc(lines []string, fnLine int) bool {
	i := fnLine - 2
	for i >= 0 {
		t := strings.TrimSpace(lines[i])
		if t == "" || strings.HasPrefix(t, "#[") {
			i--
			continue
		}
		break
	}
	if i < 0 || !strings.HasSuffix(strings.TrimSpace(lines[i]), "*/") {
		return false
	}
	for ; i >= 0; i-- {
		if idx := strings.Index(lines[i], "/*"); idx >= 0 {
			return strings.HasPrefix(lines[i][idx:], "/**")
		}
	}
	return false
}

func checkLongFunctions(src Source, fns []phpFunction, th config.Thresholds) []model.Finding {
	var findings []model.Finding
	for _, fn := range fns {
		sev := model.SevLow
		var hints []string
		if fn.LineCount > th.LongFunctionLines {
			sev = model.SevHigh
			hints = append(hints, fmt.Sprintf("Break into smaller functions (%d lines)", fn.LineCount))
		}
		if fn.Complexity > th.Complexity {
			if sev != model.SevHigh {
				sev = model.SevMedium
			}
			hints = append(hints, fmt.Sprintf("Reduce complexity (current: %d)", fn.Complexity))
		}
		if fn.Params > th.MaxParams {
			if sev == model.SevLow {
				sev = model.SevMedium
			}
			hints = append(hints, fmt.Sprintf("Reduce parameters (current: %d)", fn.Params))
		}
		if len(hints) == 0 {
			continue
		}
		findings = append(findings, model.Finding{
			Severity:   sev,
			File:       src.Rel,
			Line:       fn.Line,
			Category:   "long_functions",
			Rule:       "long-function",
			Message:    fmt.Sprintf("Function %s() is too long or complex", fn.Name),
			Suggestion: strings.Join(hints, "; "),
			Code:       strings.TrimSpace(src.Lines[fn.Line-1]),
			Extra: map[string]string{
				"function":              fn.Name,
				"line_count":            strconv.Itoa(fn.LineCount),
				"cyclomatic_complexity": strconv.Itoa(fn.Complexity),
				"parameter_count":       strconv.Itoa(fn.Params),
			},
		})
	}
	return findings
}

func checkPHPDoc(src Source, fns []phpFunction) []model.Finding {
	var findings []model.Finding
	for _, fn := range fns {
		if strings.HasPrefix(fn.Name, "__") || fn.HasDoc {
			continue
		}
		// getters/setters curtos dispensam PHPDoc
		if (strings.HasPrefix(fn.Name, "get") || strings.HasPrefix(fn.Name, "set")) && fn.LineCount < 5 {
			continue
		}
		sev := model.SevLow
		if fn.LineCount > 20 || fn.Complexity > 5 {
			sev = model.SevMedium
		}
		findings = append(findings, model.Finding{
			Severity:   sev,
			File:       src.Rel,
			Line:       fn.Line,
			Category:   "missing_documentation",
			Rule:       "missing-phpdoc",
			Message:    fmt.Sprintf("Missing PHPDoc comment for %s()", fn.Name),
			Suggestion: fmt.Sprintf("Add PHPDoc with @param and @return tags for %s", fn.Name),
			Code:       strings.TrimSpace(src.Lines[fn.Line-1]),
		})
	}
	return findings
}

func checkPHPNaming(src Source) []model.Finding {
	var findings []model.Finding
	add := func(line int, rule, kind, name, hint string) {
		findings = append(findings, model.Finding{
			Severity:   model.SevLow,
			File:       src.Rel,
			Line:       line,
			Category:   "naming_issues",
			Rule:       rule,
			Message:    fmt.Sprintf("%s name %s does not follow the naming convention", kind, name),
			Suggestion: hint,
			Code:       strings.TrimSpace(src.Lines[line-1]),
			Extra:      map[string]string{"type": kind, "name": name},
		})
	}

	for i, line := range src.Lines {
		if isCommentLine(strings.TrimSpace(line), parser.PHP) {
			continue
		}
		ln := i + 1
		if m := phpClassName.FindStringSubmatch(line); m != nil && !classKeywords[m[1]] && !pascalCase.MatchString(m[1]) {
			add(ln, "class-not-pascal-case", "class", m[1], "Use PascalCase for class names")
		}
		if m := phpFunctionName.FindStringSubmatch(line); m != nil && !strings.HasPrefix(m[1], "__") && !snakeCase.MatchString(m[1]) {
			add(ln, "function-not-snake-case", "function", m[1], "Use snake_case for function/method names")
		}
		for _, m := range phpShortVar.FindAllStringSubmatch(line, -1) {
			if !shortVarAllowed[m[1]] {
				add(ln, "short-variable", "variable", "$"+m[1], "Use descriptive variable names")
			}
		}
	}
	return findings
}

// detectDuplicateCode compara janelas de `window` linhas (passo window/2)
// normalizadas: sem comentários, espaços colapsados e variáveis anônimas.
func detectDuplicateCode(sources []Source, window int) []model.Finding {
	if window <= 0 {
		return nil
	}
	step := window / 2
	if step == 0 {
		step = 1
	}

	type occurrence struct {
		file string
		line int
		code string
	}
	groups := map[string][]occurrence{}
	var order []string

	for _, src := range sources {
		for i := 0; i < len(src.Lines)-window; i += step {
			block := strings.Join(src.Lines[i:i+window], "\n")
			if len(strings.TrimSpace(block)) < 50 {
				continue
			}
			key := blockHash(block)
			if _, seen := groups[key]; !seen {
				order = append(order, key)
			}
			groups[key] = append(groups[key], occurrence{src.Rel, i + 1, strings.TrimSpace(src.Lines[i])})
		}
	}

	var findings []model.Finding
	for _, key := range order {
		occ := groups[key]
		if len(occ) < 2 {
			continue
		}
		sev := model.SevMedium
		if len(occ) >= 3 {
			sev = model.SevHigh
		}
		others := make([]string, 0, len(occ)-1)
		for _, o := range occ[1:] {
			others = append(others, fmt.Sprintf("%s:%d", o.file, o.line))
		}
		findings = append(findings, model.Finding{
			Severity:   sev,
			File:       occ[0].file,
			Line:       occ[0].line,
			Category:   "duplicate_code",
			Rule:       "duplicate-block",
			Message:    fmt.Sprintf("%d-line block repeated in %d places", window, len(occ)),
			Suggestion: "Extract to shared function or method",
			Code:       occ[0].code,
			Extra: map[string]string{
				"locations":   strings.Join(others, ", "),
				"occurrences": strconv.Itoa(len(occ)),
				"lines":       strconv.Itoa(window),
			},
		})
	}
	return findings
}

func blockHash(block string) string {
	n := lineComment.ReplaceAllString(block, "")
	n = blockComment.ReplaceAllString(n, "")
	n = whitespace.ReplaceAllString(n, " ")
	n = phpVariable.ReplaceAllString(n, "$VAR")
	sum := sha256.Sum256([]byte(n))
	return hex.EncodeToString(sum[:16])
}

// detectUnusedFunctions: uma função cujo nome só aparece na própria declaração
// (e nunca como string de callback) é candidata a código morto.
func detectUnusedFunctions(sources []Source) []model.Finding {
	type definition struct {
		file string
		line int
		code string
	}
	defs := map[string]definition{}
	var order []string
	calls := map[string]int{}
	refs := map[string]bool{}

	for _, src := range sources {
		for _, m := range phpFunctionName.FindAllStringSubmatchIndex(src.Content, -1) {
			name := src.Content[m[2]:m[3]]
			if _, ok := defs[name]; ok {
				continue
			}
			ln := lineAt(src.Content, m[2])
			defs[name] = definition{src.Rel, ln, strings.TrimSpace(src.Lines[ln-1])}
			order = append(order, name)
		}
		for _, m := range phpCall.FindAllStringSubmatch(src.Content, -1) {
			if !phpKeywords[m[1]] {
				calls[m[1]]++
			}
		}
		for _, m := range phpStringRef.FindAllStringSubmatch(src.Content, -1) {
			refs[m[1]] = true
		}
	}

	var findings []model.Finding
	for _, name := range order {
		if calls[name] > 1 || refs[name] || strings.HasPrefix(name, "__") || wpEntryPoints[name] {
			continue
		}
		d := defs[name]
		findings = append(findings, model.Finding{
			Severity:   model.SevLow,
			File:       d.file,
			Line:       d.line,
			Category:   "unused_code",
			Rule:       "possibly-unused-function",
			Message:    fmt.Sprintf("Function %s() is never called", name),
			Suggestion: "Remove if truly unused or mark as @internal",
			Code:       d.code,
			Extra:      map[string]string{"type": "function", "name": name},
		})
	}
	return findings
}

// capFindings corta a lista em limit e registra o total em Meta.
func capFindings(rep *model.Report, category string, findings []model.Finding, limit int) []model.Finding {
	if len(findings) <= limit {
		return findings
	}
	rep.Meta[category+"_total"] = strconv.Itoa(len(findings))
	return findings[:limit]
}

func toSet(items ...string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, it := range items {
		s[it] = true
	}
	return s
}

package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/Sena-ops/wpguard/internal/config"
	"github.com/Sena-ops/wpguard/internal/logging"
	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/parser"
)

var (
	vendorPrefixed = regexp.MustCompile(`-(webkit|moz|ms|o)-([a-z-]+)\s*:`)
	viteTarget     = regexp.MustCompile(`target:\s*['"]([^'"]+)['"]`)
)

// BuildConfig é o que se sabe do pipeline de build a partir dos arquivos de configuração.
type BuildConfig struct {
	Autoprefixer bool
	Babel        bool
	TargetES     string
}

// RunBrowserCompat confronta prefixos, propriedades obsoletas, features com
// suporte limitado e sintaxe ES2015+ com os navegadores alvo.
func RunBrowserCompat(env Env) (*model.Report, error) {
	table, err := env.table("browser-compat")
	if err != nil {
		return nil, err
	}
	rep := env.newReport(table)
	paths := env.Config.Paths

	styles, err := env.collect(rep, []string{paths.SCSSDir}, parser.SCSS)
	if err != nil {
		return nil, err
	}
	css := env.collectOptional(rep, paths.CSSDirs, parser.CSS)
	scripts := env.collectOptional(rep, paths.JSDirs, parser.JS)

	build := DetectBuildConfig(env.Config)
	rep.Meta["autoprefixer_configured"] = strconv.FormatBool(build.Autoprefixer)
	rep.Meta["babel_configured"] = strconv.FormatBool(build.Babel)
	rep.Meta["target_es_version"] = build.TargetES
	rep.Meta["browser_targets"] = formatTargets(env.Config.BrowserTargets)

	for _, src := range css {
		rep.AddAll(checkVendorPrefixes(src, env.Config.Thresholds.PrefixLookahead))
	}
	all := append(append(append([]Source(nil), styles...), css...), scripts...)
	for _, f := range ScanTable(all, table) {
		if f.Category == "limited_support" && !belowTargets(f.Extra, env.Config.BrowserTargets) {
			continue
		}
		if f.Category == "limited_support" || f.Category == "es_features" {
			if f.Extra == nil {
				f.Extra = map[string]string{}
			}
			f.Extra["targets"] = rep.Meta["browser_targets"]
		}
		rep.Add(f)
	}

	rep.Meta["overall_compatibility"] = overallCompatibility(rep, build)
	return rep, nil
}

// DetectBuildConfig lê postcss/vite só com checagens de presença. Arquivo
// ausente significa "não configurado".
func DetectBuildConfig(cfg config.Config) BuildConfig {
	bc := BuildConfig{TargetES: "unknown"}
	bc.Autoprefixer = parser.FileContains(cfg.Path(cfg.Paths.PostCSSConfig), "autoprefixer")
	if content, ok := readOptional(cfg.Path(cfg.Paths.ViteConfig)); ok {
		if m := viteTarget.FindStringSubmatch(content); m != nil {
			bc.TargetES = m[1]
		}
		bc.Babel = strings.Contains(content, "@vitejs/plugin-react") || strings.Contains(strings.ToLower(content), "babel")
	}
	return bc
}

func readOptional(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.Logger.Warnw("Falha ao ler configuração de build", "arquivo", path, "erro", err)
		}
		return "", false
	}
	return string(data), true
}

// checkVendorPrefixes: propriedade prefixada sem a versão padrão nas
// `lookahead` linhas seguintes.
func checkVendorPrefixes(src Source, lookahead int) []model.Finding {
	var findings []model.Finding
	for i, line := range src.Lines {
		if strings.Contains(line, "/*") || strings.Contains(line, "*/") || isCommentLine(strings.TrimSpace(line), src.Kind) {
			continue
		}
		m := vendorPrefixed.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		prefix, prop := m[1], m[2]
		unprefixed := regexp.MustCompile(`(?:^|[^-\w])` + regexp.QuoteMeta(prop) + `\s*:`)

		found := false
		for j := i + 1; j < len(src.Lines) && j <= i+lookahead; j++ {
			if unprefixed.MatchString(src.Lines[j]) {
				found = true
				break
			}
		}
		if found {
			continue
		}
		findings = append(findings, model.Finding{
			Severity:   model.SevMedium,
			File:       src.Rel,
			Line:       i + 1,
			Category:   "vendor_prefixes",
			Rule:       "missing-unprefixed",
			Message:    fmt.Sprintf("-%s-%s without unprefixed %s", prefix, prop, prop),
			Suggestion: fmt.Sprintf("Add unprefixed version: %s", prop),
			Code:       strings.TrimSpace(line),
			Extra:      map[string]string{"property": fmt.Sprintf("-%s-%s", prefix, prop)},
		})
	}
	return findings
}

// belowTargets indica se algum navegador alvo está abaixo da versão mínima da feature.
func belowTargets(minVersions map[string]string, t config.BrowserTargets) bool {
	targets := map[string]float64{"chrome": t.Chrome, "firefox": t.Firefox, "safari": t.Safari, "edge": t.Edge}
	for browser, target := range targets {
		raw, ok := minVersions[browser]
		if !ok || target == 0 {
			continue
		}
		min, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if min > target {
			return true
		}
	}
	return false
}

func formatTargets(t config.BrowserTargets) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return fmt.Sprintf("chrome>=%s firefox>=%s safari>=%s edge>=%s", f(t.Chrome), f(t.Firefox), f(t.Safari), f(t.Edge))
}

// overallCompatibility só passa de needs_improvement com autoprefixer e babel configurados.
func overallCompatibility(rep *model.Report, build BuildConfig) string {
	if !build.Autoprefixer || !build.Babel {
		return "needs_improvement"
	}
	cssIssues, jsIssues := 0, 0
	for _, c := range rep.Categories {
		if c.ID == "es_features" {
			jsIssues += len(c.Findings)
		} else {
			cssIssues += len(c.Findings)
		}
	}
	switch {
	case cssIssues == 0 && jsIssues == 0:
		return "excellent"
	case cssIssues <= 5:
		return "good"
	default:
		return "fair"
	}
}

package scanner

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/parser"
)

var (
	mediaAt        = regexp.MustCompile(`(?i)@media\b`)
	mediaCondition = regexp.MustCompile(`(?i)@media\s+([^{;]+?)\s*\{`)
	customProperty = regexp.MustCompile(`(?m)(?:^|[;{\s])--[\w-]+\s*:`)
	importantDecl  = regexp.MustCompile(`(?i)!\s*important`)
)

// ordem de classificação: a primeira palavra-chave presente decide
var mediaKinds = []string{
	"screen", "min-width", "max-width", "min-height", "max-height",
	"orientation", "hover", "print", "prefers-color-scheme", "prefers-reduced-motion",
}

type cssFileStats struct {
	Rel        string
	Media      int
	Variables  int
	Important  int
	Conditions []string
}

func (s cssFileStats) empty() bool {
	return s.Media == 0 && s.Variables == 0 && s.Important == 0
}

func (s cssFileStats) String() string {
	return fmt.Sprintf("media=%d variables=%d important=%d", s.Media, s.Variables, s.Important)
}

// RunCSSStats conta @media (por condição), custom properties e !important em
// cada folha de estilo. Os números vão para Meta; não gera findings próprios.
func RunCSSStats(env Env) (*model.Report, error) {
	table, err := env.table("css-stats")
	if err != nil {
		return nil, err
	}
	rep := env.newReport(table)

	sources, err := env.collect(rep, []string{"."}, parser.SCSS, parser.CSS)
	if err != nil {
		return nil, err
	}

	var media, variables, important, withMedia int
	byKind := map[string]int{}
	for _, src := range sources {
		st := cssStats(src)
		if st.empty() {
			continue
		}
		media += st.Media
		variables += st.Variables
		important += st.Important
		if st.Media > 0 {
			withMedia++
		}
		for _, c := range st.Conditions {
			byKind[mediaKind(c)]++
		}
		rep.Meta["file:"+st.Rel] = st.String()
	}

	rep.Meta["media_queries"] = strconv.Itoa(media)
	rep.Meta["files_with_media"] = strconv.Itoa(withMedia)
	rep.Meta["custom_properties"] = strconv.Itoa(variables)
	rep.Meta["important"] = strconv.Itoa(important)
	rep.Meta["media_by_condition"] = formatCounts(byKind)
	rep.AddAll(ScanTable(sources, table))
	return rep, nil
}

func cssStats(src Source) cssFileStats {
	st := cssFileStats{
		Rel:       src.Rel,
		Media:     len(mediaAt.FindAllStringIndex(src.Content, -1)),
		Variables: len(customProperty.FindAllStringIndex(src.Content, -1)),
		Important: len(importantDecl.FindAllStringIndex(src.Content, -1)),
	}
	for _, m := range mediaCondition.FindAllStringSubmatch(src.Content, -1) {
		st.Conditions = append(st.Conditions, strings.Join(strings.Fields(m[1]), " "))
	}
	return st
}

func mediaKind(condition string) string {
	c := strings.ToLower(condition)
	for _, k := range mediaKinds {
		if strings.Contains(c, k) {
			return k
		}
	}
	return "other"
}

// formatCounts: "min-width=3, print=1", maior contagem primeiro.
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] == counts[keys[j]] {
			return keys[i] < keys[j]
		}
		return counts[keys[i]] > counts[keys[j]]
	})
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}

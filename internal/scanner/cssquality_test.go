package scanner

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sena-ops/wpguard/internal/config"
	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/parser"
)

func TestParseCSSRules(t *testing.T) {
	src := inlineSource("assets/scss/a.scss", strings.Join([]string{
		"// cabeçalho",
		".card {",
		"  padding: 8px;",
		"  &__title {",
		"    color: #333;",
		"  }",
		"}",
		".inline { margin: 0; color: red; }",
		"@media (min-width: 768px) {",
		"  .wide {",
		"    width: 100%;",
		"  }",
		"}",
		".empty {",
		"}",
	}, "\n"), parser.SCSS)

	rules := parseCSSRules(src)
	require.Len(t, rules, 3)

	card := rules[0]
	assert.Equal(t, ".card", card.Selector)
	assert.Equal(t, 2, card.Line)
	assert.Equal(t, 7, card.EndLine)
	assert.Equal(t, 6, card.LineCount())
	// a declaração do bloco aninhado conta para o externo
	require.Len(t, card.Properties, 2)
	assert.Equal(t, cssProperty{Line: 5, Name: "color", Value: "#333"}, card.Properties[1])

	inline := rules[1]
	assert.Equal(t, 8, inline.Line)
	assert.Equal(t, 1, inline.LineCount())
	assert.Len(t, inline.Properties, 2)

	assert.Equal(t, ".wide", rules[2].Selector)
	assert.Equal(t, 10, rules[2].Line)
	assert.Equal(t, 12, rules[2].EndLine)
}

func TestParseCSSRulesSplitsSiblingsInsideAtRules(t *testing.T) {
	rules := rulesFrom(t, strings.Join([]string{
		"@media (max-width: 600px) {",
		"  .nav {",
		"    display: none;",
		"  }",
		"  .menu {",
		"    display: block;",
		"    padding: 0;",
		"  }",
		"  .tag { color: red; }",
		"}",
		"@supports (display: grid) {",
		"  .grid { display: grid; gap: 1rem; }",
		"}",
	}, "\n"))

	require.Len(t, rules, 4)
	want := []struct {
		selector   string
		line, end  int
		properties int
	}{
		{".nav", 2, 4, 1},
		{".menu", 5, 8, 2},
		{".tag", 9, 9, 1},
		{".grid", 12, 12, 2},
	}
	for i, w := range want {
		assert.Equal(t, w.selector, rules[i].Selector)
		assert.Equal(t, w.line, rules[i].Line, w.selector)
		assert.Equal(t, w.end, rules[i].EndLine, w.selector)
		assert.Len(t, rules[i].Properties, w.properties, w.selector)
	}
}

func TestSelectorClasses(t *testing.T) {
	assert.Equal(t, []string{"nav", "nav__item", "is-active"}, selectorClasses(".nav .nav__item.is-active > a"))
	assert.Empty(t, selectorClasses("#main h1"))
}

func rulesFrom(t *testing.T, scss string) []cssRule {
	t.Helper()
	return parseCSSRules(inlineSource("assets/scss/x.scss", scss, parser.SCSS))
}

func TestDetectDuplicateRules(t *testing.T) {
	rules := rulesFrom(t, strings.Join([]string{
		".a { color: red; margin: 0; }",
		".b { margin: 0; color: red; }",
		".c { color: blue; }",
		".d { color: red; margin: 0; }",
	}, "\n"))

	got := detectDuplicateRules(rules)
	require.Len(t, got, 1)
	assert.Equal(t, model.SevHigh, got[0].Severity)
	assert.Equal(t, ".a", got[0].Extra["selector"])
	assert.Equal(t, "assets/scss/x.scss:2, assets/scss/x.scss:4", got[0].Extra["duplicates_found_at"])

	got = detectDuplicateRules(rules[:2])
	require.Len(t, got, 1)
	assert.Equal(t, model.SevMedium, got[0].Severity)
}

func TestDetectLongBlocks(t *testing.T) {
	th := config.Defaults().Thresholds

	block := func(selector string, props int) string {
		lines := []string{selector + " {"}
		for i := 0; i < props; i++ {
			lines = append(lines, fmt.Sprintf("  --p%d: %d;", i, i))
		}
		return strings.Join(append(lines, "}"), "\n")
	}
	rules := rulesFrom(t, strings.Join([]string{
		block(".small", 5),
		block(".medium", 25),
		block(".huge", 40),
	}, "\n"))
	require.Len(t, rules, 3)

	got := detectLongBlocks(rules, th)
	require.Len(t, got, 2)
	assert.Equal(t, model.SevMedium, got[0].Severity)
	assert.Equal(t, "medium", got[0].Extra["component"])
	assert.Equal(t, "25", got[0].Extra["property_count"])
	assert.Equal(t, model.SevHigh, got[1].Severity)
	assert.Contains(t, got[1].Suggestion, "_huge.scss")
}

func TestValueType(t *testing.T) {
	tests := []struct {
		prop, value, want string
	}{
		{"color", "#fff", "color"},
		{"background", "rgba(0, 0, 0, .5)", "color"},
		{"width", "16px", "spacing"},
		{"margin", "0 auto", "spacing"},
		{"font-size", "large", "typography"},
		{"display", "flex", ""},
	}
	for _, tt := range tests {
		t.Run(tt.prop+"="+tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, valueType(tt.prop, tt.value))
		})
	}
}

func TestDetectRepeatedValues(t *testing.T) {
	rules := rulesFrom(t, strings.Join([]string{
		".a { color: #fff; padding: 16px; }",
		".b { color: #fff; padding: 16px; }",
		".c { color: #fff; }",
		".d { color: #123456; }",
	}, "\n"))

	got := detectRepeatedValues(rules, 3)
	require.Len(t, got, 1)
	f := got[0]
	assert.Equal(t, "repeated-color", f.Rule)
	assert.Equal(t, "3", f.Extra["occurrences"])
	assert.Equal(t, "Create $color-white variable", f.Suggestion)
	assert.Equal(t, 1, f.Line)

	got = detectRepeatedValues(rules, 2)
	assert.Equal(t, []string{"repeated-color", "repeated-spacing"}, ruleIDs(got))
}

func TestDetectRepeatedValuesCapsLocations(t *testing.T) {
	var lines []string
	for i := 0; i < 15; i++ {
		lines = append(lines, fmt.Sprintf(".c%d { color: #abcdef; }", i))
	}
	got := detectRepeatedValues(rulesFrom(t, strings.Join(lines, "\n")), 3)
	require.Len(t, got, 1)
	assert.Equal(t, "15", got[0].Extra["occurrences"])
	assert.Len(t, strings.Split(got[0].Extra["locations"], ", "), maxValueLocations)
	assert.Equal(t, "Create $color-custom variable", got[0].Suggestion)
}

func TestUsedAndUnusedClasses(t *testing.T) {
	markup := []Source{
		inlineSource("templates/card.php", `<div class="card card--wide is-open">`, parser.PHP),
		inlineSource("assets/js/app.js", `el.classList.toggle('is-hidden'); <b className="badge" />`, parser.JS),
	}
	used := usedClasses(markup)
	for _, cls := range []string{"card", "card--wide", "is-open", "is-hidden", "badge"} {
		assert.True(t, used[cls], cls)
	}

	rules := rulesFrom(t, strings.Join([]string{
		".card { margin: 0; }",
		".card__title { margin: 0; }",
		".orphan { margin: 0; }",
		".js-toggle { margin: 0; }",
	}, "\n"))
	got := detectUnusedClasses(rules, used)
	require.Len(t, got, 2)
	assert.Equal(t, ".orphan", got[0].Extra["class"])
	assert.Equal(t, "high", got[0].Extra["confidence"])
	assert.Equal(t, ".js-toggle", got[1].Extra["class"])
	assert.Equal(t, "low", got[1].Extra["confidence"])
}

func TestRunCSSQualityStandardViolations(t *testing.T) {
	root := writeTree(t, map[string]string{
		"assets/scss/main.scss": ".a {\n   color: red;\n  margin: 0\n  padding: 0; \n}\n",
		"templates/page.php":    `<div class="a"></div>`,
	})
	rep, err := RunCSSQuality(testEnv(t, root))
	require.NoError(t, err)

	got := findingsIn(rep, "standard_violations")
	assert.Equal(t, []string{"indentation", "missing-semicolon", "trailing-whitespace"}, ruleIDs(got))
	assert.Equal(t, []int{2, 3, 4}, []int{got[0].Line, got[1].Line, got[2].Line})
	assert.Empty(t, findingsIn(rep, "unused_classes"))
	assert.Equal(t, "1", rep.Meta["rules_parsed"])
	assert.Equal(t, 2, rep.FilesScanned)
}

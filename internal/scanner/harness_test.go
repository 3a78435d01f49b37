package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sena-ops/wpguard/internal/parser"
	"github.com/Sena-ops/wpguard/internal/rules"
)

func loadTable(t *testing.T, audit string) *rules.Table {
	t.Helper()
	set, err := rules.LoadDefault()
	require.NoError(t, err)
	table, ok := set.Table(audit)
	require.True(t, ok)
	return table
}

func TestScanTableFirstMatchOnly(t *testing.T) {
	table := loadTable(t, "accessibility")
	src := inlineSource("a.scss", ".x { display: none; visibility: hidden; }", parser.SCSS)

	var hidden []string
	for _, f := range ScanTable([]Source{src}, table) {
		if f.Category == "hidden_content" {
			hidden = append(hidden, f.Rule)
		}
	}
	assert.Equal(t, []string{"display-none"}, hidden)
}

func TestScanTableSuppression(t *testing.T) {
	table := loadTable(t, "accessibility")
	tests := []struct {
		name string
		line string
		want int
	}{
		{"sem alternativa", ".modal { display: none; }", 1},
		{"sr-only na linha", ".sr-only { display: none; }", 0},
		{"comentário", "// display: none;", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := inlineSource("a.scss", tt.line, parser.SCSS)
			n := 0
			for _, f := range ScanTable([]Source{src}, table) {
				if f.Category == "hidden_content" {
					n++
				}
			}
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestScanTableRendersGroupsAndExtra(t *testing.T) {
	table := loadTable(t, "php-security")
	src := inlineSource("src/form.php", "<?php\n$name = $_POST['name'];\n", parser.PHP)

	findings := ScanTable([]Source{src}, table)
	require.NotEmpty(t, findings)
	f := findings[0]
	assert.Equal(t, "input_sanitization", f.Category)
	assert.Equal(t, "direct-superglobal", f.Rule)
	assert.Equal(t, 2, f.Line)
	assert.Contains(t, f.Message, "$_POST")
	assert.Equal(t, "$name = $_POST['name'];", f.Code)
}

func TestScanTableKindsFilter(t *testing.T) {
	table := loadTable(t, "php-security")
	src := inlineSource("assets/app.js", "echo $name;", parser.JS)
	assert.Empty(t, ScanTable([]Source{src}, table))
}

func TestScanTableRequireAfter(t *testing.T) {
	table := loadTable(t, "php-security")
	tests := []struct {
		name string
		line string
		want bool
	}{
		{"interpolado", `$wpdb->query("DELETE FROM t WHERE id = $id");`, true},
		{"literal", `$wpdb->query("DELETE FROM t");`, false},
		{"literal com get_var", `$count = $wpdb->get_var("SELECT COUNT(*) FROM t");`, false},
		{"chaves", `$wpdb->get_results("SELECT * FROM {$table}");`, true},
		{"concatenado", `$wpdb->get_row("SELECT * FROM t WHERE id = " . $id);`, true},
		{"prepare", `$wpdb->query($wpdb->prepare("DELETE FROM t WHERE id = %d", $id));`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := inlineSource("a.php", tt.line, parser.PHP)
			found := false
			for _, f := range ScanTable([]Source{src}, table) {
				if f.Category == "sql_injection" {
					found = true
				}
			}
			assert.Equal(t, tt.want, found)
		})
	}
}

package scanner

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/parser"
)

func phpLines(lines ...string) string {
	return "<?php\n" + strings.Join(lines, "\n") + "\n"
}

func padding(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("// %d", i)
	}
	return out
}

func TestRunPHPSecurity(t *testing.T) {
	handler := append([]string{
		"add_action('wp_ajax_save', 'save_cb');",
		"function save_cb() {",
		"    $name = $_POST['name'];",
		"    echo $name;",
		`    $wpdb->query("DELETE FROM t WHERE n = $name");`,
		"    wp_delete_post(1);",
	}, padding(12)...)
	handler = append(handler, "}")

	root := writeTree(t, map[string]string{
		"src/ajax.php":          phpLines(handler...),
		"includes/vendor/x.php": phpLines("echo $_GET['x'];"),
	})
	rep, err := RunPHPSecurity(testEnv(t, root))
	require.NoError(t, err)

	for _, f := range rep.Findings() {
		assert.Equal(t, "src/ajax.php", f.File)
	}
	assert.Equal(t, []string{"direct-superglobal"}, ruleIDs(findingsIn(rep, "input_sanitization")))
	assert.Equal(t, []string{"echo-variable"}, ruleIDs(findingsIn(rep, "output_escaping")))
	assert.Equal(t, []string{"direct-query"}, ruleIDs(findingsIn(rep, "sql_injection")))

	nonce := findingsIn(rep, "nonce_verification")
	require.Len(t, nonce, 1)
	assert.Equal(t, 2, nonce[0].Line)
	assert.Equal(t, model.SevCritical, nonce[0].Severity)

	caps := findingsIn(rep, "capability_checks")
	require.Len(t, caps, 1)
	assert.Equal(t, 7, caps[0].Line)
	assert.Contains(t, caps[0].Message, "wp_delete_post")
}

func TestCheckNonceVerification(t *testing.T) {
	hook := "add_action('wp_ajax_nopriv_go', 'go');"
	tests := []struct {
		name  string
		lines []string
		want  int
	}{
		{"nonce dentro da janela", append([]string{hook, "check_ajax_referer('go');"}, padding(15)...), 0},
		{"sem nonce", append([]string{hook}, padding(15)...), 1},
		{"nonce depois da janela", append(append([]string{hook}, padding(12)...), "wp_verify_nonce($n);"), 1},
		{"fim do arquivo antes da janela", []string{hook, "// fim"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := inlineSource("a.php", strings.Join(tt.lines, "\n"), parser.PHP)
			assert.Len(t, checkNonceVerification(src, 10), tt.want)
		})
	}
}

func TestCheckCapabilities(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  int
	}{
		{"verificado antes", []string{"if (!current_user_can('edit_posts')) { return; }", "wp_update_post($p);"}, 0},
		{"mesma linha", []string{"current_user_can('x') && wp_insert_post($p);"}, 0},
		{"fora da janela", append(append([]string{"current_user_can('x');"}, padding(11)...), "update_post_meta(1, 'k', 'v');"), 1},
		{"sem verificação", []string{"delete_post_meta(1, 'k');"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := inlineSource("a.php", strings.Join(tt.lines, "\n"), parser.PHP)
			assert.Len(t, checkCapabilities(src, 10), tt.want)
		})
	}
}

func TestRunPHPPerformance(t *testing.T) {
	root := writeTree(t, map[string]string{
		"includes/query.php": phpLines(
			"$rows = $wpdb->get_results($sql);",
			"foreach ($rows as $r) {",
			"    $meta = get_post_meta($r->ID);",
			"    $all = array_merge($all, $meta);",
			"}",
		),
	})
	rep, err := RunPHPPerformance(testEnv(t, root))
	require.NoError(t, err)

	assert.Len(t, findingsIn(rep, "database_queries"), 1)
	assert.Len(t, findingsIn(rep, "loops"), 1)
	assert.Len(t, findingsIn(rep, "lazy_loading"), 1)
	assert.Len(t, findingsIn(rep, "memory"), 1)
	assert.Equal(t, 1, rep.FilesScanned)
}

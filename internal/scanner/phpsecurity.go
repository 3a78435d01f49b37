package scanner

import (
	"regexp"
	"strings"

	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/parser"
)

var (
	ajaxHook = regexp.MustCompile(`add_action\s*\(\s*['"]wp_ajax_(?:nopriv_)?`)
	adminOp  = regexp.MustCompile(`(?i)\b(wp_delete_post|wp_update_post|wp_insert_post|delete_post_meta|update_post_meta|add_post_meta|wp_delete_attachment|wp_delete_comment|wp_update_comment)\b`)

	nonceFuncs      = []string{"check_ajax_referer", "wp_verify_nonce", "check_admin_referer"}
	capabilityFuncs = []string{"current_user_can", "user_can"}
)

// RunPHPSecurity procura entrada sem sanitização, saída sem escape, SQL
// interpolado e ganchos AJAX/operações administrativas sem verificação.
func RunPHPSecurity(env Env) (*model.Report, error) {
	table, err := env.table("php-security")
	if err != nil {
		return nil, err
	}
	rep := env.newReport(table)

	sources, err := env.collect(rep, env.Config.Paths.PHPDirs, parser.PHP)
	if err != nil {
		return nil, err
	}
	lookback := env.Config.Thresholds.LookbackLines
	for _, src := range sources {
		rep.AddAll(checkNonceVerification(src, lookback))
		rep.AddAll(checkCapabilities(src, lookback))
	}
	rep.AddAll(ScanTable(sources, table))
	return rep, nil
}

// checkNonceVerification: um gancho wp_ajax_ precisa de chamada de nonce nas
// próximas `window` linhas. Ganchos perto do fim do arquivo não são avaliados.
func checkNonceVerification(src Source, window int) []model.Finding {
	var findings []model.Finding
	open := false
	start := 0
	for i, line := range src.Lines {
		ln := i + 1
		if ajaxHook.MatchString(line) {
			open = true
			start = ln
		}
		if open && containsAny(line, nonceFuncs) {
			open = false
		}
		if open && ln > start+window {
			findings = append(findings, model.Finding{
				Severity:   model.SevCritical,
				File:       src.Rel,
				Line:       start,
				Category:   "nonce_verification",
				Rule:       "ajax-without-nonce",
				Message:    "AJAX handler without nonce verification",
				Suggestion: `Add check_ajax_referer("action_name", "nonce_field") at the start of the handler`,
				Code:       strings.TrimSpace(src.Lines[start-1]),
			})
			open = false
		}
	}
	return findings
}

// checkCapabilities: operação administrativa sem current_user_can/user_can na
// própria linha ou nas `window` linhas anteriores.
func checkCapabilities(src Source, window int) []model.Finding {
	var findings []model.Finding
	for i, line := range src.Lines {
		m := adminOp.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		from := i - window
		if from < 0 {
			from = 0
		}
		checked := false
		for _, prev := range src.Lines[from : i+1] {
			if containsAny(prev, capabilityFuncs) {
				checked = true
				break
			}
		}
		if checked {
			continue
		}
		findings = append(findings, model.Finding{
			Severity:   model.SevHigh,
			File:       src.Rel,
			Line:       i + 1,
			Category:   "capability_checks",
			Rule:       "admin-op-without-capability",
			Message:    "Admin operation " + m[1] + "() without capability check",
			Suggestion: `Add if (!current_user_can("capability")) { wp_die("Unauthorized"); }`,
			Code:       strings.TrimSpace(line),
		})
	}
	return findings
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

package scanner

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Sena-ops/wpguard/internal/config"
	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/rules"
)

var ErrUnknownAudit = errors.New("auditoria não suportada")

// Env é o que toda auditoria recebe: configuração efetiva e tabelas compiladas.
type Env struct {
	Config config.Config
	Rules  *rules.Set
}

type AuditFunc func(env Env) (*model.Report, error)

var audits = map[string]AuditFunc{
	"accessibility":    RunAccessibility,
	"php-security":     RunPHPSecurity,
	"php-performance":  RunPHPPerformance,
	"php-quality":      RunPHPQuality,
	"css-quality":      RunCSSQuality,
	"css-architecture": RunCSSArchitecture,
	"css-performance":  RunCSSPerformance,
	"browser-compat":   RunBrowserCompat,
	"css-stats":        RunCSSStats,
	"important":        RunImportant,
}

// ordem de "audit all"
var order = []string{
	"accessibility",
	"php-security",
	"php-performance",
	"php-quality",
	"css-quality",
	"css-architecture",
	"css-performance",
	"browser-compat",
	"css-stats",
	"important",
}

// Names devolve as auditorias embutidas na ordem de execução, seguidas das
// tabelas extras do arquivo de regras do usuário (ordem alfabética).
func Names(set *rules.Set) []string {
	names := append([]string(nil), order...)
	if set == nil {
		return names
	}
	var extra []string
	for _, a := range set.Audits() {
		if _, builtin := audits[a]; !builtin {
			extra = append(extra, a)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// Execute roda a auditoria pelo nome. Tabelas sem auditoria própria rodam só o
// harness genérico sobre a raiz inteira.
func Execute(name string, env Env) (*model.Report, error) {
	fn, ok := audits[name]
	if !ok {
		if env.Rules == nil {
			return nil, fmt.Errorf("%w: '%s'", ErrUnknownAudit, name)
		}
		if _, custom := env.Rules.Table(name); !custom {
			return nil, fmt.Errorf("%w: '%s'", ErrUnknownAudit, name)
		}
		fn = func(env Env) (*model.Report, error) { return runTableOnly(env, name) }
	}

	rep, err := fn(env)
	if err != nil {
		return nil, fmt.Errorf("auditoria %s: %w", name, err)
	}
	for i := range rep.Categories {
		model.SortFindings(rep.Categories[i].Findings)
	}
	return rep, nil
}

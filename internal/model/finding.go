package model

import (
	"fmt"
	"strings"
)

type Severity string

const (
	SevCritical Severity = "critical"
	SevSerious  Severity = "serious"
	SevHigh     Severity = "high"
	SevMedium   Severity = "medium"
	SevModerate Severity = "moderate"
	SevLow      Severity = "low"
)

// Severities em ordem decrescente de gravidade.
var Severities = []Severity{SevCritical, SevSerious, SevHigh, SevMedium, SevModerate, SevLow}

// Rank devolve a posição ordinal (maior = mais grave). Severidade desconhecida vale 0.
func (s Severity) Rank() int {
	for i, sev := range Severities {
		if sev == s {
			return len(Severities) - i
		}
	}
	return 0
}

func (s Severity) Valid() bool { return s.Rank() > 0 }

// ParseSeverity normaliza caixa e espaços.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if !sev.Valid() {
		return "", fmt.Errorf("severidade inválida %q", s)
	}
	return sev, nil
}

type Finding struct {
	Severity   Severity          `json:"severity"`
	File       string            `json:"file"`
	Line       int               `json:"line"` // 1-based
	Category   string            `json:"category"`
	Rule       string            `json:"rule"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion"`
	Code       string            `json:"code,omitempty"`  // linha de origem, sem indentação
	Extra      map[string]string `json:"extra,omitempty"` // detalhes específicos da auditoria
}

// Location no formato arquivo:linha usado nos relatórios.
func (f Finding) Location() string {
	return fmt.Sprintf("%s:%d", f.File, f.Line)
}

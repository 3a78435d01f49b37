package adapters

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sena-ops/wpguard/internal/model"
)

// ErrReportNotFound: o JSON da auditoria ainda não foi gerado.
var ErrReportNotFound = errors.New("relatório não encontrado")

// ReportPath é o caminho do JSON de uma auditoria dentro do diretório de relatórios.
func ReportPath(reportsDir, audit string) string {
	return filepath.Join(reportsDir, audit+".json")
}

// ParseReportBytes lê um relatório JSON gerado por "wpguard audit".
// Severidades são normalizadas; findings com severidade desconhecida viram low.
func ParseReportBytes(b []byte) (*model.Report, error) {
	var rep model.Report
	if err := json.Unmarshal(b, &rep); err != nil {
		return nil, fmt.Errorf("relatório inválido: %w", err)
	}
	if strings.TrimSpace(rep.Audit) == "" {
		return nil, errors.New("relatório inválido: campo audit vazio")
	}
	if rep.Meta == nil {
		rep.Meta = map[string]string{}
	}
	for ci := range rep.Categories {
		c := &rep.Categories[ci]
		if c.Findings == nil {
			c.Findings = []model.Finding{}
		}
		for fi := range c.Findings {
			f := &c.Findings[fi]
			sev, err := model.ParseSeverity(string(f.Severity))
			if err != nil {
				sev = model.SevLow
			}
			f.Severity = sev
			f.File = filepath.ToSlash(f.File)
			f.Line = safeLine(f.Line)
			if f.Category == "" {
				f.Category = c.ID
			}
		}
	}
	return &rep, nil
}

// LoadReport carrega reports/<audit>.json.
func LoadReport(reportsDir, audit string) (*model.Report, error) {
	path := ReportPath(reportsDir, audit)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (rode 'wpguard audit %s' antes)", ErrReportNotFound, path, audit)
		}
		return nil, fmt.Errorf("lendo %s: %w", path, err)
	}
	return ParseReportBytes(b)
}

func safeLine(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

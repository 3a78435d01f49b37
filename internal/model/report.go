package model

import (
	"sort"
	"time"
)

type Summary struct {
	Total      int              `json:"total_issues"`
	BySeverity map[Severity]int `json:"by_severity"`
	ByCategory map[string]int   `json:"by_category"`
	Grade      string           `json:"grade"`
}

// Category é um bucket ordenado de findings dentro de um relatório.
type Category struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Findings []Finding `json:"findings"`
}

type Report struct {
	RunID        string            `json:"run_id"`
	Audit        string            `json:"audit"`
	Title        string            `json:"title"`
	Timestamp    time.Time         `json:"timestamp"`
	Root         string            `json:"root"`
	FilesScanned int               `json:"files_scanned"`
	Summary      Summary           `json:"summary"`
	Categories   []Category        `json:"categories"`
	Warnings     []string          `json:"warnings,omitempty"`
	Meta         map[string]string `json:"meta,omitempty"`
}

// NewReport cria o relatório com as categorias na ordem declarada pela auditoria.
func NewReport(audit, title string, categories []Category) *Report {
	r := &Report{
		Audit:      audit,
		Title:      title,
		Timestamp:  time.Now().UTC(),
		Categories: make([]Category, len(categories)),
		Meta:       map[string]string{},
	}
	for i, c := range categories {
		r.Categories[i] = Category{ID: c.ID, Title: c.Title, Findings: []Finding{}}
	}
	return r
}

// Add anexa o finding à categoria correspondente, criando-a no fim se não existir.
func (r *Report) Add(f Finding) {
	for i := range r.Categories {
		if r.Categories[i].ID == f.Category {
			r.Categories[i].Findings = append(r.Categories[i].Findings, f)
			return
		}
	}
	r.Categories = append(r.Categories, Category{ID: f.Category, Title: f.Category, Findings: []Finding{f}})
}

func (r *Report) AddAll(fs []Finding) {
	for _, f := range fs {
		r.Add(f)
	}
}

func (r *Report) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Category devolve o bucket pelo id, ou nil.
func (r *Report) Category(id string) *Category {
	for i := range r.Categories {
		if r.Categories[i].ID == id {
			return &r.Categories[i]
		}
	}
	return nil
}

// Findings achata todas as categorias, mantendo a ordem.
func (r *Report) Findings() []Finding {
	var out []Finding
	for _, c := range r.Categories {
		out = append(out, c.Findings...)
	}
	return out
}

// MaxSeverity devolve a severidade mais grave presente, ou "" se não houver findings.
func (r *Report) MaxSeverity() Severity {
	var worst Severity
	for _, f := range r.Findings() {
		if f.Severity.Rank() > worst.Rank() {
			worst = f.Severity
		}
	}
	return worst
}

// SortFindings ordena por arquivo e linha; na mesma linha vale a ordem de inserção (ordem das regras).
func SortFindings(fs []Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].File == fs[j].File {
			return fs[i].Line < fs[j].Line
		}
		return fs[i].File < fs[j].File
	})
}

package report

import (
	"github.com/Sena-ops/wpguard/internal/config"
	"github.com/Sena-ops/wpguard/internal/model"
)

// Summarize preenche rep.Summary: contagens por severidade e categoria e a nota.
func Summarize(rep *model.Report, grading config.GradingConfig) {
	s := model.Summary{
		BySeverity: map[model.Severity]int{},
		ByCategory: map[string]int{},
	}
	for _, c := range rep.Categories {
		s.ByCategory[c.ID] = len(c.Findings)
		for _, f := range c.Findings {
			s.BySeverity[f.Severity]++
			s.Total++
		}
	}
	rep.Summary = s
	rep.Summary.Grade = Grade(rep, grading)
}

// Grade aplica a escada da auditoria (ou a padrão). css-performance mede
// impacto pelos findings high em vez do total.
func Grade(rep *model.Report, grading config.GradingConfig) string {
	if rep.Audit == "css-performance" {
		impact := performanceImpact(rep.Summary)
		if rep.Meta != nil {
			rep.Meta["performance_impact"] = impact
			rep.Meta["estimated_improvement"] = estimatedImprovement[impact]
		}
		return impact
	}
	steps, ok := grading.Audits[rep.Audit]
	if !ok {
		steps = grading.Default
	}
	return ladder(rep.Summary.Total, steps, grading.Fallback)
}

func ladder(total int, steps []config.GradeStep, fallback string) string {
	for _, st := range steps {
		if st.Max < 0 || total <= st.Max {
			return st.Label
		}
	}
	return fallback
}

// ganho estimado ao corrigir os findings, por impacto
var estimatedImprovement = map[string]string{
	"high":   "30-40%",
	"medium": "15-25%",
	"low":    "5-10%",
	"none":   "0%",
}

func performanceImpact(s model.Summary) string {
	high := s.BySeverity[model.SevHigh]
	switch {
	case high > 5:
		return "high"
	case high > 0 || s.Total > 10:
		return "medium"
	case s.Total > 0:
		return "low"
	default:
		return "none"
	}
}

// Exceeds indica se algum finding tem severidade >= limite.
func Exceeds(rep *model.Report, threshold model.Severity) bool {
	if threshold == "" {
		return false
	}
	return rep.MaxSeverity().Rank() >= threshold.Rank()
}

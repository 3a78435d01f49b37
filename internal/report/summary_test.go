package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sena-ops/wpguard/internal/config"
	"github.com/Sena-ops/wpguard/internal/model"
)

func reportWith(audit string, sevs ...model.Severity) *model.Report {
	rep := model.NewReport(audit, "Test "+audit, []model.Category{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}})
	for i, sev := range sevs {
		cat := "a"
		if i%2 == 1 {
			cat = "b"
		}
		rep.Add(model.Finding{Severity: sev, Category: cat, File: "x.scss", Line: i + 1, Rule: "r"})
	}
	return rep
}

func repeat(sev model.Severity, n int) []model.Severity {
	out := make([]model.Severity, n)
	for i := range out {
		out[i] = sev
	}
	return out
}

func TestSummarizeCounts(t *testing.T) {
	rep := reportWith("php-security", model.SevCritical, model.SevHigh, model.SevHigh)
	Summarize(rep, config.Defaults().Grading)

	assert.Equal(t, 3, rep.Summary.Total)
	assert.Equal(t, 1, rep.Summary.BySeverity[model.SevCritical])
	assert.Equal(t, 2, rep.Summary.BySeverity[model.SevHigh])
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, rep.Summary.ByCategory)
	assert.Equal(t, "good", rep.Summary.Grade)
}

func TestGradeLadders(t *testing.T) {
	grading := config.Defaults().Grading
	tests := []struct {
		audit string
		total int
		want  string
	}{
		{"accessibility", 0, "excellent"},
		{"accessibility", 5, "good"},
		{"accessibility", 15, "fair"},
		{"accessibility", 16, "needs improvement"},
		{"browser-compat", 0, "A+ (Excellent)"},
		{"browser-compat", 6, "B (Fair)"},
		{"browser-compat", 100, "C (Needs Improvement)"},
		{"important", 9, "low"},
		{"important", 10, "moderate"},
		{"important", 50, "high"},
	}
	for _, tt := range tests {
		t.Run(tt.audit, func(t *testing.T) {
			rep := reportWith(tt.audit, repeat(model.SevLow, tt.total)...)
			Summarize(rep, grading)
			assert.Equal(t, tt.want, rep.Summary.Grade)
		})
	}
}

func TestGradePerformanceImpact(t *testing.T) {
	tests := []struct {
		name        string
		sevs        []model.Severity
		want        string
		improvement string
	}{
		{"nenhum", nil, "none", "0%"},
		{"poucos low", repeat(model.SevLow, 3), "low", "5-10%"},
		{"muitos low", repeat(model.SevLow, 11), "medium", "15-25%"},
		{"um high", []model.Severity{model.SevHigh}, "medium", "15-25%"},
		{"seis high", repeat(model.SevHigh, 6), "high", "30-40%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := reportWith("css-performance", tt.sevs...)
			Summarize(rep, config.Defaults().Grading)
			assert.Equal(t, tt.want, rep.Summary.Grade)
			assert.Equal(t, tt.want, rep.Meta["performance_impact"])
			assert.Equal(t, tt.improvement, rep.Meta["estimated_improvement"])
		})
	}
}

func TestLadderFallback(t *testing.T) {
	steps := []config.GradeStep{{Max: 1, Label: "ok"}}
	assert.Equal(t, "ok", ladder(1, steps, "ruim"))
	assert.Equal(t, "ruim", ladder(2, steps, "ruim"))
	assert.Equal(t, "ruim", ladder(0, nil, "ruim"))
}

func TestExceeds(t *testing.T) {
	rep := reportWith("php-security", model.SevMedium, model.SevLow)
	assert.False(t, Exceeds(rep, ""))
	assert.False(t, Exceeds(rep, model.SevHigh))
	assert.True(t, Exceeds(rep, model.SevMedium))
	assert.True(t, Exceeds(rep, model.SevLow))
	assert.False(t, Exceeds(reportWith("php-security"), model.SevLow))
}

package sarif

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Sena-ops/wpguard/internal/model"
)

const (
	Version = "2.1.0"
	// schema RTM reconhecido por GitHub/VSCode
	Schema = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
)

type Log struct {
	Version string `json:"version"`
	Schema  string `json:"$schema"`
	Runs    []Run  `json:"runs"`
}

type Run struct {
	Tool       Tool              `json:"tool"`
	Results    []Result          `json:"results"`
	Properties map[string]string `json:"properties,omitempty"`
}

type Tool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Rule é o reportingDescriptor de uma regra citada nos resultados.
type Rule struct {
	ID               string   `json:"id"`
	ShortDescription Message  `json:"shortDescription"`
	Help             *Message `json:"help,omitempty"`
}

type Result struct {
	RuleID    string     `json:"ruleId"`
	Message   Message    `json:"message"`
	Level     string     `json:"level"` // error, warning, note
	Locations []Location `json:"locations"`
}

type Message struct {
	Text string `json:"text,omitempty"`
}

type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

type ArtifactLocation struct {
	URI string `json:"uri"`
}

type Region struct {
	StartLine int `json:"startLine"`
}

// FromReport converte o relatório de uma auditoria num log SARIF com um run.
// Os ids de regra ganham o prefixo da categoria ("sql_injection/wpdb-interpolation").
func FromReport(rep *model.Report, toolName, toolVersion string) Log {
	findings := rep.Findings()
	results := make([]Result, 0, len(findings))
	rules := map[string]Rule{}

	for _, f := range findings {
		ruleID := f.Category + "/" + f.Rule
		if _, ok := rules[ruleID]; !ok {
			r := Rule{ID: ruleID, ShortDescription: Message{Text: f.Category}}
			if f.Suggestion != "" {
				r.Help = &Message{Text: f.Suggestion}
			}
			rules[ruleID] = r
		}
		fileURI := toURI(f.File)
		if strings.TrimSpace(fileURI) == "" {
			fileURI = "UNKNOWN"
		}
		start := f.Line
		if start <= 0 {
			start = 1
		}
		results = append(results, Result{
			RuleID:  ruleID,
			Level:   sevToLevel(f.Severity),
			Message: Message{Text: strings.TrimSpace(f.Message)},
			Locations: []Location{{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{URI: fileURI},
					Region:           Region{StartLine: start},
				},
			}},
		})
	}

	ids := make([]string, 0, len(rules))
	for id := range rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	descriptors := make([]Rule, 0, len(ids))
	for _, id := range ids {
		descriptors = append(descriptors, rules[id])
	}

	return Log{
		Version: Version,
		Schema:  Schema,
		Runs: []Run{{
			Tool: Tool{Driver: Driver{
				Name:    toolName,
				Version: toolVersion,
				Rules:   descriptors,
			}},
			Results: results,
			Properties: map[string]string{
				"audit":  rep.Audit,
				"run_id": rep.RunID,
			},
		}},
	}
}

// Marshal gera o .sarif indentado.
func Marshal(rep *model.Report, toolName, toolVersion string) ([]byte, error) {
	data, err := json.MarshalIndent(FromReport(rep, toolName, toolVersion), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sarif: %w", err)
	}
	return data, nil
}

func sevToLevel(s model.Severity) string {
	switch s {
	case model.SevCritical, model.SevSerious, model.SevHigh:
		return "error"
	case model.SevMedium, model.SevModerate:
		return "warning"
	default:
		return "note"
	}
}

func toURI(p string) string {
	p = strings.TrimSpace(p)
	p = filepath.ToSlash(p)
	for strings.HasPrefix(p, "../") {
		p = strings.TrimPrefix(p, "../")
	}
	return strings.TrimPrefix(p, "./")
}

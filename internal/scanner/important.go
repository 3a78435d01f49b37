package scanner

import (
	"strconv"

	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/parser"
)

// RunImportant conta declarações !important em todas as folhas de estilo da raiz.
func RunImportant(env Env) (*model.Report, error) {
	table, err := env.table("important")
	if err != nil {
		return nil, err
	}
	rep := env.newReport(table)

	sources, err := env.collect(rep, []string{"."}, parser.SCSS, parser.CSS)
	if err != nil {
		return nil, err
	}
	findings := ScanTable(sources, table)
	rep.AddAll(findings)

	files := map[string]bool{}
	for _, f := range findings {
		files[f.File] = true
	}
	rep.Meta["files_with_important"] = strconv.Itoa(len(files))
	return rep, nil
}

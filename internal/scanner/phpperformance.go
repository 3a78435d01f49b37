package scanner

import (
	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/parser"
)

// RunPHPPerformance só aplica a tabela: consultas diretas, loops, carregamento
// antecipado e operações grandes em arrays.
func RunPHPPerformance(env Env) (*model.Report, error) {
	table, err := env.table("php-performance")
	if err != nil {
		return nil, err
	}
	rep := env.newReport(table)

	sources, err := env.collect(rep, env.Config.Paths.PHPDirs, parser.PHP)
	if err != nil {
		return nil, err
	}
	rep.AddAll(ScanTable(sources, table))
	return rep, nil
}

package scanner

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Sena-ops/wpguard/internal/logging"
	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/parser"
	"github.com/Sena-ops/wpguard/internal/rules"
)

func (env Env) table(audit string) (*rules.Table, error) {
	if env.Rules == nil {
		return nil, fmt.Errorf("tabelas de regras não carregadas")
	}
	t, ok := env.Rules.Table(audit)
	if !ok {
		return nil, fmt.Errorf("%w: tabela '%s' ausente", ErrUnknownAudit, audit)
	}
	return t, nil
}

func (env Env) newReport(table *rules.Table) *model.Report {
	cats := make([]model.Category, 0, len(table.Categories))
	for _, c := range table.Categories {
		cats = append(cats, model.Category{ID: c.ID, Title: c.Title})
	}
	rep := model.NewReport(table.Audit, table.Title, cats)
	rep.RunID = uuid.NewString()
	rep.Root = env.Config.Root
	return rep
}

// collect lê as fontes dos diretórios (relativos à raiz). Falha com
// parser.ErrRootNotFound só quando nenhum dos diretórios existe.
func (env Env) collect(rep *model.Report, dirs []string, kinds ...parser.SourceKind) ([]Source, error) {
	sources, missing := env.load(rep, dirs, kinds)
	if len(missing) == len(dirs) {
		return nil, fmt.Errorf("%w: %s", parser.ErrRootNotFound, strings.Join(missing, ", "))
	}
	return sources, nil
}

// collectOptional é como collect, mas diretórios ausentes não são erro.
func (env Env) collectOptional(rep *model.Report, dirs []string, kinds ...parser.SourceKind) []Source {
	sources, _ := env.load(rep, dirs, kinds)
	return sources
}

func (env Env) load(rep *model.Report, dirs []string, kinds []parser.SourceKind) ([]Source, []string) {
	cfg := env.Config
	files, missing, skipped, err := parser.DetectAll(cfg.PathList(dirs), kinds, cfg.Excludes)
	if err != nil {
		logging.Logger.Warnw("Falha ao percorrer diretórios", "dirs", dirs, "erro", err)
		rep.Warn(err.Error())
	}
	for _, sk := range skipped {
		logging.Logger.Warnw("Entrada ilegível ignorada", "caminho", sk.Path, "erro", sk.Err)
		rep.Warn(sk.String())
	}
	for _, m := range missing {
		logging.Logger.Debugw("Diretório ausente", "dir", m)
	}
	for i := range files {
		if rel, relErr := filepath.Rel(cfg.Root, files[i].Path); relErr == nil {
			files[i].Rel = filepath.ToSlash(rel)
		}
	}

	sources, warnings := LoadSources(files)
	for _, w := range warnings {
		rep.Warn(w)
	}
	rep.FilesScanned += len(sources)
	logging.Logger.Debugw("Fontes carregadas", "auditoria", rep.Audit, "tipos", kinds, "arquivos", len(sources))
	return sources, missing
}

func runTableOnly(env Env, audit string) (*model.Report, error) {
	table, err := env.table(audit)
	if err != nil {
		return nil, err
	}
	rep := env.newReport(table)
	sources, err := env.collect(rep, []string{"."}, parser.SCSS, parser.CSS, parser.PHP, parser.JS)
	if err != nil {
		return nil, err
	}
	rep.AddAll(ScanTable(sources, table))
	return rep, nil
}

func relDir(env Env, dir string) string {
	rel, err := filepath.Rel(env.Config.Root, env.Config.Path(dir))
	if err != nil {
		return filepath.ToSlash(dir)
	}
	return filepath.ToSlash(rel)
}

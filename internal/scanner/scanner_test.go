package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sena-ops/wpguard/internal/config"
	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/parser"
	"github.com/Sena-ops/wpguard/internal/rules"
)

// writeTree cria um plugin de teste a partir de caminho relativo -> conteúdo.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func testEnv(t *testing.T, root string) Env {
	t.Helper()
	set, err := rules.LoadDefault()
	require.NoError(t, err)
	cfg := config.Defaults()
	cfg.Root = root
	return Env{Config: cfg, Rules: set}
}

func findingsIn(rep *model.Report, category string) []model.Finding {
	c := rep.Category(category)
	if c == nil {
		return nil
	}
	return c.Findings
}

func ruleIDs(fs []model.Finding) []string {
	ids := make([]string, 0, len(fs))
	for _, f := range fs {
		ids = append(ids, f.Rule)
	}
	return ids
}

func inlineSource(rel, content string, kind parser.SourceKind) Source {
	return Source{
		SourceFile: parser.SourceFile{Kind: kind, Path: rel, Rel: rel},
		Content:    content,
		Lines:      strings.Split(content, "\n"),
	}
}

package scanner

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/Sena-ops/wpguard/internal/logging"
	"github.com/Sena-ops/wpguard/internal/parser"
)

// Source é um arquivo já lido, com as linhas sem "\r".
type Source struct {
	parser.SourceFile
	Content string
	Lines   []string
}

// LoadSources lê os arquivos. Arquivos ilegíveis ou que não são UTF-8 válido
// ficam de fora e viram aviso; a varredura segue com o resto.
func LoadSources(files []parser.SourceFile) ([]Source, []string) {
	var (
		sources  []Source
		warnings []string
	)
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			logging.Logger.Warnw("Arquivo ignorado", "arquivo", f.Rel, "erro", err)
			warnings = append(warnings, fmt.Sprintf("%s: %v", f.Rel, err))
			continue
		}
		if !utf8.Valid(data) {
			logging.Logger.Warnw("Arquivo ignorado: não é UTF-8", "arquivo", f.Rel)
			warnings = append(warnings, fmt.Sprintf("%s: conteúdo não é UTF-8 válido", f.Rel))
			continue
		}
		content := strings.ReplaceAll(string(data), "\r\n", "\n")
		content = strings.ReplaceAll(content, "\r", "\n")
		sources = append(sources, Source{
			SourceFile: f,
			Content:    content,
			Lines:      strings.Split(content, "\n"),
		})
	}
	return sources, warnings
}

// OfKind filtra as fontes pelo tipo.
func OfKind(sources []Source, kinds ...parser.SourceKind) []Source {
	var out []Source
	for _, s := range sources {
		for _, k := range kinds {
			if s.Kind == k {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// lineAt converte um offset no conteúdo em número de linha 1-based.
func lineAt(content string, offset int) int {
	return strings.Count(content[:offset], "\n") + 1
}

func isCommentLine(trimmed string, kind parser.SourceKind) bool {
	switch {
	case strings.HasPrefix(trimmed, "//"),
		strings.HasPrefix(trimmed, "/*"),
		strings.HasPrefix(trimmed, "*"):
		return true
	case kind == parser.PHP && strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "#["):
		return true
	}
	return false
}

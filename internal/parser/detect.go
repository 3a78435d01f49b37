package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrRootNotFound = errors.New("diretório não encontrado")

// KindOf devolve o tipo de fonte pela extensão.
func KindOf(path string) (SourceKind, bool) {
	k, ok := kindByExt[strings.ToLower(filepath.Ext(path))]
	return k, ok
}

// Skipped é uma entrada que não pôde ser lida durante a varredura.
type Skipped struct {
	Path string
	Err  error
}

func (s Skipped) String() string {
	return fmt.Sprintf("entrada ilegível ignorada: %s: %v", s.Path, s.Err)
}

// DetectSourceFiles percorre root e devolve os arquivos dos tipos pedidos, ordenados por caminho.
// Qualquer diretório cujo nome esteja em excludes é podado, inclusive abaixo da raiz.
// Diretórios e entradas ilegíveis não interrompem a varredura; voltam em skipped.
func DetectSourceFiles(root string, kinds []SourceKind, excludes []string) (files []SourceFile, skipped []Skipped, err error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return nil, nil, err
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s não é diretório", ErrRootNotFound, root)
	}

	wanted := map[SourceKind]bool{}
	for _, k := range kinds {
		wanted[k] = true
	}
	skip := map[string]bool{}
	for _, e := range excludes {
		skip[e] = true
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			skipped = append(skipped, Skipped{Path: path, Err: err})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && skip[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		kind, ok := KindOf(path)
		if !ok || !wanted[kind] {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		files = append(files, SourceFile{Kind: kind, Path: path, Rel: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, skipped, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, skipped, nil
}

// DetectAll percorre várias raízes; raízes inexistentes são ignoradas e devolvidas em missing.
func DetectAll(roots []string, kinds []SourceKind, excludes []string) (files []SourceFile, missing []string, skipped []Skipped, err error) {
	seen := map[string]bool{}
	for _, root := range roots {
		found, sk, derr := DetectSourceFiles(root, kinds, excludes)
		skipped = append(skipped, sk...)
		if errors.Is(derr, ErrRootNotFound) {
			missing = append(missing, root)
			continue
		}
		if derr != nil {
			return nil, missing, skipped, derr
		}
		for _, f := range found {
			if seen[f.Path] {
				continue
			}
			seen[f.Path] = true
			files = append(files, f)
		}
	}
	return files, missing, skipped, nil
}

// FileContains verifica linha a linha se o arquivo contém needle (sem diferenciar caixa).
// Arquivo ausente ou ilegível conta como "não contém".
func FileContains(path, needle string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	needle = strings.ToLower(needle)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if strings.Contains(strings.ToLower(scanner.Text()), needle) {
			return true
		}
	}
	return false
}

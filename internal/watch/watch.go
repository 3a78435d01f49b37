package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Sena-ops/wpguard/internal/logging"
)

// Watcher dispara fn depois de Debounce sem novos eventos sob Root.
// Diretórios cujo nome está em Ignore (e tudo abaixo deles) não são observados.
type Watcher struct {
	Root     string
	Ignore   []string
	Debounce time.Duration
}

// Run bloqueia até ctx ser cancelado. fn roda na goroutine do laço, então
// execuções nunca se sobrepõem.
func (w Watcher) Run(ctx context.Context, fn func()) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init: %w", err)
	}
	defer fw.Close()

	if err := w.addRecursive(fw, w.Root); err != nil {
		return fmt.Errorf("watch %s: %w", w.Root, err)
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.ignored(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(fw, ev.Name)
				}
			}
			logging.Logger.Debugw("Evento", "arquivo", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)
		case <-timer.C:
			fn()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.Logger.Warnw("Erro do watcher", "erro", err)
		}
	}
}

func (w Watcher) addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.Root && w.ignored(path) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

// ignored verifica cada segmento do caminho relativo à raiz.
func (w Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.Root, path)
	if err != nil {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		for _, ig := range w.Ignore {
			if seg == ig {
				return true
			}
		}
	}
	return false
}

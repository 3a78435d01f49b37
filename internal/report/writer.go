package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/Sena-ops/wpguard/internal/logging"
	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/sarif"
)

const (
	LockFile           = ".wpguard.lock"
	defaultLockTimeout = 10 * time.Second
)

// Writer grava os relatórios de uma auditoria sob Dir, segurando um lock
// exclusivo para que execuções concorrentes não se misturem.
type Writer struct {
	Dir         string
	Formats     []string
	Cap         int
	ToolName    string
	ToolVersion string
	LockTimeout time.Duration
}

// JSON é o dump estrutural do relatório.
func JSON(rep *model.Report) ([]byte, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return append(data, '\n'), nil
}

// Render produz o conteúdo de um formato e a extensão do arquivo.
func (w Writer) Render(rep *model.Report, format string) ([]byte, string, error) {
	switch strings.ToLower(format) {
	case "json":
		data, err := JSON(rep)
		return data, ".json", err
	case "markdown", "md":
		return []byte(Markdown(rep, w.Cap)), ".md", nil
	case "sarif":
		data, err := sarif.Marshal(rep, w.ToolName, w.ToolVersion)
		return data, ".sarif", err
	default:
		return nil, "", fmt.Errorf("formato desconhecido %q", format)
	}
}

// Write grava <audit>.<ext> para cada formato e devolve os caminhos escritos.
func (w Writer) Write(ctx context.Context, rep *model.Report) ([]string, error) {
	var written []string
	err := w.withLock(ctx, func() error {
		for _, format := range w.Formats {
			data, ext, err := w.Render(rep, format)
			if err != nil {
				return err
			}
			path := filepath.Join(w.Dir, rep.Audit+ext)
			if err := atomicWrite(path, data); err != nil {
				return err
			}
			logging.Logger.Debugw("Relatório gravado", "auditoria", rep.Audit, "arquivo", path)
			written = append(written, path)
		}
		return nil
	})
	return written, err
}

func (w Writer) withLock(ctx context.Context, fn func() error) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("criar dir de relatórios: %w", err)
	}
	timeout := w.LockTimeout
	if timeout <= 0 {
		timeout = defaultLockTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	lock := flock.New(filepath.Join(w.Dir, LockFile))
	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock de relatórios: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock de relatórios não obtido em %v", timeout)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logging.Logger.Warnw("Falha ao liberar lock", "erro", err)
		}
	}()
	return fn()
}

// atomicWrite escreve num temporário no mesmo diretório e renomeia.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("criar temporário: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("escrever %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fechar %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("permissões %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renomear para %s: %w", path, err)
	}
	return nil
}

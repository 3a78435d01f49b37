package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sena-ops/wpguard/internal/adapters"
	"github.com/Sena-ops/wpguard/internal/contrast"
	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/parser"
	"github.com/Sena-ops/wpguard/internal/scanner"
)

func pluginRoot(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

// flagCmd devolve um comando com as flags de relatório já registradas.
func flagCmd(o *auditOptions, args ...string) *cobra.Command {
	c := &cobra.Command{Use: "test"}
	addReportFlags(c, o)
	_ = c.Flags().Parse(args)
	return c
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want model.Outcome
	}{
		{"raiz ausente", fmt.Errorf("x: %w", parser.ErrRootNotFound), model.PreconditionFailed},
		{"relatório ausente", adapters.ErrReportNotFound, model.PreconditionFailed},
		{"cor inválida", fmt.Errorf("cor: %w", contrast.ErrUnparseable), model.PreconditionFailed},
		{"auditoria desconhecida", scanner.ErrUnknownAudit, model.PreconditionFailed},
		{"erro qualquer", errors.New("boom"), model.InternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestLoadEnv(t *testing.T) {
	t.Run("raiz inexistente", func(t *testing.T) {
		_, err := loadEnv(filepath.Join(t.TempDir(), "missing"))
		assert.ErrorIs(t, err, parser.ErrRootNotFound)
	})

	t.Run("raiz absoluta e regras embutidas", func(t *testing.T) {
		root := pluginRoot(t, map[string]string{"readme.txt": "plugin"})
		env, err := loadEnv(root)
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(env.Config.Root))
		_, ok := env.Rules.Table("php-security")
		assert.True(t, ok)
	})

	t.Run("configuração do plugin", func(t *testing.T) {
		root := pluginRoot(t, map[string]string{
			".wpguard.yaml": "reports_dir: out\nmarkdown_cap: 3\n",
		})
		env, err := loadEnv(root)
		require.NoError(t, err)
		assert.Equal(t, "out", env.Config.ReportsDir)
		assert.Equal(t, 3, env.Config.MarkdownCap)
	})
}

func TestSelectAudits(t *testing.T) {
	env, err := loadEnv(pluginRoot(t, map[string]string{"readme.txt": "x"}))
	require.NoError(t, err)

	all, err := selectAudits(env, "all")
	require.NoError(t, err)
	assert.Equal(t, scanner.Names(env.Rules), all)

	one, err := selectAudits(env, "important")
	require.NoError(t, err)
	assert.Equal(t, []string{"important"}, one)

	_, err = selectAudits(env, "lint")
	assert.ErrorIs(t, err, scanner.ErrUnknownAudit)
	assert.Contains(t, err.Error(), "php-security")
}

func TestAuditOptionsApply(t *testing.T) {
	env, err := loadEnv(pluginRoot(t, map[string]string{"readme.txt": "x"}))
	require.NoError(t, err)

	t.Run("defaults da configuração", func(t *testing.T) {
		var o auditOptions
		e := env
		require.NoError(t, o.apply(flagCmd(&o), &e))
		assert.Equal(t, env.Config.Formats, o.formats)
		assert.Equal(t, env.Config.MarkdownCap, o.cap)
		assert.Equal(t, model.Severity(""), o.threshold)
		assert.False(t, o.publish)
	})

	t.Run("flags sobrepõem", func(t *testing.T) {
		var o auditOptions
		e := env
		c := flagCmd(&o, "--format", "sarif", "--out", "/tmp/x", "--cap", "0", "--fail-on", "HIGH")
		require.NoError(t, o.apply(c, &e))
		assert.Equal(t, []string{"sarif"}, o.formats)
		assert.Equal(t, "/tmp/x", e.Config.ReportsDir)
		assert.Equal(t, 0, o.cap)
		assert.Equal(t, model.SevHigh, o.threshold)
	})

	t.Run("severidade inválida", func(t *testing.T) {
		var o auditOptions
		e := env
		err := o.apply(flagCmd(&o, "--fail-on", "urgent"), &e)
		assert.ErrorContains(t, err, "--fail-on")
	})

	t.Run("publish sem bucket", func(t *testing.T) {
		var o auditOptions
		e := env
		err := o.apply(flagCmd(&o, "--publish"), &e)
		assert.ErrorContains(t, err, "publish.endpoint")
	})

	t.Run("history sem database_url", func(t *testing.T) {
		var o auditOptions
		e := env
		err := o.apply(flagCmd(&o, "--history"), &e)
		assert.ErrorContains(t, err, "database_url")
	})
}

func TestRunAudits(t *testing.T) {
	root := pluginRoot(t, map[string]string{
		"assets/scss/main.scss": ".a { color: red !important; }\n",
	})
	env, err := loadEnv(root)
	require.NoError(t, err)

	tests := []struct {
		name   string
		audits []string
		failOn string
		want   model.Outcome
	}{
		{"sucesso", []string{"important"}, "", model.Success},
		{"acima do limite", []string{"important"}, "low", model.FindingsOverThreshold},
		{"abaixo do limite", []string{"important"}, "high", model.Success},
		{"pré-condição não interrompe as demais", []string{"php-security", "important"}, "low", model.PreconditionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := t.TempDir()
			args := []string{"--out", out, "--format", "json,sarif"}
			if tt.failOn != "" {
				args = append(args, "--fail-on", tt.failOn)
			}
			var o auditOptions
			e := env
			require.NoError(t, o.apply(flagCmd(&o, args...), &e))

			outcome, err := runAudits(context.Background(), e, tt.audits, o)
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome)

			assert.FileExists(t, filepath.Join(out, "important.json"))
			assert.FileExists(t, filepath.Join(out, "important.sarif"))
			assert.NoFileExists(t, filepath.Join(out, "php-security.json"))
		})
	}
}

func TestRunAuditsCanceled(t *testing.T) {
	env, err := loadEnv(pluginRoot(t, map[string]string{"assets/scss/a.scss": ".a {}\n"}))
	require.NoError(t, err)

	var o auditOptions
	e := env
	require.NoError(t, o.apply(flagCmd(&o, "--out", t.TempDir()), &e))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runAudits(ctx, e, []string{"important"}, o)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunAuditsUnreadableDirectoryIsPartial(t *testing.T) {
	root := pluginRoot(t, map[string]string{
		"assets/scss/main.scss":       ".a { color: red; }\n",
		"assets/scss/private/_x.scss": ".x { color: blue; }\n",
	})
	locked := filepath.Join(root, "assets", "scss", "private")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })
	if _, err := os.ReadDir(locked); err == nil {
		t.Skip("permissões não se aplicam a este usuário")
	}

	env, err := loadEnv(root)
	require.NoError(t, err)
	var o auditOptions
	e := env
	require.NoError(t, o.apply(flagCmd(&o, "--out", t.TempDir(), "--format", "json"), &e))

	outcome, err := runAudits(context.Background(), e, []string{"important"}, o)
	require.NoError(t, err)
	assert.Equal(t, model.PartialWarnings, outcome)
	assert.Equal(t, 3, outcome.ExitCode())
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "reports", cfg.ReportsDir)
	assert.Equal(t, 10, cfg.MarkdownCap)
	assert.Contains(t, cfg.Excludes, "node_modules")
	assert.Equal(t, 50, cfg.Thresholds.LongFunctionLines)
	assert.Equal(t, 14.0, cfg.BrowserTargets.Safari)
	assert.NoError(t, cfg.validate())
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	data := `
markdown_cap: 25
paths:
  scss_dir: css/src
thresholds:
  complexity: 15
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.MarkdownCap)
	assert.Equal(t, "css/src", cfg.Paths.SCSSDir)
	assert.Equal(t, 15, cfg.Thresholds.Complexity)
	// não informados continuam com o default
	assert.Equal(t, 5, cfg.Thresholds.MaxParams)
	assert.Equal(t, []string{"src", "includes", "templates"}, cfg.Paths.PHPDirs)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nao-existe.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("markdown_cap: [1, 2"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestResolvePicksFileFromRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultFile), []byte("markdown_cap: 3\n"), 0o644))

	cfg, err := Resolve("", root)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MarkdownCap)
	assert.Equal(t, root, cfg.Root)
}

func TestResolveEnvOverrides(t *testing.T) {
	root := t.TempDir()
	t.Setenv("WPGUARD_REPORTS_DIR", "out")
	t.Setenv("WPGUARD_MARKDOWN_CAP", "7")
	t.Setenv("WPGUARD_S3_USE_SSL", "true")

	cfg, err := Resolve("", root)
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.ReportsDir)
	assert.Equal(t, 7, cfg.MarkdownCap)
	assert.True(t, cfg.Publish.UseSSL)
}

func TestResolveDotEnv(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("WPGUARD_S3_BUCKET=relatorios\n"), 0o644))
	t.Setenv("WPGUARD_S3_BUCKET", "")
	os.Unsetenv("WPGUARD_S3_BUCKET")

	cfg, err := Resolve("", root)
	require.NoError(t, err)
	assert.Equal(t, "relatorios", cfg.Publish.Bucket)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"negative_cap", func(c *Config) { c.MarkdownCap = -1 }, false},
		{"bad_format", func(c *Config) { c.Formats = []string{"html"} }, false},
		{"sarif_ok", func(c *Config) { c.Formats = []string{"SARIF", "md"} }, true},
		{"publish_without_bucket", func(c *Config) { c.Publish.Enabled = true; c.Publish.Endpoint = "s3:9000" }, false},
		{"history_without_url", func(c *Config) { c.History.Enabled = true }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestPath(t *testing.T) {
	cfg := Defaults()
	cfg.Root = "/plugin"
	assert.Equal(t, filepath.Join("/plugin", "assets/scss"), cfg.Path("assets/scss"))
	assert.Equal(t, "/abs/dir", cfg.Path("/abs/dir"))
	assert.Len(t, cfg.PathList(cfg.Paths.PHPDirs), 3)
}

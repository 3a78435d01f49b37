package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile é procurado na raiz do plugin quando --config não é informado.
const DefaultFile = ".wpguard.yaml"

// Config é a configuração completa do wpguard.
type Config struct {
	Root           string         `yaml:"root"`
	ReportsDir     string         `yaml:"reports_dir"` // relativo ao diretório atual
	Formats        []string       `yaml:"formats"`
	MarkdownCap    int            `yaml:"markdown_cap"`
	Excludes       []string       `yaml:"excludes"`
	RulesFile      string         `yaml:"rules_file"`
	Paths          PathsConfig    `yaml:"paths"`
	Thresholds     Thresholds     `yaml:"thresholds"`
	BrowserTargets BrowserTargets `yaml:"browser_targets"`
	Grading        GradingConfig  `yaml:"grading"`
	Publish        PublishConfig  `yaml:"publish"`
	History        HistoryConfig  `yaml:"history"`
	Watch          WatchConfig    `yaml:"watch"`
}

// PathsConfig são caminhos relativos à raiz do plugin.
type PathsConfig struct {
	SCSSDir       string   `yaml:"scss_dir"`
	CSSDirs       []string `yaml:"css_dirs"`
	PHPDirs       []string `yaml:"php_dirs"`
	JSDirs        []string `yaml:"js_dirs"`
	PostCSSConfig string   `yaml:"postcss_config"`
	ViteConfig    string   `yaml:"vite_config"`
}

type Thresholds struct {
	LongFunctionLines     int `yaml:"long_function_lines"`
	Complexity            int `yaml:"complexity"`
	MaxParams             int `yaml:"max_params"`
	LongBlockLines        int `yaml:"long_block_lines"`
	LongBlockProperties   int `yaml:"long_block_properties"`
	RepeatedValueMin      int `yaml:"repeated_value_min"`
	BraceNestingDepth     int `yaml:"brace_nesting_depth"`  // css-architecture
	IndentNestingLevel    int `yaml:"indent_nesting_level"` // css-performance
	MobileFirstBreakpoint int `yaml:"mobile_first_breakpoint"`
	BreakpointReuse       int `yaml:"breakpoint_reuse"`
	LookbackLines         int `yaml:"lookback_lines"` // nonce / capability
	PrefixLookahead       int `yaml:"prefix_lookahead"`
	DuplicateWindow       int `yaml:"duplicate_window"`
}

type BrowserTargets struct {
	Chrome   float64  `yaml:"chrome"`
	Firefox  float64  `yaml:"firefox"`
	Safari   float64  `yaml:"safari"`
	Edge     float64  `yaml:"edge"`
	Coverage string   `yaml:"coverage"`
	Excluded []string `yaml:"excluded"`
}

// GradeStep: total de findings <= Max recebe Label. Max negativo casa qualquer
// total e fecha a escada; sem ele vale GradingConfig.Fallback.
type GradeStep struct {
	Max   int    `yaml:"max"`
	Label string `yaml:"label"`
}

type GradingConfig struct {
	Default  []GradeStep            `yaml:"default"`
	Fallback string                 `yaml:"fallback"`
	Audits   map[string][]GradeStep `yaml:"audits"`
}

type PublishConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
}

type HistoryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	DatabaseURL string `yaml:"database_url"`
}

type WatchConfig struct {
	DebounceMillis int `yaml:"debounce_ms"`
}

// Defaults devolve a configuração com o layout de um plugin típico.
func Defaults() Config {
	return Config{
		Root:        ".",
		ReportsDir:  "reports",
		Formats:     []string{"json", "markdown"},
		MarkdownCap: 10,
		Excludes:    []string{"vendor", "node_modules", ".git", "build", "dist", ".cache", "tests"},
		Paths: PathsConfig{
			SCSSDir:       "assets/scss",
			CSSDirs:       []string{"assets"},
			PHPDirs:       []string{"src", "includes", "templates"},
			JSDirs:        []string{"assets/js", "src", "blocks"},
			PostCSSConfig: "postcss.config.js",
			ViteConfig:    "vite.config.js",
		},
		Thresholds: Thresholds{
			LongFunctionLines:     50,
			Complexity:            10,
			MaxParams:             5,
			LongBlockLines:        50,
			LongBlockProperties:   20,
			RepeatedValueMin:      3,
			BraceNestingDepth:     4,
			IndentNestingLevel:    3,
			MobileFirstBreakpoint: 768,
			BreakpointReuse:       2,
			LookbackLines:         10,
			PrefixLookahead:       5,
			DuplicateWindow:       10,
		},
		BrowserTargets: BrowserTargets{
			Chrome:   90,
			Firefox:  88,
			Safari:   14,
			Edge:     90,
			Coverage: ">0.2%",
			Excluded: []string{"IE 11", "op_mini all"},
		},
		Grading: GradingConfig{
			Default: []GradeStep{
				{Max: 0, Label: "excellent"},
				{Max: 5, Label: "good"},
				{Max: 15, Label: "fair"},
			},
			Fallback: "needs improvement",
			Audits: map[string][]GradeStep{
				"browser-compat": {
					{Max: 0, Label: "A+ (Excellent)"},
					{Max: 5, Label: "B+ (Good)"},
					{Max: 15, Label: "B (Fair)"},
					{Max: -1, Label: "C (Needs Improvement)"},
				},
				"important": {
					{Max: 0, Label: "excellent"},
					{Max: 9, Label: "low"},
					{Max: 49, Label: "moderate"},
					{Max: -1, Label: "high"},
				},
			},
		},
		Watch: WatchConfig{DebounceMillis: 300},
	}
}

// Load lê o YAML em path; chaves ausentes mantêm os defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("lendo arquivo de configuração: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("interpretando arquivo de configuração: %w", err)
	}
	return cfg, nil
}

// Resolve monta a configuração efetiva: arquivo explícito, ou .wpguard.yaml na raiz,
// ou defaults; depois .env e variáveis WPGUARD_*.
func Resolve(path, root string) (Config, error) {
	cfg := Defaults()
	var err error

	switch {
	case path != "":
		if cfg, err = Load(path); err != nil {
			return cfg, err
		}
	default:
		candidate := filepath.Join(rootOrDot(root), DefaultFile)
		if _, statErr := os.Stat(candidate); statErr == nil {
			if cfg, err = Load(candidate); err != nil {
				return cfg, err
			}
		} else if !errors.Is(statErr, fs.ErrNotExist) {
			return cfg, statErr
		}
	}
	if root != "" {
		cfg.Root = root
	}

	// .env é opcional; ausência não é erro
	_ = godotenv.Load(filepath.Join(cfg.Root, ".env.local"))
	_ = godotenv.Load(filepath.Join(cfg.Root, ".env"))
	_ = godotenv.Load(".env")
	applyEnv(&cfg)

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.MarkdownCap < 0 {
		return fmt.Errorf("markdown_cap não pode ser negativo: %d", c.MarkdownCap)
	}
	for _, f := range c.Formats {
		switch strings.ToLower(f) {
		case "json", "markdown", "md", "sarif":
		default:
			return fmt.Errorf("formato desconhecido %q (use json, markdown, sarif)", f)
		}
	}
	if c.Publish.Enabled && (c.Publish.Endpoint == "" || c.Publish.Bucket == "") {
		return errors.New("publish habilitado sem endpoint ou bucket")
	}
	if c.History.Enabled && c.History.DatabaseURL == "" {
		return errors.New("history habilitado sem database_url")
	}
	return nil
}

// Path junta um caminho relativo à raiz; caminhos absolutos passam intactos.
func (c Config) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Root, rel)
}

// PathList aplica Path a cada item.
func (c Config) PathList(rels []string) []string {
	out := make([]string, 0, len(rels))
	for _, r := range rels {
		out = append(out, c.Path(r))
	}
	return out
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("WPGUARD_REPORTS_DIR"); v != "" {
		cfg.ReportsDir = v
	}
	if v := os.Getenv("WPGUARD_RULES_FILE"); v != "" {
		cfg.RulesFile = v
	}
	if v := os.Getenv("WPGUARD_S3_ENDPOINT"); v != "" {
		cfg.Publish.Endpoint = v
	}
	if v := os.Getenv("WPGUARD_S3_ACCESS_KEY"); v != "" {
		cfg.Publish.AccessKey = v
	}
	if v := os.Getenv("WPGUARD_S3_SECRET_KEY"); v != "" {
		cfg.Publish.SecretKey = v
	}
	if v := os.Getenv("WPGUARD_S3_BUCKET"); v != "" {
		cfg.Publish.Bucket = v
	}
	if v := os.Getenv("WPGUARD_S3_PREFIX"); v != "" {
		cfg.Publish.Prefix = v
	}
	cfg.Publish.UseSSL = getBool("WPGUARD_S3_USE_SSL", cfg.Publish.UseSSL)
	if v := os.Getenv("WPGUARD_DATABASE_URL"); v != "" {
		cfg.History.DatabaseURL = v
	}
	cfg.MarkdownCap = getInt("WPGUARD_MARKDOWN_CAP", cfg.MarkdownCap)
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func rootOrDot(root string) string {
	if root == "" {
		return "."
	}
	return root
}

package rules

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Sena-ops/wpguard/internal/model"
)

//go:embed tables/*.toml
var defaultTablesFS embed.FS

// Scope define se as regras casam linha a linha ou contra o arquivo inteiro.
const (
	ScopeLine = "line"
	ScopeFile = "file"
)

// Table é a tabela declarativa de uma auditoria.
type Table struct {
	Audit      string     `toml:"audit"`
	Title      string     `toml:"title"`
	Categories []Category `toml:"categories"`
}

type Category struct {
	ID             string   `toml:"id"`
	Title          string   `toml:"title"`
	Kinds          []string `toml:"kinds"`
	Scope          string   `toml:"scope"`
	FirstMatchOnly bool     `toml:"first_match_only"`
	SkipComments   bool     `toml:"skip_comments"`
	Unless         []string `toml:"unless"`
	Rules          []Rule   `toml:"rules"`
}

type Rule struct {
	ID            string            `toml:"id"`
	Pattern       string            `toml:"pattern"`
	Severity      string            `toml:"severity"`
	Message       string            `toml:"message"`
	Suggestion    string            `toml:"suggestion"`
	Unless        []string          `toml:"unless"`
	UnlessPattern string            `toml:"unless_pattern"`
	RequireAfter  string            `toml:"require_after"`
	Extra         map[string]string `toml:"extra"`

	// compilados (fora do TOML)
	regex        *regexp.Regexp
	unlessRegex  *regexp.Regexp
	requireRegex *regexp.Regexp
}

// Set reúne as tabelas por nome de auditoria.
type Set struct {
	tables map[string]*Table
}

type overrideFile struct {
	Tables []Table `toml:"tables"`
}

// Load carrega as tabelas embutidas e, se overridePath não for vazio, aplica o
// arquivo do usuário: categorias com o mesmo id são substituídas, novas são anexadas.
func Load(overridePath string) (*Set, error) {
	set := &Set{tables: map[string]*Table{}}

	entries, err := fs.Glob(defaultTablesFS, "tables/*.toml")
	if err != nil {
		return nil, fmt.Errorf("listando tabelas embutidas: %w", err)
	}
	for _, name := range entries {
		data, err := defaultTablesFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("lendo tabela %s: %w", name, err)
		}
		var t Table
		if err := toml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("interpretando tabela %s: %w", path.Base(name), err)
		}
		if t.Audit == "" {
			t.Audit = strings.TrimSuffix(path.Base(name), ".toml")
		}
		set.tables[t.Audit] = &t
	}

	if overridePath != "" {
		data, err := os.ReadFile(overridePath)
		if err != nil {
			return nil, fmt.Errorf("lendo regras do usuário %s: %w", overridePath, err)
		}
		var of overrideFile
		if err := toml.Unmarshal(data, &of); err != nil {
			return nil, fmt.Errorf("interpretando regras do usuário: %w", err)
		}
		for _, t := range of.Tables {
			set.merge(t)
		}
	}

	for _, t := range set.tables {
		if err := compile(t); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// LoadDefault carrega só as tabelas embutidas.
func LoadDefault() (*Set, error) {
	return Load("")
}

func (s *Set) merge(t Table) {
	cur, ok := s.tables[t.Audit]
	if !ok {
		tt := t
		s.tables[t.Audit] = &tt
		return
	}
	if t.Title != "" {
		cur.Title = t.Title
	}
	for _, c := range t.Categories {
		replaced := false
		for i := range cur.Categories {
			if cur.Categories[i].ID == c.ID {
				cur.Categories[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			cur.Categories = append(cur.Categories, c)
		}
	}
}

func (s *Set) Table(audit string) (*Table, bool) {
	t, ok := s.tables[audit]
	return t, ok
}

func (s *Set) Audits() []string {
	names := make([]string, 0, len(s.tables))
	for n := range s.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Category devolve a categoria pelo id.
func (t *Table) Category(id string) (*Category, bool) {
	for i := range t.Categories {
		if t.Categories[i].ID == id {
			return &t.Categories[i], true
		}
	}
	return nil, false
}

// AppliesTo indica se a categoria vale para o tipo de arquivo.
func (c *Category) AppliesTo(kind string) bool {
	if len(c.Kinds) == 0 {
		return true
	}
	for _, k := range c.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (c *Category) IsFileScope() bool {
	return c.Scope == ScopeFile
}

// Suppressed verifica as listas unless da categoria e da regra (sem diferenciar caixa).
func (c *Category) Suppressed(r *Rule, line string) bool {
	lower := strings.ToLower(line)
	for _, u := range c.Unless {
		if strings.Contains(lower, strings.ToLower(u)) {
			return true
		}
	}
	for _, u := range r.Unless {
		if strings.Contains(lower, strings.ToLower(u)) {
			return true
		}
	}
	return r.unlessRegex != nil && r.unlessRegex.MatchString(line)
}

// Match devolve os grupos do primeiro casamento e o offset de início, respeitando require_after.
func (r *Rule) Match(text string) (groups []string, start int, ok bool) {
	loc := r.regex.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, 0, false
	}
	if r.requireRegex != nil && !r.requireRegex.MatchString(text[loc[1]:]) {
		return nil, 0, false
	}
	groups = make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return groups, loc[0], true
}

// Render substitui {0}, {1}... pelos grupos capturados.
func Render(tmpl string, groups []string) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, 2*len(groups))
	for i, g := range groups {
		pairs = append(pairs, fmt.Sprintf("{%d}", i), g)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func compile(t *Table) error {
	for ci := range t.Categories {
		c := &t.Categories[ci]
		if c.Scope == "" {
			c.Scope = ScopeLine
		}
		if c.Scope != ScopeLine && c.Scope != ScopeFile {
			return fmt.Errorf("categoria %s.%s: scope inválido %q", t.Audit, c.ID, c.Scope)
		}
		for ri := range c.Rules {
			r := &c.Rules[ri]
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return fmt.Errorf("falha ao compilar regra %s.%s.%s: %w", t.Audit, c.ID, r.ID, err)
			}
			r.regex = re
			if r.UnlessPattern != "" {
				if r.unlessRegex, err = regexp.Compile(r.UnlessPattern); err != nil {
					return fmt.Errorf("falha ao compilar unless_pattern %s.%s: %w", c.ID, r.ID, err)
				}
			}
			if r.RequireAfter != "" {
				if r.requireRegex, err = regexp.Compile(r.RequireAfter); err != nil {
					return fmt.Errorf("falha ao compilar require_after %s.%s: %w", c.ID, r.ID, err)
				}
			}
			if r.Severity == "" {
				r.Severity = string(model.SevLow)
			}
			sev, err := model.ParseSeverity(r.Severity)
			if err != nil {
				return fmt.Errorf("regra %s.%s.%s: %w", t.Audit, c.ID, r.ID, err)
			}
			r.Severity = string(sev)
		}
	}
	return nil
}

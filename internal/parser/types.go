package parser

type SourceKind string

const (
	SCSS SourceKind = "scss"
	CSS  SourceKind = "css"
	PHP  SourceKind = "php"
	JS   SourceKind = "js"
)

// extensões reconhecidas por tipo
var kindByExt = map[string]SourceKind{
	".scss": SCSS,
	".sass": SCSS,
	".css":  CSS,
	".less": CSS,
	".php":  PHP,
	".js":   JS,
	".jsx":  JS,
	".mjs":  JS,
	".ts":   JS,
	".tsx":  JS,
}

// DefaultExcludes são os diretórios ignorados quando a configuração não define outros.
var DefaultExcludes = []string{"vendor", "node_modules", ".git", "build", "dist", ".cache", "tests"}

type SourceFile struct {
	Kind SourceKind
	Path string
	Rel  string // relativo à raiz da varredura, com "/"
}

package contrast

import (
	"regexp"
	"strings"
)

var (
	colorDecl      = regexp.MustCompile(`(?i)(?:^|[^-\w])color\s*:\s*([^;{}]+);`)
	backgroundDecl = regexp.MustCompile(`(?i)(?:^|[^-\w])background(?:-color)?\s*:\s*([^;{}]+);`)
	fontSizeDecl   = regexp.MustCompile(`(?i)(?:^|[^-\w])font-size\s*:\s*([^;{}]+);`)
	fontWeightDecl = regexp.MustCompile(`(?i)(?:^|[^-\w])font-weight\s*:\s*([^;{}]+);`)
)

// Block são as declarações relevantes de um bloco "seletor { ... }".
type Block struct {
	Line       int // linha do seletor, 1-based
	Selector   string
	Color      string
	Background string
	FontSize   string
	FontWeight string
}

func (b Block) Large() bool {
	return IsLargeText(b.FontSize, b.FontWeight)
}

// ExtractBlocks devolve os blocos que declaram cor de texto e fundo.
// O bloco vai do "{" até o primeiro "}" seguinte; aninhamento não é modelado.
func ExtractBlocks(content string) []Block {
	var blocks []Block
	line := 1
	lineStart := 0
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '\n':
			line++
			lineStart = i + 1
		case '{':
			end := strings.IndexByte(content[i+1:], '}')
			if end < 0 {
				return blocks
			}
			body := content[i+1 : i+1+end]
			b := Block{
				Line:     line,
				Selector: strings.TrimSpace(content[lineStart:i]),
			}
			b.Color = firstGroup(colorDecl, body)
			if bg := firstGroup(backgroundDecl, body); bg != "" && !isImageBackground(bg) {
				b.Background = bg
			}
			b.FontSize = firstGroup(fontSizeDecl, body)
			b.FontWeight = firstGroup(fontWeightDecl, body)
			if b.Color != "" && b.Background != "" {
				blocks = append(blocks, b)
			}
		}
	}
	return blocks
}

// HexToken devolve o primeiro token hexadecimal do valor ("#fff no-repeat" -> "#fff").
func HexToken(value string) (string, bool) {
	for _, field := range strings.Fields(value) {
		if strings.HasPrefix(field, "#") {
			return strings.TrimSuffix(field, "!important"), true
		}
	}
	return "", false
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func isImageBackground(v string) bool {
	return strings.Contains(v, "linear-gradient") ||
		strings.Contains(v, "radial-gradient") ||
		strings.Contains(v, "url(")
}

// Package contrast implementa a razão de contraste e a luminância relativa do WCAG 2.x.
package contrast

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	AANormal = 4.5
	AALarge  = 3.0
	AAA      = 7.0 // informativo, nunca reprovado

	maxRatio = 21.0
)

var ErrUnparseable = errors.New("cor hexadecimal inválida")

type RGB struct {
	R, G, B uint8
}

type ColorPair struct {
	Foreground RGB
	Background RGB
}

// ParseHex aceita #abc ou #aabbcc (o # é opcional). A forma curta duplica cada dígito.
func ParseHex(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("%w: %q tem %d dígitos", ErrUnparseable, s, len(hex))
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrUnparseable, s)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// HexToRGB devolve (0,0,0) para entrada malformada. Prefira ParseHex.
func HexToRGB(s string) RGB {
	rgb, err := ParseHex(s)
	if err != nil {
		return RGB{}
	}
	return rgb
}

// Linearize converte um canal sRGB normalizado em [0,1] para linear.
func Linearize(c float64) float64 {
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

func RelativeLuminance(rgb RGB) float64 {
	r := Linearize(float64(rgb.R) / 255.0)
	g := Linearize(float64(rgb.G) / 255.0)
	b := Linearize(float64(rgb.B) / 255.0)
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// Ratio é simétrica; com a cor mais escura de luminância 0 devolve exatamente 21.
func Ratio(a, b RGB) float64 {
	la, lb := RelativeLuminance(a), RelativeLuminance(b)
	lighter, darker := math.Max(la, lb), math.Min(la, lb)
	if darker == 0 {
		return maxRatio
	}
	return (lighter + 0.05) / (darker + 0.05)
}

func (p ColorPair) Ratio() float64 {
	return Ratio(p.Foreground, p.Background)
}

func ContrastRatio(fgHex, bgHex string) (float64, error) {
	fg, err := ParseHex(fgHex)
	if err != nil {
		return 0, fmt.Errorf("cor de texto: %w", err)
	}
	bg, err := ParseHex(bgHex)
	if err != nil {
		return 0, fmt.Errorf("cor de fundo: %w", err)
	}
	return Ratio(fg, bg), nil
}

func RequiredRatio(large bool) float64 {
	if large {
		return AALarge
	}
	return AANormal
}

// IsLargeText aplica a exceção de texto grande: negrito (bold/700+) ou
// font-size equivalente a 18px (14pt, 1.125rem/em).
func IsLargeText(fontSize, fontWeight string) bool {
	switch stripImportant(fontWeight) {
	case "bold", "bolder", "700", "800", "900":
		return true
	}

	size := stripImportant(fontSize)
	if size == "" {
		return false
	}
	for _, u := range []struct {
		suffix string
		min    float64
	}{
		{"px", 18},
		{"pt", 14},
		{"rem", 1.125},
		{"em", 1.125},
	} {
		if strings.HasSuffix(size, u.suffix) {
			v, err := strconv.ParseFloat(strings.TrimSuffix(size, u.suffix), 64)
			return err == nil && v >= u.min
		}
	}
	// valores sem unidade reconhecida: mantém a heurística do prefixo "18"
	return strings.HasPrefix(size, "18")
}

// stripImportant normaliza o valor: caixa baixa, sem espaços e sem !important.
func stripImportant(v string) string {
	v = strings.ToLower(strings.Join(strings.Fields(v), ""))
	return strings.TrimSuffix(v, "!important")
}

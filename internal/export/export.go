// Package export renders a palette as precompiler variable listings.
package export

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/jmylchreest/swatches/internal/colour"
	"github.com/jmylchreest/swatches/internal/palette"
)

//go:embed *.tmpl
var templates embed.FS

// Dialect is a stylesheet precompiler variable syntax.
type Dialect string

const (
	// DialectSass emits $name variables.
	DialectSass Dialect = "Sass"

	// DialectLess emits @name variables.
	DialectLess Dialect = "Less"
)

// ValidDialects returns the supported dialects.
func ValidDialects() []Dialect {
	return []Dialect{DialectSass, DialectLess}
}

// ParseDialect resolves a dialect name case-insensitively.
func ParseDialect(name string) (Dialect, error) {
	for _, d := range ValidDialects() {
		if strings.EqualFold(name, string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown dialect: %s (valid dialects: %v)", name, ValidDialects())
}

// Sigil returns the variable prefix of the dialect.
func (d Dialect) Sigil() (string, error) {
	switch d {
	case DialectSass:
		return "$", nil
	case DialectLess:
		return "@", nil
	default:
		return "", fmt.Errorf("unknown dialect: %s", d)
	}
}

// String implements pflag.Value.
func (d *Dialect) String() string {
	return string(*d)
}

// Set implements pflag.Value.
func (d *Dialect) Set(s string) error {
	parsed, err := ParseDialect(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Type implements pflag.Value.
func (d *Dialect) Type() string {
	return "dialect"
}

type templateData struct {
	Dialect Dialect
	Sigil   string
	Site    string
	Colours []palette.ColourCount
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"inc":    func(i int) int { return i + 1 },
		"render": colour.CanonicalRender,
	}
}

// Render returns the variable listing of the palette in the given dialect.
// Each unique colour becomes one numbered variable in palette order.
func Render(p *palette.Palette, d Dialect) (string, error) {
	if p == nil {
		return "", fmt.Errorf("palette cannot be nil")
	}

	sigil, err := d.Sigil()
	if err != nil {
		return "", err
	}

	tmplContent, err := templates.ReadFile("variables.tmpl")
	if err != nil {
		return "", fmt.Errorf("failed to read variables template: %w", err)
	}

	tmpl, err := template.New("variables").Funcs(templateFuncs()).Parse(string(tmplContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse variables template: %w", err)
	}

	data := templateData{
		Dialect: d,
		Sigil:   sigil,
		Site:    strings.ReplaceAll(p.InspectedSite, `"`, "&quot;"),
		Colours: p.Counts,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute variables template: %w", err)
	}

	return buf.String(), nil
}

// RenderAll renders every supported dialect, keyed by dialect.
func RenderAll(p *palette.Palette) (map[Dialect]string, error) {
	out := make(map[Dialect]string, len(ValidDialects()))
	for _, d := range ValidDialects() {
		text, err := Render(p, d)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d, err)
		}
		out[d] = text
	}
	return out, nil
}

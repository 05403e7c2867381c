// Package swatch renders a palette as a list of coloured terminal swatches.
package swatch

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"

	"github.com/jmylchreest/swatches/internal/colour"
	"github.com/jmylchreest/swatches/internal/palette"
)

// DefaultGradientWidth is the number of cells used to draw a gradient bar.
const DefaultGradientWidth = 24

// Options configures a Renderer.
type Options struct {
	// Plain disables all styling.
	Plain bool

	// GradientWidth is the width of gradient bars. Zero means DefaultGradientWidth.
	GradientWidth int
}

// Renderer draws swatches for a terminal.
type Renderer struct {
	opts     Options
	renderer *lipgloss.Renderer
	dim      lipgloss.Style
}

// New creates a renderer that styles output for w.
func New(w io.Writer, opts Options) *Renderer {
	if opts.GradientWidth <= 0 {
		opts.GradientWidth = DefaultGradientWidth
	}
	r := lipgloss.NewRenderer(w)
	if opts.Plain {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Renderer{
		opts:     opts,
		renderer: r,
		dim:      r.NewStyle().Faint(true),
	}
}

// SetColourProfile overrides the colour profile detected from the output.
func (r *Renderer) SetColourProfile(p termenv.Profile) {
	r.renderer.SetColorProfile(p)
}

// CountLabel returns "1 element" or "N elements".
func CountLabel(n int) string {
	if n == 1 {
		return "1 element"
	}
	return fmt.Sprintf("%d elements", n)
}

// Render returns the summary followed by one swatch per unique colour,
// most frequent first.
func (r *Renderer) Render(p *palette.Palette) string {
	var b strings.Builder
	b.WriteString(p.Summary())
	b.WriteString("\n")

	if p.Len() > 0 {
		b.WriteString("\n")
	}
	for i, c := range p.Counts {
		b.WriteString(r.Swatch(i+1, c))
		b.WriteString("\n")
	}
	return b.String()
}

// Swatch renders a single line: the 1-based position, the colour block with
// its label and the element count.
func (r *Renderer) Swatch(position int, c palette.ColourCount) string {
	index := fmt.Sprintf("%3d", position)
	count := CountLabel(c.Count)

	if r.opts.Plain {
		return fmt.Sprintf("%s  %s  %s", index, colour.CanonicalRender(c.Colour), count)
	}

	return fmt.Sprintf("%s  %s  %s", r.dim.Render(index), r.block(c.Colour), r.dim.Render(count))
}

func (r *Renderer) block(raw string) string {
	label := colour.CanonicalRender(raw)
	fg := lipgloss.Color("#000000")
	if colour.ForegroundFor(raw) == colour.ForegroundLight {
		fg = lipgloss.Color("#ffffff")
	}

	if colour.IsGradient(raw) {
		return r.gradientBar(raw) + " " + label
	}

	bg := colour.ToHex(raw)
	if hex, ok := colour.NamedHex(raw); ok {
		bg = hex
	}

	return r.renderer.NewStyle().
		Background(lipgloss.Color(bg)).
		Foreground(fg).
		Padding(0, 1).
		Render(label)
}

// gradientBar draws the stops of raw blended across GradientWidth cells.
func (r *Renderer) gradientBar(raw string) string {
	stops := Blend(raw, r.opts.GradientWidth)

	var b strings.Builder
	for _, hex := range stops {
		b.WriteString(r.renderer.NewStyle().Background(lipgloss.Color(hex)).Render(" "))
	}
	return b.String()
}

// Blend returns width hex colours interpolated evenly across the stops of a
// gradient string. Stops are blended in Lab space.
func Blend(raw string, width int) []string {
	var stops []colorful.Color
	for _, s := range colour.Stops(raw) {
		c, err := colorful.Hex(colour.ToHex(s))
		if err != nil {
			continue
		}
		stops = append(stops, c)
	}

	if width <= 0 || len(stops) == 0 {
		return nil
	}

	out := make([]string, width)
	if len(stops) == 1 || width == 1 {
		for i := range out {
			out[i] = stops[0].Hex()
		}
		return out
	}

	segments := float64(len(stops) - 1)
	for i := range out {
		pos := float64(i) / float64(width-1) * segments
		seg := int(pos)
		if seg >= len(stops)-1 {
			seg = len(stops) - 2
		}
		t := pos - float64(seg)
		out[i] = stops[seg].BlendLab(stops[seg+1], t).Clamped().Hex()
	}
	return out
}

// Package palette aggregates the per-element colours of a page scan into a
// deduplicated, frequency-ranked palette.
package palette

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Element is one scanned page element with a non-default background.
type Element struct {
	// Node is a selector that locates the element on the page.
	Node string `json:"node"`

	// Color is the raw computed CSS colour string.
	Color string `json:"color"`

	// CSS is the category tag used for filtering. It also names the CSS
	// property a substitution writes to.
	CSS string `json:"css"`
}

// Scan is the result of one page scan.
type Scan struct {
	Website string    `json:"website"`
	Colors  []Element `json:"colors"`
}

// Categories returns the distinct category tags of the scan in first-seen order.
func (s *Scan) Categories() []string {
	if s == nil {
		return nil
	}

	seen := make(map[string]bool)
	var categories []string
	for _, e := range s.Colors {
		if seen[e.CSS] {
			continue
		}
		seen[e.CSS] = true
		categories = append(categories, e.CSS)
	}
	return categories
}

// ColourCount is one unique colour and the number of elements carrying it.
type ColourCount struct {
	Colour string `json:"color"`
	Count  int    `json:"count"`
}

// Palette is the aggregated view of one inspection run. It is replaced, never
// patched, whenever the scan or filter changes.
type Palette struct {
	InspectedSite string `json:"website"`

	// Elements is the subset of the scan passing the active filter.
	Elements []Element `json:"elements"`

	// UniqueColours holds every distinct raw colour in first-seen order.
	UniqueColours []string `json:"unique_colors"`

	// Counts holds one entry per unique colour, most frequent first.
	Counts []ColourCount `json:"color_count"`
}

// Len returns the number of unique colours in the palette.
func (p *Palette) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Counts)
}

// Get returns the colour at the given 1-based swatch position.
func (p *Palette) Get(position int) (ColourCount, error) {
	if position < 1 || position > p.Len() {
		return ColourCount{}, fmt.Errorf("swatch out of range: %d (palette has %d colours)", position, p.Len())
	}
	return p.Counts[position-1], nil
}

// Summary returns the node and colour count line shown above the swatches.
func (p *Palette) Summary() string {
	nodes := len(p.Elements)
	nodeNoun := "node"
	if nodes != 1 {
		nodeNoun = "nodes"
	}

	colours := p.Len()
	colourNoun := "unique color identified."
	if colours != 1 {
		colourNoun = "unique colors identified."
	}

	return fmt.Sprintf("%d %s had colors.\n%d %s", nodes, nodeNoun, colours, colourNoun)
}

// ToJSON converts the palette to indented JSON.
func (p *Palette) ToJSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Aggregate filters the scan by category and counts occurrences of each raw
// colour string. An empty filter yields an empty palette. Colours are
// compared by exact string equality, so textually different spellings of the
// same colour count separately.
func Aggregate(scan *Scan, filter Filter) *Palette {
	p := &Palette{
		Elements:      []Element{},
		UniqueColours: []string{},
		Counts:        []ColourCount{},
	}
	if scan == nil {
		return p
	}
	p.InspectedSite = scan.Website

	if filter.Empty() {
		return p
	}

	index := make(map[string]int)
	for _, e := range scan.Colors {
		if !filter.Has(e.CSS) {
			continue
		}
		p.Elements = append(p.Elements, e)

		if i, ok := index[e.Color]; ok {
			p.Counts[i].Count++
			continue
		}
		index[e.Color] = len(p.Counts)
		p.UniqueColours = append(p.UniqueColours, e.Color)
		p.Counts = append(p.Counts, ColourCount{Colour: e.Color, Count: 1})
	}

	sort.SliceStable(p.Counts, func(i, j int) bool {
		return p.Counts[i].Count > p.Counts[j].Count
	})

	return p
}

// Filter is the set of active category tags.
type Filter map[string]struct{}

// NewFilter creates a filter from category tags.
func NewFilter(categories ...string) Filter {
	f := make(Filter, len(categories))
	for _, c := range categories {
		f[c] = struct{}{}
	}
	return f
}

// ParseFilter parses a comma-separated list of category tags. Blank entries
// are ignored.
func ParseFilter(s string) Filter {
	var categories []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			categories = append(categories, part)
		}
	}
	return NewFilter(categories...)
}

// Has reports whether the category is active.
func (f Filter) Has(category string) bool {
	_, ok := f[category]
	return ok
}

// Empty reports whether no category is selected.
func (f Filter) Empty() bool {
	return len(f) == 0
}

// List returns the active categories in sorted order.
func (f Filter) List() []string {
	out := make([]string, 0, len(f))
	for c := range f {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// String implements fmt.Stringer and pflag.Value.
func (f Filter) String() string {
	return strings.Join(f.List(), ",")
}

// Set implements pflag.Value.
func (f *Filter) Set(s string) error {
	*f = ParseFilter(s)
	return nil
}

// Type implements pflag.Value.
func (f *Filter) Type() string {
	return "categories"
}

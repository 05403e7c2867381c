package page

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/swatches/internal/colour"
	"github.com/jmylchreest/swatches/internal/palette"
	"github.com/jmylchreest/swatches/internal/substitute"
	httputil "github.com/jmylchreest/swatches/internal/util/http"
)

// ErrReadOnly is returned when applying to a page that cannot be written.
var ErrReadOnly = errors.New("page is read-only")

var (
	commentRegex    = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	ruleRegex       = regexp.MustCompile(`([^{}]+)\{([^{}]*)\}`)
	backgroundRegex = regexp.MustCompile(`(?i)(?:^|;)\s*(background-color|background)\s*:\s*([^;]*)`)
	hexLiteralRegex = regexp.MustCompile(`#(?:[0-9a-fA-F]{6}|[0-9a-fA-F]{3})\b`)
	importantRegex  = regexp.MustCompile(`(?i)\s*!\s*important\s*$`)
)

// Stylesheet is a page reduced to its CSS: every rule with a background
// declaration counts as one element. Local stylesheets are rewritten in
// place on Apply; remote ones are read-only.
type Stylesheet struct {
	source  string
	logger  hclog.Logger
	options httputil.FetchOptions
	mu      sync.Mutex
}

// declaration is a background declaration and the byte range of its value.
type declaration struct {
	selector   string
	property   string
	colour     string
	important  bool
	start, end int
}

// NewStylesheet creates a stylesheet page read from a path or http(s) URL.
func NewStylesheet(source string, logger hclog.Logger) *Stylesheet {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Stylesheet{
		source: source,
		logger: logger,
		options: httputil.FetchOptions{
			Headers: map[string]string{"Accept": "text/css"},
		},
	}
}

// Source returns the stylesheet path or URL.
func (s *Stylesheet) Source() string { return s.source }

// Scan reports one element per background declaration.
func (s *Stylesheet) Scan(ctx context.Context) (*palette.Scan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	decls := parseStylesheet(content)
	scan := &palette.Scan{
		Website: s.website(),
		Colors:  make([]palette.Element, 0, len(decls)),
	}
	for _, d := range decls {
		scan.Colors = append(scan.Colors, palette.Element{
			Node:  d.selector,
			Color: d.colour,
			CSS:   d.property,
		})
	}

	s.logger.Debug("parsed stylesheet", "source", s.source, "elements", len(scan.Colors))
	return scan, nil
}

// Apply rewrites the matching declarations and replaces the file.
func (s *Stylesheet) Apply(ctx context.Context, req substitute.Request) error {
	if s.remote() {
		return fmt.Errorf("%s: %w", s.source, ErrReadOnly)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := s.read(ctx)
	if err != nil {
		return err
	}

	type target struct{ selector, property string }
	targets := make(map[target]struct{})
	for _, edit := range substitute.Plan(req) {
		targets[target{edit.Selector, edit.Property}] = struct{}{}
	}
	if len(targets) == 0 {
		return nil
	}

	value := strings.TrimSpace(req.NewColourValue)
	value = importantRegex.ReplaceAllString(value, "")

	var matched []declaration
	for _, d := range parseStylesheet(content) {
		if d.colour != req.PreviousColourValue {
			continue
		}
		if _, ok := targets[target{d.selector, d.property}]; ok {
			matched = append(matched, d)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	// Rewrite back to front so earlier offsets stay valid.
	sort.Slice(matched, func(i, j int) bool { return matched[i].start > matched[j].start })
	for _, d := range matched {
		replacement := value
		if d.important {
			replacement += " !important"
		}
		content = content[:d.start] + replacement + content[d.end:]
	}

	s.logger.Debug("writing stylesheet", "path", s.source, "declarations", len(matched))
	return writeAtomic(s.source, []byte(content))
}

// Close is a no-op.
func (s *Stylesheet) Close() error { return nil }

func (s *Stylesheet) remote() bool {
	return isURL(s.source)
}

func (s *Stylesheet) website() string {
	if s.remote() {
		if u, err := url.Parse(s.source); err == nil && u.Host != "" {
			return u.Host
		}
	}
	return filepath.Base(s.source)
}

func (s *Stylesheet) read(ctx context.Context) (string, error) {
	if s.remote() {
		data, err := httputil.Fetch(ctx, s.source, s.options)
		if err != nil {
			return "", fmt.Errorf("failed to fetch stylesheet %s: %w", s.source, err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(s.source) // #nosec G304 - User-specified stylesheet, intended to be read
	if err != nil {
		return "", fmt.Errorf("failed to read stylesheet: %w", err)
	}
	return string(data), nil
}

// parseStylesheet finds every background declaration in content. Offsets
// refer to content itself; comments are blanked before matching.
func parseStylesheet(content string) []declaration {
	blanked := commentRegex.ReplaceAllStringFunc(content, func(m string) string {
		return strings.Repeat(" ", len(m))
	})

	var decls []declaration
	for _, rule := range ruleRegex.FindAllStringSubmatchIndex(blanked, -1) {
		selector := normaliseSelector(blanked[rule[2]:rule[3]])
		if selector == "" || strings.HasPrefix(selector, "@") {
			continue
		}

		bodyStart := rule[4]
		body := blanked[rule[4]:rule[5]]
		for _, m := range backgroundRegex.FindAllStringSubmatchIndex(body, -1) {
			start, end := bodyStart+m[4], bodyStart+m[5]
			for end > start && isSpace(content[end-1]) {
				end--
			}

			raw := content[start:end]
			c := colourOf(raw)
			if c == "" {
				continue
			}

			decls = append(decls, declaration{
				selector:  selector,
				property:  strings.ToLower(body[m[2]:m[3]]),
				colour:    c,
				important: importantRegex.MatchString(raw),
				start:     start,
				end:       end,
			})
		}
	}
	return decls
}

// normaliseSelector drops anything before the last statement terminator
// (such as an @import) and collapses whitespace.
func normaliseSelector(s string) string {
	if i := strings.LastIndexByte(s, ';'); i >= 0 {
		s = s[i+1:]
	}
	return strings.Join(strings.Fields(s), " ")
}

// colourOf reports a declaration value the way a browser's computed style
// would: hex literals and named colours as rgb(), gradients with every stop
// as rgb(). Values without a colour yield "".
func colourOf(value string) string {
	value = importantRegex.ReplaceAllString(strings.TrimSpace(value), "")
	value = hexLiteralRegex.ReplaceAllStringFunc(value, colour.Computed)

	if colour.IsGradient(value) {
		return value
	}
	if stops := colour.Stops(value); len(stops) > 0 {
		return stops[0]
	}

	tokens := strings.FieldsFunc(value, func(r rune) bool {
		return r == ' ' || r == ',' || r == '/' || r == '\t' || r == '\n'
	})
	for _, token := range tokens {
		if colour.IsNamed(token) {
			return colour.Computed(token)
		}
	}
	return ""
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

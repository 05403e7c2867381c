package page

import (
	"context"
	"strings"
	"sync"

	"github.com/jmylchreest/swatches/internal/colour"
	"github.com/jmylchreest/swatches/internal/palette"
	"github.com/jmylchreest/swatches/internal/substitute"
)

// Document is an in-memory page. Applying a request rewrites the colour of
// every element sharing an edited selector and property. Written colours
// read back in computed rgb() form, as a browser reports them.
type Document struct {
	mu      sync.Mutex
	scan    *palette.Scan
	applied []substitute.Edit
}

// NewDocument creates a document holding a copy of scan.
func NewDocument(scan *palette.Scan) *Document {
	if scan == nil {
		scan = &palette.Scan{}
	}
	c := scan.Clone()
	if c.Colors == nil {
		c.Colors = []palette.Element{}
	}
	return &Document{scan: c}
}

// Scan returns a copy of the current document state.
func (d *Document) Scan(ctx context.Context) (*palette.Scan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scan.Clone(), nil
}

// Apply performs the planned edits of req. A cancelled context leaves the
// document untouched.
func (d *Document) Apply(ctx context.Context, req substitute.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	edits := substitute.Plan(req)

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, edit := range edits {
		for i, e := range d.scan.Colors {
			if strings.TrimSpace(e.Node) == edit.Selector && e.CSS == edit.Property {
				d.scan.Colors[i].Color = colour.Computed(edit.Value)
			}
		}
		d.applied = append(d.applied, edit)
	}
	return nil
}

// Edits returns every edit applied so far, in order.
func (d *Document) Edits() []substitute.Edit {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]substitute.Edit, len(d.applied))
	copy(out, d.applied)
	return out
}

// Close is a no-op.
func (d *Document) Close() error { return nil }

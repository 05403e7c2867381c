// Package session holds the state of an inspection panel: the page being
// inspected, the active category filter and the palette last derived from
// a scan of that page.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/swatches/internal/page"
	"github.com/jmylchreest/swatches/internal/palette"
	"github.com/jmylchreest/swatches/internal/substitute"
)

// ErrBusy is returned when an operation is started while another one is
// still running. Operations are never queued.
var ErrBusy = errors.New("another operation is in progress")

// ScanError reports a failed page scan. The palette is left as it was.
type ScanError struct {
	RunID string
	Err   error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("page scan failed: %v", e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// Controller drives scans and substitutions against a page and owns the
// resulting palette. Palettes are replaced wholesale and never mutated.
type Controller struct {
	page      page.Page
	engine    *substitute.Engine
	logger    hclog.Logger
	onLoading func(bool)

	busy atomic.Bool

	mu       sync.RWMutex
	filter   palette.Filter
	current  *palette.Palette
	lastScan *palette.Scan
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFilter sets the initial category filter. Without it every category
// reported by the page is selected.
func WithFilter(filter palette.Filter) Option {
	return func(c *Controller) {
		c.filter = filter
	}
}

// WithOnLoading registers a hook called with true when an operation starts
// and false when it finishes.
func WithOnLoading(fn func(bool)) Option {
	return func(c *Controller) {
		c.onLoading = fn
	}
}

// New creates a controller for p. The palette is empty until the first Refresh.
func New(p page.Page, opts ...Option) *Controller {
	c := &Controller{
		page:   p,
		engine: substitute.NewEngine(p),
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("session")
	c.current = palette.Aggregate(nil, nil)
	return c
}

// Palette returns the current palette.
func (c *Controller) Palette() *palette.Palette {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// LastScan returns a copy of the most recent successful scan, or nil.
func (c *Controller) LastScan() *palette.Scan {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastScan.Clone()
}

// Filter returns the active filter. A nil filter selects every category.
func (c *Controller) Filter() palette.Filter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.filter == nil {
		return nil
	}
	return palette.NewFilter(c.filter.List()...)
}

// Busy reports whether an operation is running.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// Refresh rescans the page and rebuilds the palette.
func (c *Controller) Refresh(ctx context.Context) (*palette.Palette, error) {
	r, done, err := c.begin("refresh")
	if err != nil {
		return nil, err
	}
	defer done()

	return c.refresh(ctx, r)
}

// SetFilter replaces the category filter and rebuilds the palette from a
// fresh scan. A nil filter selects every category.
func (c *Controller) SetFilter(ctx context.Context, filter palette.Filter) (*palette.Palette, error) {
	r, done, err := c.begin("filter")
	if err != nil {
		return nil, err
	}
	defer done()

	c.mu.Lock()
	c.filter = filter
	c.mu.Unlock()

	r.logger.Debug("filter changed", "categories", filter.String())
	return c.refresh(ctx, r)
}

// Substitute replaces oldColour with newColour on every element of the
// last unfiltered scan, then rescans. Invalid replacement colours fail with
// substitute.ErrInvalidColour before the page is touched.
func (c *Controller) Substitute(ctx context.Context, oldColour, newColour string) (*substitute.Result, error) {
	r, done, err := c.begin("substitute")
	if err != nil {
		return nil, err
	}
	defer done()

	if err := substitute.Validate(newColour); err != nil {
		r.logger.Warn("rejected replacement colour", "colour", newColour)
		return nil, err
	}

	c.mu.RLock()
	scan := c.lastScan.Clone()
	c.mu.RUnlock()

	if scan == nil {
		scan, err = c.page.Scan(ctx)
		if err != nil {
			r.logger.Error("scan failed", "error", err)
			return nil, &ScanError{RunID: r.id, Err: err}
		}
	}

	result, err := c.engine.Substitute(ctx, oldColour, newColour, scan.Colors)
	if err != nil {
		if errors.Is(err, substitute.ErrInvalidColour) {
			r.logger.Warn("rejected replacement colour", "colour", newColour)
		} else {
			r.logger.Error("substitution failed", "error", err)
		}
		return nil, err
	}
	r.logger.Info("substituted colour", "from", oldColour, "to", newColour, "edits", len(result.Edits))

	if _, err := c.refresh(ctx, r); err != nil {
		return result, err
	}
	return result, nil
}

// run is one in-flight operation.
type run struct {
	id     string
	logger hclog.Logger
}

// begin claims the in-flight slot for op.
func (c *Controller) begin(op string) (*run, func(), error) {
	if !c.busy.CompareAndSwap(false, true) {
		c.logger.Debug("operation rejected", "op", op, "reason", "busy")
		return nil, nil, ErrBusy
	}

	id := uuid.NewString()
	r := &run{id: id, logger: c.logger.With("op", op, "run", id)}
	c.loading(true)

	return r, func() {
		c.loading(false)
		c.busy.Store(false)
	}, nil
}

func (c *Controller) loading(on bool) {
	if c.onLoading != nil {
		c.onLoading(on)
	}
}

func (c *Controller) refresh(ctx context.Context, r *run) (*palette.Palette, error) {
	scan, err := c.page.Scan(ctx)
	if err != nil {
		r.logger.Error("scan failed", "error", err)
		return nil, &ScanError{RunID: r.id, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	filter := c.filter
	if filter == nil {
		filter = palette.NewFilter(scan.Categories()...)
	}

	c.lastScan = scan
	c.current = palette.Aggregate(scan, filter)

	r.logger.Debug("palette rebuilt", "site", c.current.InspectedSite,
		"elements", len(c.current.Elements), "colours", c.current.Len())
	return c.current, nil
}


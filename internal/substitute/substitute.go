// Package substitute rewrites one colour across every page element carrying it.
package substitute

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmylchreest/swatches/internal/colour"
	"github.com/jmylchreest/swatches/internal/palette"
)

// ErrInvalidColour is returned when the replacement is not a hex literal or
// named colour. Nothing is applied.
var ErrInvalidColour = errors.New("invalid color")

// Request is the parameter object handed to a page-side applier.
type Request struct {
	NewColourValue       string            `json:"newColorValue"`
	PreviousColourValue  string            `json:"previousColorValue"`
	UserFilteredElements []palette.Element `json:"userFilteredElements"`
}

// Edit is a single style write on the page.
type Edit struct {
	Selector string `json:"selector"`
	Property string `json:"property"`
	Value    string `json:"value"`
}

// Applier performs a substitution request against a page.
type Applier interface {
	Apply(ctx context.Context, req Request) error
}

// Plan returns the edits a request implies: one per element whose colour
// equals the previous value exactly and whose selector is not blank.
func Plan(req Request) []Edit {
	var edits []Edit
	for _, e := range req.UserFilteredElements {
		if e.Color != req.PreviousColourValue {
			continue
		}
		selector := strings.TrimSpace(e.Node)
		if selector == "" {
			continue
		}
		edits = append(edits, Edit{
			Selector: selector,
			Property: e.CSS,
			Value:    req.NewColourValue,
		})
	}
	return edits
}

// Result describes a submitted substitution.
type Result struct {
	Request Request
	Edits   []Edit
}

// Engine validates substitutions and forwards them to the page.
type Engine struct {
	applier Applier
}

// NewEngine creates an engine that applies through the given page.
func NewEngine(applier Applier) *Engine {
	return &Engine{applier: applier}
}

// Validate reports ErrInvalidColour unless newColour is acceptable as a
// replacement.
func Validate(newColour string) error {
	if !colour.IsValidInput(newColour) {
		return fmt.Errorf("%w: %q", ErrInvalidColour, newColour)
	}
	return nil
}

// Substitute replaces oldColour with newColour on every element of the
// original, unfiltered scan. The edit is best effort and not transactional.
func (e *Engine) Substitute(ctx context.Context, oldColour, newColour string, original []palette.Element) (*Result, error) {
	if err := Validate(newColour); err != nil {
		return nil, err
	}

	req := Request{
		NewColourValue:       newColour,
		PreviousColourValue:  oldColour,
		UserFilteredElements: original,
	}

	if err := e.applier.Apply(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to apply %s -> %s: %w", oldColour, newColour, err)
	}

	return &Result{Request: req, Edits: Plan(req)}, nil
}

package page

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/swatches/internal/palette"
	"github.com/jmylchreest/swatches/internal/substitute"
	"github.com/jmylchreest/swatches/pkg/plugin"
)

// ErrNotApplied is returned when a page plugin or bridged page reports that
// it did not complete a substitution.
var ErrNotApplied = errors.New("page did not apply the substitution")

// PluginClient is the subset of the plugin executor used by Plugin.
type PluginClient interface {
	Scan(ctx context.Context) (plugin.ScanResult, error)
	Apply(ctx context.Context, req plugin.ApplyRequest) (bool, error)
	Close()
}

// Plugin is a page reached through an external page plugin.
type Plugin struct {
	client PluginClient
	logger hclog.Logger
}

// NewPlugin wraps a plugin client as a page.
func NewPlugin(client PluginClient, logger hclog.Logger) *Plugin {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Plugin{client: client, logger: logger}
}

// Scan asks the plugin for a scan.
func (p *Plugin) Scan(ctx context.Context) (*palette.Scan, error) {
	result, err := p.client.Scan(ctx)
	if err != nil {
		return nil, err
	}

	scan := &palette.Scan{
		Website: result.Website,
		Colors:  make([]palette.Element, 0, len(result.Colors)),
	}
	for _, c := range result.Colors {
		scan.Colors = append(scan.Colors, palette.Element{Node: c.Node, Color: c.Color, CSS: c.CSS})
	}
	return scan, nil
}

// Apply forwards req to the plugin.
func (p *Plugin) Apply(ctx context.Context, req substitute.Request) error {
	elements := make([]plugin.ElementColour, 0, len(req.UserFilteredElements))
	for _, e := range req.UserFilteredElements {
		elements = append(elements, plugin.ElementColour{Node: e.Node, Color: e.Color, CSS: e.CSS})
	}

	ok, err := p.client.Apply(ctx, plugin.ApplyRequest{
		NewColorValue:        req.NewColourValue,
		PreviousColorValue:   req.PreviousColourValue,
		UserFilteredElements: elements,
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrNotApplied, req.PreviousColourValue, req.NewColourValue)
	}
	return nil
}

// Close terminates the plugin process.
func (p *Plugin) Close() error {
	p.client.Close()
	return nil
}

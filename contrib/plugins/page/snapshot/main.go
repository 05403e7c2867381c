// snapshot - Snapshot Page Plugin (swatches page plugin)
//
// Serves a captured page scan from disk as if it were a live page. Scans
// return the file contents; substitutions are written back to the file.
// Uses the go-plugin RPC protocol; the JSON-stdio switches are also answered
// so the plugin can be driven by hand.
//
// Build:
//   go build -o swatches-snapshot ./contrib/plugins/page/snapshot
//
// Usage:
//   SWATCHES_SNAPSHOT=page.json swatches inspect -p plugin:./swatches-snapshot
//
// Environment:
//   SWATCHES_SNAPSHOT: snapshot file (default: snapshot.json)
//
// Author: swatches contributors
// License: MIT

package main

import (
	"context"
	"os"

	"github.com/jmylchreest/swatches/internal/page"
	"github.com/jmylchreest/swatches/internal/palette"
	"github.com/jmylchreest/swatches/internal/substitute"
	"github.com/jmylchreest/swatches/pkg/plugin"
)

// SnapshotPlugin implements plugin.PagePlugin over a snapshot file.
type SnapshotPlugin struct {
	file *page.File
}

// Scan reads the snapshot.
func (p *SnapshotPlugin) Scan(ctx context.Context) (plugin.ScanResult, error) {
	scan, err := p.file.Scan(ctx)
	if err != nil {
		return plugin.ScanResult{}, err
	}

	result := plugin.ScanResult{Website: scan.Website, Colors: make([]plugin.ElementColour, 0, len(scan.Colors))}
	for _, e := range scan.Colors {
		result.Colors = append(result.Colors, plugin.ElementColour{Node: e.Node, Color: e.Color, CSS: e.CSS})
	}
	return result, nil
}

// Apply writes the substitution to the snapshot.
func (p *SnapshotPlugin) Apply(ctx context.Context, req plugin.ApplyRequest) (bool, error) {
	elements := make([]palette.Element, 0, len(req.UserFilteredElements))
	for _, e := range req.UserFilteredElements {
		elements = append(elements, palette.Element{Node: e.Node, Color: e.Color, CSS: e.CSS})
	}

	err := p.file.Apply(ctx, substitute.Request{
		NewColourValue:       req.NewColorValue,
		PreviousColourValue:  req.PreviousColorValue,
		UserFilteredElements: elements,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetMetadata returns plugin metadata.
func (p *SnapshotPlugin) GetMetadata() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:            "snapshot",
		Version:         "0.1.0",
		ProtocolVersion: plugin.ProtocolVersion,
		Description:     "Serve a captured page scan from disk",
		PluginProtocol:  string(plugin.PluginTypeGoPlugin),
	}
}

func main() {
	path := os.Getenv("SWATCHES_SNAPSHOT")
	if path == "" {
		path = "snapshot.json"
	}

	plugin.Serve(&SnapshotPlugin{file: page.NewFile(path, nil)})
}

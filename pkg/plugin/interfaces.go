package plugin

import (
	"context"
)

// PagePlugin is the interface page plugins implement. A page plugin stands
// in for the inspected page: it reports element colours and applies colour
// substitutions.
type PagePlugin interface {
	// Scan returns the background colours of the page's visible elements.
	Scan(ctx context.Context) (ScanResult, error)

	// Apply performs a substitution against the page. The boolean result
	// tells the host to refresh.
	Apply(ctx context.Context, req ApplyRequest) (bool, error)

	// GetMetadata returns plugin metadata.
	GetMetadata() PluginInfo
}

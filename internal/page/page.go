// Package page provides the transports that reach the inspected page: a
// snapshot file, a remote HTTP endpoint, an external plugin or a websocket
// bridge to a page-side script.
package page

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/swatches/internal/palette"
	"github.com/jmylchreest/swatches/internal/plugin/executor"
	"github.com/jmylchreest/swatches/internal/security"
	"github.com/jmylchreest/swatches/internal/substitute"
)

// Location prefixes recognised by Open.
const (
	PrefixPlugin     = "plugin:"
	PrefixListen     = "listen:"
	PrefixStylesheet = "css:"
)

// Page is a scannable, editable page.
type Page interface {
	// Scan reports the colour of every inspected element.
	Scan(ctx context.Context) (*palette.Scan, error)

	// Apply rewrites the colour named in req on every matching element.
	Apply(ctx context.Context, req substitute.Request) error

	// Close releases any resources held by the transport.
	Close() error
}

// Open selects a transport for location:
//
//	ws://host:port/path   websocket bridge listening on host:port
//	listen:host:port      websocket bridge listening on host:port
//	http(s)://...         remote page endpoint
//	plugin:/path/to/bin   external page plugin
//	css:<path or URL>     stylesheet, also chosen for paths ending in .css
//	anything else         snapshot file path
func Open(ctx context.Context, location string, logger hclog.Logger) (Page, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("page")

	switch {
	case location == "":
		return nil, fmt.Errorf("no page location given")

	case strings.HasPrefix(location, "ws://"):
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("invalid bridge address %q: %w", location, err)
		}
		return listen(u.Host, u.Path, logger)

	case strings.HasPrefix(location, PrefixListen):
		return listen(strings.TrimPrefix(location, PrefixListen), "", logger)

	case strings.HasPrefix(location, PrefixStylesheet):
		source := strings.TrimPrefix(location, PrefixStylesheet)
		if isURL(source) {
			if err := security.ValidateHTTPURL(source); err != nil {
				return nil, err
			}
		}
		return NewStylesheet(source, logger), nil

	case isURL(location):
		if err := security.ValidateHTTPURL(location); err != nil {
			return nil, err
		}
		return NewRemote(location, logger), nil

	case strings.HasPrefix(location, PrefixPlugin):
		path := strings.TrimPrefix(location, PrefixPlugin)
		if err := security.ValidatePluginPath(path); err != nil {
			return nil, err
		}
		exec, err := executor.New(ctx, path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load page plugin %s: %w", path, err)
		}
		return NewPlugin(exec, logger), nil

	case strings.EqualFold(filepath.Ext(location), ".css"):
		return NewStylesheet(location, logger), nil

	default:
		return NewFile(location, logger), nil
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func listen(addr, path string, logger hclog.Logger) (Page, error) {
	b, err := Listen(addr, path, logger)
	if err != nil {
		return nil, err
	}
	return b, nil
}

package page

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/swatches/internal/palette"
	"github.com/jmylchreest/swatches/internal/substitute"
	httputil "github.com/jmylchreest/swatches/internal/util/http"
)

// Remote is a page served over HTTP: GET returns the scan, POST with a
// substitution request applies it.
type Remote struct {
	url     string
	logger  hclog.Logger
	options httputil.FetchOptions
}

// NewRemote creates a remote page at url.
func NewRemote(url string, logger hclog.Logger) *Remote {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Remote{url: url, logger: logger}
}

// WithHeader adds a header sent with every request.
func (r *Remote) WithHeader(key, value string) *Remote {
	if r.options.Headers == nil {
		r.options.Headers = make(map[string]string)
	}
	r.options.Headers[key] = value
	return r
}

// Scan fetches the scan from the endpoint.
func (r *Remote) Scan(ctx context.Context) (*palette.Scan, error) {
	r.logger.Debug("fetching scan", "url", r.url)

	data, err := httputil.Fetch(ctx, r.url, r.options)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scan from %s: %w", r.url, err)
	}
	return palette.ParseScan(data)
}

// Apply posts the request to the endpoint.
func (r *Remote) Apply(ctx context.Context, req substitute.Request) error {
	r.logger.Debug("posting substitution", "url", r.url,
		"previous", req.PreviousColourValue, "new", req.NewColourValue)

	if _, err := httputil.PostJSON(ctx, r.url, req, r.options); err != nil {
		return fmt.Errorf("failed to apply substitution at %s: %w", r.url, err)
	}
	return nil
}

// Close is a no-op.
func (r *Remote) Close() error { return nil }

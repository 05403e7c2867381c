package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-plugin"
)

// Serve runs a page plugin. It answers --plugin-info itself, handles the
// JSON-stdio switches when the plugin declares that protocol, and otherwise
// hands over to go-plugin.
func Serve(impl PagePlugin) {
	if len(os.Args) > 1 {
		if err := RunJSON(context.Background(), impl, os.Args[1], os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			PluginName: &PagePluginRPC{Impl: impl},
		},
	})
}

// RunJSON executes a single JSON-stdio command against impl.
func RunJSON(ctx context.Context, impl PagePlugin, arg string, stdin io.Reader, stdout io.Writer) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")

	switch arg {
	case ArgPluginInfo:
		return encoder.Encode(impl.GetMetadata())
	case ArgScan:
		result, err := impl.Scan(ctx)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		return encoder.Encode(result)
	case ArgApply:
		var req ApplyRequest
		if err := json.NewDecoder(stdin).Decode(&req); err != nil {
			return fmt.Errorf("failed to decode apply request: %w", err)
		}
		ok, err := impl.Apply(ctx, req)
		if err != nil {
			return fmt.Errorf("apply failed: %w", err)
		}
		return encoder.Encode(ok)
	default:
		return fmt.Errorf("unknown argument: %s", arg)
	}
}

package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/jmylchreest/swatches/pkg/plugin"
)

// DetectTimeout bounds the --plugin-info query.
const DetectTimeout = 5 * time.Second

// PluginType is an alias to the public plugin.PluginType type.
type PluginType = plugin.PluginType

// PluginInfo is an alias to the public plugin.PluginInfo type.
type PluginInfo = plugin.PluginInfo

const (
	PluginTypeGoPlugin = plugin.PluginTypeGoPlugin
	PluginTypeJSON     = plugin.PluginTypeJSON
)

// DetectorResult contains information about a detected plugin protocol.
type DetectorResult struct {
	// Type indicates which protocol the plugin uses.
	Type PluginType

	// PluginInfo contains metadata from --plugin-info.
	PluginInfo PluginInfo
}

// DetectProtocol queries a plugin binary with --plugin-info and works out
// which protocol it speaks. Plugins reporting an incompatible protocol
// version are rejected.
func DetectProtocol(ctx context.Context, pluginPath string) (*DetectorResult, error) {
	ctx, cancel := context.WithTimeout(ctx, DetectTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, pluginPath, plugin.ArgPluginInfo).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to query plugin: %w", err)
	}

	return ParseInfo(output)
}

// ParseInfo interprets --plugin-info output.
func ParseInfo(output []byte) (*DetectorResult, error) {
	var info PluginInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("failed to parse plugin info: %w", err)
	}

	if info.ProtocolVersion != "" {
		if _, err := IsCompatible(info.ProtocolVersion); err != nil {
			return nil, fmt.Errorf("plugin %s: %w", info.Name, err)
		}
	}

	result := &DetectorResult{PluginInfo: info}

	switch info.PluginProtocol {
	case string(PluginTypeGoPlugin):
		result.Type = PluginTypeGoPlugin
	case string(PluginTypeJSON), "":
		// Empty defaults to json-stdio.
		result.Type = PluginTypeJSON
	default:
		return nil, fmt.Errorf("unknown plugin_protocol: %s", info.PluginProtocol)
	}

	return result, nil
}

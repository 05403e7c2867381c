// Package executor runs external page plugins regardless of their
// underlying protocol (go-plugin RPC or JSON-stdio).
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"

	"github.com/jmylchreest/swatches/internal/plugin/protocol"
	"github.com/jmylchreest/swatches/pkg/plugin"
)

// PluginExecutor provides a unified interface for executing page plugins.
type PluginExecutor struct {
	path         string
	protocolType protocol.PluginType
	info         protocol.PluginInfo
	runner       ProcessRunner
	logger       hclog.Logger

	client    *goplugin.Client
	rpcClient *plugin.PagePluginRPCClient
}

// New creates a PluginExecutor by querying the plugin for its protocol.
func New(ctx context.Context, pluginPath string, logger hclog.Logger) (*PluginExecutor, error) {
	result, err := protocol.DetectProtocol(ctx, pluginPath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect plugin protocol: %w", err)
	}

	e := NewWithRunner(pluginPath, result.Type, ExecRunner{}, logger)
	e.info = result.PluginInfo

	e.logger.Debug("detected plugin",
		"name", result.PluginInfo.Name,
		"version", result.PluginInfo.Version,
		"protocol", result.Type)

	return e, nil
}

// NewWithRunner creates a PluginExecutor for a known protocol using the
// given process runner for JSON-stdio calls.
func NewWithRunner(pluginPath string, protocolType protocol.PluginType, runner ProcessRunner, logger hclog.Logger) *PluginExecutor {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &PluginExecutor{
		path:         pluginPath,
		protocolType: protocolType,
		runner:       runner,
		logger:       logger.Named("plugin"),
	}
}

// Info returns the metadata reported by the plugin, if it was detected.
func (e *PluginExecutor) Info() protocol.PluginInfo {
	return e.info
}

// Scan asks the plugin for the page's element colours.
func (e *PluginExecutor) Scan(ctx context.Context) (plugin.ScanResult, error) {
	switch e.protocolType {
	case protocol.PluginTypeGoPlugin:
		client, err := e.getRPCClient()
		if err != nil {
			return plugin.ScanResult{}, err
		}
		return client.Scan(ctx)
	case protocol.PluginTypeJSON:
		return e.scanJSON(ctx)
	default:
		return plugin.ScanResult{}, fmt.Errorf("unsupported protocol type: %s", e.protocolType)
	}
}

// Apply asks the plugin to perform a substitution.
func (e *PluginExecutor) Apply(ctx context.Context, req plugin.ApplyRequest) (bool, error) {
	switch e.protocolType {
	case protocol.PluginTypeGoPlugin:
		client, err := e.getRPCClient()
		if err != nil {
			return false, err
		}
		return client.Apply(ctx, req)
	case protocol.PluginTypeJSON:
		return e.applyJSON(ctx, req)
	default:
		return false, fmt.Errorf("unsupported protocol type: %s", e.protocolType)
	}
}

// Close cleans up any resources held by the executor.
func (e *PluginExecutor) Close() {
	if e.client != nil {
		e.client.Kill()
		e.client = nil
		e.rpcClient = nil
	}
}

// --- Go-Plugin RPC implementation ---

// getRPCClient starts the plugin process on first use and reuses it after.
func (e *PluginExecutor) getRPCClient() (*plugin.PagePluginRPCClient, error) {
	if e.rpcClient != nil {
		return e.rpcClient, nil
	}

	e.client = goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig: plugin.Handshake,
		Plugins: map[string]goplugin.Plugin{
			plugin.PluginName: &plugin.PagePluginRPC{},
		},
		Cmd:              exec.Command(e.path),
		AllowedProtocols: []goplugin.Protocol{goplugin.ProtocolNetRPC},
		Logger:           e.logger,
	})

	rpcClient, err := e.client.Client()
	if err != nil {
		e.client.Kill()
		e.client = nil
		return nil, fmt.Errorf("failed to get RPC client: %w", err)
	}

	raw, err := rpcClient.Dispense(plugin.PluginName)
	if err != nil {
		e.client.Kill()
		e.client = nil
		return nil, fmt.Errorf("failed to dispense plugin: %w", err)
	}

	client, ok := raw.(*plugin.PagePluginRPCClient)
	if !ok {
		e.client.Kill()
		e.client = nil
		return nil, fmt.Errorf("plugin dispensed unexpected type %T", raw)
	}
	e.rpcClient = client

	return client, nil
}

// --- JSON-stdio implementation ---

func (e *PluginExecutor) run(ctx context.Context, arg string, stdin []byte) ([]byte, error) {
	e.logger.Debug("running plugin", "path", e.path, "arg", arg)

	stdout, stderr, err := e.runner.Run(ctx, e.path, []string{arg}, bytes.NewReader(stdin))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("plugin %s: %w", arg, ctx.Err())
		}
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("plugin execution failed: %s", msg)
	}
	return stdout, nil
}

func (e *PluginExecutor) scanJSON(ctx context.Context) (plugin.ScanResult, error) {
	stdout, err := e.run(ctx, plugin.ArgScan, nil)
	if err != nil {
		return plugin.ScanResult{}, err
	}

	stdout = bytes.TrimSpace(stdout)

	// Script injection returns an array whose first element is the scan.
	if len(stdout) > 0 && stdout[0] == '[' {
		var results []plugin.ScanResult
		if err := json.Unmarshal(stdout, &results); err != nil {
			return plugin.ScanResult{}, fmt.Errorf("failed to parse plugin output: %w", err)
		}
		if len(results) == 0 {
			return plugin.ScanResult{}, fmt.Errorf("plugin returned an empty scan")
		}
		return results[0], nil
	}

	var result plugin.ScanResult
	if err := json.Unmarshal(stdout, &result); err != nil {
		return plugin.ScanResult{}, fmt.Errorf("failed to parse plugin output: %w\nOutput: %s", err, stdout)
	}
	return result, nil
}

func (e *PluginExecutor) applyJSON(ctx context.Context, req plugin.ApplyRequest) (bool, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return false, fmt.Errorf("failed to marshal apply request: %w", err)
	}

	stdout, err := e.run(ctx, plugin.ArgApply, reqJSON)
	if err != nil {
		return false, err
	}

	// Any truthy JSON value counts as completion.
	var result any
	if err := json.Unmarshal(bytes.TrimSpace(stdout), &result); err != nil {
		return false, fmt.Errorf("failed to parse plugin output: %w", err)
	}
	return truthy(result), nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

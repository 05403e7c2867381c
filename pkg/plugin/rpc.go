package plugin

import (
	"context"
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// PagePluginRPC implements the go-plugin Plugin interface for page plugins.
type PagePluginRPC struct {
	plugin.Plugin
	Impl PagePlugin
}

// Server returns an RPC server for this plugin.
func (p *PagePluginRPC) Server(*plugin.MuxBroker) (any, error) {
	return &PagePluginRPCServer{Impl: p.Impl}, nil
}

// Client returns an RPC client for this plugin.
func (p *PagePluginRPC) Client(_ *plugin.MuxBroker, c *rpc.Client) (any, error) {
	return &PagePluginRPCClient{client: c}, nil
}

// PagePluginRPCServer is the RPC server implementation for page plugins.
type PagePluginRPCServer struct {
	Impl PagePlugin
}

// Scan implements the RPC method for scanning the page.
func (s *PagePluginRPCServer) Scan(_ any, resp *ScanResult) error {
	result, err := s.Impl.Scan(context.Background())
	if err != nil {
		return err
	}
	*resp = result
	return nil
}

// Apply implements the RPC method for applying a substitution.
func (s *PagePluginRPCServer) Apply(req ApplyRequest, resp *bool) error {
	ok, err := s.Impl.Apply(context.Background(), req)
	if err != nil {
		return err
	}
	*resp = ok
	return nil
}

// GetMetadata implements the RPC method for fetching plugin metadata.
func (s *PagePluginRPCServer) GetMetadata(_ any, resp *PluginInfo) error {
	*resp = s.Impl.GetMetadata()
	return nil
}

// PagePluginRPCClient is the RPC client implementation for page plugins.
type PagePluginRPCClient struct {
	client *rpc.Client
}

// Scan calls the remote Scan method.
func (c *PagePluginRPCClient) Scan(_ context.Context) (ScanResult, error) {
	var result ScanResult
	err := c.client.Call("Plugin.Scan", new(any), &result)
	return result, err
}

// Apply calls the remote Apply method.
func (c *PagePluginRPCClient) Apply(_ context.Context, req ApplyRequest) (bool, error) {
	var ok bool
	err := c.client.Call("Plugin.Apply", req, &ok)
	return ok, err
}

// GetMetadata calls the remote GetMetadata method.
func (c *PagePluginRPCClient) GetMetadata() (PluginInfo, error) {
	var info PluginInfo
	err := c.client.Call("Plugin.GetMetadata", new(any), &info)
	return info, err
}

// RPCError represents an error returned from an RPC call.
type RPCError struct {
	Message string
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return e.Message
}

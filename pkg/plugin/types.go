package plugin

// ElementColour is one scanned element: a selector, its raw colour and the
// category/property tag.
type ElementColour struct {
	Node  string `json:"node"`
	Color string `json:"color"`
	CSS   string `json:"css"`
}

// ScanResult is what a page scanner returns.
type ScanResult struct {
	Website string          `json:"website"`
	Colors  []ElementColour `json:"colors"`
}

// ApplyRequest asks the page to replace one colour with another on every
// listed element whose colour matches.
type ApplyRequest struct {
	NewColorValue        string          `json:"newColorValue"`
	PreviousColorValue   string          `json:"previousColorValue"`
	UserFilteredElements []ElementColour `json:"userFilteredElements"`
}

// PluginInfo contains metadata about a plugin.
type PluginInfo struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	ProtocolVersion string `json:"protocol_version"`
	Description     string `json:"description"`
	PluginProtocol  string `json:"plugin_protocol"` // "json-stdio" or "go-plugin"
}

// Package dkit defines the request/response types for dkit IPC.
// Messages are JSON-encoded and sent over a Unix domain socket, one per line.
package dkit

// Request is sent from an editor front end to the daemon to ask for completions.
type Request struct {
	// RequestID is a per-session incrementing identifier assigned by the editor.
	// The daemon echoes it back in the response for ordering.
	RequestID int `json:"request_id"`
	// Source is the full contents of the buffer being edited.
	Source string `json:"source"`
	// CursorPos is the byte offset of the editor cursor within Source.
	CursorPos int `json:"cursor_pos"`
	// PrefixLen is the byte length of the partial identifier the editor is completing.
	PrefixLen int `json:"prefix_len"`
	// Settings optionally overlays the loaded configuration (dcd_port, dcd_path, include_paths).
	Settings map[string]any `json:"settings,omitempty"`
}

// Candidate is a single completion suggestion ready for display.
type Candidate struct {
	// Label is what the completion popup shows, e.g. "writeln\tfunction".
	Label string `json:"label" toml:"label"`
	// InsertText is what gets inserted when the candidate is accepted.
	InsertText string `json:"insert_text" toml:"insert_text"`
}

// Response is sent from the daemon back to the editor.
type Response struct {
	// RequestID is echoed from the request.
	RequestID int `json:"request_id"`
	// Candidates is the list of suggestions in the order the completion server produced them.
	Candidates []Candidate `json:"candidates"`
	// Error is set when the daemon cannot fulfill the request.
	Error *Error `json:"error,omitempty"`
}

// Error describes a daemon-side error returned to the editor.
type Error struct {
	// Code is a machine-readable error identifier (e.g. "not_configured", "client_error").
	Code string `json:"code" toml:"code"`
	// Message is a human-readable error description.
	Message string `json:"message" toml:"message"`
}

// ServerRequest is sent from the editor for everything that is not a completion query.
type ServerRequest struct {
	// Action is one of "start_server", "update_include_paths", "get", "reload",
	// "defaults", "validate", "list_installed", "create_project", "package_skeleton".
	Action string `json:"action"`
	// Path is the package file for "create_project".
	Path string `json:"path,omitempty"`
	// Settings optionally overlays the loaded configuration.
	Settings map[string]any `json:"settings,omitempty"`
}

// ServerResponse is sent from the daemon in response to a ServerRequest.
type ServerResponse struct {
	// OK is true when the action succeeded.
	OK bool `json:"ok"`
	// Config is the effective configuration (for "get", "reload" and "defaults").
	Config *Config `json:"config,omitempty"`
	// Packages lists installed dub packages (for "list_installed").
	Packages []string `json:"packages,omitempty"`
	// Path is the written project file (for "create_project").
	Path string `json:"path,omitempty"`
	// ServerID identifies the dcd-server launched by "start_server".
	ServerID string `json:"server_id,omitempty"`
	// Text carries the package skeleton (for "package_skeleton").
	Text string `json:"text,omitempty"`
	// Warnings contains configuration warnings (for "validate").
	Warnings []string `json:"warnings,omitempty"`
	// Error is set when the action fails.
	Error *Error `json:"error,omitempty"`
}

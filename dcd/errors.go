package dcd

import "fmt"

// ConfigError reports a DCD executable missing from the configured path.
// No server process is started when it is returned.
type ConfigError struct {
	Role string // "server" or "client"
	Path string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("DCD %s doesn't exist in the path specified: %s", e.Role, e.Path)
}

// ProtocolError reports a failure talking to dcd-client.
type ProtocolError struct {
	Op  string // "launch", "io" or "encode"
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("dcd-client %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

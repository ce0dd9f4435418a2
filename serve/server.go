package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"os"

	dkit "github.com/Paranoid-AF/dkit"
	"github.com/Paranoid-AF/dkit/complete"
	"github.com/Paranoid-AF/dkit/dcd"
	"github.com/Paranoid-AF/dkit/dub"
)

// maxRequestBytes bounds one request line; requests carry whole source buffers.
const maxRequestBytes = 16 << 20

// Completer processes editor requests.
type Completer interface {
	Complete(ctx context.Context, req *dkit.Request) *dkit.Response
	StartServer(settings map[string]any) (string, error)
	UpdateIncludePaths(ctx context.Context, settings map[string]any) error
	Config() *dkit.Config
	Reload() (*dkit.Config, error)
	ListInstalled(ctx context.Context) ([]string, error)
	CreateProject(ctx context.Context, packageFile string) (string, error)
	Close()
}

// Server listens on a Unix domain socket for editor requests.
type Server struct {
	listener net.Listener
	sockPath string
	engine   Completer
}

// NewServer creates a new IPC server bound to the given socket path.
func NewServer(sockPath string) (*Server, error) {
	return NewServerWithCompleter(sockPath, complete.NewEngine())
}

// NewServerWithCompleter creates a new IPC server with a custom Completer.
func NewServerWithCompleter(sockPath string, completer Completer) (*Server, error) {
	// Remove stale socket file if it exists
	if err := os.Remove(sockPath); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, err
	}

	return &Server{
		listener: listener,
		sockPath: sockPath,
		engine:   completer,
	}, nil
}

// Serve accepts connections and handles requests.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

// Close shuts down the server, stops dcd-server, and removes the socket file.
func (s *Server) Close() {
	s.engine.Close()
	s.listener.Close()
	os.Remove(s.sockPath)
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestBytes)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			slog.Warn("failed to read request", "error", err)
		}
		return
	}

	raw := scanner.Bytes()
	slog.Debug("request", "bytes", len(raw))

	// Check if this is a server request (has "action" field)
	var srvReq dkit.ServerRequest
	if err := json.Unmarshal(raw, &srvReq); err == nil && srvReq.Action != "" {
		s.handleServerRequest(conn, &srvReq)
		return
	}

	var req dkit.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		slog.Warn("invalid request", "error", err)
		return
	}

	// Requests are not cancelled: the client process runs to completion.
	resp := s.engine.Complete(context.Background(), &req)
	resp.RequestID = req.RequestID

	writeJSON(conn, resp)
}

func (s *Server) handleServerRequest(conn net.Conn, req *dkit.ServerRequest) {
	ctx := context.Background()
	engine := s.engine
	resp := dkit.ServerResponse{OK: true}

	switch req.Action {
	case "start_server":
		id, err := engine.StartServer(req.Settings)
		if err != nil {
			resp.Error = startError(err)
		} else {
			resp.ServerID = id
		}

	case "update_include_paths":
		if err := engine.UpdateIncludePaths(ctx, req.Settings); err != nil {
			resp.Error = &dkit.Error{Code: "client_error", Message: err.Error()}
		}

	case "get":
		resp.Config = engine.Config()

	case "reload":
		cfg, err := engine.Reload()
		if err != nil {
			resp.Error = &dkit.Error{Code: "config_error", Message: err.Error()}
		} else {
			resp.Config = cfg
		}

	case "defaults":
		resp.Config = dkit.DefaultConfig()

	case "validate":
		resp.Warnings = dkit.ValidateConfig(engine.Config())

	case "list_installed":
		pkgs, err := engine.ListInstalled(ctx)
		if err != nil {
			resp.Error = &dkit.Error{Code: "dub_error", Message: err.Error()}
		} else {
			resp.Packages = pkgs
		}

	case "create_project":
		if req.Path == "" {
			resp.Error = &dkit.Error{Code: "invalid_request", Message: "path is required"}
			break
		}
		path, err := engine.CreateProject(ctx, req.Path)
		if err != nil {
			resp.Error = &dkit.Error{Code: "dub_error", Message: err.Error()}
		} else {
			resp.Path = path
		}

	case "package_skeleton":
		resp.Text = dub.PackageSkeleton()

	default:
		resp.Error = &dkit.Error{
			Code:    "unknown_action",
			Message: "unknown action: " + req.Action,
		}
	}

	if resp.Error != nil {
		resp.OK = false
		slog.Warn("action failed", "action", req.Action, "code", resp.Error.Code, "error", resp.Error.Message)
	}
	writeJSON(conn, resp)
}

// startError maps a server start failure to a wire error; missing executables
// are the user-facing configuration problem.
func startError(err error) *dkit.Error {
	var cfgErr *dcd.ConfigError
	if errors.As(err, &cfgErr) {
		return &dkit.Error{
			Code:    "not_configured",
			Message: err.Error() + "; set dcd_path in " + dkit.ConfigPath() + " and restart the server",
		}
	}
	return &dkit.Error{Code: "config_error", Message: err.Error()}
}

func writeJSON(conn net.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal response", "error", err)
		return
	}

	slog.Debug("response", "data", string(data))

	conn.Write(append(data, '\n'))
}

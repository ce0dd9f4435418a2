package complete

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	dkit "github.com/Paranoid-AF/dkit"
	"github.com/Paranoid-AF/dkit/dcd"
	"github.com/Paranoid-AF/dkit/dub"
)

// Engine answers editor requests: it owns the configuration, the completion
// session and the dub tooling. Per-request failures are reported in the
// response and never tear the session down.
type Engine struct {
	session *Session

	mu     sync.RWMutex
	config *dkit.Config
	dub    *dub.Tool
}

// NewEngine creates an engine from the user's configuration.
func NewEngine() *Engine {
	cfg, err := dkit.LoadConfig()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = dkit.DefaultConfig()
	}
	for _, w := range dkit.ValidateConfig(cfg) {
		slog.Warn("config", "warning", w)
	}
	return NewEngineWith(cfg, NewSession(), dub.NewTool(cfg.DubPath))
}

// NewEngineWith creates an engine from explicit parts.
func NewEngineWith(cfg *dkit.Config, session *Session, dubTool *dub.Tool) *Engine {
	return &Engine{
		session: session,
		dub:     dubTool,
		config:  cfg,
	}
}

// Config returns the loaded configuration.
func (e *Engine) Config() *dkit.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

// Reload re-reads the configuration from disk. The running server keeps its
// arguments until the next restart; a changed dub_path takes effect at once.
func (e *Engine) Reload() (*dkit.Config, error) {
	cfg, err := dkit.LoadConfig()
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.config = cfg
	var stale *dub.Tool
	if e.dub == nil || e.dub.Path() != cfg.DubPath {
		stale = e.dub
		e.dub = dub.NewTool(cfg.DubPath)
	}
	e.mu.Unlock()
	if stale != nil {
		stale.Close()
	}
	slog.Info("config reloaded", "port", cfg.Port, "dcd_path", cfg.DCDPath, "dub_path", cfg.DubPath)
	return cfg, nil
}

func (e *Engine) dubTool() *dub.Tool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dub
}

// serverConfig overlays settings on the loaded configuration.
func (e *Engine) serverConfig(settings map[string]any) (dcd.ServerConfig, error) {
	cfg, err := dkit.ApplySettings(e.Config(), settings)
	if err != nil {
		return dcd.ServerConfig{}, err
	}
	return cfg.ServerConfig()
}

// Complete processes a completion request and returns a response.
func (e *Engine) Complete(ctx context.Context, req *dkit.Request) *dkit.Response {
	scfg, err := e.serverConfig(req.Settings)
	if err != nil {
		return errorResponse("invalid_request", err)
	}

	// Clamp positions the editor may report past the end of the buffer.
	pos := req.CursorPos
	if pos > len(req.Source) {
		pos = len(req.Source)
	}
	if pos < 0 {
		pos = 0
	}
	// The prefix lies before the cursor.
	prefixLen := min(max(req.PrefixLen, 0), pos)

	candidates, err := e.session.Resolve(ctx, scfg, req.Source, pos, prefixLen)
	if err != nil {
		var cfgErr *dcd.ConfigError
		if errors.As(err, &cfgErr) {
			slog.Error("dcd not configured", "error", err)
			return errorResponse("not_configured", err)
		}
		slog.Warn("completion failed", "error", err)
		return errorResponse("client_error", err)
	}
	return &dkit.Response{Candidates: candidates}
}

// StartServer restarts dcd-server with the configuration overlaid by settings
// and returns the new server's handle ID.
func (e *Engine) StartServer(settings map[string]any) (string, error) {
	scfg, err := e.serverConfig(settings)
	if err != nil {
		return "", err
	}
	h, err := e.session.Restart(scfg)
	if err != nil {
		return "", err
	}
	return h.ID, nil
}

// UpdateIncludePaths clears the server cache and re-adds the include paths.
func (e *Engine) UpdateIncludePaths(ctx context.Context, settings map[string]any) error {
	scfg, err := e.serverConfig(settings)
	if err != nil {
		return err
	}
	return e.session.UpdateIncludePaths(ctx, scfg)
}

// ListInstalled returns the dub packages installed on the system.
func (e *Engine) ListInstalled(ctx context.Context) ([]string, error) {
	return e.dubTool().ListInstalled(ctx)
}

// CreateProject writes a project file for the dub package owning packageFile.
func (e *Engine) CreateProject(ctx context.Context, packageFile string) (string, error) {
	return e.dubTool().CreateProject(ctx, packageFile)
}

// Close terminates the server and releases the dub cache.
func (e *Engine) Close() {
	e.session.Close()
	if t := e.dubTool(); t != nil {
		t.Close()
	}
}

func errorResponse(code string, err error) *dkit.Response {
	return &dkit.Response{
		Candidates: []dkit.Candidate{},
		Error: &dkit.Error{
			Code:    code,
			Message: err.Error(),
		},
	}
}

// Package dcd drives the D Completion Daemon: it supervises the long-lived
// dcd-server process and talks to it through short-lived dcd-client invocations.
package dcd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// ServerConfig describes how to launch and reach dcd-server.
type ServerConfig struct {
	ServerPath   string
	ClientPath   string
	Port         int
	IncludePaths []string // passed in order as -I<path>
}

// ServerArgs returns the dcd-server arguments: one -I<path> per include path, then -p<port>.
func (c ServerConfig) ServerArgs() []string {
	args := make([]string, 0, len(c.IncludePaths)+1)
	for _, p := range c.IncludePaths {
		args = append(args, "-I"+p)
	}
	return append(args, "-p"+strconv.Itoa(c.Port))
}

// Handle is one launched dcd-server.
type Handle struct {
	ID      string
	Process Process
	Args    []string
	Config  ServerConfig
}

// Live reports whether the server process has not exited.
func (h *Handle) Live() bool {
	return h != nil && h.Process != nil && !h.Process.Exited()
}

// Supervisor owns the single dcd-server of a session.
// All methods are safe for concurrent use; at most one server is live at a time.
type Supervisor struct {
	launcher Launcher

	mu     sync.Mutex
	handle *Handle
}

// NewSupervisor creates a supervisor that launches real processes.
func NewSupervisor() *Supervisor {
	return NewSupervisorWithLauncher(ExecLauncher{})
}

// NewSupervisorWithLauncher creates a supervisor with a custom Launcher.
func NewSupervisorWithLauncher(l Launcher) *Supervisor {
	return &Supervisor{launcher: l}
}

// Start terminates any live server, validates cfg and launches a new server.
// A *ConfigError leaves no server running.
func (s *Supervisor) Start(cfg ServerConfig) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(cfg)
}

// EnsureRunning returns the current handle if its server is live, otherwise starts one.
func (s *Supervisor) EnsureRunning(cfg ServerConfig) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle.Live() {
		return s.handle, nil
	}
	return s.startLocked(cfg)
}

// IsLive reports whether h's process has not exited.
func (s *Supervisor) IsLive(h *Handle) bool {
	return h.Live()
}

// Current returns the most recently started handle, or nil.
func (s *Supervisor) Current() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// Stop terminates the live server, if any.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminateLocked()
	s.handle = nil
}

func (s *Supervisor) startLocked(cfg ServerConfig) (*Handle, error) {
	s.terminateLocked()
	s.handle = nil

	for _, exe := range []struct{ role, path string }{
		{"server", cfg.ServerPath},
		{"client", cfg.ClientPath},
	} {
		if _, err := os.Stat(exe.path); err != nil {
			return nil, &ConfigError{Role: exe.role, Path: exe.path}
		}
	}

	args := cfg.ServerArgs()
	slog.Info("starting dcd-server", "path", cfg.ServerPath, "args", args)
	proc, err := s.launcher.Launch(cfg.ServerPath, args)
	if err != nil {
		return nil, fmt.Errorf("launch dcd-server: %w", err)
	}

	s.handle = &Handle{
		ID:      uuid.NewString(),
		Process: proc,
		Args:    args,
		Config:  cfg,
	}
	slog.Debug("dcd-server started", "handle", s.handle.ID, "pid", proc.Pid())
	return s.handle, nil
}

func (s *Supervisor) terminateLocked() {
	if !s.handle.Live() {
		return
	}
	slog.Info("terminating dcd-server", "handle", s.handle.ID, "pid", s.handle.Process.Pid())
	if err := s.handle.Process.Terminate(); err != nil {
		slog.Warn("failed to terminate dcd-server", "handle", s.handle.ID, "error", err)
	}
}

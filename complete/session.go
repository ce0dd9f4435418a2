// Package complete resolves completion requests end to end against a DCD server.
package complete

import (
	"context"
	"log/slog"

	dkit "github.com/Paranoid-AF/dkit"
	"github.com/Paranoid-AF/dkit/dcd"
)

// Session owns one dcd-server and answers completion queries against it.
// Resolve may be called before any server was started and from several
// goroutines; server startup is serialized by the supervisor.
type Session struct {
	supervisor *dcd.Supervisor
}

// NewSession creates a session that launches real dcd-server processes.
func NewSession() *Session {
	return NewSessionWithSupervisor(dcd.NewSupervisor())
}

// NewSessionWithSupervisor creates a session around an existing supervisor.
func NewSessionWithSupervisor(sup *dcd.Supervisor) *Session {
	return &Session{supervisor: sup}
}

// Resolve returns the completion candidates for the cursor at rawPos in buffer,
// where prefixLen bytes before the cursor are the identifier being completed.
// The server is started lazily. An unrecognized reply yields no candidates and no error.
func (s *Session) Resolve(ctx context.Context, cfg dcd.ServerConfig, buffer string, rawPos, prefixLen int) ([]dkit.Candidate, error) {
	if _, err := s.supervisor.EnsureRunning(cfg); err != nil {
		return nil, err
	}

	offset := dcd.ComputeCursorOffset(buffer, rawPos, prefixLen)
	client := dcd.NewClient(cfg.ClientPath, cfg.Port)
	lines, err := client.Query(ctx, dcd.Request{Source: buffer, Offset: offset})
	if err != nil {
		return nil, err
	}

	reply := dcd.Decode(lines)
	slog.Debug("dcd reply", "kind", reply.Kind, "identifiers", len(reply.Identifiers), "calltips", len(reply.Calltips))
	return Candidates(reply), nil
}

// Restart terminates the current server and starts a new one from cfg.
func (s *Session) Restart(cfg dcd.ServerConfig) (*dcd.Handle, error) {
	return s.supervisor.Start(cfg)
}

// UpdateIncludePaths clears the server's module cache and re-adds cfg's include paths.
func (s *Session) UpdateIncludePaths(ctx context.Context, cfg dcd.ServerConfig) error {
	client := dcd.NewClient(cfg.ClientPath, cfg.Port)
	if err := client.ClearCache(ctx); err != nil {
		return err
	}
	return client.AddImportPaths(ctx, cfg.IncludePaths)
}

// Live reports whether the session's server is running.
func (s *Session) Live() bool {
	return s.supervisor.IsLive(s.supervisor.Current())
}

// Close terminates the session's server.
func (s *Session) Close() {
	s.supervisor.Stop()
}

// Candidates converts a decoded reply into display-ready candidates.
// The result is never nil.
func Candidates(reply dcd.Reply) []dkit.Candidate {
	switch reply.Kind {
	case dcd.ReplyIdentifiers:
		out := make([]dkit.Candidate, 0, len(reply.Identifiers))
		for _, id := range reply.Identifiers {
			out = append(out, dkit.Candidate{Label: id.Label(), InsertText: id.InsertText()})
		}
		return out
	case dcd.ReplyCalltips:
		out := make([]dkit.Candidate, 0, len(reply.Calltips))
		for _, c := range reply.Calltips {
			out = append(out, dkit.Candidate{Label: c.Label(), InsertText: c.InsertText()})
		}
		return out
	default:
		return []dkit.Candidate{}
	}
}

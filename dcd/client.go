package dcd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// Request is one completion query.
type Request struct {
	Source string // full buffer contents
	Offset int    // byte offset into Source, 0 <= Offset <= len(Source)
}

// Client runs dcd-client against the server on Port.
// Each call spawns its own process, so a Client is safe for concurrent use.
type Client struct {
	Path string
	Port int
}

// NewClient creates a client for the executable at path talking to port.
func NewClient(path string, port int) *Client {
	return &Client{Path: path, Port: port}
}

// Query sends req's source on stdin to "dcd-client -c<offset> -p<port>" and
// returns the reply lines. It blocks until the client exits.
func (c *Client) Query(ctx context.Context, req Request) ([]string, error) {
	if req.Offset < 0 || req.Offset > len(req.Source) {
		return nil, &ProtocolError{
			Op:  "encode",
			Err: fmt.Errorf("cursor offset %d outside source of %d bytes", req.Offset, len(req.Source)),
		}
	}

	args := []string{"-c" + strconv.Itoa(req.Offset), "-p" + strconv.Itoa(c.Port)}
	cmd := exec.CommandContext(ctx, c.Path, args...)
	cmd.Stdin = strings.NewReader(req.Source)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	slog.Debug("dcd-client query", "path", c.Path, "args", args)

	if err := cmd.Start(); err != nil {
		return nil, &ProtocolError{Op: "launch", Err: err}
	}
	if err := cmd.Wait(); err != nil {
		// dcd-client reports "no completions" through its exit status
		// as well; the output is still the answer.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &ProtocolError{Op: "io", Err: err}
		}
		slog.Debug("dcd-client exited with error", "error", err)
	}

	return SplitLines(stdout.String()), nil
}

// ClearCache runs "dcd-client --clearCache".
func (c *Client) ClearCache(ctx context.Context) error {
	return c.run(ctx, "--clearCache", "-p"+strconv.Itoa(c.Port))
}

// AddImportPaths runs "dcd-client -I<p1> -I<p2> ...". It does nothing for an empty list.
func (c *Client) AddImportPaths(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	args := make([]string, 0, len(paths)+1)
	for _, p := range paths {
		args = append(args, "-I"+p)
	}
	return c.run(ctx, append(args, "-p"+strconv.Itoa(c.Port))...)
}

func (c *Client) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, c.Path, args...)
	slog.Debug("dcd-client", "path", c.Path, "args", args)
	if err := cmd.Start(); err != nil {
		return &ProtocolError{Op: "launch", Err: err}
	}
	if err := cmd.Wait(); err != nil {
		return &ProtocolError{Op: "io", Err: err}
	}
	return nil
}

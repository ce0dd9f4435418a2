// Package dub wraps the dub package manager: listing installed packages and
// turning "dub describe" output into include paths and editor project files.
package dub

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

var (
	ErrNotInstalled   = errors.New("unable to run dub; make sure it is installed and on your PATH")
	ErrNotPackageFile = errors.New("open the package.json or dub.json file and run the command again")
	ErrProjectExists  = errors.New("a project file already exists in the package folder")
)

const (
	describeCacheTTL = 10 * time.Minute
	runTimeout       = 30 * time.Second
)

// Runner runs name with args in dir and returns its stdout.
type Runner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// Tool runs dub commands. Describe results are cached per package directory.
type Tool struct {
	path  string
	run   Runner
	cache *ttlcache.Cache[string, *Description]
}

// NewTool creates a Tool for the dub executable at path ("dub" looks it up in PATH).
func NewTool(path string) *Tool {
	return NewToolWithRunner(path, execRunner)
}

// NewToolWithRunner creates a Tool with a custom Runner.
func NewToolWithRunner(path string, run Runner) *Tool {
	if path == "" {
		path = "dub"
	}
	c := ttlcache.New[string, *Description](
		ttlcache.WithTTL[string, *Description](describeCacheTTL),
		ttlcache.WithDisableTouchOnHit[string, *Description](),
	)
	go c.Start()
	return &Tool{path: path, run: run, cache: c}
}

// Path returns the dub executable the tool runs.
func (t *Tool) Path() string {
	return t.path
}

// Close stops the cache expiration loop.
func (t *Tool) Close() {
	t.cache.Stop()
}

// ListInstalled returns the packages reported by "dub list-installed".
func (t *Tool) ListInstalled(ctx context.Context) ([]string, error) {
	out, err := t.run(ctx, "", t.path, "list-installed")
	if err != nil {
		return nil, err
	}
	return ParseInstalled(string(out)), nil
}

// ParseInstalled drops the header line of "dub list-installed" output and
// returns the remaining non-empty lines, trimmed.
func ParseInstalled(out string) []string {
	lines := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	pkgs := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			pkgs = append(pkgs, line)
		}
	}
	return pkgs
}

// Describe runs "dub describe" in dir, caching the parsed result.
func (t *Tool) Describe(ctx context.Context, dir string) (*Description, error) {
	if item := t.cache.Get(dir); item != nil {
		return item.Value(), nil
	}

	out, err := t.run(ctx, dir, t.path, "describe")
	if err != nil {
		return nil, err
	}
	desc, err := ParseDescription(out)
	if err != nil {
		return nil, err
	}

	t.cache.Set(dir, desc, ttlcache.DefaultTTL)
	slog.Debug("described dub package", "dir", dir, "main", desc.MainPackage, "include_paths", len(desc.IncludePaths))
	return desc, nil
}

// Invalidate drops the cached description of dir.
func (t *Tool) Invalidate(dir string) {
	t.cache.Delete(dir)
}

// execRunner runs a command with a timeout and returns its stdout.
func execRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotInstalled
		}
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

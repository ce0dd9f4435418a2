// Command dkitd is the dkit daemon.
// It supervises dcd-server and listens on a Unix domain socket for completion
// requests from editor front ends.
//
// Usage:
//
//	dkitd                 # serve on the default socket
//	dkitd -start          # also launch dcd-server before the first request
//	dkitd -check          # report the effective configuration and exit
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	dkit "github.com/Paranoid-AF/dkit"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	verbose := flag.Bool("verbose", false, "log dcd-client invocations and every request and response")
	socket := flag.String("socket", "", "socket path (default $DKIT_SOCKET, then $XDG_RUNTIME_DIR/dkit.sock)")
	start := flag.Bool("start", false, "launch dcd-server at startup instead of on the first completion")
	check := flag.Bool("check", false, "print the effective configuration and its warnings, then exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("dkitd", Version)
		os.Exit(0)
	}

	if *check {
		os.Exit(checkConfig(os.Stdout))
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	socketPath := resolveSocketPath(*socket)

	slog.Info("starting", "socket", socketPath, "config", dkit.ConfigPath())

	srv, err := NewServer(socketPath)
	if err != nil {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}
	defer srv.Close()

	if *start {
		// A missing executable is reported but not fatal: the editor can
		// fix the settings and send start_server.
		if id, err := srv.engine.StartServer(nil); err != nil {
			slog.Error("dcd-server not started", "error", err)
		} else {
			slog.Info("dcd-server started", "handle", id)
		}
	}

	// Close also terminates dcd-server.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("shutting down")
		srv.Close()
		os.Exit(0)
	}()

	slog.Info("ready")
	if err := srv.Serve(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// resolveSocketPath picks the socket path: flag, $DKIT_SOCKET,
// $XDG_RUNTIME_DIR/dkit.sock, then a per-user file in /tmp.
func resolveSocketPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if path := os.Getenv("DKIT_SOCKET"); path != "" {
		return path
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir + "/dkit.sock"
	}
	return fmt.Sprintf("/tmp/dkit-%d.sock", os.Getuid())
}

// checkConfig writes the effective configuration and returns the exit status:
// 0 when it is usable, 1 when it failed to load or produced warnings.
func checkConfig(w io.Writer) int {
	cfg, err := dkit.LoadConfig()
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
		return 1
	}

	fmt.Fprintf(w, "config: %s\n", dkit.ConfigPath())
	fmt.Fprintf(w, "port: %d\n", dkit.ResolvePort(cfg))
	if scfg, err := cfg.ServerConfig(); err == nil {
		fmt.Fprintf(w, "server: %s\n", scfg.ServerPath)
		fmt.Fprintf(w, "client: %s\n", scfg.ClientPath)
		for _, p := range scfg.IncludePaths {
			fmt.Fprintf(w, "include: %s\n", p)
		}
	}

	warnings := dkit.ValidateConfig(cfg)
	for _, warn := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	if len(warnings) > 0 {
		return 1
	}
	return 0
}

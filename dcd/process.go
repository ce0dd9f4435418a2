package dcd

import (
	"io"
	"os"
	"os/exec"
	"syscall"
)

// Process is a launched dcd-server.
type Process interface {
	Pid() int
	// Exited reports whether the process has exited. It never blocks.
	Exited() bool
	// Terminate asks the process to exit without waiting for it.
	Terminate() error
}

// Launcher starts server processes.
type Launcher interface {
	Launch(path string, args []string) (Process, error)
}

// ExecLauncher launches real processes with os/exec.
type ExecLauncher struct {
	// Output receives the child's stdout and stderr. Nil means os.Stderr;
	// stdout is left alone since dkit-repl writes records there.
	Output io.Writer
}

// Launch starts path with args.
func (l ExecLauncher) Launch(path string, args []string) (Process, error) {
	out := l.Output
	if out == nil {
		out = os.Stderr
	}
	cmd := exec.Command(path, args...)
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &execProcess{cmd: cmd, done: make(chan struct{})}
	// Reap in the background so Exited can poll without blocking.
	go func() {
		cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

func (p *execProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *execProcess) Terminate() error {
	if p.Exited() {
		return nil
	}
	return p.cmd.Process.Signal(syscall.SIGTERM)
}

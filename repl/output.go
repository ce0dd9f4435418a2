package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	dkit "github.com/Paranoid-AF/dkit"
	"golang.org/x/term"
)

// termWriter wraps a file and converts \n to \r\n when the file is a terminal
// (needed because raw mode disables the kernel's NL→CRNL translation).
// When the file is redirected, \n passes through unchanged.
func termWriter(f *os.File) io.Writer {
	if term.IsTerminal(int(f.Fd())) {
		return &crlfWriter{w: f}
	}
	return f
}

type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	replaced := bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))
	_, err := c.w.Write(replaced)
	return len(p), err // report original length to caller
}

type entryRequest struct {
	Timestamp time.Time `toml:"timestamp"`
	Input     string    `toml:"input"`
	CursorPos int       `toml:"cursor_pos"`
	PrefixLen int       `toml:"prefix_len"`
}

// entry is one REPL exchange as a TOML document.
type entry struct {
	Request    entryRequest     `toml:"request"`
	Error      *dkit.Error      `toml:"error,omitempty"`
	Candidates []dkit.Candidate `toml:"candidates,omitempty"`
}

// writeEntry writes a single TOML-formatted entry to w.
func writeEntry(w io.Writer, input string, cursorPos, prefixLen int, resp *dkit.Response) error {
	fmt.Fprintf(w, "# %s\n\n", strings.Repeat("═", 60))

	e := entry{
		Request: entryRequest{
			Timestamp: time.Now().Truncate(time.Second),
			Input:     input,
			CursorPos: cursorPos,
			PrefixLen: prefixLen,
		},
		Error: resp.Error,
	}
	if resp.Error == nil {
		e.Candidates = resp.Candidates
	}

	if err := toml.NewEncoder(w).Encode(e); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

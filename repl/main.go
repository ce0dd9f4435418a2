// Command dkit-repl is an interactive test REPL for dkit completions.
// The typed line is appended to an optional D source file and completed at
// the cursor; structured TOML results go to stdout.
//
// Usage:
//
//	./dkit-repl                    # empty buffer, TOML on screen
//	./dkit-repl app.d > log.toml   # app.d as context, TOML to file
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	dkit "github.com/Paranoid-AF/dkit"
	"github.com/Paranoid-AF/dkit/complete"
)

const prompt = "> "

func main() {
	var prelude string
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		prelude = string(data)
		if prelude != "" && !strings.HasSuffix(prelude, "\n") {
			prelude += "\n"
		}
	}

	editor, err := NewEditor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer editor.Close()

	tty := editor.Tty()

	fmt.Fprintf(tty, "\033[2J\033[H") // clear screen
	fmt.Fprintf(tty, "dkit repl\r\n")
	if len(os.Args) > 1 {
		fmt.Fprintf(tty, "source: %s\r\n", os.Args[1])
	}
	fmt.Fprintf(tty, "config: %s\r\n", dkit.ConfigPath())
	fmt.Fprintf(tty, "\r\ncommands:\r\n")
	fmt.Fprintf(tty, "  :restart     restart dcd-server\r\n")
	fmt.Fprintf(tty, "  :quit        exit\r\n\r\n")

	engine := complete.NewEngine()
	defer engine.Close()

	// stdout writer: converts \n → \r\n when stdout is a terminal (raw mode),
	// passes \n through unchanged when redirected to a file.
	out := termWriter(os.Stdout)

	reqID := 0

	for {
		text, cursorPos, err := editor.ReadLine(prompt)
		if err == io.EOF || err == ErrInterrupt {
			break
		}
		if err != nil {
			fmt.Fprintf(tty, "read error: %v\r\n", err)
			break
		}

		if text == "" {
			continue
		}

		if text == ":quit" || text == ":q" {
			break
		}

		if text == ":restart" {
			if id, err := engine.StartServer(nil); err != nil {
				fmt.Fprintf(tty, "error: %v\r\n\r\n", err)
			} else {
				fmt.Fprintf(tty, "dcd-server restarted (%s)\r\n\r\n", id)
			}
			continue
		}

		reqID++
		req := &dkit.Request{
			RequestID: reqID,
			Source:    prelude + text,
			CursorPos: len(prelude) + cursorPos,
			PrefixLen: identPrefixLen(text, cursorPos),
		}

		resp := engine.Complete(context.Background(), req)

		// Show brief summary on tty.
		if resp.Error != nil {
			fmt.Fprintf(tty, "error [%s]: %s\r\n", resp.Error.Code, resp.Error.Message)
		} else if len(resp.Candidates) == 0 {
			fmt.Fprintf(tty, "(no candidates)\r\n")
		} else {
			for i, c := range resp.Candidates {
				fmt.Fprintf(tty, "  %d. %s\r\n", i+1, strings.ReplaceAll(c.Label, "\t", "  "))
			}
		}
		fmt.Fprintf(tty, "\r\n")

		if err := writeEntry(out, text, cursorPos, req.PrefixLen, resp); err != nil {
			fmt.Fprintf(tty, "write error: %v\r\n", err)
		}
	}
}

// identPrefixLen counts the identifier bytes immediately before pos.
func identPrefixLen(line string, pos int) int {
	if pos > len(line) {
		pos = len(line)
	}
	n := 0
	for i := pos - 1; i >= 0; i-- {
		c := line[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			n++
			continue
		}
		break
	}
	return n
}

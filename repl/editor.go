package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/term"
)

// ErrInterrupt is returned when the user presses Ctrl-C.
var ErrInterrupt = errors.New("interrupted")

// Editor is a minimal line editor with cursor tracking and history.
// It reads from /dev/tty so it works even when stdout is redirected.
type Editor struct {
	tty      *os.File
	oldState *term.State
	line     lineBuffer
	history  []string
}

// NewEditor opens /dev/tty and switches to raw mode.
func NewEditor() (*Editor, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/tty: %w", err)
	}

	old, err := term.MakeRaw(int(tty.Fd()))
	if err != nil {
		tty.Close()
		return nil, fmt.Errorf("raw mode: %w", err)
	}

	return &Editor{tty: tty, oldState: old}, nil
}

// Close restores terminal state and closes the tty fd.
func (e *Editor) Close() {
	term.Restore(int(e.tty.Fd()), e.oldState)
	e.tty.Close()
}

// Tty returns the tty file for writing prompts/UI.
func (e *Editor) Tty() *os.File {
	return e.tty
}

// ReadLine displays the prompt and returns the entered text and the cursor
// byte offset at the moment Enter was pressed.
// Returns io.EOF when the user presses Ctrl-D on empty input.
func (e *Editor) ReadLine(prompt string) (text string, cursor int, err error) {
	e.line.reset("")
	hist := len(e.history)
	e.redraw(prompt)

	for {
		var b [1]byte
		if _, err := e.tty.Read(b[:]); err != nil {
			return "", 0, err
		}

		switch b[0] {
		case 3: // Ctrl-C
			fmt.Fprintf(e.tty, "\r\n")
			return "", 0, ErrInterrupt

		case 4: // Ctrl-D
			if e.line.empty() {
				fmt.Fprintf(e.tty, "\r\n")
				return "", 0, io.EOF
			}

		case 13, 10: // Enter
			fmt.Fprintf(e.tty, "\r\n")
			text, cursor = e.line.String(), e.line.pos
			if text != "" {
				e.history = append(e.history, text)
			}
			return text, cursor, nil

		case 127, 8: // Backspace / Ctrl-H
			e.line.deleteBack()

		case 23: // Ctrl-W
			e.line.deleteIdent()

		case 1: // Ctrl-A
			e.line.pos = 0

		case 5: // Ctrl-E
			e.line.pos = len(e.line.buf)

		case 21: // Ctrl-U
			e.line.reset("")

		case 27:
			hist = e.escape(hist)

		default:
			if b[0] >= 32 {
				ch := []byte{b[0]}
				if extra := utf8RuneLen(b[0]) - 1; extra > 0 {
					tmp := make([]byte, extra)
					io.ReadFull(e.tty, tmp)
					ch = append(ch, tmp...)
				}
				e.line.insert(ch)
			}
		}

		e.redraw(prompt)
	}
}

// escape handles a CSI sequence after ESC and returns the new history index.
func (e *Editor) escape(hist int) int {
	var seq [3]byte
	if n, _ := e.tty.Read(seq[:1]); n == 0 || seq[0] != '[' {
		return hist
	}
	if n, _ := e.tty.Read(seq[1:2]); n == 0 {
		return hist
	}

	switch seq[1] {
	case 'A': // Up
		if hist > 0 {
			hist--
			e.line.reset(e.history[hist])
		}
	case 'B': // Down
		if hist < len(e.history)-1 {
			hist++
			e.line.reset(e.history[hist])
		} else {
			hist = len(e.history)
			e.line.reset("")
		}
	case 'D':
		e.line.left()
	case 'C':
		e.line.right()
	case 'H':
		e.line.pos = 0
	case 'F':
		e.line.pos = len(e.line.buf)
	case '1', '3', '4': // \x1b[1~ Home, \x1b[3~ Delete, \x1b[4~ End
		e.tty.Read(seq[2:3])
		switch seq[1] {
		case '1':
			e.line.pos = 0
		case '3':
			e.line.deleteForward()
		case '4':
			e.line.pos = len(e.line.buf)
		}
	}
	return hist
}

// redraw clears the current line and redraws prompt + buffer with cursor.
func (e *Editor) redraw(prompt string) {
	// \r = carriage return, \x1b[K = clear to end of line
	fmt.Fprintf(e.tty, "\r\x1b[K%s%s", prompt, e.line.String())

	if tail := utf8.RuneCount(e.line.buf[e.line.pos:]); tail > 0 {
		fmt.Fprintf(e.tty, "\x1b[%dD", tail)
	}
}

// lineBuffer is the text being edited and a cursor byte offset into it.
// The cursor always sits on a rune boundary.
type lineBuffer struct {
	buf []byte
	pos int
}

func (l *lineBuffer) String() string { return string(l.buf) }

func (l *lineBuffer) empty() bool { return len(l.buf) == 0 }

// reset replaces the contents and moves the cursor to the end.
func (l *lineBuffer) reset(s string) {
	l.buf = append(l.buf[:0], s...)
	l.pos = len(l.buf)
}

func (l *lineBuffer) insert(ch []byte) {
	l.buf = append(l.buf, ch...)
	copy(l.buf[l.pos+len(ch):], l.buf[l.pos:len(l.buf)-len(ch)])
	copy(l.buf[l.pos:], ch)
	l.pos += len(ch)
}

func (l *lineBuffer) left() {
	_, size := prevRune(l.buf, l.pos)
	l.pos -= size
}

func (l *lineBuffer) right() {
	if l.pos < len(l.buf) {
		_, size := utf8.DecodeRune(l.buf[l.pos:])
		l.pos += size
	}
}

func (l *lineBuffer) deleteBack() {
	_, size := prevRune(l.buf, l.pos)
	l.cut(l.pos-size, l.pos)
}

func (l *lineBuffer) deleteForward() {
	if l.pos < len(l.buf) {
		_, size := utf8.DecodeRune(l.buf[l.pos:])
		l.cut(l.pos, l.pos+size)
	}
}

// deleteIdent removes the D identifier before the cursor, or a single
// other character (such as the '.' of a member access) when there is none.
func (l *lineBuffer) deleteIdent() {
	n := identPrefixLen(l.String(), l.pos)
	if n == 0 {
		l.deleteBack()
		return
	}
	l.cut(l.pos-n, l.pos)
}

// cut removes buf[from:to] and leaves the cursor at from.
func (l *lineBuffer) cut(from, to int) {
	if from >= to {
		return
	}
	l.buf = append(l.buf[:from], l.buf[to:]...)
	l.pos = from
}

// prevRune returns the rune and byte size of the rune before pos.
func prevRune(buf []byte, pos int) (rune, int) {
	if pos <= 0 {
		return 0, 0
	}
	i := pos - 1
	for i > 0 && !utf8.RuneStart(buf[i]) {
		i--
	}
	return utf8.DecodeRune(buf[i:pos])
}

// utf8RuneLen returns the expected byte length of a UTF-8 sequence
// from its leading byte.
func utf8RuneLen(lead byte) int {
	switch {
	case lead < 0xC0:
		return 1
	case lead < 0xE0:
		return 2
	case lead < 0xF0:
		return 3
	default:
		return 4
	}
}

package dcd

import "strings"

// ReplyKind is the tag on the first line of a dcd-client reply.
type ReplyKind int

const (
	ReplyUnknown ReplyKind = iota
	ReplyIdentifiers
	ReplyCalltips
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyIdentifiers:
		return "identifiers"
	case ReplyCalltips:
		return "calltips"
	default:
		return "unknown"
	}
}

// Identifier is one "name\tkind" line of an identifiers reply.
type Identifier struct {
	Name string
	Kind Kind
}

// Label is the display text: the name and the kind label separated by a tab.
func (id Identifier) Label() string {
	return id.Name + "\t" + id.Kind.Label()
}

// InsertText is the name; functions get no call-parenthesis snippet.
func (id Identifier) InsertText() string {
	return id.Name
}

// Calltip is one signature line of a calltips reply.
type Calltip struct {
	Signature string
}

// Label is the full signature.
func (c Calltip) Label() string {
	return c.Signature
}

// InsertText is the text strictly between the first '(' and the last character
// of the signature. Without a '(' it is the whole signature.
func (c Calltip) InsertText() string {
	open := strings.IndexByte(c.Signature, '(')
	if open < 0 {
		return c.Signature
	}
	end := len(c.Signature) - 1
	if open+1 >= end {
		return ""
	}
	return c.Signature[open+1 : end]
}

// Reply is a decoded dcd-client reply.
type Reply struct {
	Kind        ReplyKind
	Identifiers []Identifier
	Calltips    []Calltip
}

// Decode parses reply lines. It never fails: an empty or untagged reply has
// Kind ReplyUnknown, and identifier lines without exactly two tab-separated
// fields are skipped.
func Decode(lines []string) Reply {
	if len(lines) == 0 {
		return Reply{Kind: ReplyUnknown}
	}

	var r Reply
	switch lines[0] {
	case "identifiers":
		r.Kind = ReplyIdentifiers
		for _, line := range lines[1:] {
			if id, ok := parseIdentifier(line); ok {
				r.Identifiers = append(r.Identifiers, id)
			}
		}
	case "calltips":
		r.Kind = ReplyCalltips
		for _, line := range lines[1:] {
			r.Calltips = append(r.Calltips, Calltip{Signature: line})
		}
	default:
		r.Kind = ReplyUnknown
	}
	return r
}

func parseIdentifier(line string) (Identifier, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) != 2 {
		return Identifier{}, false
	}
	return Identifier{Name: parts[0], Kind: ParseKind(parts[1])}, true
}

// SplitLines splits client output into lines, accepting \n and \r\n endings.
// A trailing line terminator does not produce an empty final line.
func SplitLines(out string) []string {
	if out == "" {
		return nil
	}
	out = strings.TrimSuffix(out, "\n")
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

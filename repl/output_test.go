package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	dkit "github.com/Paranoid-AF/dkit"
)

func TestIdentPrefixLen(t *testing.T) {
	tests := []struct {
		line string
		pos  int
		want int
	}{
		{"std.stdio.wr", 12, 2},
		{"std.stdio.", 10, 0},
		{"foo(bar_1", 9, 5},
		{"writeln", 3, 3},
		{"abc", 10, 3},
		{"", 0, 0},
	}
	for _, tt := range tests {
		if got := identPrefixLen(tt.line, tt.pos); got != tt.want {
			t.Errorf("identPrefixLen(%q, %d) = %d, want %d", tt.line, tt.pos, got, tt.want)
		}
	}
}

func TestWriteEntryRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	resp := &dkit.Response{Candidates: []dkit.Candidate{
		{Label: "writeln\tfunction", InsertText: "writeln"},
		{Label: "write\tfunction", InsertText: "write"},
	}}
	if err := writeEntry(&buf, `std.stdio.wr "q"`, 12, 2, resp); err != nil {
		t.Fatal(err)
	}

	var got entry
	if _, err := toml.Decode(buf.String(), &got); err != nil {
		t.Fatalf("output is not valid TOML: %v\n%s", err, buf.String())
	}
	if got.Request.Input != `std.stdio.wr "q"` || got.Request.PrefixLen != 2 {
		t.Errorf("unexpected request %+v", got.Request)
	}
	if len(got.Candidates) != 2 || got.Candidates[0].Label != "writeln\tfunction" {
		t.Errorf("unexpected candidates %+v", got.Candidates)
	}
}

func TestWriteEntryError(t *testing.T) {
	var buf bytes.Buffer
	resp := &dkit.Response{
		Candidates: []dkit.Candidate{},
		Error:      &dkit.Error{Code: "not_configured", Message: "DCD server doesn't exist"},
	}
	if err := writeEntry(&buf, "x", 1, 1, resp); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "[error]") || !strings.Contains(out, `code = "not_configured"`) {
		t.Errorf("expected error table, got:\n%s", out)
	}
	if strings.Contains(out, "[[candidates]]") {
		t.Errorf("unexpected candidates in error entry:\n%s", out)
	}
}

package dkit

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestResponseCandidatesEmptyNotNull(t *testing.T) {
	resp := Response{Candidates: []Candidate{}}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"candidates":[]`) {
		t.Errorf("expected candidates:[], got %s", data)
	}
}

func TestResponseErrorOmittedWhenNil(t *testing.T) {
	resp := Response{Candidates: []Candidate{}}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"error"`) {
		t.Errorf("expected no error key, got %s", data)
	}
}

func TestCandidateKeepsTabInLabel(t *testing.T) {
	c := Candidate{Label: "writeln\tfunction", InsertText: "writeln"}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"label":"writeln\tfunction","insert_text":"writeln"}` {
		t.Errorf("unexpected encoding %s", data)
	}
}

func TestRequestSettingsDecode(t *testing.T) {
	raw := `{"request_id":3,"source":"a.b","cursor_pos":3,"prefix_len":1,"settings":{"dcd_port":9200}}`
	var req Request
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatal(err)
	}
	if req.RequestID != 3 || req.CursorPos != 3 || req.PrefixLen != 1 {
		t.Errorf("unexpected request %+v", req)
	}
	if req.Settings["dcd_port"] != float64(9200) {
		t.Errorf("expected settings port, got %#v", req.Settings["dcd_port"])
	}
}

func TestServerResponseOmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(ServerResponse{OK: true})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("expected only ok, got %s", data)
	}
}

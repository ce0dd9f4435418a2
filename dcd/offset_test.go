package dcd

import "testing"

func TestComputeCursorOffset(t *testing.T) {
	tests := []struct {
		name      string
		buffer    string
		raw       int
		prefixLen int
		want      int
	}{
		{"after dot with prefix", "foo.ba", 6, 2, 4},
		{"right after dot", "foo.", 4, 0, 4},
		{"fresh identifier", "int wri", 7, 3, 7},
		{"no prefix no dot", "int x", 5, 0, 5},
		{"prefix covers whole buffer", "wri", 3, 3, 3},
		{"prefix longer than position", "ab", 2, 5, 2},
		{"dot two back is ignored", "a.bc", 4, 1, 4},
		{"raw past buffer", "a.", 10, 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeCursorOffset(tt.buffer, tt.raw, tt.prefixLen)
			if got != tt.want {
				t.Errorf("ComputeCursorOffset(%q, %d, %d) = %d, want %d", tt.buffer, tt.raw, tt.prefixLen, got, tt.want)
			}
		})
	}
}

func TestComputeCursorOffsetProperty(t *testing.T) {
	buffers := []string{"", "x", "a.b", "foo.bar.baz", "..", "s.length"}
	for _, b := range buffers {
		for raw := 0; raw <= len(b); raw++ {
			for p := 0; p <= raw; p++ {
				got := ComputeCursorOffset(b, raw, p)
				i := raw - p - 1
				if i >= 0 && b[i] == '.' {
					if got != raw-p {
						t.Errorf("%q raw=%d p=%d: got %d, want %d", b, raw, p, got, raw-p)
					}
				} else if got != raw {
					t.Errorf("%q raw=%d p=%d: got %d, want raw %d", b, raw, p, got, raw)
				}
			}
		}
	}
}

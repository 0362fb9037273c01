package display

import "testing"

func TestPad(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hi", 5, "hi   "},
		{"night", 5, "night"},
		{"t1423", 5, "t1423"},
		{"68.25", 5, "68.25"},
		{"toolong", 5, "toolo"},
		{"", 5, "     "},
		{"x", 0, ""},
	}
	for _, tt := range tests {
		if got := Pad(tt.in, tt.n); got != tt.want {
			t.Errorf("Pad(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

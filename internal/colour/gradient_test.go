package colour

import (
	"strings"
	"testing"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "two stops",
			input: "rgb(255, 0, 0) rgb(0, 255, 0)",
			want:  "linear-gradient(to right, #ff0000, #00ff00)",
		},
		{
			name:  "rgba stops keep order",
			input: "rgba(0, 0, 255, 0.5) rgb(16, 32, 48) rgba(255, 255, 255, 1)",
			want:  "linear-gradient(to right, #0000ff, #102030, #ffffff)",
		},
		{
			name:  "stops inside a gradient declaration",
			input: "linear-gradient(rgb(1, 2, 3), rgb(4, 5, 6))",
			want:  "linear-gradient(to right, #010203, #040506)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compose(tt.input); got != tt.want {
				t.Errorf("Compose(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestComposeStopCount(t *testing.T) {
	for k := 2; k <= 6; k++ {
		stops := make([]string, k)
		for i := range stops {
			stops[i] = RGB{R: uint8(i * 10), G: uint8(i), B: 0}.String()
		}

		got := Compose(strings.Join(stops, " "))
		if n := strings.Count(got, "#"); n != k {
			t.Errorf("Compose() with %d stops produced %d hex stops: %s", k, n, got)
		}

		last := -1
		for i := range stops {
			idx := strings.Index(got, RGB{R: uint8(i * 10), G: uint8(i), B: 0}.Hex())
			if idx <= last {
				t.Errorf("Compose() stop %d out of order in %s", i, got)
			}
			last = idx
		}
	}
}

func TestStops(t *testing.T) {
	got := Stops("rgb(1, 2, 3) rgba(4, 5, 6, 0.1)")
	want := []string{"rgb(1, 2, 3)", "rgba(4, 5, 6, 0.1)"}
	if len(got) != len(want) {
		t.Fatalf("Stops() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Stops()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

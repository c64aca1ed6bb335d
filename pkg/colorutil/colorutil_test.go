package colorutil

import (
	"image/color"
	"testing"
)

func TestHexRoundTrip(t *testing.T) {
	for _, c := range []color.RGBA{Black, White, Red, Cyan, Magenta, Blue, Green, Yellow} {
		s := Hex(c)
		got, err := ParseHex(s)
		if err != nil {
			t.Fatalf("ParseHex(%q): %v", s, err)
		}
		if got != c {
			t.Errorf("round trip %q: got %v, want %v", s, got, c)
		}
	}
}

func TestParseHex(t *testing.T) {
	got, err := ParseHex("#1a2b3c")
	if err != nil {
		t.Fatalf("ParseHex: %v", err)
	}
	want := color.RGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 255}
	if got != want {
		t.Errorf("ParseHex = %v, want %v", got, want)
	}

	for _, bad := range []string{"", "#fff", "1a2b3c", "#1a2b3g", "#1a2b3c4d"} {
		if _, err := ParseHex(bad); err == nil {
			t.Errorf("ParseHex(%q): expected error", bad)
		}
	}
}

package encoding

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Ground", "Ground"},
		{"trim", "  Trees \t", "Trees"},
		{"control chars", "Wa\x00ll\n", "Wall"},
		{"decomposed to composed", "Cafe\u0301", "Caf\u00e9"},
		{"invalid utf8", "bad\xffname", "bad\uFFFDname"},
		{"empty after trim", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.in); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeNameTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("\u00e9", MaxNameBytes) // two bytes each

	got := NormalizeName(long)
	if len(got) > MaxNameBytes {
		t.Fatalf("expected at most %d bytes, got %d", MaxNameBytes, len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("truncated name is not valid UTF-8")
	}
}

func TestEqualNames(t *testing.T) {
	if !EqualNames("Cafe\u0301", " CAF\u00c9 ") {
		t.Error("expected normalized, case-folded names to match")
	}
	if EqualNames("Ground", "Grounds") {
		t.Error("expected different names not to match")
	}
}

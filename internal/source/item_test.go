package source

import (
	"strings"
	"testing"
)

func TestSafeText(t *testing.T) {
	t.Parallel()
	got := SafeText("  line one\r\nline two\n ")
	if strings.ContainsAny(got, "\r\n") {
		t.Fatalf("newlines survived: %q", got)
	}
	if got != "line one  line two" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestTruncateRunesMultibyte(t *testing.T) {
	t.Parallel()
	s := strings.Repeat("賃", 300)
	got := TruncateRunes(s, 280)
	if n := len([]rune(got)); n != 280 {
		t.Fatalf("rune length = %d, want 280", n)
	}
	if TruncateRunes("short", 280) != "short" {
		t.Fatal("short strings must pass through")
	}
}

func TestContentHashDeterministic(t *testing.T) {
	t.Parallel()
	a := ContentHash("https://example.com/x", "Title")
	b := ContentHash("https://example.com/x", "Title")
	if a != b {
		t.Fatalf("hash not deterministic: %s vs %s", a, b)
	}
	if a == ContentHash("https://example.com/y", "Title") {
		t.Fatal("different input must hash differently")
	}
	// Part boundaries matter: ("ab","c") and ("a","bc") are different items.
	if ContentHash("ab", "c") == ContentHash("a", "bc") {
		t.Fatal("part boundaries must affect the hash")
	}
}

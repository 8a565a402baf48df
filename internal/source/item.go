package source

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// summaryMax bounds Item.Summary, counted in runes so multibyte text is not
// cut mid-character.
const summaryMax = 280

// Item is the normalized unit of content every adapter produces.
//
// ID is the sole dedup key: the provider-supplied id when one exists,
// otherwise a content hash (see ContentHash). All text fields go through
// SafeText so downstream formatting can assume single-line values.
type Item struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	URL       string `json:"url"`
	Published string `json:"published"`
	Source    string `json:"source"`
}

// SafeText flattens newlines/carriage returns to spaces and trims the result.
func SafeText(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// TruncateRunes caps s at n runes.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ContentHash derives a deterministic id from the given parts. Identical
// parts always hash identically, which is what makes it usable as a dedup
// key for providers without native ids.
func ContentHash(parts ...string) string {
	h := sha1.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte("|"))
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func summaryText(s string) string {
	return TruncateRunes(SafeText(s), summaryMax)
}

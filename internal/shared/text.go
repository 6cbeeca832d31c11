package shared

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks, so "Dún Laoghaire" becomes "Dun Laoghaire".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold lowercases and strips diacritics.
func Fold(s string) string {
	return strings.ToLower(StripDiacritics(s))
}

// Key is the canonical lookup key for a place name: trimmed, whitespace
// collapsed, folded.
func Key(s string) string {
	return Fold(strings.Join(strings.Fields(s), " "))
}

// Slugify lowercases, strips diacritics and collapses every run of
// non-alphanumerics into a single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range Fold(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

package identity

import "strings"

// Comparison keys decide set membership during merges. The stored form always
// keeps the original casing of the first sighting; only the key is folded.

func nameKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func emailKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// phoneKey strips separator punctuation so "555-1234" and "555 1234" compare
// equal.
func phoneKey(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch r {
		case ' ', '-', '.', '(', ')':
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// addressKey collapses runs of whitespace and folds case.
func addressKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func idKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

package textutil

import (
	"strings"
	"unicode"
)

// SanitizeFileName turns a catalog identifier into a single path component.
// Separators and drive colons become dashes, shell and Windows-reserved
// punctuation and control characters are dropped, and leading dots are
// trimmed so the result can never name a parent or hidden directory.
func SanitizeFileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*':
			return '-'
		case strings.ContainsRune(`?"<>|`, r), unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, name)
	return strings.TrimLeft(strings.TrimSpace(cleaned), ".")
}

package textutil

import (
	"strings"

	"golang.org/x/text/width"
)

// OneLine replaces CR and LF characters with spaces and trims the result.
func OneLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
	return strings.TrimSpace(s)
}

// DisplayWidth returns the number of terminal columns s occupies. East Asian
// wide and fullwidth runes count as two columns.
func DisplayWidth(s string) int {
	total := 0
	for _, r := range s {
		total += runeWidth(r)
	}
	return total
}

// TruncateWidth shortens s so it fits in limit terminal columns. Truncated
// output ends with "..." which counts toward the limit.
func TruncateWidth(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if DisplayWidth(s) <= limit {
		return s
	}
	const ellipsis = "..."
	if limit <= len(ellipsis) {
		return ellipsis[:limit]
	}
	budget := limit - len(ellipsis)
	var b strings.Builder
	used := 0
	for _, r := range s {
		w := runeWidth(r)
		if used+w > budget {
			break
		}
		b.WriteRune(r)
		used += w
	}
	return b.String() + ellipsis
}

func runeWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

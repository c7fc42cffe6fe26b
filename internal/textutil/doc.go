// Package textutil provides small text helpers for terminal output and
// filesystem-safe names.
//
// Catalog descriptions and signatures arrive with embedded newlines and wide
// CJK characters; OneLine and TruncateWidth turn them into single display lines
// measured in terminal columns rather than bytes.
package textutil

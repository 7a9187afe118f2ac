package caption

import (
	"strings"
	"unicode"
)

// Normalize collapses every run of whitespace to a single space and trims
// the result. Whitespace-only input yields "".
func Normalize(text string) string {
	return strings.Join(strings.FieldsFunc(text, isSpace), " ")
}

// isSpace matches the set a browser treats as whitespace in text content,
// which includes the byte order mark on top of unicode.IsSpace.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\ufeff'
}

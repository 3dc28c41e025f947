package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SanitizeText strips control and invisible characters from user-entered
// text and normalizes it to NFC. Newlines and tabs survive; CRLF becomes LF.
func SanitizeText(s string) string {
	return sanitize(strings.ReplaceAll(s, "\r\n", "\n"), true)
}

// SanitizeLine is SanitizeText for single-line fields such as titles. Line
// breaks and tabs become spaces.
func SanitizeLine(s string) string {
	return sanitize(s, false)
}

func sanitize(s string, multiline bool) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			if multiline {
				b.WriteRune(r)
			} else {
				b.WriteRune(' ')
			}
		case r == '\r':
			if !multiline {
				b.WriteRune(' ')
			}
		case unicode.IsControl(r), isInvisibleUnicode(r), r == unicode.ReplacementChar:
			continue
		default:
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(b.String())
}

// isInvisibleUnicode reports zero-width, formatting and other invisible
// characters.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // Zero-Width Space
		'\u200C', // Zero-Width Non-Joiner
		'\u200D', // Zero-Width Joiner
		'\u200E', // Left-to-Right Mark
		'\u200F', // Right-to-Left Mark
		'\u2060', // Word Joiner
		'\u2061', // Function Application
		'\u2062', // Invisible Times
		'\u2063', // Invisible Separator
		'\u2064', // Invisible Plus
		'\uFEFF', // Zero-Width No-Break Space / BOM
		'\uFFF9', // Interlinear Annotation Anchor
		'\uFFFA', // Interlinear Annotation Separator
		'\uFFFB': // Interlinear Annotation Terminator
		return true
	}

	return unicode.Is(unicode.Cf, r)
}

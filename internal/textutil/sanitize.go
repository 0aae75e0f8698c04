package textutil

import (
	"strings"
	"unicode"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// SanitizeReason converts a free-text snippet reason into a lowercase token
// containing only [a-z0-9_]. Whitespace runs become single underscores and
// every other character is dropped. The transformation is idempotent.
func SanitizeReason(reason string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range reason {
		switch {
		case unicode.IsSpace(r):
			if b.Len() > 0 {
				pendingSep = true
			}
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			if pendingSep {
				b.WriteByte('_')
				pendingSep = false
			}
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			if pendingSep {
				b.WriteByte('_')
				pendingSep = false
			}
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

package validators

import (
	"strings"
	"unicode"
)

// SanitizeString normalises free-text input such as catalog search terms.
// Control characters are dropped, whitespace runs collapse to one space and
// the result is cut to maxLen runes. maxLen <= 0 disables the cut.
func SanitizeString(input string, maxLen int) string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
	joined := strings.Join(fields, " ")
	if maxLen <= 0 {
		return joined
	}
	runes := []rune(joined)
	if len(runes) <= maxLen {
		return joined
	}
	return strings.TrimSpace(string(runes[:maxLen]))
}

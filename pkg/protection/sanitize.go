package protection

import (
	"regexp"
	"strings"
	"unicode"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// SanitizeText strips HTML-like tags and control characters (except \r, \n
// and \t) from a free-text field, then trims surrounding whitespace. It is
// idempotent and is only applied to submissions that passed validation.
func SanitizeText(input string) string {
	withoutTags := tagPattern.ReplaceAllString(input, "")
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\r' && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, withoutTags)
	return strings.TrimSpace(cleaned)
}

package protection

import (
	"regexp"
	"strings"
)

const maxLinkCount = 2

var urlPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)

var spamKeywords = []string{
	"buy now",
	"crypto giveaway",
	"viagra",
	"click here",
	"guaranteed income",
}

// exceedsLinkLimit reports whether the message contains more than
// maxLinkCount URL-like tokens. The scan stops as soon as the limit is
// exceeded.
func exceedsLinkLimit(message string) bool {
	matches := urlPattern.FindAllStringIndex(message, maxLinkCount+1)
	return len(matches) > maxLinkCount
}

// matchSpamKeyword returns the first deny-listed keyword found in the
// message, case-insensitively.
func matchSpamKeyword(message string) (string, bool) {
	value := strings.ToLower(message)
	for _, keyword := range spamKeywords {
		if strings.Contains(value, keyword) {
			return keyword, true
		}
	}
	return "", false
}

// Package linkdetect classifies raw message text by the URLs it carries.
package linkdetect

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// linkOnlyThreshold is the maximum number of characters that may remain after
// stripping URLs for a message to still count as link-only. Link-sharing UIs
// often append stray punctuation around a bare link.
const linkOnlyThreshold = 4

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// Detection is the result of examining a message.
type Detection struct {
	// IsLinkOnly reports whether the message is effectively just a link.
	IsLinkOnly bool

	// Link is the first URL found in the message, empty when none.
	Link string
}

// Detect extracts the first URL from message and reports whether the message
// carries anything meaningful beyond its links. Pure function: the same
// input always yields the same result.
func Detect(message string) Detection {
	link := urlPattern.FindString(message)
	if link == "" {
		return Detection{}
	}

	residual := strings.TrimSpace(urlPattern.ReplaceAllString(message, ""))
	return Detection{
		IsLinkOnly: utf8.RuneCountInString(residual) <= linkOnlyThreshold,
		Link:       link,
	}
}

// FirstURL returns the first URL in message, or the empty string when the
// message contains none.
func FirstURL(message string) string {
	return urlPattern.FindString(message)
}

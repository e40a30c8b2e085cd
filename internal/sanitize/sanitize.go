// Package sanitize flattens model-generated rich text into plain text
// suitable for SMS delivery.
package sanitize

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// Policy represents a sanitization policy for outbound message text.
type Policy struct {
	policy   *bluemonday.Policy
	markdown goldmark.Markdown
}

// NewSMSPolicy creates a new Policy for stripping HTML and markdown. Model
// answers routinely arrive with markdown emphasis and lists, which read as
// literal asterisks and pound signs on a phone.
func NewSMSPolicy() *Policy {
	return &Policy{
		policy:   bluemonday.StrictPolicy(),
		markdown: goldmark.New(),
	}
}

// SanitizeText strips HTML and markdown from the input text.
func (p *Policy) SanitizeText(text string) string {
	if text == "" {
		return ""
	}

	// Convert markdown to HTML
	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(text), &buf); err != nil {
		return text
	}

	// Replace HTML line breaks with newlines before sanitizing
	htmlText := buf.String()
	htmlText = regexp.MustCompile(`<br\s*/?>|</?p>|</?div>|</?pre>|</?h[1-6]>`).ReplaceAllString(htmlText, "\n")

	// Sanitize HTML
	sanitized := p.policy.Sanitize(htmlText)

	// Normalize multiple newlines to a single one
	sanitized = regexp.MustCompile(`\n\s*\n+`).ReplaceAllString(sanitized, "\n\n")

	// Convert HTML entities back to characters
	sanitized = html.UnescapeString(sanitized)

	return strings.TrimSpace(sanitized)
}

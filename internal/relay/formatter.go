package relay

import (
	"fmt"
	"strings"

	"github.com/edgard/recallbot/internal/database"
	"github.com/edgard/recallbot/internal/gemini"
)

// titleRuneLimit caps the fallback title taken from the caption.
const titleRuneLimit = 50

// FormatConfirmation renders the category-specific save confirmation. It is
// a pure function of the classification fields; unknown categories render
// like facts.
func FormatConfirmation(category string, fields gemini.SaveFields) string {
	title := fields.Title
	if title == "" {
		title = truncateRunes(fields.Caption, titleRuneLimit)
	}

	switch category {
	case database.CategoryContent:
		platform := fields.Platform
		if platform == "" {
			platform = "saved"
		}
		return fmt.Sprintf("✓ Saved: %s (%s)", title, platform)
	case database.CategoryFood:
		return fmt.Sprintf("✓ Saved recipe: %s", title)
	case database.CategoryEvents:
		return strings.TrimSpace(fmt.Sprintf("✓ Saved event: %s - %s %s", title, fields.Location, fields.EventDate))
	default:
		return fmt.Sprintf("✓ Saved: %s...", title)
	}
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

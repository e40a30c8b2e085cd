package gemini

import (
	"encoding/json"
	"strings"

	"github.com/edgard/recallbot/internal/database"
)

// IntentType tags the interpretation of one incoming message.
type IntentType string

// Intent values. IntentUnparseable is never produced by the model directly;
// it is the local fallback for output that fails validation.
const (
	IntentSave        IntentType = "save"
	IntentQuery       IntentType = "query"
	IntentUnparseable IntentType = "unparseable"
)

// SaveFields carries the category-specific fields extracted by the
// classifier. Fields the model omitted are empty strings.
type SaveFields struct {
	Title       string `json:"title,omitempty"`
	Platform    string `json:"platform,omitempty"`
	Ingredients string `json:"ingredients,omitempty"`
	Location    string `json:"location,omitempty"`
	EventDate   string `json:"event_date,omitempty"`
	Caption     string `json:"caption,omitempty"`
}

// Classification is the validated result of classifying one message. Category
// and Fields are only meaningful when Type is IntentSave, Question only when
// Type is IntentQuery.
type Classification struct {
	Type     IntentType
	Category string
	Fields   SaveFields
	Question string
}

// classifierResponse mirrors the raw JSON shape the model returns before
// validation.
type classifierResponse struct {
	Type        string `json:"type"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Platform    string `json:"platform"`
	Ingredients string `json:"ingredients"`
	Location    string `json:"location"`
	EventDate   string `json:"event_date"`
	Caption     string `json:"caption"`
	Question    string `json:"question"`
}

// ParseClassification validates raw classifier output into a Classification.
// Malformed JSON, an unknown type or category, or a query without a question
// all degrade to IntentUnparseable rather than an error; the caller decides
// what an unparseable message means.
func ParseClassification(raw string) Classification {
	var resp classifierResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return Classification{Type: IntentUnparseable}
	}

	switch resp.Type {
	case string(IntentSave):
		switch resp.Category {
		case database.CategoryContent, database.CategoryFood, database.CategoryEvents, database.CategoryFacts:
		default:
			return Classification{Type: IntentUnparseable}
		}
		return Classification{
			Type:     IntentSave,
			Category: resp.Category,
			Fields: SaveFields{
				Title:       strings.TrimSpace(resp.Title),
				Platform:    strings.TrimSpace(resp.Platform),
				Ingredients: strings.TrimSpace(resp.Ingredients),
				Location:    strings.TrimSpace(resp.Location),
				EventDate:   strings.TrimSpace(resp.EventDate),
				Caption:     strings.TrimSpace(resp.Caption),
			},
		}
	case string(IntentQuery):
		question := strings.TrimSpace(resp.Question)
		if question == "" {
			return Classification{Type: IntentUnparseable}
		}
		return Classification{Type: IntentQuery, Question: question}
	default:
		return Classification{Type: IntentUnparseable}
	}
}

package database

import "time"

// Category values assigned by the classifier and stored on items.
const (
	CategoryContent = "content"
	CategoryFood    = "food"
	CategoryEvents  = "events"
	CategoryFacts   = "facts"
)

// SavedItem represents a single remembered item. Optional classifier fields
// are empty strings when absent. The JSON tags define the shape the answer
// model receives when items are serialized into a prompt.
type SavedItem struct {
	ID              int64     `db:"id" json:"id"`
	Category        string    `db:"category" json:"category"`
	Title           string    `db:"title" json:"title,omitempty"`
	Platform        string    `db:"platform" json:"platform,omitempty"`
	Ingredients     string    `db:"ingredients" json:"ingredients,omitempty"`
	Location        string    `db:"location" json:"location,omitempty"`
	EventDate       string    `db:"event_date" json:"event_date,omitempty"`
	Caption         string    `db:"caption" json:"caption,omitempty"`
	OriginalURL     string    `db:"original_url" json:"original_url,omitempty"`
	OriginalMessage string    `db:"original_message" json:"original_message"`
	SavedBy         string    `db:"saved_by" json:"saved_by"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

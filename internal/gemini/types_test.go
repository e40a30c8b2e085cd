package gemini_test

import (
	"testing"

	"github.com/edgard/recallbot/internal/database"
	"github.com/edgard/recallbot/internal/gemini"
)

func TestParseClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want gemini.Classification
	}{
		{
			name: "save content with platform",
			raw:  `{"type":"save","category":"content","title":"The Bear","platform":"hulu"}`,
			want: gemini.Classification{
				Type:     gemini.IntentSave,
				Category: database.CategoryContent,
				Fields:   gemini.SaveFields{Title: "The Bear", Platform: "hulu"},
			},
		},
		{
			name: "save food with ingredients",
			raw:  `{"type":"save","category":"food","title":"Carbonara","ingredients":"eggs, guanciale, pecorino"}`,
			want: gemini.Classification{
				Type:     gemini.IntentSave,
				Category: database.CategoryFood,
				Fields:   gemini.SaveFields{Title: "Carbonara", Ingredients: "eggs, guanciale, pecorino"},
			},
		},
		{
			name: "save event with location and date",
			raw:  `{"type":"save","category":"events","title":"Jazz night","location":"Blue Note","event_date":"Friday 8pm"}`,
			want: gemini.Classification{
				Type:     gemini.IntentSave,
				Category: database.CategoryEvents,
				Fields:   gemini.SaveFields{Title: "Jazz night", Location: "Blue Note", EventDate: "Friday 8pm"},
			},
		},
		{
			name: "save facts with caption",
			raw:  `{"type":"save","category":"facts","title":"Wifi password","caption":"Wifi password is hunter2"}`,
			want: gemini.Classification{
				Type:     gemini.IntentSave,
				Category: database.CategoryFacts,
				Fields:   gemini.SaveFields{Title: "Wifi password", Caption: "Wifi password is hunter2"},
			},
		},
		{
			name: "save fields are trimmed",
			raw:  `{"type":"save","category":"content","title":"  Dune  ","platform":" netflix "}`,
			want: gemini.Classification{
				Type:     gemini.IntentSave,
				Category: database.CategoryContent,
				Fields:   gemini.SaveFields{Title: "Dune", Platform: "netflix"},
			},
		},
		{
			name: "query with question",
			raw:  `{"type":"query","question":"what shows did I save?"}`,
			want: gemini.Classification{Type: gemini.IntentQuery, Question: "what shows did I save?"},
		},
		{
			name: "query ignores stray save fields",
			raw:  `{"type":"query","question":"any recipes?","category":"food","title":"x"}`,
			want: gemini.Classification{Type: gemini.IntentQuery, Question: "any recipes?"},
		},
		{
			name: "malformed json",
			raw:  `{"type":"save","category":`,
			want: gemini.Classification{Type: gemini.IntentUnparseable},
		},
		{
			name: "plain text instead of json",
			raw:  `Sure! I classified your message as a save.`,
			want: gemini.Classification{Type: gemini.IntentUnparseable},
		},
		{
			name: "unknown type",
			raw:  `{"type":"remind","question":"call mom"}`,
			want: gemini.Classification{Type: gemini.IntentUnparseable},
		},
		{
			name: "save with unknown category",
			raw:  `{"type":"save","category":"music","title":"song"}`,
			want: gemini.Classification{Type: gemini.IntentUnparseable},
		},
		{
			name: "save with missing category",
			raw:  `{"type":"save","title":"something"}`,
			want: gemini.Classification{Type: gemini.IntentUnparseable},
		},
		{
			name: "query with empty question",
			raw:  `{"type":"query","question":"   "}`,
			want: gemini.Classification{Type: gemini.IntentUnparseable},
		},
		{
			name: "empty object",
			raw:  `{}`,
			want: gemini.Classification{Type: gemini.IntentUnparseable},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := gemini.ParseClassification(tc.raw)
			if got != tc.want {
				t.Errorf("ParseClassification(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}

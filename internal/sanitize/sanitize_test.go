package sanitize_test

import (
	"testing"

	"github.com/edgard/recallbot/internal/sanitize"
)

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	policy := sanitize.NewSMSPolicy()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text passes through",
			input: "You saved Some Show on netflix",
			want:  "You saved Some Show on netflix",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "bold markdown stripped",
			input: "You saved **Some Show** on netflix: https://netflix.com/title/123",
			want:  "You saved Some Show on netflix: https://netflix.com/title/123",
		},
		{
			name:  "inline code stripped",
			input: "the password is `hunter2`",
			want:  "the password is hunter2",
		},
		{
			name:  "bullet list flattened to lines",
			input: "* first\n* second",
			want:  "first\nsecond",
		},
		{
			name:  "html tags stripped",
			input: "watch <b>this</b> one",
			want:  "watch this one",
		},
		{
			name:  "entities survive round trip",
			input: "Tom & Jerry <3",
			want:  "Tom & Jerry <3",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := policy.SanitizeText(tc.input)
			if got != tc.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

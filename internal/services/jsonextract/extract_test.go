package jsonextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{
			name:   "Plain object",
			input:  `{"title":"Day out","steps":[]}`,
			want:   `{"title":"Day out","steps":[]}`,
			wantOK: true,
		},
		{
			name:   "Prose around object",
			input:  "Sure! Here is your plan: {\"title\":\"Brunch\"} Enjoy.",
			want:   `{"title":"Brunch"}`,
			wantOK: true,
		},
		{
			name:   "Fenced json block",
			input:  "Here you go:\n```json\n{\"title\":\"Museum day\",\"steps\":[{\"time\":\"10:00\"}]}\n```\nLet me know!",
			want:   `{"title":"Museum day","steps":[{"time":"10:00"}]}`,
			wantOK: true,
		},
		{
			name:   "Bare fence",
			input:  "```\n[1,2,3]\n```",
			want:   `[1,2,3]`,
			wantOK: true,
		},
		{
			name:   "Escaped quotes and braces inside string",
			input:  `note: {"notes":"say \"hi\" and {wave}","ok":true} trailing`,
			want:   `{"notes":"say \"hi\" and {wave}","ok":true}`,
			wantOK: true,
		},
		{
			name:   "Array with bracket inside string",
			input:  `Result: [1, 2, {"x": "]"}] done`,
			want:   `[1, 2, {"x": "]"}]`,
			wantOK: true,
		},
		{
			name:   "First of several values wins",
			input:  `{"a":1} and then {"b":2}`,
			want:   `{"a":1}`,
			wantOK: true,
		},
		{
			name:   "Invalid candidate skipped",
			input:  `{not json} then {"ok":true}`,
			want:   `{"ok":true}`,
			wantOK: true,
		},
		{
			name:   "Broken fence falls back to scan",
			input:  "```json\n{broken\n```\n{\"a\":1}",
			want:   `{"a":1}`,
			wantOK: true,
		},
		{
			name:   "Unclosed brace",
			input:  `{"title": "never closed"`,
			wantOK: false,
		},
		{
			name:   "No JSON at all",
			input:  "I'm sorry, I can't help with that.",
			wantOK: false,
		},
		{
			name:   "Empty input",
			input:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.JSONEq(t, tt.want, got)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	var out struct {
		Title string `json:"title"`
		Steps []struct {
			Notes string `json:"notes"`
		} `json:"steps"`
	}

	err := Decode("Plan below\n```json\n{\"title\":\"Night out\",\"steps\":[{\"notes\":\"ask for \\\"the booth\\\"\"}]}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, "Night out", out.Title)
	require.Len(t, out.Steps, 1)
	assert.Equal(t, `ask for "the booth"`, out.Steps[0].Notes)

	err = Decode("nothing here", &out)
	assert.ErrorIs(t, err, ErrNoJSON)
}

package postservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeContent(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text",
			input: "Hello, World!",
			want:  "Hello, World!",
		},
		{
			name:  "script tag",
			input: "<script>alert(1)</script>",
			want:  "",
		},
		{
			name:  "script between text",
			input: "before <SCRIPT SRC=\"evil.js\"></SCRIPT>after",
			want:  "before after",
		},
		{
			name:  "formatting is kept",
			input: "<p>Some <strong>bold</strong> text</p>",
			want:  "<p>Some <strong>bold</strong> text</p>",
		},
		{
			name:  "event handler is dropped",
			input: `<p onclick="steal()">hi</p>`,
			want:  "<p>hi</p>",
		},
		{
			name:  "javascript link is dropped",
			input: `<a href="javascript:alert(1)">click</a>`,
			want:  "click",
		},
		{
			name:  "surrounding whitespace",
			input: "  text  ",
			want:  "text",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sanitizeContent(tc.input))
		})
	}
}

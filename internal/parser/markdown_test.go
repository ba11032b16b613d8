package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownParser_KeepsMathAndPlaceholders(t *testing.T) {
	input := "# 1번 문항\n\nIf $a_1 * b_2 *$ holds then\n\n$$\nx^2 + y^2\n$$\n\n<!-- image -->\n\n- item with $c$\n"

	p := &MarkdownParser{}
	c, err := p.Parse(strings.NewReader(input), "q1.md")
	require.NoError(t, err)

	assert.Equal(t, "q1", c.Title)
	assert.Equal(t, []string{
		"1번 문항",
		"If $a_1 * b_2 *$ holds then",
		"$$",
		"x^2 + y^2",
		"$$",
		"<!-- image -->",
		"item with $c$",
	}, c.Lines)
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	c, err := p.Parse(strings.NewReader(""), "empty.md")
	require.NoError(t, err)
	assert.True(t, c.Empty(), "expected no lines, got %q", c.Lines)
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"plain.md", "plain"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		c, err := p.Parse(strings.NewReader("text"), tt.filename)
		require.NoError(t, err, tt.filename)
		assert.Equal(t, tt.want, c.Title, tt.filename)
	}
}

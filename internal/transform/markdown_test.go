package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/narro/internal/models"
)

func TestExtractMarkdownHeadings(t *testing.T) {
	markdown := `# Top Title

Some intro text.

## Section One

Body of section one with a [link](https://example.com).

### Nested *emphasized* heading

## Section Two
`

	headings := ExtractMarkdownHeadings(markdown)
	require.Len(t, headings, 4)

	assert.Equal(t, models.Heading{Level: 1, Text: "Top Title"}, headings[0])
	assert.Equal(t, models.Heading{Level: 2, Text: "Section One"}, headings[1])
	assert.Equal(t, 3, headings[2].Level)
	assert.Contains(t, headings[2].Text, "emphasized")
	assert.Equal(t, models.Heading{Level: 2, Text: "Section Two"}, headings[3])
}

func TestExtractMarkdownHeadings_NoHeadings(t *testing.T) {
	assert.Nil(t, ExtractMarkdownHeadings("plain paragraph, no structure"))
	assert.Nil(t, ExtractMarkdownHeadings(""))
}

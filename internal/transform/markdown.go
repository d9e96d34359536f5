package transform

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/narro/internal/models"
)

// ExtractMarkdownHeadings parses markdown and returns its headings in
// document order. Used when a source provides body markdown but no DOM to
// read headings from.
func ExtractMarkdownHeadings(markdown string) []models.Heading {
	if strings.TrimSpace(markdown) == "" {
		return nil
	}

	source := []byte(markdown)
	parser := goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()
	root := parser.Parse(text.NewReader(source))

	var headings []models.Heading
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		var b strings.Builder
		ast.Walk(heading, func(inner ast.Node, entering bool) (ast.WalkStatus, error) {
			if t, ok := inner.(*ast.Text); ok && entering {
				b.Write(t.Segment.Value(source))
				b.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		})
		if headingText := NormalizeWhitespace(b.String()); headingText != "" {
			headings = append(headings, models.Heading{Level: heading.Level, Text: headingText})
		}
		return ast.WalkSkipChildren, nil
	})
	return headings
}

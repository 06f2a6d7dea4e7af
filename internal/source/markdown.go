package source

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New(
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// Speakable reduces markdown to the plain text worth reading aloud.
// Headings, paragraphs, list items and quotes keep their text; code blocks,
// raw HTML and link destinations are dropped. Link text survives without
// its URL.
func Speakable(source string) string {
	reader := text.NewReader([]byte(source))
	doc := md.Parser().Parse(reader)

	var parts []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			if t := extractText(n, source); t != "" {
				parts = append(parts, t)
			}
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.ThematicBreak:
			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})

	return strings.Join(parts, "\n\n")
}

// extractText collects the text content of a node and its children.
func extractText(node ast.Node, source string) string {
	var sb strings.Builder

	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Text:
			sb.Write(c.Segment.Value([]byte(source)))
			if c.SoftLineBreak() || c.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.CodeSpan:
			sb.WriteString(extractText(c, source))
		case *ast.Image:
			// Alt text reads poorly without its picture.
		case *ast.AutoLink:
			// Bare URLs are noise when spoken.
		case *ast.RawHTML:
		default:
			sb.WriteString(extractText(c, source))
		}
	}

	return strings.TrimSpace(sb.String())
}

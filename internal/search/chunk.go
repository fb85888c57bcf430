package search

import (
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	gmparser "github.com/gomarkdown/markdown/parser"
	"github.com/jcdickinson/showroom/internal/markdown"
)

// Chunk is one heading-delimited part of a page. The chunk before the first
// heading has no Heading or Anchor.
type Chunk struct {
	Heading string
	Anchor  string
	Text    string
}

// ChunkSections splits markdown into heading-delimited chunks of plain
// text. Anchors match the ids the renderer assigns to headings. Fenced code
// is left out; the page's examples are not prose.
func ChunkSections(body string) []Chunk {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}

	doc := gm.Parse([]byte(body), gmparser.NewWithExtensions(
		gmparser.CommonExtensions|gmparser.AutoHeadingIDs|gmparser.Autolink,
	))

	var (
		chunks  []Chunk
		current Chunk
		text    []string
	)
	flush := func() {
		current.Text = strings.Join(text, " ")
		if current.Heading != "" || current.Text != "" {
			chunks = append(chunks, current)
		}
		text = nil
	}

	for _, child := range doc.GetChildren() {
		switch n := child.(type) {
		case *ast.Heading:
			flush()
			current = Chunk{Heading: markdown.PlainText(n), Anchor: n.HeadingID}
		case *ast.CodeBlock:
		default:
			if t := markdown.PlainText(n); t != "" {
				text = append(text, t)
			}
		}
	}
	flush()
	return chunks
}

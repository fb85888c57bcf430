package markdown

import (
	"bytes"
	"fmt"
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	gmparser "github.com/gomarkdown/markdown/parser"
	"gopkg.in/yaml.v3"
)

// FrontMatter is the subset of page frontmatter the site layout reads.
type FrontMatter struct {
	Title       string `yaml:"title" json:"title,omitempty"`
	Order       *int   `yaml:"order" json:"order,omitempty"`
	HideSidebar bool   `yaml:"hideSidebar" json:"hideSidebar,omitempty"`
	HideHeader  bool   `yaml:"hideHeader" json:"hideHeader,omitempty"`
}

const fence = "---"

// SplitFrontMatter separates a leading YAML block delimited by "---" lines
// from the markdown body. Sources without one return a zero FrontMatter and
// the input unchanged.
func SplitFrontMatter(src []byte) (FrontMatter, []byte, error) {
	var fm FrontMatter

	src = bytes.TrimPrefix(src, []byte("\ufeff"))
	first, rest, ok := cutLine(src)
	if !ok || strings.TrimSpace(string(first)) != fence {
		return fm, src, nil
	}

	var yamlBlock []byte
	for {
		line, next, more := cutLine(rest)
		if strings.TrimSpace(string(line)) == fence {
			if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
				return FrontMatter{}, src, fmt.Errorf("parsing frontmatter: %w", err)
			}
			return fm, next, nil
		}
		yamlBlock = append(yamlBlock, line...)
		yamlBlock = append(yamlBlock, '\n')
		if !more {
			// Unterminated block: treat the whole file as body.
			return FrontMatter{}, src, nil
		}
		rest = next
	}
}

func cutLine(b []byte) (line, rest []byte, ok bool) {
	if len(b) == 0 {
		return nil, nil, false
	}
	line, rest, found := bytes.Cut(b, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), rest, found || len(line) > 0
}

func parse(body []byte) ast.Node {
	return gm.Parse(body, gmparser.NewWithExtensions(
		gmparser.CommonExtensions|gmparser.AutoHeadingIDs|gmparser.Autolink,
	))
}

// Title returns the text of the first level-1 heading, or "".
func Title(body []byte) string {
	var title string
	ast.WalkFunc(parse(body), func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if h, ok := node.(*ast.Heading); ok && h.Level == 1 {
			title = PlainText(h)
			return ast.Terminate
		}
		return ast.GoToNext
	})
	return title
}

// PlainText concatenates the text content below n.
func PlainText(n ast.Node) string {
	var b strings.Builder
	ast.WalkFunc(n, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch t := node.(type) {
		case *ast.Text:
			b.Write(t.Literal)
		case *ast.Code:
			b.Write(t.Literal)
		case *ast.Softbreak, *ast.Hardbreak:
			b.WriteByte(' ')
		}
		return ast.GoToNext
	})
	return strings.TrimSpace(b.String())
}

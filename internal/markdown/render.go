package markdown

import (
	"io"
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/html"
)

// CodeBlock is a fenced code block. Live blocks are runnable examples.
type CodeBlock struct {
	Lang string
	Code string
	Live bool
}

var liveLangs = map[string]bool{"tsx": true, "jsx": true, "js": true, "javascript": true}

func codeBlockOf(cb *ast.CodeBlock) CodeBlock {
	fields := strings.Fields(string(cb.Info))
	var lang string
	static := false
	for i, f := range fields {
		if i == 0 {
			lang = strings.ToLower(f)
			continue
		}
		if f == "static" {
			static = true
		}
	}
	return CodeBlock{
		Lang: lang,
		Code: strings.TrimRight(string(cb.Literal), "\n"),
		Live: liveLangs[lang] && !static,
	}
}

// CodeBlocks returns the fenced code blocks of body in document order.
func CodeBlocks(body []byte) []CodeBlock {
	var blocks []CodeBlock
	ast.WalkFunc(parse(body), func(node ast.Node, entering bool) ast.WalkStatus {
		if cb, ok := node.(*ast.CodeBlock); ok && entering && cb.IsFenced {
			blocks = append(blocks, codeBlockOf(cb))
		}
		return ast.GoToNext
	})
	return blocks
}

// RenderOptions customizes code block output. Example, when set, renders live
// blocks; Highlight renders every other fenced block.
type RenderOptions struct {
	Highlight func(code, lang string) (string, error)
	Example   func(block CodeBlock) string
}

// Render converts a markdown body (frontmatter already removed) to HTML.
func Render(body []byte, opts RenderOptions) string {
	hook := func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
		cb, ok := node.(*ast.CodeBlock)
		if !ok || !entering {
			return ast.GoToNext, false
		}
		block := codeBlockOf(cb)
		if block.Live && opts.Example != nil {
			io.WriteString(w, opts.Example(block))
			return ast.GoToNext, true
		}
		if opts.Highlight != nil {
			out, err := opts.Highlight(block.Code, block.Lang)
			if err == nil {
				io.WriteString(w, out)
				return ast.GoToNext, true
			}
		}
		return ast.GoToNext, false
	}

	renderer := html.NewRenderer(html.RendererOptions{
		Flags:          html.CommonFlags,
		RenderNodeHook: hook,
	})
	return string(gm.Render(parse(body), renderer))
}

// Package highlight renders fenced code with chroma using CSS classes, so one
// stylesheet per theme serves every page.
package highlight

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

type Highlighter struct {
	style     *chroma.Style
	formatter *html.Formatter
}

// New returns a highlighter for the named chroma style. Unknown names fall
// back to chroma's default style.
func New(theme string) *Highlighter {
	return &Highlighter{
		style:     styles.Get(theme),
		formatter: html.New(html.WithClasses(true), html.TabWidth(2)),
	}
}

// Theme is the resolved style name.
func (h *Highlighter) Theme() string { return h.style.Name }

func lexerFor(lang string) chroma.Lexer {
	l := lexers.Get(lang)
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}

// Code returns code as highlighted HTML.
func (h *Highlighter) Code(code, lang string) (string, error) {
	it, err := lexerFor(lang).Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenising %s: %w", lang, err)
	}
	var b strings.Builder
	if err := h.formatter.Format(&b, h.style, it); err != nil {
		return "", fmt.Errorf("formatting %s: %w", lang, err)
	}
	return b.String(), nil
}

// CSS returns the stylesheet for the configured theme.
func (h *Highlighter) CSS() (string, error) {
	var b strings.Builder
	if err := h.formatter.WriteCSS(&b, h.style); err != nil {
		return "", fmt.Errorf("writing %s css: %w", h.style.Name, err)
	}
	return b.String(), nil
}

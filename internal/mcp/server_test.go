package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/jcdickinson/showroom/internal/config"
	"github.com/jcdickinson/showroom/internal/section"
	"github.com/jcdickinson/showroom/internal/site"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	fsys := fstest.MapFS{
		"guide.md": {Data: []byte("# Guide\n\nHow to theme the library.\n")},
		"src/Card.tsx": {Data: []byte(`export interface CardProps {
  /** Card heading. */
  title: string;
}

/** A content card. */
export function Card({ title }: CardProps) {
  return <section>{title}</section>;
}
`)},
		"src/Card.md": {Data: []byte("Cards group content.\n\n```tsx\n<Card title=\"Hi\" />\n```\n")},
	}
	cfg := &config.Config{
		Title: "Acme",
		Items: []section.ItemConfig{
			{Type: section.ItemContent, Content: "guide.md"},
			{Type: section.ItemComponents, Title: "Layout", Components: "src/*.tsx"},
			{Type: section.ItemLink, Title: "Repo", Href: "https://example.com/repo"},
		},
	}
	n, err := cfg.NormalizeFS(context.Background(), fsys)
	require.NoError(t, err)
	st, err := site.Load(context.Background(), n, site.Options{FS: fsys})
	require.NoError(t, err)
	return NewServer(st, "test")
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestListSections(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	res, err := s.handleListSections(context.Background(), call(nil))
	require.NoError(t, err)

	var nodes []sectionNode
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &nodes))
	require.Len(t, nodes, 3)
	assert.Equal(t, sectionNode{Type: section.KindMarkdown, Title: "Guide", Slug: "guide", URI: "showroom://page/guide"}, nodes[0])
	assert.Equal(t, "Layout", nodes[1].Title)
	require.Len(t, nodes[1].Children, 1)
	assert.Equal(t, "showroom://page/layout/card", nodes[1].Children[0].URI)
	assert.Equal(t, "Card", nodes[1].Children[0].Title)
	assert.Equal(t, "https://example.com/repo", nodes[2].Href)
}

func TestSearchDocs(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	res, err := s.handleSearchDocs(context.Background(), call(map[string]any{"query": "theme"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "showroom://page/guide")

	res, err = s.handleSearchDocs(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestCompileExample(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	res, err := s.handleCompileExample(context.Background(), call(map[string]any{"source": "<p>hi</p>"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Regexp(t, `export default|\bas default\b`, text(t, res))

	res, err = s.handleCompileExample(context.Background(), call(map[string]any{"source": "const = ;"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "example.tsx:1:")
}

func TestReadResource(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	read := func(uri string) (string, error) {
		var req mcp.ReadResourceRequest
		req.Params.URI = uri
		contents, err := s.handleReadResource(context.Background(), req)
		if err != nil {
			return "", err
		}
		require.Len(t, contents, 1)
		return contents[0].(mcp.TextResourceContents).Text, nil
	}

	card, err := read("showroom://page/layout/card")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(card, "# Card\n"))
	assert.Contains(t, card, "| title | `string` | yes |")
	assert.Contains(t, card, "Cards group content.")

	group, err := read("showroom://page/layout")
	require.NoError(t, err)
	assert.Contains(t, group, "# Layout")
	assert.Contains(t, group, "- [Card](showroom://page/layout/card)")

	guide, err := read("showroom://page/guide")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(guide, "# Guide"))

	_, err = read("showroom://page/nope")
	assert.Error(t, err)
	_, err = read("https://example.com/x")
	assert.Error(t, err)
}

package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jcdickinson/showroom/internal/compile"
	"github.com/jcdickinson/showroom/internal/rpc"
	"github.com/jcdickinson/showroom/internal/section"
	"github.com/jcdickinson/showroom/internal/site"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

//go:embed instructions.md
var instructions string

const uriPrefix = "showroom://page/"

type Server struct {
	mcpServer *server.MCPServer
	site      *site.Site
	compiler  *compile.Compiler
}

// NewServer exposes a loaded site over MCP.
func NewServer(st *site.Site, version string) *Server {
	s := &Server{site: st, compiler: compile.New()}

	mcpServer := server.NewMCPServer(
		"showroom",
		version,
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("list_sections",
			mcp.WithDescription("List the documentation tree: groups, markdown pages, components and external links, each with the URI of its page."),
		),
		s.handleListSections,
	)

	mcpServer.AddTool(
		mcp.NewTool("search_docs",
			mcp.WithDescription("Full-text search over pages and component docs. Every term must match. Returns URIs that can be read as resources."),
			mcp.WithString("query",
				mcp.Description("Search terms"),
				mcp.Required(),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default 10)"),
			),
		),
		s.handleSearchDocs,
	)

	mcpServer.AddTool(
		mcp.NewTool("compile_example",
			mcp.WithDescription("Compile a TSX/JSX example snippet like the live editor does. Returns the ES module or the first error with its line."),
			mcp.WithString("source",
				mcp.Description("Example source"),
				mcp.Required(),
			),
		),
		s.handleCompileExample,
	)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			uriPrefix+"{+slug}",
			"Showroom page",
			mcp.WithTemplateDescription("Read a documentation page as markdown. list_sections and search_docs return these URIs."),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.handleReadResource,
	)
}

// sectionNode is the JSON shape returned by list_sections.
type sectionNode struct {
	Type     section.Kind  `json:"type"`
	Title    string        `json:"title"`
	Slug     string        `json:"slug,omitempty"`
	URI      string        `json:"uri,omitempty"`
	Href     string        `json:"href,omitempty"`
	Children []sectionNode `json:"children,omitempty"`
}

func (s *Server) tree(sections []section.Section) []sectionNode {
	nodes := make([]sectionNode, 0, len(sections))
	for _, sec := range sections {
		node := sectionNode{Type: sec.Kind()}
		if link, ok := sec.(*section.LinkSection); ok {
			node.Title, node.Href = link.Title, link.Href
			nodes = append(nodes, node)
			continue
		}
		node.Slug, _ = sec.SlugOf()
		node.URI = uriPrefix + node.Slug
		if p, ok := s.site.Page(node.Slug); ok {
			node.Title = p.Title
		}
		if g, ok := sec.(*section.GroupSection); ok {
			node.Children = s.tree(g.Items)
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func (s *Server) handleListSections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resultJSON, _ := json.MarshalIndent(s.tree(s.site.Config.Sections), "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleSearchDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	limit := 10
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	type hit struct {
		URI     string  `json:"uri"`
		Title   string  `json:"title"`
		Heading string  `json:"heading,omitempty"`
		Score   float64 `json:"score"`
		Snippet string  `json:"snippet"`
	}
	results := s.site.Search(query, limit)
	hits := make([]hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, hit{URI: uriPrefix + r.Slug, Title: r.Title, Heading: r.Heading, Score: r.Score, Snippet: r.Snippet})
	}
	resultJSON, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleCompileExample(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, _ := req.GetArguments()["source"].(string)
	if source == "" {
		return mcp.NewToolResultError("missing required parameter: source"), nil
	}
	res := s.compiler.Compile(rpc.CompileRequest{Source: source})
	if res.Type == rpc.ResultError {
		return mcp.NewToolResultError(res.Error), nil
	}
	return mcp.NewToolResultText(res.Code), nil
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	if !strings.HasPrefix(uri, uriPrefix) {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}
	slug := strings.Trim(strings.TrimPrefix(uri, uriPrefix), "/")
	p, ok := s.site.Page(slug)
	if !ok {
		return nil, fmt.Errorf("no page at %s", uri)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     pageMarkdown(p),
		},
	}, nil
}

// pageMarkdown renders a page for agents: component docs first, then the
// authored markdown.
func pageMarkdown(p *site.Page) string {
	var b strings.Builder
	switch {
	case p.Doc != nil:
		b.WriteString(p.Doc.Markdown())
	case p.Source != "" && strings.HasPrefix(strings.TrimSpace(p.Source), "# "):
		// The body carries its own title.
	default:
		fmt.Fprintf(&b, "# %s\n\n", p.Title)
	}
	if g, ok := p.Section.(*section.GroupSection); ok && g.Description != "" {
		b.WriteString(g.Description)
		b.WriteString("\n\n")
	}
	if p.Source != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.Source)
	}
	if p.Example != nil {
		fmt.Fprintf(&b, "```%s\n%s\n```\n", p.Example.Lang, p.Example.Source)
	}
	for _, c := range p.Children {
		if c.External {
			fmt.Fprintf(&b, "- [%s](%s)\n", c.Title, c.URL)
		} else {
			fmt.Fprintf(&b, "- [%s](%s%s)\n", c.Title, uriPrefix, c.Route)
		}
	}
	return b.String()
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

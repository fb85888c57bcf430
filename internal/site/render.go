package site

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"slices"

	"github.com/jcdickinson/showroom/internal/compile"
	"github.com/jcdickinson/showroom/internal/markdown"
	"github.com/jcdickinson/showroom/internal/rpc"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets
var assetFS embed.FS

// clientConfig is handed to the browser scripts.
type clientConfig struct {
	Base       string `json:"base"`
	BuildID    string `json:"buildId"`
	LiveReload bool   `json:"liveReload"`
	Dev        bool   `json:"dev"`
}

type pageData struct {
	Site        *Site
	Page        *Page
	DocTitle    string
	HideHeader  bool
	HideSidebar bool
	Client      clientConfig
	Assets      string
}

type navData struct {
	Items   []*NavItem
	Current string
}

type exampleData struct {
	Hash          string
	Source        string
	Code          template.HTML
	Error         string
	Line          int
	PreviewURL    string
	StandaloneURL string
	Editable      bool
	Standalone    bool
}

func (s *Site) parseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"url": s.URL,
		"nav": func(items []*NavItem, current string) navData {
			return navData{Items: items, Current: current}
		},
		"active": navContains,
	}
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

func (s *Site) client() clientConfig {
	return clientConfig{
		Base:       s.Config.BasePath,
		BuildID:    s.BuildID,
		LiveReload: s.opts.LiveReload,
		Dev:        s.opts.Dev,
	}
}

// renderPages renders every markdown body and adds a standalone page for
// each live example.
func (s *Site) renderPages() error {
	tmpl, err := s.parseTemplates()
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}
	s.tmpl = tmpl

	for _, p := range slices.Clone(s.Pages) {
		if p.Source == "" {
			continue
		}
		var renderErr error
		src := markdown.RewriteLinks(p.Source, s.resolveLink(p.SourcePath))
		body := markdown.Render([]byte(src), markdown.RenderOptions{
			Highlight: s.highlighter.Code,
			Example: func(b markdown.CodeBlock) string {
				out, err := s.exampleHTML(p, s.example(b), false)
				if err != nil && renderErr == nil {
					renderErr = err
				}
				return out
			},
		})
		if renderErr != nil {
			return fmt.Errorf("rendering /%s: %w", p.Route, renderErr)
		}
		p.Body = template.HTML(body)

		seen := make(map[string]bool)
		for _, h := range p.examples {
			if seen[h] {
				continue
			}
			seen[h] = true
			if err := s.addStandalone(p, s.Examples[h]); err != nil {
				return err
			}
		}
	}
	return nil
}

// example returns the compiled example for a live block, compiling it on the
// spot if it was not collected up front.
func (s *Site) example(b markdown.CodeBlock) *Example {
	h := compile.Hash(b.Code)
	if ex, ok := s.Examples[h]; ok {
		return ex
	}
	ex := &Example{Hash: h, Lang: b.Lang, Source: b.Code}
	ex.Result = s.compiler.Compile(rpc.CompileRequest{Source: b.Code})
	s.Examples[h] = ex
	return ex
}

func standaloneRoute(route, hash string) string {
	if route == "" {
		return "_standalone/" + hash
	}
	return route + "/_standalone/" + hash
}

func (s *Site) addStandalone(parent *Page, ex *Example) error {
	p := &Page{
		Route:   standaloneRoute(parent.Route, ex.Hash),
		Kind:    PageStandalone,
		Title:   parent.Title + " example",
		Section: parent.Section,
		Example: ex,
		Breadcrumbs: []Crumb{
			{Label: parent.Title, URL: s.URL(parent.Route)},
			{Label: "Example"},
		},
	}
	body, err := s.exampleHTML(parent, ex, true)
	if err != nil {
		return fmt.Errorf("rendering /%s: %w", p.Route, err)
	}
	p.Body = template.HTML(body)
	s.addPage(p)
	return nil
}

func (s *Site) exampleHTML(parent *Page, ex *Example, standalone bool) (string, error) {
	code, err := s.highlighter.Code(ex.Source, ex.Lang)
	if err != nil {
		code = template.HTMLEscapeString(ex.Source)
	}
	data := exampleData{
		Hash:          ex.Hash,
		Source:        ex.Source,
		Code:          template.HTML(code),
		PreviewURL:    s.URL("_preview/" + ex.Hash),
		StandaloneURL: s.URL(standaloneRoute(parent.Route, ex.Hash)),
		Editable:      s.opts.Dev,
		Standalone:    standalone,
	}
	if ex.Result.Type == rpc.ResultError {
		data.Error = ex.Result.Error
		if ex.Result.Meta != nil {
			data.Line = ex.Result.Meta.Line
		}
	}
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "example", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderPage writes the full HTML document for p.
func (s *Site) RenderPage(w io.Writer, p *Page) error {
	data := pageData{
		Site:        s,
		Page:        p,
		DocTitle:    s.Config.Title,
		HideHeader:  p.Front.HideHeader,
		HideSidebar: p.Front.HideSidebar || p.Kind == PageHome || p.Kind == PageStandalone || p == s.notFound,
		Client:      s.client(),
		Assets:      s.Config.BasePath + "/_assets",
	}
	if p.Kind != PageHome && p.Title != "" {
		data.DocTitle = p.Title + " | " + s.Config.Title
	}
	return s.tmpl.ExecuteTemplate(w, "page", data)
}

// RenderPreview writes the document that mounts examples inside iframes.
func (s *Site) RenderPreview(w io.Writer) error {
	importMap, err := json.Marshal(map[string]any{"imports": s.ImportMap()})
	if err != nil {
		return err
	}
	return s.tmpl.ExecuteTemplate(w, "preview", struct {
		Title     string
		Client    clientConfig
		ImportMap template.HTML
		Assets    string
	}{
		Title:  s.Config.Title,
		Client: s.client(),
		// json.Marshal escapes <, > and &, so the map cannot close the tag.
		ImportMap: template.HTML(`<script type="importmap">` + string(importMap) + `</script>`),
		Assets:    s.Config.BasePath + "/_assets",
	})
}

// Package site turns a normalized configuration into the pages, examples and
// search index of a documentation site, and writes them out as static files.
package site

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jcdickinson/showroom/internal/cas"
	"github.com/jcdickinson/showroom/internal/compile"
	"github.com/jcdickinson/showroom/internal/config"
	"github.com/jcdickinson/showroom/internal/docgen"
	"github.com/jcdickinson/showroom/internal/highlight"
	"github.com/jcdickinson/showroom/internal/markdown"
	"github.com/jcdickinson/showroom/internal/rpc"
	"github.com/jcdickinson/showroom/internal/search"
	"github.com/jcdickinson/showroom/internal/section"
)

// PageKind discriminates pages. Section pages reuse the section kinds.
type PageKind string

const (
	PageHome       PageKind = "home"
	PageMarkdown   PageKind = PageKind(section.KindMarkdown)
	PageComponent  PageKind = PageKind(section.KindComponent)
	PageGroup      PageKind = PageKind(section.KindGroup)
	PageStandalone PageKind = "standalone"
)

// Crumb is one breadcrumb; the last one has no URL.
type Crumb struct {
	Label string
	URL   string
}

// Page is one routable HTML page.
type Page struct {
	Route       string // "" for the home page, never a leading slash
	Kind        PageKind
	Title       string
	Section     section.Section
	Front       markdown.FrontMatter
	Breadcrumbs []Crumb
	Doc         *docgen.ComponentDoc
	// Source is the page's markdown without frontmatter.
	Source string
	// SourcePath is the markdown file the page was rendered from, if any.
	SourcePath string
	Body       template.HTML
	Example    *Example // standalone pages only
	// Children are the navigation entries of a group page.
	Children []*NavItem

	examples []string // hashes of live examples, in order
}

// Example is a live code example and its compiled module.
type Example struct {
	Hash   string
	Lang   string
	Source string
	Result rpc.CompileResult
}

// Timing records how long one phase of Load or Build took.
type Timing struct {
	Phase    string
	Duration time.Duration
}

type Options struct {
	// FS is the project directory; defaults to os.DirFS(cfg.Dir).
	FS fs.FS
	// Cache stores extracted component docs between runs. Nil disables it.
	Cache *cas.Store
	// LiveReload injects the live-reload client into every page.
	LiveReload bool
	// Dev makes examples editable through the dev server's compile socket.
	Dev bool
	// SkipModules skips bundling configured imports.
	SkipModules bool
}

// Site is a fully loaded, not yet written, documentation site.
type Site struct {
	Config   *config.Normalized
	BuildID  string
	Pages    []*Page
	Nav      []*NavItem
	Docs     map[string]*docgen.ComponentDoc // by component source path
	Examples map[string]*Example             // by hash
	Modules  []compile.Module
	Index    *search.Index
	Warnings []string
	Timings  []Timing

	opts        Options
	fsys        fs.FS
	routes      map[string]*Page
	links       map[string]string // markdown source path -> route
	highlighter *highlight.Highlighter
	compiler    *compile.Compiler
	tmpl        *template.Template
	notFound    *Page
}

func (s *Site) measure(phase string, start time.Time) {
	s.Timings = append(s.Timings, Timing{Phase: phase, Duration: time.Since(start)})
}

func (s *Site) warn(msg string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(msg, args...))
}

// Load reads every page, extracts component docs, compiles examples and
// builds the search index.
func Load(ctx context.Context, cfg *config.Normalized, opts Options) (*Site, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = os.DirFS(cfg.Dir)
	}
	s := &Site{
		Config:      cfg,
		BuildID:     uuid.NewString(),
		Examples:    make(map[string]*Example),
		Index:       &search.Index{},
		Warnings:    append([]string(nil), cfg.Warnings...),
		opts:        opts,
		fsys:        fsys,
		routes:      make(map[string]*Page),
		links:       make(map[string]string),
		highlighter: highlight.New(cfg.CodeTheme),
		compiler:    compile.New(),
	}

	start := time.Now()
	var paths []string
	for _, c := range cfg.Components {
		paths = append(paths, c.SourcePath)
	}
	docs, err := (&docgen.Extractor{Store: opts.Cache}).ExtractAll(ctx, fsys, paths)
	if err != nil {
		return nil, fmt.Errorf("extracting component docs: %w", err)
	}
	s.Docs = docs
	s.measure("docgen", start)

	start = time.Now()
	s.collectLinks(cfg.Sections)
	if err := s.addPages(cfg.Sections, nil); err != nil {
		return nil, err
	}
	if _, ok := s.routes[""]; !ok {
		s.addPage(s.homePage())
	}
	s.Nav = s.buildNav(cfg.Sections)
	s.linkChildren(s.Nav)
	s.notFound = &Page{Route: "404", Title: "Page not found"}
	s.measure("pages", start)

	start = time.Now()
	if err := s.compileExamples(ctx); err != nil {
		return nil, err
	}
	s.measure("examples", start)

	start = time.Now()
	if err := s.renderPages(); err != nil {
		return nil, err
	}
	s.measure("render", start)

	if !opts.SkipModules && len(cfg.Imports) > 0 {
		start = time.Now()
		mods, errs := compile.BundleModules(ctx, cfg.Dir, cfg.Imports)
		for _, err := range errs {
			s.warn("%v", err)
		}
		s.Modules = mods
		s.measure("modules", start)
	}

	for _, w := range s.Warnings {
		slog.Warn(w)
	}
	return s, nil
}

// collectLinks maps markdown files to the routes they are published at, so
// relative links between documents can be rewritten.
func (s *Site) collectLinks(sections []section.Section) {
	section.Walk(sections, func(sec section.Section) bool {
		switch v := sec.(type) {
		case *section.MarkdownSection:
			s.link(v.SourcePath, v.Slug)
		case *section.ComponentSection:
			if v.DocPath != "" {
				s.link(v.DocPath, v.Slug)
			}
		case *section.GroupSection:
			if v.Content != "" {
				s.link(v.Content, v.Slug)
			}
		}
		return true
	})
}

func (s *Site) link(src, route string) {
	if _, ok := s.links[src]; !ok {
		s.links[src] = route
	}
}

func (s *Site) addPage(p *Page) {
	s.Pages = append(s.Pages, p)
	s.routes[p.Route] = p
}

func (s *Site) readMarkdown(p string) (markdown.FrontMatter, string, error) {
	data, err := fs.ReadFile(s.fsys, p)
	if err != nil {
		return markdown.FrontMatter{}, "", fmt.Errorf("reading %s: %w", p, err)
	}
	front, body, err := markdown.SplitFrontMatter(data)
	if err != nil {
		return markdown.FrontMatter{}, "", fmt.Errorf("%s: %w", p, err)
	}
	return front, string(body), nil
}

func (s *Site) addPages(sections []section.Section, parents []*section.GroupSection) error {
	for _, sec := range sections {
		switch v := sec.(type) {
		case *section.MarkdownSection:
			front, body, err := s.readMarkdown(v.SourcePath)
			if err != nil {
				return err
			}
			title := v.Title
			if title == "" {
				title = s.Config.Title
			}
			p := &Page{
				Route: v.Slug, Kind: PageMarkdown, Title: title, Section: v, Front: front,
				Source: body, SourcePath: v.SourcePath,
			}
			p.Breadcrumbs = s.crumbs(parents, title)
			s.addPage(p)
			s.Index.AddMarkdown(v.Slug, title, body)

		case *section.ComponentSection:
			doc := s.Docs[v.SourcePath]
			p := &Page{Route: v.Slug, Kind: PageComponent, Title: doc.DisplayName, Section: v, Doc: doc}
			if v.DocPath != "" {
				_, body, err := s.readMarkdown(v.DocPath)
				if err != nil {
					return err
				}
				p.Source, p.SourcePath = body, v.DocPath
			}
			p.Breadcrumbs = s.crumbs(parents, doc.DisplayName)
			s.addPage(p)
			s.Index.AddComponent(v.Slug, doc, p.Source)

		case *section.GroupSection:
			p := &Page{Route: v.Slug, Kind: PageGroup, Title: v.Title, Section: v}
			if v.Content != "" {
				front, body, err := s.readMarkdown(v.Content)
				if err != nil {
					return err
				}
				p.Front, p.Source, p.SourcePath = front, body, v.Content
				s.Index.AddMarkdown(v.Slug, v.Title, body)
			}
			p.Breadcrumbs = s.crumbs(parents, v.Title)
			s.addPage(p)
			if err := s.addPages(v.Items, append(parents[:len(parents):len(parents)], v)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Site) linkChildren(items []*NavItem) {
	for _, item := range items {
		if len(item.Children) == 0 {
			continue
		}
		if p, ok := s.routes[item.Route]; ok && p.Kind == PageGroup {
			p.Children = item.Children
		}
		s.linkChildren(item.Children)
	}
}

func (s *Site) crumbs(parents []*section.GroupSection, title string) []Crumb {
	out := make([]Crumb, 0, len(parents)+1)
	for _, g := range parents {
		out = append(out, Crumb{Label: g.Title, URL: s.URL(g.Slug)})
	}
	return append(out, Crumb{Label: title})
}

func (s *Site) homePage() *Page {
	return &Page{Route: "", Kind: PageHome, Title: s.Config.Title}
}

// examplesOf records the live examples of p's markdown.
func (s *Site) examplesOf(p *Page) {
	for _, b := range markdown.CodeBlocks([]byte(p.Source)) {
		if !b.Live {
			continue
		}
		h := compile.Hash(b.Code)
		p.examples = append(p.examples, h)
		if _, ok := s.Examples[h]; !ok {
			s.Examples[h] = &Example{Hash: h, Lang: b.Lang, Source: b.Code}
		}
	}
}

// compileExamples compiles every distinct example on a worker pool.
func (s *Site) compileExamples(ctx context.Context) error {
	for _, p := range s.Pages {
		s.examplesOf(p)
	}
	if len(s.Examples) == 0 {
		return nil
	}

	byID := make([]*Example, 0, len(s.Examples))
	for _, h := range slices.Sorted(maps.Keys(s.Examples)) {
		byID = append(byID, s.Examples[h])
	}

	pool := compile.NewPool(s.compiler, runtime.NumCPU())
	submitErr := make(chan error, 1)
	go func() {
		defer pool.Close()
		for i, ex := range byID {
			if err := pool.Submit(ctx, rpc.CompileRequest{Source: ex.Source, MessageID: i}); err != nil {
				submitErr <- err
				return
			}
		}
		submitErr <- nil
	}()
	for res := range pool.Results() {
		byID[res.MessageID].Result = res
	}
	if err := <-submitErr; err != nil {
		return fmt.Errorf("compiling examples: %w", err)
	}

	for _, p := range s.Pages {
		for _, h := range p.examples {
			ex := s.Examples[h]
			if ex.Result.Type == rpc.ResultError {
				s.warn("example on /%s failed to compile: %s", p.Route, ex.Result.Error)
			}
		}
	}
	return nil
}

// resolveLink maps a relative markdown link found in src to a site URL.
func (s *Site) resolveLink(src string) func(string) (string, bool) {
	return func(dest string) (string, bool) {
		if !markdown.IsRelativeDoc(dest) {
			return "", false
		}
		route, ok := s.links[path.Join(path.Dir(src), dest)]
		if !ok {
			return "", false
		}
		return s.URL(route), true
	}
}

// Page returns the page at route.
func (s *Site) Page(route string) (*Page, bool) {
	p, ok := s.routes[route]
	return p, ok
}

// NotFound is the page rendered for unknown routes.
func (s *Site) NotFound() *Page { return s.notFound }

// ImportMap maps the specifiers examples may import to module URLs.
func (s *Site) ImportMap() map[string]string {
	return compile.ImportMap(s.Config.BasePath, s.Modules)
}

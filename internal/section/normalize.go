package section

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jcdickinson/showroom/internal/markdown"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

// Normalizer turns authored items into the normalized section tree. All paths
// are resolved inside FS, which is usually os.DirFS of the project root.
type Normalizer struct {
	FS fs.FS
	// Concurrency bounds how many sibling items are resolved at once.
	Concurrency int
}

func NewNormalizer(fsys fs.FS) *Normalizer {
	return &Normalizer{FS: fsys, Concurrency: defaultConcurrency}
}

// partial is what one item (or one list of siblings) contributes.
type partial struct {
	sections   []Section
	components []*ComponentSection
	warnings   []string
}

func (p *partial) merge(o partial) {
	p.sections = append(p.sections, o.sections...)
	p.components = append(p.components, o.components...)
	p.warnings = append(p.warnings, o.warnings...)
}

// Normalize resolves items against the file system. The result is a pure
// function of items and the file system contents: output ordering follows
// declaration order and every enumeration is sorted.
func (n *Normalizer) Normalize(ctx context.Context, items []ItemConfig) (*Result, error) {
	p, err := n.items(ctx, items, nil, "items")
	if err != nil {
		return nil, err
	}
	if err := checkSlugs(p.sections); err != nil {
		return nil, err
	}

	res := &Result{
		Sections:   p.sections,
		Components: make([]*ComponentSection, 0, len(p.components)),
		Warnings:   p.warnings,
	}
	seen := make(map[string]bool, len(p.components))
	for _, c := range p.components {
		if seen[c.SourcePath] {
			continue
		}
		seen[c.SourcePath] = true
		res.Components = append(res.Components, c)
	}
	if res.Sections == nil {
		res.Sections = []Section{}
	}
	return res, nil
}

// items resolves siblings concurrently and joins them in declaration order.
// Every sibling runs to completion so that the reported error is always the
// first failing item in declaration order.
func (n *Normalizer) items(ctx context.Context, items []ItemConfig, parents []string, pos string) (partial, error) {
	parts := make([]partial, len(items))
	errs := make([]error, len(items))

	var g errgroup.Group
	limit := n.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			parts[i], errs[i] = n.item(ctx, item, parents, fmt.Sprintf("%s[%d]", pos, i))
			return nil
		})
	}
	g.Wait()
	for _, err := range errs {
		if err != nil {
			return partial{}, err
		}
	}

	var out partial
	for _, p := range parts {
		out.merge(p)
	}
	return out, nil
}

func (n *Normalizer) item(ctx context.Context, item ItemConfig, parents []string, pos string) (partial, error) {
	if err := ctx.Err(); err != nil {
		return partial{}, err
	}

	var (
		p   partial
		err error
	)
	switch item.Type {
	case ItemLink:
		p, err = linkItem(item)
	case ItemContent:
		p, err = n.contentItem(item, parents, pos)
	case ItemDocs:
		p, err = n.docsItem(item, parents, pos)
	case ItemComponents:
		p, err = n.componentsItem(item, parents, pos)
	case ItemGroup:
		return n.groupItem(ctx, item, parents, pos)
	case "":
		err = fmt.Errorf("%w \"type\"", ErrMissingField)
	default:
		err = fmt.Errorf("%w %q (want one of components, content, link, docs, group)", ErrUnknownType, item.Type)
	}
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			return partial{}, err
		}
		return partial{}, itemError(pos, item, err)
	}
	return p, nil
}

func linkItem(item ItemConfig) (partial, error) {
	if item.Title == "" {
		return partial{}, missing("title", item.Type)
	}
	if item.Href == "" {
		return partial{}, missing("href", item.Type)
	}
	return partial{sections: []Section{&LinkSection{Title: item.Title, Href: item.Href}}}, nil
}

func (n *Normalizer) contentItem(item ItemConfig, parents []string, pos string) (partial, error) {
	if item.Content == "" {
		return partial{}, missing("content", item.Type)
	}
	src, err := resolvePath(item.Content)
	if err != nil {
		return partial{}, err
	}
	segs, err := segment(item, baseName(src))
	if err != nil {
		return partial{}, err
	}
	md, err := n.markdownSection(src, joinSlug(parents, segs...), item.Title, pos)
	if err != nil {
		return partial{}, err
	}
	return partial{sections: []Section{md}}, nil
}

func (n *Normalizer) markdownSection(src, slug, title, pos string) (*MarkdownSection, error) {
	front, h1, err := n.readMeta(src)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = front.Title
	}
	if title == "" {
		title = h1
	}
	return &MarkdownSection{Slug: slug, Title: title, SourcePath: src, Front: front, Position: pos}, nil
}

func (n *Normalizer) readMeta(src string) (markdown.FrontMatter, string, error) {
	data, err := fs.ReadFile(n.FS, src)
	if err != nil {
		return markdown.FrontMatter{}, "", fmt.Errorf("%w: %w", ErrEnumerate, err)
	}
	front, body, err := markdown.SplitFrontMatter(data)
	if err != nil {
		return markdown.FrontMatter{}, "", fmt.Errorf("%s: %w", src, err)
	}
	return front, markdown.Title(body), nil
}

type docPage struct {
	path  string
	rel   string
	front markdown.FrontMatter
	h1    string
}

func (n *Normalizer) docsItem(item ItemConfig, parents []string, pos string) (partial, error) {
	if item.Folder == "" {
		return partial{}, missing("folder", item.Type)
	}
	folder, err := resolvePath(item.Folder)
	if err != nil {
		return partial{}, err
	}

	var base []string
	if item.Path == "" || strings.Trim(item.Path, "/") != "" {
		base, err = segment(item, path.Base(folder))
		if err != nil {
			return partial{}, err
		}
	}

	files, err := n.listMarkdown(folder)
	if err != nil {
		return partial{}, err
	}

	var out partial
	if len(files) == 0 {
		out.warnings = append(out.warnings, fmt.Sprintf("%s: docs folder %q contains no markdown files", pos, folder))
		return out, nil
	}

	pages := make([]docPage, 0, len(files))
	for _, f := range files {
		front, h1, err := n.readMeta(f)
		if err != nil {
			return partial{}, err
		}
		rel := f
		if folder != "." {
			rel = strings.TrimPrefix(f, folder+"/")
		}
		pages = append(pages, docPage{path: f, rel: rel, front: front, h1: h1})
	}
	sortPages(pages)

	for _, pg := range pages {
		segs := pathSegments(strings.TrimSuffix(pg.rel, path.Ext(pg.rel)))
		if len(segs) > 0 && (segs[len(segs)-1] == "index" || segs[len(segs)-1] == "readme") {
			segs = segs[:len(segs)-1]
		}
		all := append(slices.Clone(base), segs...)
		title := pg.front.Title
		if title == "" {
			title = pg.h1
		}
		out.sections = append(out.sections, &MarkdownSection{
			Slug:       joinSlug(parents, all...),
			Title:      title,
			SourcePath: pg.path,
			Front:      pg.front,
			Position:   pos,
		})
	}
	return out, nil
}

// sortPages puts pages with an explicit frontmatter order first (ascending),
// then the rest, ties broken by path.
func sortPages(pages []docPage) {
	sort.SliceStable(pages, func(i, j int) bool {
		a, b := pages[i].front.Order, pages[j].front.Order
		switch {
		case a != nil && b != nil && *a != *b:
			return *a < *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return pages[i].rel < pages[j].rel
	})
}

func (n *Normalizer) listMarkdown(folder string) ([]string, error) {
	var files []string
	err := fs.WalkDir(n.FS, folder, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != folder && hiddenName(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && isMarkdown(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnumerate, err)
	}
	sort.Strings(files)
	return files, nil
}

func (n *Normalizer) componentsItem(item ItemConfig, parents []string, pos string) (partial, error) {
	if item.Components == "" {
		return partial{}, missing("components", item.Type)
	}
	pattern, err := resolvePath(item.Components)
	if err != nil {
		return partial{}, err
	}
	var overview string
	if item.Content != "" {
		if overview, err = resolvePath(item.Content); err != nil {
			return partial{}, err
		}
	}

	matches, err := n.glob(pattern)
	if err != nil {
		return partial{}, err
	}

	var out partial
	if len(matches) == 0 {
		out.warnings = append(out.warnings, fmt.Sprintf("%s: components pattern %q matched no files", pos, pattern))
	}

	grouped := item.Title != "" || item.Path != ""
	leafParents := parents
	var groupSegs []string
	if grouped {
		if groupSegs, err = segment(item, ""); err != nil {
			return partial{}, err
		}
		for _, s := range groupSegs {
			leafParents = extend(leafParents, s)
		}
	}

	leaves := make([]Section, 0, len(matches))
	for _, m := range matches {
		leaf, err := n.componentLeaf(m, leafParents, pos)
		if err != nil {
			return partial{}, err
		}
		leaves = append(leaves, leaf)
		out.components = append(out.components, leaf)
	}

	if grouped {
		title := item.Title
		if title == "" {
			title = item.Path
		}
		out.sections = []Section{&GroupSection{
			Slug:        joinSlug(parents, groupSegs...),
			Title:       title,
			Description: item.Description,
			Content:     overview,
			Items:       leaves,
			Position:    pos,
		}}
		return out, nil
	}

	if overview != "" {
		md, err := n.markdownSection(overview, joinSlug(parents, Slugify(baseName(overview))), "", pos)
		if err != nil {
			return partial{}, err
		}
		out.sections = append(out.sections, md)
	}
	out.sections = append(out.sections, leaves...)
	return out, nil
}

func (n *Normalizer) glob(pattern string) ([]string, error) {
	matches, err := doublestar.Glob(n.FS, pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %w", ErrEnumerate, pattern, err)
	}
	files := matches[:0]
	for _, m := range matches {
		info, err := fs.Stat(n.FS, m)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEnumerate, err)
		}
		if info.IsDir() || isMarkdown(m) {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}

func (n *Normalizer) componentLeaf(src string, parents []string, pos string) (*ComponentSection, error) {
	name := baseName(src)
	seg := Slugify(name)
	if seg == "" {
		return nil, fmt.Errorf("%w: cannot derive a slug from component file %q", ErrInvalidPath, src)
	}
	return &ComponentSection{
		Slug:        joinSlug(parents, seg),
		Title:       name,
		SourcePath:  src,
		DocPath:     n.docFor(src),
		ParentSlugs: slices.Clone(parents),
		Position:    pos,
	}, nil
}

// docFor returns the co-located documentation file of a component, or "".
func (n *Normalizer) docFor(src string) string {
	stem := strings.TrimSuffix(src, path.Ext(src))
	for _, ext := range []string{".md", ".mdx"} {
		if info, err := fs.Stat(n.FS, stem+ext); err == nil && !info.IsDir() {
			return stem + ext
		}
	}
	return ""
}

func (n *Normalizer) groupItem(ctx context.Context, item ItemConfig, parents []string, pos string) (partial, error) {
	if item.Title == "" && item.Path == "" {
		return partial{}, itemError(pos, item, missing("title", item.Type))
	}
	segs, err := segment(item, "")
	if err != nil {
		return partial{}, itemError(pos, item, err)
	}
	var overview string
	if item.Content != "" {
		if overview, err = resolvePath(item.Content); err != nil {
			return partial{}, itemError(pos, item, err)
		}
	}

	childParents := parents
	for _, s := range segs {
		childParents = extend(childParents, s)
	}
	sub, err := n.items(ctx, item.Items, childParents, pos+".items")
	if err != nil {
		return partial{}, err
	}

	title := item.Title
	if title == "" {
		title = item.Path
	}
	items := sub.sections
	if items == nil {
		items = []Section{}
	}
	return partial{
		sections: []Section{&GroupSection{
			Slug:        joinSlug(parents, segs...),
			Title:       title,
			Description: item.Description,
			Content:     overview,
			Items:       items,
			Position:    pos,
		}},
		components: sub.components,
		warnings:   sub.warnings,
	}, nil
}

// segment derives an item's own slug segments: explicit path, then title,
// then the fallback file or folder name.
func segment(item ItemConfig, fallback string) ([]string, error) {
	if item.Path != "" {
		segs := pathSegments(item.Path)
		if len(segs) == 0 {
			return nil, fmt.Errorf("%w: path %q yields an empty slug", ErrInvalidPath, item.Path)
		}
		return segs, nil
	}
	for _, src := range []string{item.Title, fallback} {
		if src == "" {
			continue
		}
		if s := Slugify(src); s != "" {
			return []string{s}, nil
		}
		return nil, fmt.Errorf("%w: cannot derive a slug from %q", ErrInvalidPath, src)
	}
	return nil, missing("title", item.Type)
}

// resolvePath cleans a project-relative path. Absolute paths and paths that
// escape the project are rejected.
func resolvePath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	if path.IsAbs(p) || (len(p) > 1 && p[1] == ':') {
		return "", fmt.Errorf("%w: %q must be relative to the project directory", ErrInvalidPath, p)
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q points outside the project directory", ErrInvalidPath, p)
	}
	return clean, nil
}

func hiddenName(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}

func isMarkdown(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == ".md" || ext == ".mdx"
}

type owner struct {
	pos   string
	title string
}

// checkSlugs walks the finished tree once and fails on the first slug that
// was already emitted.
func checkSlugs(sections []Section) error {
	seen := make(map[string]owner)
	var err error
	Walk(sections, func(s Section) bool {
		if err != nil {
			return false
		}
		slug, ok := s.SlugOf()
		if !ok {
			return true
		}
		o := ownerOf(s)
		if prev, dup := seen[slug]; dup {
			err = &ConfigError{
				Position: o.pos,
				Title:    o.title,
				Err: fmt.Errorf("%w: %q is already used by %s (%s); set an explicit path on one of them",
					ErrSlugCollision, slug, prev.pos, prev.title),
			}
			return false
		}
		seen[slug] = o
		return true
	})
	return err
}

func ownerOf(s Section) owner {
	switch v := s.(type) {
	case *ComponentSection:
		return owner{v.Position, v.SourcePath}
	case *MarkdownSection:
		if v.Title != "" {
			return owner{v.Position, v.Title}
		}
		return owner{v.Position, v.SourcePath}
	case *GroupSection:
		return owner{v.Position, v.Title}
	}
	return owner{}
}

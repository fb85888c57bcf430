package section

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func file(s string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(s)} }

func normalize(t *testing.T, fsys fstest.MapFS, items ...ItemConfig) (*Result, error) {
	t.Helper()
	return NewNormalizer(fsys).Normalize(context.Background(), items)
}

func TestNormalize_ContentSlugFromFileName(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"guides/intro.md": file("Some text.\n")}

	res, err := normalize(t, fsys, ItemConfig{Type: ItemContent, Content: "guides/intro.md"})
	require.NoError(t, err)
	require.Len(t, res.Sections, 1)

	md, ok := res.Sections[0].(*MarkdownSection)
	require.True(t, ok)
	assert.Equal(t, "intro", md.Slug)
	assert.Equal(t, "guides/intro.md", md.SourcePath)
	assert.Empty(t, md.Title)
	assert.Empty(t, res.Components)
}

func TestNormalize_ContentSlugPrecedence(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"intro.md": file("# Welcome aboard\n")}

	tests := []struct {
		name      string
		item      ItemConfig
		wantSlug  string
		wantTitle string
	}{
		{"path wins", ItemConfig{Type: ItemContent, Content: "intro.md", Title: "Hello", Path: "start/here"}, "start/here", "Hello"},
		{"title next", ItemConfig{Type: ItemContent, Content: "intro.md", Title: "Getting Started!"}, "getting-started", "Getting Started!"},
		{"file name last", ItemConfig{Type: ItemContent, Content: "./intro.md"}, "intro", "Welcome aboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := normalize(t, fsys, tt.item)
			require.NoError(t, err)
			md := res.Sections[0].(*MarkdownSection)
			assert.Equal(t, tt.wantSlug, md.Slug)
			assert.Equal(t, tt.wantTitle, md.Title)
		})
	}
}

func TestNormalize_FrontMatterTitle(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"intro.md": file("---\ntitle: From Front\nhideSidebar: true\n---\n# Heading\n")}

	res, err := normalize(t, fsys, ItemConfig{Type: ItemContent, Content: "intro.md"})
	require.NoError(t, err)
	md := res.Sections[0].(*MarkdownSection)
	assert.Equal(t, "From Front", md.Title)
	assert.True(t, md.Front.HideSidebar)
	assert.Equal(t, "intro", md.Slug)
}

func TestNormalize_GroupWithComponents(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"src/Button.tsx":      file("export const Button = () => null"),
		"src/ButtonGroup.tsx": file("export const ButtonGroup = () => null"),
		"src/Input.tsx":       file("export const Input = () => null"),
		"src/Button.md":       file("# Button"),
	}

	res, err := normalize(t, fsys, ItemConfig{
		Type:  ItemGroup,
		Title: "Buttons",
		Items: []ItemConfig{{Type: ItemComponents, Components: "src/Button*.tsx"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Sections, 1)

	g, ok := res.Sections[0].(*GroupSection)
	require.True(t, ok)
	assert.Equal(t, "buttons", g.Slug)
	assert.Equal(t, "Buttons", g.Title)
	require.Len(t, g.Items, 2)

	button := g.Items[0].(*ComponentSection)
	group := g.Items[1].(*ComponentSection)
	assert.Equal(t, "src/Button.tsx", button.SourcePath)
	assert.Equal(t, "src/Button.md", button.DocPath)
	assert.Equal(t, []string{"buttons"}, button.ParentSlugs)
	assert.Equal(t, "buttons/button", button.Slug)
	assert.Equal(t, "src/ButtonGroup.tsx", group.SourcePath)
	assert.Empty(t, group.DocPath)
	assert.Equal(t, []string{"buttons"}, group.ParentSlugs)

	require.Len(t, res.Components, 2)
	assert.Equal(t, "src/Button.tsx", res.Components[0].SourcePath)
	assert.Equal(t, "src/ButtonGroup.tsx", res.Components[1].SourcePath)
}

func TestNormalize_TitledComponentsBecomeGroup(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"src/forms/Input.tsx":  file(""),
		"src/forms/Select.tsx": file(""),
		"src/forms/README.md":  file("# Forms"),
	}

	res, err := normalize(t, fsys, ItemConfig{
		Type:        ItemComponents,
		Title:       "Form Controls",
		Description: "Inputs and friends",
		Content:     "src/forms/README.md",
		Components:  "src/forms/**/*.tsx",
	})
	require.NoError(t, err)
	g := res.Sections[0].(*GroupSection)
	assert.Equal(t, "form-controls", g.Slug)
	assert.Equal(t, "src/forms/README.md", g.Content)
	assert.Equal(t, "Inputs and friends", g.Description)
	require.Len(t, g.Items, 2)
	assert.Equal(t, "form-controls/input", g.Items[0].(*ComponentSection).Slug)
	assert.Equal(t, []string{"form-controls"}, g.Items[1].(*ComponentSection).ParentSlugs)
}

func TestNormalize_SlugCollision(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"a/intro.md": file("a"),
		"b/intro.md": file("b"),
	}

	_, err := normalize(t, fsys,
		ItemConfig{Type: ItemContent, Content: "a/intro.md"},
		ItemConfig{Type: ItemContent, Content: "b/intro.md"},
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSlugCollision))

	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "items[1]", ce.Position)
	assert.Contains(t, err.Error(), "items[0]")
}

func TestNormalize_SameNameInDifferentGroupsDoesNotCollide(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"a/intro.md": file("a"),
		"b/intro.md": file("b"),
	}

	res, err := normalize(t, fsys,
		ItemConfig{Type: ItemGroup, Title: "A", Items: []ItemConfig{{Type: ItemContent, Content: "a/intro.md"}}},
		ItemConfig{Type: ItemGroup, Title: "B", Items: []ItemConfig{{Type: ItemContent, Content: "b/intro.md"}}},
	)
	require.NoError(t, err)
	assert.Equal(t, "a/intro", res.Sections[0].(*GroupSection).Items[0].(*MarkdownSection).Slug)
	assert.Equal(t, "b/intro", res.Sections[1].(*GroupSection).Items[0].(*MarkdownSection).Slug)
}

func TestNormalize_PreservesOrder(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"z.md":         file(""),
		"a.md":         file(""),
		"src/Card.tsx": file(""),
	}

	res, err := normalize(t, fsys,
		ItemConfig{Type: ItemGroup, Title: "Root", Items: []ItemConfig{
			{Type: ItemContent, Content: "z.md"},
			{Type: ItemLink, Title: "GitHub", Href: "https://github.com"},
			{Type: ItemComponents, Components: "src/*.tsx"},
			{Type: ItemContent, Content: "a.md"},
		}},
	)
	require.NoError(t, err)
	items := res.Sections[0].(*GroupSection).Items
	require.Len(t, items, 4)
	assert.Equal(t, KindMarkdown, items[0].Kind())
	assert.Equal(t, "root/z", items[0].(*MarkdownSection).Slug)
	assert.Equal(t, KindLink, items[1].Kind())
	assert.Equal(t, KindComponent, items[2].Kind())
	assert.Equal(t, "root/a", items[3].(*MarkdownSection).Slug)
}

func TestNormalize_ZeroMatchesIsWarning(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"src/Button.tsx": file("")}

	res, err := normalize(t, fsys,
		ItemConfig{Type: ItemComponents, Components: "lib/**/*.tsx"},
		ItemConfig{Type: ItemComponents, Components: "src/*.tsx"},
	)
	require.NoError(t, err)
	require.Len(t, res.Components, 1)
	assert.Equal(t, "src/Button.tsx", res.Components[0].SourcePath)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "items[0]")
}

func TestNormalize_ComponentsDeduplicated(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"src/Button.tsx": file("")}

	res, err := normalize(t, fsys,
		ItemConfig{Type: ItemGroup, Title: "Inputs", Items: []ItemConfig{{Type: ItemComponents, Components: "src/*.tsx"}}},
		ItemConfig{Type: ItemGroup, Title: "Actions", Items: []ItemConfig{{Type: ItemComponents, Components: "src/Button.tsx"}}},
	)
	require.NoError(t, err)
	require.Len(t, res.Components, 1)
	assert.Equal(t, []string{"inputs"}, res.Components[0].ParentSlugs)

	var leaves []string
	Walk(res.Sections, func(s Section) bool {
		if c, ok := s.(*ComponentSection); ok {
			leaves = append(leaves, c.Slug)
		}
		return true
	})
	assert.Equal(t, []string{"inputs/button", "actions/button"}, leaves)
}

func TestNormalize_Docs(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"docs/guides/b.md":          file("# Bee"),
		"docs/guides/a.md":          file("# Ay"),
		"docs/guides/c.md":          file("---\norder: 1\n---\n# Sea"),
		"docs/guides/index.md":      file("---\norder: 0\ntitle: Guides\n---\n"),
		"docs/guides/_partial.md":   file("ignored"),
		"docs/guides/.draft.md":     file("ignored"),
		"docs/guides/_drafts/x.md":  file("ignored"),
		"docs/guides/deep/Topic.md": file("# Deep"),
		"docs/guides/image.png":     file("png"),
	}

	res, err := normalize(t, fsys, ItemConfig{Type: ItemDocs, Folder: "docs/guides"})
	require.NoError(t, err)

	var slugs, titles []string
	for _, s := range res.Sections {
		md := s.(*MarkdownSection)
		slugs = append(slugs, md.Slug)
		titles = append(titles, md.Title)
	}
	assert.Equal(t, []string{"guides", "guides/c", "guides/a", "guides/b", "guides/deep/topic"}, slugs)
	assert.Equal(t, []string{"Guides", "Sea", "Ay", "Bee", "Deep"}, titles)
}

func TestNormalize_DocsRootPath(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"pages/index.md": file("# Home"),
		"pages/faq.md":   file("# FAQ"),
	}

	res, err := normalize(t, fsys, ItemConfig{Type: ItemDocs, Folder: "pages", Path: "/"})
	require.NoError(t, err)
	require.Len(t, res.Sections, 2)
	assert.Equal(t, "faq", res.Sections[0].(*MarkdownSection).Slug)
	assert.Equal(t, "", res.Sections[1].(*MarkdownSection).Slug)
}

func TestNormalize_DocsMissingFolder(t *testing.T) {
	t.Parallel()
	_, err := normalize(t, fstest.MapFS{}, ItemConfig{Type: ItemDocs, Folder: "nope"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEnumerate))
}

func TestNormalize_ReportsFirstFailingItem(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"x.md": file("# X\n")}
	items := []ItemConfig{
		{Type: ItemDocs, Folder: "missing"},
		{Type: ItemContent, Content: "x.md", Path: "a"},
		{Type: ItemContent, Content: "x.md", Path: "b"},
		{Type: ItemContent, Content: "x.md", Path: "c"},
		{Type: "bogus"},
	}

	for range 50 {
		_, err := normalize(t, fsys, items...)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEnumerate), "got %v", err)

		var ce *ConfigError
		require.True(t, errors.As(err, &ce))
		require.Equal(t, "items[0]", ce.Position)
	}
}

func TestNormalize_InvalidItems(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"x.md": file("")}

	tests := []struct {
		name    string
		item    ItemConfig
		wantErr error
	}{
		{"missing type", ItemConfig{Title: "X"}, ErrMissingField},
		{"unknown type", ItemConfig{Type: "page", Title: "X"}, ErrUnknownType},
		{"link without href", ItemConfig{Type: ItemLink, Title: "X"}, ErrMissingField},
		{"link without title", ItemConfig{Type: ItemLink, Href: "https://x"}, ErrMissingField},
		{"content without content", ItemConfig{Type: ItemContent, Title: "X"}, ErrMissingField},
		{"docs without folder", ItemConfig{Type: ItemDocs, Title: "X"}, ErrMissingField},
		{"components without glob", ItemConfig{Type: ItemComponents, Title: "X"}, ErrMissingField},
		{"group without title", ItemConfig{Type: ItemGroup}, ErrMissingField},
		{"escaping path", ItemConfig{Type: ItemContent, Content: "../secret.md"}, ErrInvalidPath},
		{"absolute path", ItemConfig{Type: ItemContent, Content: "/etc/x.md"}, ErrInvalidPath},
		{"unslugifiable title", ItemConfig{Type: ItemGroup, Title: "!!!"}, ErrInvalidPath},
		{"missing content file", ItemConfig{Type: ItemContent, Content: "missing.md"}, ErrEnumerate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := normalize(t, fsys,
				ItemConfig{Type: ItemContent, Content: "x.md"},
				ItemConfig{Type: ItemGroup, Title: "Outer", Items: []ItemConfig{tt.item}},
			)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			var ce *ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "items[1].items[0]", ce.Position)
		})
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"docs/a.md":     file("# A"),
		"docs/b.md":     file("# B"),
		"src/Zed.tsx":   file(""),
		"src/Alpha.tsx": file(""),
		"src/Alpha.md":  file(""),
	}
	items := []ItemConfig{
		{Type: ItemDocs, Folder: "docs"},
		{Type: ItemGroup, Title: "Components", Items: []ItemConfig{
			{Type: ItemComponents, Components: "src/*.tsx"},
			{Type: ItemLink, Title: "Storybook", Href: "https://example.com"},
		}},
	}

	first, err := NewNormalizer(fsys).Normalize(context.Background(), items)
	require.NoError(t, err)
	second, err := NewNormalizer(fsys).Normalize(context.Background(), items)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestResult_JSONShape(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"src/Button.tsx": file("")}

	res, err := normalize(t, fsys, ItemConfig{Type: ItemComponents, Components: "src/*.tsx"})
	require.NoError(t, err)

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"sections": [{"type":"component","slug":"button","title":"Button","sourcePath":"src/Button.tsx","docPath":null,"parentSlugs":[]}],
		"components": [{"type":"component","slug":"button","title":"Button","sourcePath":"src/Button.tsx","docPath":null,"parentSlugs":[]}]
	}`, string(out))
}

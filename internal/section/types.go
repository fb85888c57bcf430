package section

import (
	"encoding/json"

	"github.com/jcdickinson/showroom/internal/markdown"
)

// ItemType discriminates the authored item variants.
type ItemType string

const (
	ItemComponents ItemType = "components"
	ItemContent    ItemType = "content"
	ItemLink       ItemType = "link"
	ItemDocs       ItemType = "docs"
	ItemGroup      ItemType = "group"
)

// ItemConfig is one authored entry of the `items` tree. Which fields are
// meaningful depends on Type; the normalizer validates them.
type ItemConfig struct {
	Type        ItemType     `mapstructure:"type" json:"type"`
	Title       string       `mapstructure:"title" json:"title,omitempty"`
	Path        string       `mapstructure:"path" json:"path,omitempty"`
	Description string       `mapstructure:"description" json:"description,omitempty"`
	Content     string       `mapstructure:"content" json:"content,omitempty"`
	Components  string       `mapstructure:"components" json:"components,omitempty"`
	Folder      string       `mapstructure:"folder" json:"folder,omitempty"`
	Href        string       `mapstructure:"href" json:"href,omitempty"`
	Items       []ItemConfig `mapstructure:"items" json:"items,omitempty"`
}

// Kind discriminates normalized sections.
type Kind string

const (
	KindComponent Kind = "component"
	KindMarkdown  Kind = "markdown"
	KindLink      Kind = "link"
	KindGroup     Kind = "group"
)

// Section is a node of the normalized tree.
type Section interface {
	Kind() Kind
	// SlugOf returns the section's unique slug; links have none.
	SlugOf() (string, bool)
}

// ComponentSection is a component leaf. DocPath is empty when the component
// has no co-located documentation file.
type ComponentSection struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	SourcePath  string   `json:"sourcePath"`
	DocPath     string   `json:"-"`
	ParentSlugs []string `json:"parentSlugs"`
	Position    string   `json:"-"`
}

func (*ComponentSection) Kind() Kind               { return KindComponent }
func (s *ComponentSection) SlugOf() (string, bool) { return s.Slug, true }

func (s *ComponentSection) MarshalJSON() ([]byte, error) {
	type alias ComponentSection
	var docPath *string
	if s.DocPath != "" {
		docPath = &s.DocPath
	}
	parents := s.ParentSlugs
	if parents == nil {
		parents = []string{}
	}
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
		DocPath     *string  `json:"docPath"`
		ParentSlugs []string `json:"parentSlugs"`
	}{KindComponent, (*alias)(s), docPath, parents})
}

// MarkdownSection is a standalone content page.
type MarkdownSection struct {
	Slug       string               `json:"slug"`
	Title      string               `json:"title,omitempty"`
	SourcePath string               `json:"sourcePath"`
	Front      markdown.FrontMatter `json:"frontmatter"`
	Position   string               `json:"-"`
}

func (*MarkdownSection) Kind() Kind               { return KindMarkdown }
func (s *MarkdownSection) SlugOf() (string, bool) { return s.Slug, true }

func (s *MarkdownSection) MarshalJSON() ([]byte, error) {
	type alias MarkdownSection
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{KindMarkdown, (*alias)(s)})
}

// LinkSection is a plain hyperlink in the navigation.
type LinkSection struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

func (*LinkSection) Kind() Kind             { return KindLink }
func (*LinkSection) SlugOf() (string, bool) { return "", false }

func (s *LinkSection) MarshalJSON() ([]byte, error) {
	type alias LinkSection
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{KindLink, (*alias)(s)})
}

// GroupSection holds child sections in authored order. Content is an
// optional overview markdown file.
type GroupSection struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	Items       []Section `json:"-"`
	Position    string    `json:"-"`
}

func (*GroupSection) Kind() Kind               { return KindGroup }
func (s *GroupSection) SlugOf() (string, bool) { return s.Slug, true }

func (s *GroupSection) MarshalJSON() ([]byte, error) {
	type alias GroupSection
	items := s.Items
	if items == nil {
		items = []Section{}
	}
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
		Items []Section `json:"items"`
	}{KindGroup, (*alias)(s), items})
}

// Result is the output of a normalization run.
type Result struct {
	Sections   []Section           `json:"sections"`
	Components []*ComponentSection `json:"components"`
	Warnings   []string            `json:"-"`
}

// Walk visits every section depth-first in declaration order. Returning false
// from fn skips the children of a group.
func Walk(sections []Section, fn func(Section) bool) {
	for _, s := range sections {
		if !fn(s) {
			continue
		}
		if g, ok := s.(*GroupSection); ok {
			Walk(g.Items, fn)
		}
	}
}

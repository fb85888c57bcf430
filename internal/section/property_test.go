package section

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"testing/fstest"

	"pgregory.net/rapid"
)

var propFS = fstest.MapFS{
	"intro.md":         file("# Intro"),
	"guides/setup.md":  file("# Setup"),
	"guides/intro.md":  file("# Other intro"),
	"src/Button.tsx":   file(""),
	"src/Card.tsx":     file(""),
	"src/Card.md":      file("# Card"),
	"docs/a.md":        file(""),
	"docs/nested/b.md": file(""),
}

func drawItems(t *rapid.T, depth int, label string) []ItemConfig {
	n := rapid.IntRange(0, 4).Draw(t, label+".len")
	items := make([]ItemConfig, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, drawItem(t, depth, label))
	}
	return items
}

func drawItem(t *rapid.T, depth int, label string) ItemConfig {
	kinds := []ItemType{ItemLink, ItemContent, ItemComponents, ItemDocs}
	if depth < 3 {
		kinds = append(kinds, ItemGroup)
	}
	title := rapid.SampledFrom([]string{"", "Alpha", "Beta", "Gamma Ray"}).Draw(t, label+".title")

	switch rapid.SampledFrom(kinds).Draw(t, label+".type") {
	case ItemLink:
		return ItemConfig{Type: ItemLink, Title: "Link", Href: "https://example.com"}
	case ItemContent:
		content := rapid.SampledFrom([]string{"intro.md", "guides/setup.md", "guides/intro.md"}).Draw(t, label+".content")
		return ItemConfig{Type: ItemContent, Title: title, Content: content}
	case ItemComponents:
		glob := rapid.SampledFrom([]string{"src/*.tsx", "src/Card.tsx", "missing/*.tsx"}).Draw(t, label+".glob")
		return ItemConfig{Type: ItemComponents, Title: title, Components: glob}
	case ItemDocs:
		return ItemConfig{Type: ItemDocs, Title: title, Folder: "docs"}
	default:
		if title == "" {
			title = "Group"
		}
		return ItemConfig{Type: ItemGroup, Title: title, Items: drawItems(t, depth+1, label+".items")}
	}
}

// emitted is the number of top-level sections an item contributes.
func emitted(item ItemConfig) int {
	switch item.Type {
	case ItemComponents:
		if item.Title != "" || item.Path != "" {
			return 1
		}
		m := 0
		switch item.Components {
		case "src/*.tsx":
			m = 2
		case "src/Card.tsx":
			m = 1
		}
		return m
	case ItemDocs:
		return 2
	}
	return 1
}

func TestNormalize_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := drawItems(t, 0, "items")

		res, err := NewNormalizer(propFS).Normalize(context.Background(), items)
		if err != nil {
			if !errors.Is(err, ErrSlugCollision) {
				t.Fatalf("unexpected error: %v", err)
			}
			return
		}

		// Slugs are unique across the tree.
		seen := map[string]bool{}
		Walk(res.Sections, func(s Section) bool {
			if slug, ok := s.SlugOf(); ok {
				if seen[slug] {
					t.Fatalf("duplicate slug %q", slug)
				}
				seen[slug] = true
			}
			return true
		})

		// Declaration order is kept at the top level.
		want := 0
		for _, it := range items {
			want += emitted(it)
		}
		if len(res.Sections) != want {
			t.Fatalf("got %d top-level sections, want %d", len(res.Sections), want)
		}

		// Components are unique by source path.
		paths := map[string]bool{}
		for _, c := range res.Components {
			if paths[c.SourcePath] {
				t.Fatalf("component %q listed twice", c.SourcePath)
			}
			paths[c.SourcePath] = true
		}

		// Normalizing again yields the same tree.
		again, err := NewNormalizer(propFS).Normalize(context.Background(), items)
		if err != nil {
			t.Fatalf("second run failed: %v", err)
		}
		a, _ := json.Marshal(res)
		b, _ := json.Marshal(again)
		if string(a) != string(b) {
			t.Fatalf("non-deterministic output:\n%s\n%s", a, b)
		}
	})
}

package search

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jcdickinson/showroom/internal/docgen"
	"github.com/jcdickinson/showroom/internal/section"
	"github.com/klauspost/compress/gzip"
)

// IndexFile is the name of the index written next to the site pages.
const IndexFile = "search-index.json"

// Entry is one searchable unit: a page chunk or a component.
type Entry struct {
	Slug    string       `json:"slug"`
	Title   string       `json:"title"`
	Heading string       `json:"heading,omitempty"`
	Anchor  string       `json:"anchor,omitempty"`
	Kind    section.Kind `json:"kind"`
	Text    string       `json:"text"`

	title, heading, text string // folded for matching
}

func (e *Entry) prepare() {
	e.title = fold(e.Title)
	e.heading = fold(e.Heading)
	e.text = fold(e.Text)
}

// fold normalizes text for matching the same way slugs are built, so
// "Crème" and "creme" are equal.
func fold(s string) string {
	return " " + strings.ReplaceAll(section.Slugify(s), "-", " ") + " "
}

// Index is an in-memory full-text index. It is small enough to ship to the
// browser as JSON.
type Index struct {
	Entries []Entry `json:"entries"`
}

func (ix *Index) add(e Entry) {
	e.prepare()
	ix.Entries = append(ix.Entries, e)
}

// AddMarkdown indexes a page body, one entry per heading chunk.
func (ix *Index) AddMarkdown(slug, title, body string) {
	chunks := ChunkSections(body)
	if len(chunks) == 0 {
		ix.add(Entry{Slug: slug, Title: title, Kind: section.KindMarkdown})
		return
	}
	for _, c := range chunks {
		ix.add(Entry{Slug: slug, Title: title, Heading: c.Heading, Anchor: c.Anchor, Kind: section.KindMarkdown, Text: c.Text})
	}
}

// AddComponent indexes a component's API docs and its documentation page.
func (ix *Index) AddComponent(slug string, doc *docgen.ComponentDoc, body string) {
	parts := []string{doc.Description}
	for _, p := range doc.Props {
		parts = append(parts, p.Name, p.Description)
	}
	ix.add(Entry{Slug: slug, Title: doc.DisplayName, Kind: section.KindComponent, Text: strings.Join(nonEmpty(parts), " ")})
	for _, c := range ChunkSections(body) {
		ix.add(Entry{Slug: slug, Title: doc.DisplayName, Heading: c.Heading, Anchor: c.Anchor, Kind: section.KindComponent, Text: c.Text})
	}
}

func nonEmpty(ss []string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Hit is a ranked query result.
type Hit struct {
	Entry
	Score   float64
	Snippet string
}

const (
	titleWeight   = 5
	headingWeight = 3
	maxTextHits   = 5
	snippetLen    = 160
)

// Query returns entries matching every term of q, best first. Ties keep
// index order. A limit <= 0 means no limit.
func (ix *Index) Query(q string, limit int) []Hit {
	terms := strings.Fields(strings.TrimSpace(fold(q)))
	if len(terms) == 0 {
		return nil
	}

	var hits []Hit
	for _, e := range ix.Entries {
		score := 0.0
		matched := true
		for _, t := range terms {
			s := 0.0
			if strings.Contains(e.title, t) {
				s += titleWeight
			}
			if strings.Contains(e.heading, t) {
				s += headingWeight
			}
			s += float64(min(strings.Count(e.text, t), maxTextHits))
			if s == 0 {
				matched = false
				break
			}
			score += s
		}
		if matched {
			hits = append(hits, Hit{Entry: e, Score: score, Snippet: snippet(e.Text, terms[0])})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// snippet returns the part of text around the first occurrence of term.
func snippet(text, term string) string {
	i := strings.Index(strings.ToLower(text), term)
	if i < 0 || i >= len(text) {
		return truncate(text, snippetLen)
	}
	start := max(0, i-snippetLen/4)
	for start > 0 && text[start-1] != ' ' {
		start--
	}
	out := truncate(text[start:], snippetLen)
	if start > 0 {
		out = "..." + out
	}
	return out
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut] + "..."
}

// WriteJSON writes the index to dir as search-index.json with a gzip
// sibling for servers that serve precompressed files.
func (ix *Index) WriteJSON(dir string) error {
	data, err := json.Marshal(ix)
	if err != nil {
		return fmt.Errorf("encoding search index: %w", err)
	}
	p := filepath.Join(dir, IndexFile)
	if err := os.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("writing search index: %w", err)
	}

	f, err := os.Create(p + ".gz")
	if err != nil {
		return fmt.Errorf("writing search index: %w", err)
	}
	defer f.Close()
	zw, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("creating gzip writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return fmt.Errorf("compressing search index: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing gzip writer: %w", err)
	}
	return f.Close()
}

// ReadJSON loads an index written by WriteJSON.
func ReadJSON(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading search index: %w", err)
	}
	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("decoding search index: %w", err)
	}
	for i := range ix.Entries {
		ix.Entries[i].prepare()
	}
	return &ix, nil
}

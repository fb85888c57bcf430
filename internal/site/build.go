package site

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jcdickinson/showroom/internal/config"
	"github.com/jcdickinson/showroom/internal/rpc"
	"github.com/jcdickinson/showroom/internal/search"
	"golang.org/x/sync/errgroup"
)

// SectionsFile is the machine-readable section tree written with every build.
const SectionsFile = "sections.json"

// Build writes the site to outDir. Existing files are overwritten; stale
// files from earlier builds are left alone.
func (s *Site) Build(ctx context.Context, outDir string) error {
	start := time.Now()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outDir, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, p := range s.Pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return s.writePage(filepath.Join(outDir, filepath.FromSlash(p.Route), "index.html"), p)
		})
	}
	g.Go(func() error { return s.writePage(filepath.Join(outDir, "404.html"), s.notFound) })
	g.Go(func() error { return s.writePreviews(outDir) })
	g.Go(func() error { return s.writeAssets(outDir) })
	g.Go(func() error { return s.writeData(outDir) })
	if err := g.Wait(); err != nil {
		return err
	}

	if s.Config.AssetDir != "" {
		if err := copyDir(s.Config.AssetDir, outDir); err != nil {
			return fmt.Errorf("copying assets: %w", err)
		}
	}
	s.measure("write", start)
	return nil
}

func writeFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

func (s *Site) writePage(p string, page *Page) error {
	var buf bytes.Buffer
	if err := s.RenderPage(&buf, page); err != nil {
		return fmt.Errorf("rendering /%s: %w", page.Route, err)
	}
	return writeFile(p, buf.Bytes())
}

// writePreviews writes the preview document, a copy of it per example so
// static hosts without a fallback can serve _preview/<hash>, and the
// compiled example modules.
func (s *Site) writePreviews(outDir string) error {
	var buf bytes.Buffer
	if err := s.RenderPreview(&buf); err != nil {
		return fmt.Errorf("rendering preview: %w", err)
	}
	if err := writeFile(filepath.Join(outDir, "_preview.html"), buf.Bytes()); err != nil {
		return err
	}
	for h, ex := range s.Examples {
		if err := writeFile(filepath.Join(outDir, "_preview", h, "index.html"), buf.Bytes()); err != nil {
			return err
		}
		if ex.Result.Type != rpc.ResultSuccess {
			continue
		}
		if err := writeFile(filepath.Join(outDir, "_examples", h+".js"), []byte(ex.Result.Code)); err != nil {
			return err
		}
	}
	for _, m := range s.Modules {
		if err := writeFile(filepath.Join(outDir, "_modules", m.File), m.Code); err != nil {
			return err
		}
	}
	return nil
}

func (s *Site) writeAssets(outDir string) error {
	css, err := s.highlighter.CSS()
	if err != nil {
		return fmt.Errorf("generating code styles: %w", err)
	}
	if err := writeFile(filepath.Join(outDir, "_assets", "code.css"), []byte(css)); err != nil {
		return err
	}
	return fs.WalkDir(assetFS, "assets", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := assetFS.ReadFile(p)
		if err != nil {
			return err
		}
		return writeFile(filepath.Join(outDir, "_assets", filepath.FromSlash(p[len("assets/"):])), data)
	})
}

// Manifest is the content of sections.json.
type Manifest struct {
	BuildID string `json:"buildId"`
	*config.Normalized
}

func (s *Site) writeData(outDir string) error {
	data, err := json.MarshalIndent(Manifest{BuildID: s.BuildID, Normalized: s.Config}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding sections: %w", err)
	}
	if err := writeFile(filepath.Join(outDir, SectionsFile), data); err != nil {
		return err
	}
	return s.Index.WriteJSON(outDir)
}

// copyDir copies the files of src into dst, preserving relative paths.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(p, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Search answers a query against the site's index with absolute URLs.
func (s *Site) Search(q string, limit int) []rpc.SearchResult {
	return SearchResults(s.Index, s.Config.BasePath, q, limit)
}

// SearchResults queries ix, linking hits to pages under basePath.
func SearchResults(ix *search.Index, basePath, q string, limit int) []rpc.SearchResult {
	hits := ix.Query(q, limit)
	out := make([]rpc.SearchResult, 0, len(hits))
	for _, h := range hits {
		url := basePath + "/" + h.Slug
		if h.Anchor != "" {
			url += "#" + h.Anchor
		}
		out = append(out, rpc.SearchResult{
			Slug:    h.Slug,
			URL:     url,
			Title:   h.Title,
			Heading: h.Heading,
			Kind:    string(h.Kind),
			Score:   h.Score,
			Snippet: h.Snippet,
		})
	}
	return out
}

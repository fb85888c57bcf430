package docgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/jcdickinson/showroom/internal/cas"
	"golang.org/x/sync/errgroup"
)

// cacheVersion invalidates cached docs whenever extraction output changes.
const cacheVersion = "docgen/v1\x00"

// Extractor documents components, reusing results cached in Store when the
// source is unchanged. A nil Store disables caching.
type Extractor struct {
	Store       *cas.Store
	Concurrency int
}

func (e *Extractor) Extract(ctx context.Context, filePath string, src []byte) (*ComponentDoc, error) {
	if e.Store == nil {
		return Extract(ctx, filePath, src)
	}

	key := cas.Sum([]byte(cacheVersion), []byte(filePath), []byte{0}, src)
	if data, err := e.Store.Read(key); err == nil {
		var doc ComponentDoc
		if err := json.Unmarshal(data, &doc); err == nil {
			return &doc, nil
		}
		slog.Debug("docgen: ignoring corrupt cache entry", "path", filePath)
	} else if !errors.Is(err, cas.ErrNotFound) {
		slog.Debug("docgen: cache read failed", "path", filePath, "error", err)
	}

	doc, err := Extract(ctx, filePath, src)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding docs for %s: %w", filePath, err)
	}
	if err := e.Store.Write(key, data); err != nil {
		slog.Warn("docgen: cache write failed", "path", filePath, "error", err)
	}
	return doc, nil
}

// ExtractAll documents every path in fsys concurrently. The result is keyed
// by path.
func (e *Extractor) ExtractAll(ctx context.Context, fsys fs.FS, paths []string) (map[string]*ComponentDoc, error) {
	var (
		mu   sync.Mutex
		docs = make(map[string]*ComponentDoc, len(paths))
	)
	limit := e.Concurrency
	if limit <= 0 {
		limit = 8
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, p := range paths {
		g.Go(func() error {
			src, err := fs.ReadFile(fsys, p)
			if err != nil {
				return fmt.Errorf("reading component %s: %w", p, err)
			}
			doc, err := e.Extract(ctx, p, src)
			if err != nil {
				return err
			}
			mu.Lock()
			docs[p] = doc
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

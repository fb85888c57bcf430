// Package devserver serves a site while it is being edited: it rebuilds on
// file changes, pushes reloads to open pages and compiles live-editor code.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jcdickinson/showroom/internal/cas"
	"github.com/jcdickinson/showroom/internal/compile"
	"github.com/jcdickinson/showroom/internal/config"
	"github.com/jcdickinson/showroom/internal/rpc"
	"github.com/jcdickinson/showroom/internal/site"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"
)

type Options struct {
	Host string
	Port int
	// Measure logs how long every build phase took.
	Measure bool
	// Config locates the project and its configuration file.
	Config config.Options
	Cache  *cas.Store
	// Debounce is the quiet period after a file change before rebuilding.
	Debounce time.Duration
}

// build is one successfully written site. refs counts requests still
// reading files from dir.
type build struct {
	site *site.Site
	dir  string
	refs sync.WaitGroup
}

// retire removes the build's files once no request is reading them.
func (b *build) retire() {
	go func() {
		b.refs.Wait()
		os.RemoveAll(b.dir)
	}()
}

type Server struct {
	opts       Options
	httpServer *http.Server
	listener   net.Listener
	workDir    string
	compiler   *compile.Compiler
	metrics    *Metrics
	reload     *hub

	mu      sync.RWMutex
	current *build
	lastErr error
	watcher *Watcher

	rebuildGroup singleflight.Group
	dirty        atomic.Bool
	// loaded, when set, runs after a build has read the project and before
	// it is written.
	loaded func()
}

func New(opts Options) (*Server, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = 100 * time.Millisecond
	}
	workDir, err := os.MkdirTemp("", "showroom-dev-")
	if err != nil {
		return nil, fmt.Errorf("creating build directory: %w", err)
	}
	return &Server{
		opts:     opts,
		workDir:  workDir,
		compiler: compile.New(),
		metrics:  NewMetrics(),
		reload:   newHub(),
	}, nil
}

// Handler routes every dev server endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /_compile", s.handleCompile)
	mux.HandleFunc("GET /_compile/ws", s.handleCompileSocket)
	mux.HandleFunc("GET /_livereload", s.handleLiveReload)
	mux.HandleFunc("GET /_search", s.handleSearch)
	mux.HandleFunc("GET /_status", s.handleStatus)
	mux.Handle("GET /_metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /", s.handleStatic)
	return mux
}

// Addr is the address the server listens on, once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start builds the site, starts watching the project and serves until Stop.
// A failing first build is returned; later failures keep the last good site.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Rebuild(ctx); err != nil {
		return err
	}

	cfg := s.snapshot().site.Config
	w, err := NewWatcher(cfg.Dir, []string{cfg.OutDir, s.workDir}, s.opts.Debounce, func() {
		if err := s.Rebuild(context.Background()); err != nil {
			slog.Error("rebuild failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	go w.Run(ctx)

	addr := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	log.Printf("devserver: serving %s at http://%s%s/", cfg.Dir, listener.Addr(), cfg.BasePath)

	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.reload.close()
	s.mu.Lock()
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.mu.Unlock()
	if err := os.RemoveAll(s.workDir); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Server) snapshot() *build {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// acquire returns the current build, keeping its files until the caller
// calls b.refs.Done.
func (s *Server) acquire() *build {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current != nil {
		s.current.refs.Add(1)
	}
	return s.current
}

// Rebuild reloads the configuration and rebuilds the site. Concurrent calls
// share one build, but a call made while a build is running always causes
// another build after it, so no change is missed. On success every open page
// is told to reload; on failure the previous site keeps being served and
// pages are told about the error.
func (s *Server) Rebuild(ctx context.Context) error {
	s.dirty.Store(true)
	for {
		_, err, _ := s.rebuildGroup.Do("build", func() (interface{}, error) {
			var err error
			for s.dirty.Swap(false) {
				err = s.rebuild(ctx)
			}
			return nil, err
		})
		if !s.dirty.Load() {
			return err
		}
	}
}

func (s *Server) rebuild(ctx context.Context) error {
	start := time.Now()
	b, err := s.build(ctx)
	s.metrics.observeBuild(time.Since(start), err)

	s.mu.Lock()
	old := s.current
	s.lastErr = err
	if err == nil {
		s.current = b
	}
	s.mu.Unlock()

	if err != nil {
		s.reload.broadcast(rpc.ReloadMessage{Type: "error", Error: err.Error()})
		return err
	}
	if old != nil {
		old.retire()
	}

	slog.Info("site built", "pages", len(b.site.Pages), "components", len(b.site.Config.Components),
		"duration", time.Since(start).Round(time.Millisecond))
	if s.opts.Measure {
		for _, t := range b.site.Timings {
			slog.Info("build phase", "phase", t.Phase, "duration", t.Duration)
		}
	}
	s.reload.broadcast(rpc.ReloadMessage{Type: "reload", BuildID: b.site.BuildID})
	return nil
}

func (s *Server) build(ctx context.Context) (*build, error) {
	cfg, err := config.Load(s.opts.Config)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	n, err := cfg.Normalize(ctx)
	if err != nil {
		return nil, err
	}
	st, err := site.Load(ctx, n, site.Options{Cache: s.opts.Cache, LiveReload: true, Dev: true})
	if err != nil {
		return nil, err
	}
	if s.loaded != nil {
		s.loaded()
	}
	dir, err := os.MkdirTemp(s.workDir, "build-")
	if err != nil {
		return nil, fmt.Errorf("creating build directory: %w", err)
	}
	if err := st.Build(ctx, dir); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return &build{site: st, dir: dir}, nil
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req rpc.CompileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res := s.compiler.Compile(req)
	s.metrics.CompileRequestsTotal.WithLabelValues("http", res.Type).Inc()
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	b := s.snapshot()
	if b == nil {
		writeError(w, http.StatusServiceUnavailable, "site not built yet")
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing query")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	writeJSON(w, http.StatusOK, rpc.SearchResponse{Results: b.site.Search(q, limit)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	b, lastErr := s.current, s.lastErr
	s.mu.RUnlock()

	var resp rpc.StatusResponse
	if b != nil {
		resp.BuildID = b.site.BuildID
		resp.Pages = len(b.site.Pages)
		resp.Components = len(b.site.Config.Components)
	}
	if lastErr != nil {
		resp.LastError = lastErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStatic serves the built files. Unknown preview paths fall back to
// the preview document so freshly edited examples load; any other unknown
// path gets the not-found page.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	b := s.acquire()
	if b == nil {
		writeError(w, http.StatusServiceUnavailable, "site not built yet")
		return
	}
	defer b.refs.Done()
	route, ok := b.site.Route(r.URL.Path)
	if !ok {
		s.notFound(w, b)
		return
	}
	name := filepath.Join(b.dir, filepath.FromSlash(path.Clean("/"+route)))
	if info, err := os.Stat(name); err == nil {
		if info.IsDir() {
			name = filepath.Join(name, "index.html")
		}
		if _, err := os.Stat(name); err == nil {
			http.ServeFile(w, r, name)
			return
		}
	}
	if strings.HasPrefix(route, "_preview/") {
		http.ServeFile(w, r, filepath.Join(b.dir, "_preview.html"))
		return
	}
	s.notFound(w, b)
}

func (s *Server) notFound(w http.ResponseWriter, b *build) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if err := b.site.RenderPage(w, b.site.NotFound()); err != nil {
		slog.Error("rendering not-found page", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

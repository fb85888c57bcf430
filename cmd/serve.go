package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jcdickinson/showroom/internal/cas"
	"github.com/jcdickinson/showroom/internal/config"
	"github.com/jcdickinson/showroom/internal/site"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	projectDir string
	configFile string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:     "showroom",
	Short:   "Documentation sites for React component libraries",
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "project directory")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: showroom.{yaml,yml,toml,json} in the project directory)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose log output")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(devCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sectionsCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(clearCacheCmd)
	rootCmd.AddCommand(mcpCmd)
}

func configOptions() config.Options {
	return config.Options{Dir: projectDir, File: configFile}
}

// loadConfig reads and normalizes the project configuration.
func loadConfig(ctx context.Context) (*config.Normalized, error) {
	cfg, err := config.Load(configOptions())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.File != "" {
		slog.Debug("loaded config", "file", cfg.File)
	}
	return cfg.Normalize(ctx)
}

func cacheStore() *cas.Store {
	return cas.New(config.CASDir())
}

// loadSite loads the project's site with the shared docs cache.
func loadSite(ctx context.Context, opts site.Options) (*site.Site, error) {
	n, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	opts.Cache = cacheStore()
	return site.Load(ctx, n, opts)
}

func logTimings(st *site.Site) {
	for _, t := range st.Timings {
		slog.Info("phase", "name", t.Phase, "duration", t.Duration.Round(time.Microsecond))
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the built site from the output directory",
	Long: `Serve a site previously written by "showroom build". Unknown preview
paths fall back to the preview document and other unknown paths to 404.html.`,
	Run: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "host to listen on")
	serveCmd.Flags().IntVar(&servePort, "port", 6969, "port to listen on")
}

func runServe(cmd *cobra.Command, args []string) {
	n, err := loadConfig(context.Background())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if _, err := os.Stat(filepath.Join(n.OutDir, "index.html")); err != nil {
		log.Fatalf("no site in %s, run \"showroom build\" first", n.OutDir)
	}

	addr := net.JoinHostPort(serveHost, strconv.Itoa(servePort))
	server := &http.Server{
		Addr:              addr,
		Handler:           staticHandler(n.OutDir, n.BasePath),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("serving %s at http://%s%s/", n.OutDir, addr, n.BasePath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if err := waitForSignal(errCh); err != nil {
		log.Fatalf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}

// staticHandler serves dir under basePath.
func staticHandler(dir, basePath string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.StripPrefix(basePath, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if _, err := os.Stat(name); err == nil {
			files.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/_preview/") {
			http.ServeFile(w, r, filepath.Join(dir, "_preview.html"))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		if data, err := os.ReadFile(filepath.Join(dir, "404.html")); err == nil {
			w.Write(data)
		}
	}))
}

func waitForSignal(errCh chan error) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		log.Printf("received signal: %s", sig)
		return nil
	case err := <-errCh:
		return err
	}
}

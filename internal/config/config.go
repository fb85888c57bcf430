package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/jcdickinson/showroom/internal/section"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Import is a module made available to live examples. Path, when set, points
// at a local source file that is bundled into the site.
type Import struct {
	Name string `mapstructure:"name" json:"name"`
	Path string `mapstructure:"path" json:"path,omitempty"`
}

type Config struct {
	Title     string               `mapstructure:"title"`
	OutDir    string               `mapstructure:"out_dir"`
	BasePath  string               `mapstructure:"base_path"`
	Prerender bool                 `mapstructure:"prerender"`
	CodeTheme string               `mapstructure:"code_theme"`
	AssetDir  string               `mapstructure:"asset_dir"`
	Imports   []Import             `mapstructure:"imports"`
	Items     []section.ItemConfig `mapstructure:"items"`

	// Dir is the absolute project directory every path is relative to.
	Dir string `mapstructure:"-"`
	// File is the config file that was read, empty when defaults were used.
	File string `mapstructure:"-"`
}

// Options select where configuration is read from.
type Options struct {
	// Dir is the project directory; defaults to the working directory.
	Dir string
	// File is an explicit config file. When empty, showroom.{yaml,yml,toml,json}
	// is looked up in Dir.
	File string
}

// cacheBase returns the base cache directory for showroom.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/showroom as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "showroom")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "showroom")
	}
	return filepath.Join(os.TempDir(), "showroom")
}

// CASDir returns the path to the content-addressable storage directory.
func CASDir() string {
	return filepath.Join(cacheBase(), "cas")
}

func newViper(opts Options, dir string) *viper.Viper {
	v := viper.New()
	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("showroom")
		v.AddConfigPath(dir)
	}

	v.SetDefault("title", "React Showroom")
	v.SetDefault("out_dir", "showroom")
	v.SetDefault("base_path", "/")
	v.SetDefault("prerender", false)
	v.SetDefault("code_theme", "github")
	v.SetDefault("asset_dir", "")
	v.SetDefault("imports", []any{})
	v.SetDefault("items", []any{})

	v.SetEnvPrefix("SHOWROOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func stringToImportHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(Import{}) {
			return data, nil
		}
		if f.Kind() == reflect.String {
			return Import{Name: data.(string)}, nil
		}
		return data, nil
	}
}

func Load(opts Options) (*Config, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving project dir: %w", err)
	}

	v := newViper(opts, dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToImportHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Dir = dir
	config.File = v.ConfigFileUsed()
	for i, imp := range config.Imports {
		if imp.Name == "" {
			return nil, fmt.Errorf("imports[%d]: missing name", i)
		}
	}
	return &config, nil
}

// NormalizeBasePath returns the URL prefix pages are served under: a leading
// slash, no trailing slash, and "" for the root. It only applies to
// prerendered sites.
func NormalizeBasePath(basePath string, prerender bool) string {
	if !prerender {
		return ""
	}
	trimmed := strings.Trim(basePath, "/")
	if trimmed == "" {
		return ""
	}
	return "/" + trimmed
}

// Normalized is the fully resolved configuration handed to the site builder.
type Normalized struct {
	Title      string                      `json:"title"`
	Dir        string                      `json:"-"`
	OutDir     string                      `json:"outDir"`
	BasePath   string                      `json:"basePath"`
	Prerender  bool                        `json:"prerender"`
	CodeTheme  string                      `json:"codeTheme"`
	AssetDir   string                      `json:"assetDir,omitempty"`
	Imports    []Import                    `json:"imports"`
	Sections   []section.Section           `json:"sections"`
	Components []*section.ComponentSection `json:"components"`
	Warnings   []string                    `json:"-"`
}

// Normalize resolves the item tree against the project directory.
func (c *Config) Normalize(ctx context.Context) (*Normalized, error) {
	return c.NormalizeFS(ctx, os.DirFS(c.Dir))
}

// NormalizeFS is Normalize over an arbitrary file system rooted at the
// project directory.
func (c *Config) NormalizeFS(ctx context.Context, fsys fs.FS) (*Normalized, error) {
	res, err := section.NewNormalizer(fsys).Normalize(ctx, c.Items)
	if err != nil {
		return nil, err
	}

	imports := c.Imports
	if imports == nil {
		imports = []Import{}
	}
	n := &Normalized{
		Title:      c.Title,
		Dir:        c.Dir,
		OutDir:     c.resolve(c.OutDir),
		BasePath:   NormalizeBasePath(c.BasePath, c.Prerender),
		Prerender:  c.Prerender,
		CodeTheme:  c.CodeTheme,
		Imports:    imports,
		Sections:   res.Sections,
		Components: res.Components,
		Warnings:   res.Warnings,
	}
	if c.AssetDir != "" {
		n.AssetDir = c.resolve(c.AssetDir)
	}
	return n, nil
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

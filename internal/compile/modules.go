package compile

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/jcdickinson/showroom/internal/config"
	"golang.org/x/sync/errgroup"
)

// Module is one entry of the examples' import map, bundled as an ES module.
type Module struct {
	Name string
	File string // file name under _modules/
	Code []byte
}

// ModuleFile returns the bundle file name for an import specifier.
func ModuleFile(name string) string {
	r := strings.NewReplacer("@", "", "/", "__", "\\", "__")
	return r.Replace(name) + ".js"
}

// specifiers lists the import names examples may use. Examples compile with
// the automatic JSX runtime, so importing react also exposes its runtime,
// and previews mount through react-dom/client.
func specifiers(imports []config.Import) []string {
	var names []string
	for _, imp := range imports {
		names = append(names, imp.Name)
		switch imp.Name {
		case "react":
			names = append(names, "react/jsx-runtime")
		case "react-dom":
			names = append(names, "react-dom/client")
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// BundleModules bundles every configured import from the project directory.
// Each bundle keeps the other imports external so examples share a single
// copy of libraries such as React. Imports that fail to bundle are reported
// in errs and left out of the result.
func BundleModules(ctx context.Context, dir string, imports []config.Import) (mods []Module, errs []error) {
	local := make(map[string]string)
	for _, imp := range imports {
		if imp.Path != "" {
			local[imp.Name] = imp.Path
		}
	}
	names := specifiers(imports)

	results := make([]*Module, len(names))
	failures := make([]error, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, name := range names {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			external := slices.DeleteFunc(slices.Clone(names), func(n string) bool { return n == name })
			code, err := bundle(dir, name, local[name], external)
			if err != nil {
				failures[i] = fmt.Errorf("bundling %s: %w", name, err)
				return nil
			}
			results[i] = &Module{Name: name, File: ModuleFile(name), Code: code}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, []error{err}
	}

	for i := range names {
		if failures[i] != nil {
			errs = append(errs, failures[i])
			continue
		}
		mods = append(mods, *results[i])
	}
	return mods, errs
}

func bundle(dir, name, localPath string, external []string) ([]byte, error) {
	opts := api.BuildOptions{
		AbsWorkingDir: dir,
		Bundle:        true,
		Write:         false,
		Format:        api.FormatESModule,
		Target:        api.ES2020,
		JSX:           api.JSXAutomatic,
		Platform:      api.PlatformBrowser,
		External:      external,
		LogLevel:      api.LogLevelSilent,
		Define:        map[string]string{"process.env.NODE_ENV": `"production"`},
	}
	if localPath != "" {
		opts.EntryPoints = []string{filepath.Join(dir, localPath)}
	} else {
		opts.Stdin = &api.StdinOptions{
			Contents: fmt.Sprintf("import * as mod from %q;\nexport * from %q;\nexport default (mod.default ?? mod);\n",
				name, name),
			ResolveDir: dir,
			Sourcefile: ModuleFile(name),
			Loader:     api.LoaderJS,
		}
	}

	res := api.Build(opts)
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("%s", res.Errors[0].Text)
	}
	if len(res.OutputFiles) == 0 {
		return nil, fmt.Errorf("no output")
	}
	return res.OutputFiles[0].Contents, nil
}

// ImportMap maps every bundled module to its URL under base.
func ImportMap(base string, mods []Module) map[string]string {
	m := make(map[string]string, len(mods))
	for _, mod := range mods {
		m[mod.Name] = base + "/_modules/" + mod.File
	}
	return m
}

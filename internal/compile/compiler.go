// Package compile turns live example sources into browser-ready ES modules
// and implements the request/response protocol used by the live editor.
package compile

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/jcdickinson/showroom/internal/cas"
	"github.com/jcdickinson/showroom/internal/rpc"
)

const (
	// HashLen is the length of example hashes used in standalone URLs.
	HashLen    = 12
	sourceFile = "example.tsx"
)

// Hash identifies an example by its source.
func Hash(source string) string {
	return cas.Sum([]byte(source))[:HashLen]
}

// Compiler transpiles examples with esbuild. The zero value is usable.
type Compiler struct {
	// Target is the esbuild language target; defaults to ES2020.
	Target api.Target
}

func New() *Compiler {
	return &Compiler{Target: api.ES2020}
}

// Compile answers one request. Failures are reported as error results,
// never returned.
func (c *Compiler) Compile(req rpc.CompileRequest) rpc.CompileResult {
	w := wrap(req.Source)
	target := c.Target
	if target == api.DefaultTarget {
		target = api.ES2020
	}

	out := api.Transform(w.code, api.TransformOptions{
		Loader:     api.LoaderTSX,
		Format:     api.FormatESModule,
		JSX:        api.JSXAutomatic,
		Target:     target,
		Sourcefile: sourceFile,
		LogLevel:   api.LogLevelSilent,
	})
	if len(out.Errors) > 0 {
		msg := out.Errors[0]
		res := rpc.CompileResult{
			Type:      rpc.ResultError,
			Error:     msg.Text,
			MessageID: req.MessageID,
		}
		if msg.Location != nil {
			line := w.originalLine(msg.Location.Line)
			res.Error = fmt.Sprintf("%s:%d:%d: %s", sourceFile, line, msg.Location.Column+1, msg.Text)
			res.Meta = &rpc.CompileMeta{Type: "compilationError", Line: line}
		}
		return res
	}
	return rpc.CompileResult{
		Type:      rpc.ResultSuccess,
		Code:      string(out.Code),
		MessageID: req.MessageID,
	}
}

var (
	defaultExport = regexp.MustCompile(`(?m)^\s*export\s+default\b`)
	importStart   = regexp.MustCompile(`^\s*import\b`)
	importEnd     = regexp.MustCompile(`(^\s*import\s+['"][^'"]+['"]|\bfrom\s+['"][^'"]+['"])\s*;?\s*$`)
)

const (
	exprHeader = "export default function Example() {\nreturn (<>\n"
	exprFooter = "\n</>);\n}\n"
	stmtHeader = "export default function Example() {\nlet __rendered = null;\nconst render = (node) => { __rendered = node; };\n"
	stmtFooter = "\nreturn __rendered;\n}\n"
)

// wrapped is an example rewritten into a module with a default export.
type wrapped struct {
	code        string
	importLines []int // original line of each hoisted line
	headerLines int
	sourceLines int
}

// wrap turns a snippet into a module. Modules that already export a default
// are kept as is. Otherwise imports are hoisted and the rest becomes the body
// of a default-exported component: a leading JSX element is rendered
// directly, anything else must call render(node).
func wrap(src string) wrapped {
	lines := strings.Split(src, "\n")
	if defaultExport.MatchString(src) {
		return wrapped{code: src, sourceLines: len(lines)}
	}

	var (
		hoisted     []string
		importLines []int
		body        = make([]string, len(lines))
		inImport    bool
	)
	for i, line := range lines {
		if inImport || importStart.MatchString(line) {
			hoisted = append(hoisted, line)
			importLines = append(importLines, i+1)
			inImport = !importEnd.MatchString(line)
			continue
		}
		body[i] = line
	}

	rest := strings.Join(body, "\n")
	header, footer := stmtHeader, stmtFooter
	if strings.HasPrefix(strings.TrimSpace(rest), "<") {
		header, footer = exprHeader, exprFooter
	}

	var b strings.Builder
	for _, h := range hoisted {
		b.WriteString(h)
		b.WriteByte('\n')
	}
	b.WriteString(header)
	b.WriteString(rest)
	b.WriteString(footer)

	return wrapped{
		code:        b.String(),
		importLines: importLines,
		headerLines: strings.Count(header, "\n"),
		sourceLines: len(lines),
	}
}

// originalLine maps a 1-based line of the wrapped module back to the
// snippet the user wrote.
func (w wrapped) originalLine(line int) int {
	if n := len(w.importLines); n > 0 || w.headerLines > 0 {
		if line <= n {
			return w.importLines[line-1]
		}
		line -= n + w.headerLines
	}
	return max(1, min(line, w.sourceLines))
}

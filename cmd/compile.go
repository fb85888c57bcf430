package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/jcdickinson/showroom/internal/compile"
	"github.com/jcdickinson/showroom/internal/devserver"
	"github.com/jcdickinson/showroom/internal/rpc"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile <file>",
	Short: "Compile a live example the way the editor does",
	Long: `Compile an example source file into the module the preview frame runs.
With --watch the file is recompiled on every save; only the result of the
latest save is printed.`,
	Example: `  showroom compile example.jsx
  showroom compile --watch example.jsx
  showroom compile --server http://localhost:6969 example.jsx`,
	Args: cobra.ExactArgs(1),
	Run:  runCompile,
}

var (
	compileWatch  bool
	compileServer string
)

func init() {
	compileCmd.Flags().BoolVarP(&compileWatch, "watch", "w", false, "recompile when the file changes")
	compileCmd.Flags().StringVar(&compileServer, "server", "", "compile on a running dev server")
}

// compileFunc compiles one request, locally or on a dev server.
type compileFunc func(ctx context.Context, req rpc.CompileRequest) rpc.CompileResult

func compilerFor(server string) compileFunc {
	if server == "" {
		c := compile.New()
		return func(_ context.Context, req rpc.CompileRequest) rpc.CompileResult {
			return c.Compile(req)
		}
	}
	client := devserver.NewClient(server)
	return func(ctx context.Context, req rpc.CompileRequest) rpc.CompileResult {
		res, err := client.Compile(ctx, req)
		if err != nil {
			return rpc.CompileResult{Type: rpc.ResultError, Error: err.Error(), MessageID: req.MessageID}
		}
		return *res
	}
}

func runCompile(cmd *cobra.Command, args []string) {
	file := args[0]
	compileFn := compilerFor(compileServer)

	if !compileWatch {
		src, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("failed to read %s: %v", file, err)
		}
		res := compileFn(context.Background(), rpc.CompileRequest{Source: string(src), MessageID: 1})
		if !printResult(file, res) {
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		if err := watchCompile(ctx, file, compileFn); err != nil {
			errCh <- err
		}
	}()
	if err := waitForSignal(errCh); err != nil {
		log.Fatalf("watch failed: %v", err)
	}
}

// watchCompile recompiles file on every change. Compilations run
// concurrently; a result that is superseded by a later save is dropped.
func watchCompile(ctx context.Context, file string, compileFn compileFunc) error {
	abs, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()
	// Editors often replace files on save, so watch the directory.
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	var session compile.Session
	results := make(chan rpc.CompileResult)
	submit := func() {
		src, err := os.ReadFile(abs)
		if err != nil {
			slog.Debug("reading example", "file", abs, "error", err)
			return
		}
		req := session.Next(string(src))
		go func() {
			res := compileFn(ctx, req)
			select {
			case results <- res:
			case <-ctx.Done():
			}
		}()
	}

	submit()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) == abs && (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				submit()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			return err
		case res := <-results:
			if session.Accept(res) {
				printResult(file, res)
			} else {
				slog.Debug("dropped stale result", "messageId", res.MessageID)
			}
		}
	}
}

func printResult(file string, res rpc.CompileResult) bool {
	if res.Type == rpc.ResultSuccess {
		fmt.Println(res.Code)
		return true
	}
	if res.Meta != nil && res.Meta.Line > 0 {
		fmt.Fprintf(os.Stderr, "%s:%d: %s\n", file, res.Meta.Line, res.Error)
	} else {
		fmt.Fprintf(os.Stderr, "%s: %s\n", file, res.Error)
	}
	return false
}

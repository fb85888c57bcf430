package cmd

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/jcdickinson/showroom/internal/devserver"
	"github.com/jcdickinson/showroom/internal/rpc"
	"github.com/jcdickinson/showroom/internal/search"
	"github.com/jcdickinson/showroom/internal/site"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the site's pages and component docs",
	Example: `  showroom search "button variant"
  showroom search --built "color palette"
  showroom search --server http://localhost:6969 tooltip`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSearch,
}

var (
	searchLimit  int
	searchServer string
	searchBuilt  bool
)

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().StringVar(&searchServer, "server", "", "query a running dev server instead of loading the project")
	searchCmd.Flags().BoolVar(&searchBuilt, "built", false, "query the index written by the last build")
}

func runSearch(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	query := strings.Join(args, " ")

	var results []rpc.SearchResult
	switch {
	case searchServer != "":
		resp, err := devserver.NewClient(searchServer).Search(ctx, query, searchLimit)
		if err != nil {
			log.Fatalf("search failed: %v", err)
		}
		results = resp.Results
	case searchBuilt:
		n, err := loadConfig(ctx)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		ix, err := search.ReadJSON(filepath.Join(n.OutDir, search.IndexFile))
		if err != nil {
			log.Fatalf("failed to load search index: %v", err)
		}
		results = site.SearchResults(ix, n.BasePath, query, searchLimit)
	default:
		st, err := loadSite(ctx, site.Options{SkipModules: true})
		if err != nil {
			log.Fatalf("failed to load site: %v", err)
		}
		results = st.Search(query, searchLimit)
	}

	if len(results) == 0 {
		fmt.Println("no results")
		return
	}
	for _, r := range results {
		title := r.Title
		if r.Heading != "" && r.Heading != r.Title {
			title += " > " + r.Heading
		}
		fmt.Printf("%s  [%s] %.2f\n  %s\n", title, r.Kind, r.Score, r.URL)
		if r.Snippet != "" {
			fmt.Printf("  %s\n", r.Snippet)
		}
		fmt.Println()
	}
}

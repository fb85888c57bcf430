package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jcdickinson/showroom/internal/site"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the static site into the output directory",
	Example: `  showroom build
  showroom build -C docs --measure`,
	Args: cobra.NoArgs,
	Run:  runBuild,
}

var buildMeasure bool

func init() {
	buildCmd.Flags().BoolVar(&buildMeasure, "measure", false, "log how long each build phase took")
}

func runBuild(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	start := time.Now()

	st, err := loadSite(ctx, site.Options{})
	if err != nil {
		log.Fatalf("failed to load site: %v", err)
	}
	if err := st.Build(ctx, st.Config.OutDir); err != nil {
		log.Fatalf("failed to write site: %v", err)
	}

	if buildMeasure {
		logTimings(st)
	}
	fmt.Printf("built %d pages (%d components) into %s in %s\n",
		len(st.Pages), len(st.Config.Components), st.Config.OutDir, time.Since(start).Round(time.Millisecond))
}

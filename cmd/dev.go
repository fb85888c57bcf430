package cmd

import (
	"context"
	"log"
	"time"

	"github.com/jcdickinson/showroom/internal/devserver"
	"github.com/spf13/cobra"
)

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Serve the site with live reload and editable examples",
	Long: `Build the site, then serve it while watching the project directory.
Every change rebuilds the site and reloads open pages. If a rebuild fails the
last good site keeps being served.`,
	Example: `  showroom dev
  showroom dev --port 3000 --measure`,
	Args: cobra.NoArgs,
	Run:  runDev,
}

var (
	devHost    string
	devPort    int
	devMeasure bool
)

func init() {
	devCmd.Flags().StringVar(&devHost, "host", "localhost", "host to listen on")
	devCmd.Flags().IntVar(&devPort, "port", 6969, "port to listen on")
	devCmd.Flags().BoolVar(&devMeasure, "measure", false, "log how long each build phase took")
}

func runDev(cmd *cobra.Command, args []string) {
	srv, err := devserver.New(devserver.Options{
		Host:    devHost,
		Port:    devPort,
		Measure: devMeasure,
		Config:  configOptions(),
		Cache:   cacheStore(),
	})
	if err != nil {
		log.Fatalf("failed to create dev server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	runErr := waitForSignal(errCh)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if runErr != nil {
		log.Fatalf("dev server error: %v", runErr)
	}
}

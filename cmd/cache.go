package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Clear the cache of extracted component docs",
	Run:   runClearCache,
}

func runClearCache(cmd *cobra.Command, args []string) {
	store := cacheStore()
	if err := store.Clear(); err != nil {
		slog.Error("failed to clear cache", "error", err)
		os.Exit(1)
	}
	fmt.Printf("cleared %s\n", store.Dir())
}

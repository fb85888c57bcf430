package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jcdickinson/showroom/internal/devserver"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running dev server",
	Args:  cobra.NoArgs,
	Run:   runStatus,
}

var (
	statusServer string
	statusJSON   bool
)

func init() {
	statusCmd.Flags().StringVar(&statusServer, "server", "http://localhost:6969", "dev server URL, including any base path")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the raw status")
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	client := devserver.NewClient(statusServer)
	if !client.IsAvailable(ctx) {
		fmt.Printf("no dev server at %s\n", statusServer)
		os.Exit(1)
	}

	st, err := client.Status(ctx)
	if err != nil {
		log.Fatalf("failed to get status: %v", err)
	}
	if statusJSON {
		json.NewEncoder(os.Stdout).Encode(st)
		return
	}

	fmt.Printf("build:      %s\n", st.BuildID)
	fmt.Printf("pages:      %d\n", st.Pages)
	fmt.Printf("components: %d\n", st.Components)
	if st.LastError != "" {
		fmt.Printf("last error: %s\n", st.LastError)
	}
}

package cmd

import (
	"context"

	"github.com/jcdickinson/showroom/internal/mcp"
	"github.com/jcdickinson/showroom/internal/site"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as MCP server over stdio, exposing the site's docs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadSite(context.Background(), site.Options{SkipModules: true})
		if err != nil {
			return err
		}
		return mcp.NewServer(st, version).Run()
	},
}

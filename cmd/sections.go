package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jcdickinson/showroom/internal/section"
	"github.com/spf13/cobra"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "Print the normalized section tree",
	Example: `  showroom sections
  showroom sections --json | jq '.sections[].slug'`,
	Args: cobra.NoArgs,
	Run:  runSections,
}

var sectionsJSON bool

func init() {
	sectionsCmd.Flags().BoolVar(&sectionsJSON, "json", false, "print the normalized configuration as JSON")
}

func runSections(cmd *cobra.Command, args []string) {
	n, err := loadConfig(context.Background())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if sectionsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(n); err != nil {
			log.Fatalf("failed to encode sections: %v", err)
		}
		return
	}

	printSections(n.Sections, 0)
	fmt.Printf("\n%d components\n", len(n.Components))
	for _, w := range n.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}

func printSections(sections []section.Section, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, s := range sections {
		switch v := s.(type) {
		case *section.GroupSection:
			fmt.Printf("%s%s/  (%s)\n", indent, v.Title, slugLabel(v.Slug))
			printSections(v.Items, depth+1)
		case *section.ComponentSection:
			fmt.Printf("%s%s  (%s) %s\n", indent, v.Title, slugLabel(v.Slug), v.SourcePath)
		case *section.MarkdownSection:
			title := v.Title
			if title == "" {
				title = v.SourcePath
			}
			fmt.Printf("%s%s  (%s) %s\n", indent, title, slugLabel(v.Slug), v.SourcePath)
		case *section.LinkSection:
			fmt.Printf("%s%s -> %s\n", indent, v.Title, v.Href)
		}
	}
}

func slugLabel(slug string) string {
	if slug == "" {
		return "/"
	}
	return "/" + slug
}

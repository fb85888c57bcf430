package docgen

import (
	"fmt"
	"strings"
)

// Markdown renders the doc as a markdown page with a props table.
func (d *ComponentDoc) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.DisplayName)
	if d.Description != "" {
		b.WriteString(d.Description)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Source: `%s`\n", d.FilePath)
	if len(d.Props) == 0 {
		return b.String()
	}

	b.WriteString("\n## Props\n\n")
	b.WriteString("| Name | Type | Required | Default | Description |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, p := range d.Props {
		required := "no"
		if p.Required {
			required = "yes"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			cell(p.Name), code(p.Type), required, code(p.DefaultValue), cell(p.Description))
	}
	return b.String()
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func code(s string) string {
	if s == "" {
		return ""
	}
	return "`" + cell(s) + "`"
}

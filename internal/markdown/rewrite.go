package markdown

import (
	"strings"

	"github.com/gomarkdown/markdown/ast"
)

// RewriteLinks rewrites markdown link destinations through resolve, which
// returns the new destination and whether the link should change. Fragments
// are split off before resolving and re-attached afterwards.
// It parses the markdown to AST to find all link destinations, then performs
// targeted string replacements to preserve original formatting.
func RewriteLinks(src string, resolve func(dest string) (string, bool)) string {
	if resolve == nil {
		return src
	}

	seen := make(map[string]bool)
	type replacement struct {
		oldDest string
		newDest string
	}
	var replacements []replacement

	ast.WalkFunc(parse([]byte(src)), func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		link, ok := node.(*ast.Link)
		if !ok {
			return ast.GoToNext
		}
		dest := string(link.Destination)
		if seen[dest] {
			return ast.GoToNext
		}
		seen[dest] = true

		target, fragment, _ := strings.Cut(dest, "#")
		if target == "" {
			return ast.GoToNext
		}
		newDest, ok := resolve(target)
		if !ok {
			return ast.GoToNext
		}
		if fragment != "" {
			newDest += "#" + fragment
		}
		replacements = append(replacements, replacement{dest, newDest})
		return ast.GoToNext
	})

	if len(replacements) == 0 {
		return src
	}

	result := src

	// Inline links: [text](destination)
	for _, r := range replacements {
		result = strings.ReplaceAll(result, "]("+r.oldDest+")", "]("+r.newDest+")")
	}

	// Reference-style definitions: [ref]: destination
	refMap := make(map[string]string, len(replacements))
	for _, r := range replacements {
		refMap["]: "+r.oldDest] = "]: " + r.newDest
	}
	lines := strings.Split(result, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for oldSuffix, newSuffix := range refMap {
			if strings.HasSuffix(trimmed, oldSuffix) {
				lines[i] = strings.Replace(line, oldSuffix, newSuffix, 1)
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// IsRelativeDoc reports whether dest points at a local markdown file.
func IsRelativeDoc(dest string) bool {
	if strings.Contains(dest, "://") || strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "mailto:") {
		return false
	}
	return strings.HasSuffix(dest, ".md") || strings.HasSuffix(dest, ".mdx")
}

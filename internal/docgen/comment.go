package docgen

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// leadingComment returns the comment block directly above n. A comment that
// trails code on its own line belongs to that code, not to n.
func leadingComment(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	var lines []string
	current := n
	for {
		prev := current.PrevSibling()
		if prev == nil || prev.Type() != "comment" || current.StartPoint().Row-prev.EndPoint().Row > 1 {
			break
		}
		if before := prev.PrevSibling(); before != nil && before.EndPoint().Row == prev.StartPoint().Row {
			break
		}
		lines = append([]string{prev.Content(src)}, lines...)
		current = prev
	}
	return strings.Join(lines, "\n")
}

// jsDoc splits a comment into its description and @tags.
func jsDoc(comment string) (string, map[string]string) {
	tags := make(map[string]string)
	if comment == "" {
		return "", tags
	}

	var desc []string
	tag := ""
	for _, line := range strings.Split(comment, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "/**")
		line = strings.TrimPrefix(line, "/*")
		line = strings.TrimPrefix(line, "//")
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))

		if strings.HasPrefix(line, "@") {
			name, value, _ := strings.Cut(line[1:], " ")
			tag = name
			tags[tag] = strings.TrimSpace(value)
			continue
		}
		if tag != "" {
			if line != "" {
				tags[tag] = strings.TrimSpace(tags[tag] + " " + line)
			}
			continue
		}
		desc = append(desc, line)
	}
	return strings.TrimSpace(strings.Join(desc, "\n")), tags
}

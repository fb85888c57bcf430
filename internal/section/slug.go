package section

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify turns a title or file name into a URL segment: diacritics are
// dropped, letters lowercased and every run of other characters collapsed
// into a single hyphen.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// pathSegments slugifies every part of an explicit path such as "api/v2".
func pathSegments(p string) []string {
	var segs []string
	for _, part := range strings.Split(p, "/") {
		if s := Slugify(part); s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// baseName returns the file name without directory and extension.
func baseName(p string) string {
	b := path.Base(p)
	return strings.TrimSuffix(b, path.Ext(b))
}

// joinSlug qualifies a segment with its ancestors.
func joinSlug(parents []string, segs ...string) string {
	all := make([]string, 0, len(parents)+len(segs))
	all = append(all, parents...)
	for _, s := range segs {
		if s != "" {
			all = append(all, s)
		}
	}
	return strings.Join(all, "/")
}

// extend returns a new ancestor chain; the receiver's backing array is never
// shared with siblings.
func extend(parents []string, seg string) []string {
	out := make([]string, len(parents), len(parents)+1)
	copy(out, parents)
	return append(out, seg)
}

package section

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"Buttons":            "buttons",
		"Getting Started!":   "getting-started",
		"  padded  ":         "padded",
		"ButtonGroup":        "buttongroup",
		"Crème brûlée":       "creme-brulee",
		"api_v2--final":      "api-v2-final",
		"!!!":                "",
		"Ünïcödé Tïtlé 2024": "unicode-title-2024",
		"already-a-slug":     "already-a-slug",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestPathSegments(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"api", "v2"}, pathSegments("/API/v2/"))
	assert.Equal(t, []string{"deep", "topic"}, pathSegments("deep/Topic"))
	assert.Nil(t, pathSegments("/"))
}

func TestJoinSlug(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a/b/c", joinSlug([]string{"a", "b"}, "c"))
	assert.Equal(t, "a", joinSlug([]string{"a"}))
	assert.Equal(t, "", joinSlug(nil))
}

func TestExtendDoesNotAlias(t *testing.T) {
	t.Parallel()
	base := make([]string, 1, 8)
	base[0] = "root"
	a := extend(base, "a")
	b := extend(base, "b")
	assert.Equal(t, []string{"root", "a"}, a)
	assert.Equal(t, []string{"root", "b"}, b)
}

func TestResolvePath(t *testing.T) {
	t.Parallel()
	ok := map[string]string{
		"./src/../docs/a.md": "docs/a.md",
		"src\\Button.tsx":    "src/Button.tsx",
		".":                  ".",
	}
	for in, want := range ok {
		got, err := resolvePath(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, bad := range []string{"/abs", "C:/x", "../up", "a/../../b"} {
		_, err := resolvePath(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFrontMatter(t *testing.T) {
	t.Parallel()
	src := []byte("---\ntitle: Buttons\norder: 3\nhideSidebar: true\n---\n# Heading\n\nBody.\n")

	fm, body, err := SplitFrontMatter(src)
	require.NoError(t, err)
	assert.Equal(t, "Buttons", fm.Title)
	require.NotNil(t, fm.Order)
	assert.Equal(t, 3, *fm.Order)
	assert.True(t, fm.HideSidebar)
	assert.False(t, fm.HideHeader)
	assert.Equal(t, "# Heading\n\nBody.\n", string(body))
}

func TestSplitFrontMatter_None(t *testing.T) {
	t.Parallel()
	src := []byte("# Just markdown\n")
	fm, body, err := SplitFrontMatter(src)
	require.NoError(t, err)
	assert.Equal(t, FrontMatter{}, fm)
	assert.Equal(t, src, body)
}

func TestSplitFrontMatter_CRLFAndBOM(t *testing.T) {
	t.Parallel()
	src := []byte("\ufeff---\r\ntitle: Win\r\n---\r\nBody\r\n")
	fm, body, err := SplitFrontMatter(src)
	require.NoError(t, err)
	assert.Equal(t, "Win", fm.Title)
	assert.Equal(t, "Body\r\n", string(body))
}

func TestSplitFrontMatter_Unterminated(t *testing.T) {
	t.Parallel()
	src := []byte("---\ntitle: x\nno closing fence")
	fm, body, err := SplitFrontMatter(src)
	require.NoError(t, err)
	assert.Empty(t, fm.Title)
	assert.Equal(t, string(src), string(body))
}

func TestSplitFrontMatter_InvalidYAML(t *testing.T) {
	t.Parallel()
	_, _, err := SplitFrontMatter([]byte("---\ntitle: [unclosed\n---\n"))
	assert.Error(t, err)
}

func TestTitle(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Hello code world", Title([]byte("Intro\n\n## Sub\n\n# Hello `code` world\n")))
	assert.Empty(t, Title([]byte("## Only h2\n")))
}

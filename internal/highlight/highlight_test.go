package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	t.Parallel()
	h := New("github")

	out, err := h.Code("const a = 1", "tsx")
	require.NoError(t, err)
	assert.Contains(t, out, `class="chroma"`)
	assert.Contains(t, out, "const")
}

func TestCode_UnknownLanguage(t *testing.T) {
	t.Parallel()
	out, err := New("github").Code("<just text>", "not-a-language")
	require.NoError(t, err)
	assert.Contains(t, out, "&lt;just text&gt;")
}

func TestUnknownThemeFallsBack(t *testing.T) {
	t.Parallel()
	h := New("no-such-theme")
	assert.NotEmpty(t, h.Theme())

	css, err := h.CSS()
	require.NoError(t, err)
	assert.Contains(t, css, ".chroma")
}

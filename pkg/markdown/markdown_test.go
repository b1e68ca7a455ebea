package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_Empty(t *testing.T) {
	c := NewConverter()

	for _, in := range []string{"", "   ", "\n\t"} {
		out, err := c.Convert(in)
		require.NoError(t, err)
		assert.Empty(t, out)
	}
}

func TestConvert_HeadingsAreATX(t *testing.T) {
	c := NewConverter()

	out, err := c.Convert("<h1>Main</h1><h2>Section</h2><p>Body text.</p>")
	require.NoError(t, err)

	assert.Contains(t, out, "# Main")
	assert.Contains(t, out, "## Section")
	assert.Contains(t, out, "Body text.")
	assert.NotContains(t, out, "===")
	assert.NotContains(t, out, "---")
}

func TestConvert_RemovesMedia(t *testing.T) {
	c := NewConverter()

	html := `<p>Before</p>
<figure><img src="a.png"><figcaption>Caption text</figcaption></figure>
<iframe src="https://video.example"></iframe>
<video><source src="v.mp4">Fallback</video>
<p>After</p>`

	out, err := c.Convert(html)
	require.NoError(t, err)

	assert.Contains(t, out, "Before")
	assert.Contains(t, out, "After")
	assert.NotContains(t, out, "Caption text")
	assert.NotContains(t, out, "Fallback")
	assert.NotContains(t, out, "a.png")
	assert.NotContains(t, out, "![")
}

func TestConvert_UnwrapsFormatting(t *testing.T) {
	c := NewConverter()

	out, err := c.Convert(`<div><p>Hello <strong>bold</strong> and <em>italic</em> <span>world</span></p></div>`)
	require.NoError(t, err)

	assert.Contains(t, out, "Hello bold and italic world")
	assert.NotContains(t, out, "**")
	assert.NotContains(t, out, "<")
}

func TestConvert_KeepsLinksAndLists(t *testing.T) {
	c := NewConverter()

	out, err := c.Convert(`<ul><li>one</li><li>two</li></ul><p><a href="https://example.com/x">link</a></p>`)
	require.NoError(t, err)

	assert.Contains(t, out, "one")
	assert.Contains(t, out, "two")
	assert.Contains(t, out, "[link](https://example.com/x)")
}

func TestClean(t *testing.T) {
	out, err := Clean(`<section><h3>T</h3><table><tr><td>cell</td></tr></table><img src="x"></section>`)
	require.NoError(t, err)

	assert.Contains(t, out, "<h3>T</h3>")
	assert.Contains(t, out, "cell")
	assert.NotContains(t, out, "<table")
	assert.NotContains(t, out, "<section")
	assert.NotContains(t, out, "<img")
}

func TestTitleFromHTML(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"title present", "<html><head><title>My Page</title></head><body></body></html>", "My Page"},
		{"whitespace normalized", "<html><head><title>\n  My   Page \n</title></head></html>", "My Page"},
		{"no title", "<html><head></head><body><p>x</p></body></html>", ""},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TitleFromHTML(tt.html))
		})
	}
}

package docrender

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParagraphs(t *testing.T) {
	got := Paragraphs("first line\nstill first\r\n\r\n  second  \n\n\n\nthird")
	assert.Equal(t, []string{"first line\nstill first", "second", "third"}, got)
	assert.Empty(t, Paragraphs("  \n\n "))
}

func TestRenderProducesPDF(t *testing.T) {
	logo, err := DrawMonogram("AnyUniversity")
	require.NoError(t, err)

	lh := NewLetterhead("AnyUniversity", "Powered By Amazon Bedrock", logo)
	body := "Intro paragraph with café accents.\n\n" + string(bytes.Repeat([]byte("Long body text. "), 600))
	out, err := lh.Render(Document{
		Subject:      "Math",
		Chapter:      "Algebra",
		HeadingLabel: "Topic Name",
		Heading:      "Linear equations",
		Body:         body,
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Greater(t, bytes.Count(out, []byte("/Type /Page")), 2, "long body spans pages")
}

func TestRenderWithoutLogo(t *testing.T) {
	out, err := NewLetterhead("U", "", nil).Render(Document{HeadingLabel: "Video Name", Heading: "week1.mp4"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestDrawMonogramIsPNG(t *testing.T) {
	raw, err := DrawMonogram("Any University")
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, logoSize, img.Bounds().Dx())
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "AU", initials("AnyUniversity"))
	assert.Equal(t, "AU", initials("any university of things"))
	assert.Equal(t, "U", initials(""))
}

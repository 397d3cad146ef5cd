package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readArchive(t *testing.T, raw []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	parts := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		parts[f.Name] = string(body)
	}
	return parts
}

func assertWellFormed(t *testing.T, name, body string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(body))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return
		}
		require.NoError(t, err, name)
	}
}

func sampleDeck(t *testing.T) *Deck {
	t.Helper()
	d := New()
	d.Title = "Algebra & Geometry"
	require.NoError(t, d.AddSlide(Slide{Layout: 0, Title: "Introduction: Math - Algebra", Notes: "Welcome everyone"}))
	require.NoError(t, d.AddSlide(Slide{Layout: 1, Title: "Linear equations", Body: "Slope\nIntercept <y>", Notes: "Explain slope"}))
	require.NoError(t, d.AddSlide(Slide{Layout: 2, Title: "Poll", Body: "Which is steeper?"}))
	require.NoError(t, d.AddSlide(Slide{Layout: 8, Title: "A graph", Caption: "[Suggested image: a line on a grid]"}))
	return d
}

func TestWriteProducesCompletePackage(t *testing.T) {
	raw, err := sampleDeck(t).Bytes()
	require.NoError(t, err)
	parts := readArchive(t, raw)

	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"ppt/presentation.xml",
		"ppt/slideMasters/slideMaster1.xml",
		"ppt/slideLayouts/slideLayout9.xml",
		"ppt/notesMasters/notesMaster1.xml",
		"ppt/slides/slide4.xml",
		"ppt/notesSlides/notesSlide4.xml",
	} {
		assert.Contains(t, parts, name)
	}
	assert.NotContains(t, parts, "ppt/slides/slide5.xml")
	for name, body := range parts {
		if strings.HasSuffix(name, ".xml") || strings.HasSuffix(name, ".rels") {
			assertWellFormed(t, name, body)
		}
	}

	assert.Equal(t, 4, strings.Count(parts["ppt/presentation.xml"], "<p:sldId "))
	assert.Contains(t, parts["ppt/slides/_rels/slide4.xml.rels"], "slideLayout9.xml")
	assert.Contains(t, parts["ppt/slides/_rels/slide1.xml.rels"], "slideLayout1.xml")
	assert.Contains(t, parts["ppt/slides/slide1.xml"], `type="ctrTitle"`)
	assert.Contains(t, parts["ppt/slides/slide2.xml"], "Intercept &lt;y&gt;")
	assert.Contains(t, parts["ppt/slides/slide4.xml"], "[Suggested image: a line on a grid]")
	assert.Contains(t, parts["ppt/notesSlides/notesSlide2.xml"], "Explain slope")
	assert.Contains(t, parts["docProps/core.xml"], "Algebra &amp; Geometry")
}

func TestAddSlideRejectsUnknownLayout(t *testing.T) {
	d := New()
	assert.Error(t, d.AddSlide(Slide{Layout: 9}))
	assert.Error(t, d.AddSlide(Slide{Layout: -1}))
	assert.Equal(t, 0, d.Len())
	assert.Len(t, d.LayoutNames(), 9)
}

func TestBlankLayoutFallsBackToTextBoxes(t *testing.T) {
	d := New()
	require.NoError(t, d.AddSlide(Slide{Layout: 6, Title: "Thanks", Body: "Questions?"}))
	raw, err := d.Bytes()
	require.NoError(t, err)
	slide := readArchive(t, raw)["ppt/slides/slide1.xml"]
	assert.Equal(t, 2, strings.Count(slide, `txBox="1"`))
	assert.NotContains(t, slide, "<p:ph")
}

func TestFromTemplateKeepsThemeAndSize(t *testing.T) {
	base := New()
	base.width, base.height = 12192000, 6858000
	base.theme = []byte(strings.Replace(defaultTheme, "Teaching Theme", "Campus Theme", 1))
	raw, err := base.Bytes()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "campus.pptx")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	d, err := FromTemplate(path)
	require.NoError(t, err)
	w, h := d.Size()
	assert.Equal(t, int64(12192000), w)
	assert.Equal(t, int64(6858000), h)
	assert.Contains(t, string(d.theme), "Campus Theme")
}

func TestFromTemplateErrors(t *testing.T) {
	_, err := FromTemplate(filepath.Join(t.TempDir(), "missing.pptx"))
	assert.Error(t, err)

	_, err = LoadTemplate(bytes.NewReader([]byte("not a zip")), 9)
	assert.Error(t, err)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err = zw.Create("word/document.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	_, err = LoadTemplate(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	assert.ErrorIs(t, err, ErrNotPresentation)
}

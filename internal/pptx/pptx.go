// Package pptx writes PresentationML slide decks: nine built-in layouts,
// title and body text, free text boxes and per-slide speaker notes.
package pptx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"
)

// Slide is one slide to add. Body goes into the layout's first text slot,
// or a text box when the layout has none. Caption is always a free text box.
type Slide struct {
	Layout  int
	Title   string
	Body    string
	Caption string
	Notes   string
}

type Deck struct {
	Title   string
	Author  string
	Created time.Time

	width  int64
	height int64
	theme  []byte
	slides []Slide
}

// New returns an empty deck with the built-in theme.
func New() *Deck {
	return &Deck{width: defaultWidth, height: defaultHeight, theme: []byte(defaultTheme)}
}

// LayoutNames lists the available layouts by index.
func (d *Deck) LayoutNames() []string {
	names := make([]string, len(builtinLayouts))
	for i, l := range builtinLayouts {
		names[i] = l.name
	}
	return names
}

func (d *Deck) AddSlide(s Slide) error {
	if s.Layout < 0 || s.Layout >= len(builtinLayouts) {
		return fmt.Errorf("layout %d out of range [0,%d)", s.Layout, len(builtinLayouts))
	}
	d.slides = append(d.slides, s)
	return nil
}

func (d *Deck) Len() int { return len(d.slides) }

// Size returns the slide size in EMU.
func (d *Deck) Size() (int64, int64) { return d.width, d.height }

func (d *Deck) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams the deck as a .pptx package.
func (d *Deck) Write(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, part := range d.parts() {
		fw, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("create part %s: %w", part.name, err)
		}
		if _, err := io.WriteString(fw, part.body); err != nil {
			return fmt.Errorf("write part %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close pptx archive: %w", err)
	}
	return nil
}

type part struct {
	name string
	body string
}

func (d *Deck) parts() []part {
	created := d.Created
	if created.IsZero() {
		created = time.Now()
	}
	parts := []part{
		{"[Content_Types].xml", contentTypesXML(len(builtinLayouts), len(d.slides))},
		{"_rels/.rels", packageRelsXML},
		{"docProps/core.xml", coreXML(d.Title, d.Author, created.UTC())},
		{"docProps/app.xml", appXML(len(d.slides))},
		{"ppt/presentation.xml", presentationXML(len(d.slides), d.width, d.height)},
		{"ppt/_rels/presentation.xml.rels", presentationRelsXML(len(d.slides))},
		{"ppt/presProps.xml", presPropsXML},
		{"ppt/viewProps.xml", viewPropsXML},
		{"ppt/tableStyles.xml", tableStylesXML},
		{"ppt/theme/theme1.xml", string(d.theme)},
		{"ppt/theme/theme2.xml", string(d.theme)},
		{"ppt/slideMasters/slideMaster1.xml", slideMasterXML(d.width, d.height)},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsXML(len(builtinLayouts))},
		{"ppt/notesMasters/notesMaster1.xml", notesMasterXML},
		{"ppt/notesMasters/_rels/notesMaster1.xml.rels", notesMasterRelsXML},
	}
	for i, l := range builtinLayouts {
		n := i + 1
		parts = append(parts,
			part{fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", n), slideLayoutXML(l, d.width, d.height)},
			part{fmt.Sprintf("ppt/slideLayouts/_rels/slideLayout%d.xml.rels", n), slideLayoutRelsXML},
		)
	}
	for i, s := range d.slides {
		n := i + 1
		parts = append(parts,
			part{fmt.Sprintf("ppt/slides/slide%d.xml", n), slideXML(s, builtinLayouts[s.Layout], d.width, d.height)},
			part{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), slideRelsXML(s.Layout+1, n)},
			part{fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", n), notesSlideXML(s.Notes)},
			part{fmt.Sprintf("ppt/notesSlides/_rels/notesSlide%d.xml.rels", n), notesSlideRelsXML(n)},
		)
	}
	return parts
}

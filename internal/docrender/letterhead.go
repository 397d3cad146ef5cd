// Package docrender renders generated study material as letterhead PDFs.
package docrender

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin   = 30.0
	borderInset  = 20.0
	borderWidth  = 3.0
	ruleWidth    = 2.0
	logoEdge     = 108.0 // 1.5in
	logoInset    = 36.0  // 0.5in
	bodyFontSize = 12.0
	bodyLeading  = 14.0
	logoImageRef = "letterhead-logo"
)

type rgb struct{ r, g, b int }

var (
	darkOrange = rgb{255, 140, 0}
	darkGreen  = rgb{0, 100, 0}
	darkRed    = rgb{139, 0, 0}
	black      = rgb{0, 0, 0}
)

// Document is one artifact to print. HeadingLabel is "Topic Name" for topic
// artifacts and "Video Name" for lecture assets.
type Document struct {
	Subject      string
	Chapter      string
	HeadingLabel string
	Heading      string
	Body         string
}

// Letterhead prints documents on the institution's letter-size letterhead:
// a page border and the logo on every page, a title block, subject and
// chapter headers, then the body split into paragraphs on blank lines.
type Letterhead struct {
	institution string
	poweredBy   string
	logo        []byte
}

func NewLetterhead(institution, poweredBy string, logoPNG []byte) *Letterhead {
	return &Letterhead{institution: institution, poweredBy: poweredBy, logo: logoPNG}
}

func (l *Letterhead) Render(doc Document) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, logoInset+logoEdge+8)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*pageMargin

	hasLogo := len(l.logo) > 0
	if hasLogo {
		pdf.RegisterImageOptionsReader(logoImageRef, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(l.logo))
	}
	pdf.SetHeaderFuncMode(func() {
		pdf.SetDrawColor(black.r, black.g, black.b)
		pdf.SetLineWidth(borderWidth)
		pdf.Rect(borderInset, borderInset, pageW-2*borderInset, pageH-2*borderInset, "D")
		if hasLogo {
			pdf.ImageOptions(logoImageRef, pageW-logoEdge-logoInset, pageH-logoEdge-logoInset,
				logoEdge, logoEdge, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		}
	}, false)

	pdf.AddPage()

	line := func(text string, size float64, style string, c rgb, after float64) {
		pdf.SetFont("Helvetica", style, size)
		pdf.SetTextColor(c.r, c.g, c.b)
		pdf.MultiCell(contentW, size*1.2, tr(text), "", "L", false)
		pdf.Ln(after)
	}
	rule := func() {
		pdf.Ln(4)
		y := pdf.GetY()
		pdf.SetDrawColor(black.r, black.g, black.b)
		pdf.SetLineWidth(ruleWidth)
		pdf.Line(pageMargin, y, pageW-pageMargin, y)
		pdf.Ln(15)
	}

	line(l.institution, 20, "B", darkOrange, 10)
	line(l.poweredBy, 12, "", black, 20)
	line("Subject Name: "+doc.Subject, 15, "B", darkGreen, 8)
	line("Chapter Name: "+doc.Chapter, 15, "B", darkGreen, 8)
	rule()
	line(doc.HeadingLabel+": "+doc.Heading, 13, "B", darkRed, 8)
	rule()

	pdf.SetFont("Helvetica", "", bodyFontSize)
	pdf.SetTextColor(black.r, black.g, black.b)
	for _, para := range Paragraphs(doc.Body) {
		pdf.MultiCell(contentW, bodyLeading, tr(para), "", "L", false)
		pdf.Ln(10)
	}
	rule()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Paragraphs splits text on blank lines and trims each paragraph.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

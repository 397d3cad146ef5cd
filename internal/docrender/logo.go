package docrender

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
)

const logoSize = 512

// LoadLogo reads a PNG logo from path. With no path it draws a monogram of
// the institution name instead.
func LoadLogo(path, institution string) ([]byte, error) {
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read logo file failed: %w", err)
		}
		return raw, nil
	}
	return DrawMonogram(institution)
}

// DrawMonogram renders the institution's initials on a dark orange disc.
func DrawMonogram(institution string) ([]byte, error) {
	parsed, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse logo font failed: %w", err)
	}
	face := truetype.NewFace(parsed, &truetype.Options{Size: 180, DPI: 72, Hinting: font.HintingNone})

	dc := gg.NewContext(logoSize, logoSize)
	dc.DrawCircle(logoSize/2, logoSize/2, logoSize/2-8)
	dc.SetRGB255(255, 140, 0)
	dc.FillPreserve()
	dc.SetRGB255(0, 0, 0)
	dc.SetLineWidth(12)
	dc.Stroke()

	dc.SetFontFace(face)
	dc.SetRGB255(255, 255, 255)
	dc.DrawStringAnchored(initials(institution), logoSize/2, logoSize/2, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode logo png failed: %w", err)
	}
	return buf.Bytes(), nil
}

// initials takes the first letter of up to two words, or of the first two
// capitalised runs in a single CamelCase word.
func initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		for i, r := range word {
			if i == 0 || (unicode.IsUpper(r) && len(strings.Fields(name)) == 1) {
				out = append(out, unicode.ToUpper(r))
			}
			if len(out) == 2 {
				return string(out)
			}
		}
	}
	if len(out) == 0 {
		return "U"
	}
	return string(out)
}

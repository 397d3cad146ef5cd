package pptx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

const defaultTheme = xmlHeader +
	`<a:theme ` + nsA + ` name="Teaching Theme"><a:themeElements>` +
	`<a:clrScheme name="Teaching">` +
	`<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1>` +
	`<a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>` +
	`<a:dk2><a:srgbClr val="1F2A44"/></a:dk2>` +
	`<a:lt2><a:srgbClr val="EEECE1"/></a:lt2>` +
	`<a:accent1><a:srgbClr val="FF8C00"/></a:accent1>` +
	`<a:accent2><a:srgbClr val="006400"/></a:accent2>` +
	`<a:accent3><a:srgbClr val="8B0000"/></a:accent3>` +
	`<a:accent4><a:srgbClr val="4F81BD"/></a:accent4>` +
	`<a:accent5><a:srgbClr val="8064A2"/></a:accent5>` +
	`<a:accent6><a:srgbClr val="4BACC6"/></a:accent6>` +
	`<a:hlink><a:srgbClr val="0000FF"/></a:hlink>` +
	`<a:folHlink><a:srgbClr val="800080"/></a:folHlink>` +
	`</a:clrScheme>` +
	`<a:fontScheme name="Teaching">` +
	`<a:majorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
	`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>` +
	`</a:fontScheme>` +
	`<a:fmtScheme name="Teaching">` +
	`<a:fillStyleLst>` + solidPh + solidPh + solidPh + `</a:fillStyleLst>` +
	`<a:lnStyleLst>` +
	`<a:ln w="9525">` + solidPh + `</a:ln>` +
	`<a:ln w="25400">` + solidPh + `</a:ln>` +
	`<a:ln w="38100">` + solidPh + `</a:ln>` +
	`</a:lnStyleLst>` +
	`<a:effectStyleLst>` +
	`<a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle>` +
	`</a:effectStyleLst>` +
	`<a:bgFillStyleLst>` + solidPh + solidPh + solidPh + `</a:bgFillStyleLst>` +
	`</a:fmtScheme>` +
	`</a:themeElements><a:objectDefaults/><a:extraClrSchemeLst/></a:theme>`

const solidPh = `<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`

var ErrNotPresentation = errors.New("not a pptx presentation")

// FromTemplate opens an existing .pptx and reuses its theme and slide size.
// Slides and layouts of the template are not copied.
func FromTemplate(path string) (*Deck, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open template %s: %w", path, err)
	}
	defer zr.Close()
	return fromArchive(&zr.Reader)
}

// LoadTemplate is FromTemplate for an in-memory archive.
func LoadTemplate(r io.ReaderAt, size int64) (*Deck, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return fromArchive(zr)
}

func fromArchive(zr *zip.Reader) (*Deck, error) {
	pres, err := readPart(zr, "ppt/presentation.xml")
	if err != nil {
		return nil, err
	}
	var doc struct {
		XMLName xml.Name
		SldSz   struct {
			Cx int64 `xml:"cx,attr"`
			Cy int64 `xml:"cy,attr"`
		} `xml:"sldSz"`
	}
	if err := xml.Unmarshal(pres, &doc); err != nil {
		return nil, fmt.Errorf("%w: presentation.xml: %v", ErrNotPresentation, err)
	}
	if doc.XMLName.Local != "presentation" {
		return nil, fmt.Errorf("%w: root element %q", ErrNotPresentation, doc.XMLName.Local)
	}

	theme, err := readPart(zr, "ppt/theme/theme1.xml")
	if err != nil {
		return nil, err
	}
	var root struct{ XMLName xml.Name }
	if err := xml.Unmarshal(theme, &root); err != nil || root.XMLName.Local != "theme" {
		return nil, fmt.Errorf("%w: theme1.xml is not a theme", ErrNotPresentation)
	}

	d := New()
	d.theme = theme
	if doc.SldSz.Cx > 0 && doc.SldSz.Cy > 0 {
		d.width, d.height = doc.SldSz.Cx, doc.SldSz.Cy
	}
	return d, nil
}

func readPart(zr *zip.Reader, name string) ([]byte, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s", ErrNotPresentation, name)
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return raw, nil
}

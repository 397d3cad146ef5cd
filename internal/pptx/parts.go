package pptx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
	nsA       = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`
	nsR       = `xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	nsP       = `xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`
	nsPML     = nsA + " " + nsR + " " + nsP

	relBase     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
	ctBase      = "application/vnd.openxmlformats-officedocument.presentationml."
	groupHeader = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`
	clrMap = `<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" ` +
		`accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>`
)

func esc(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

type relationship struct {
	id     string
	typ    string
	target string
}

func relsXML(rels []relationship) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range rels {
		fmt.Fprintf(&sb, `<Relationship Id="%s" Type="%s" Target="%s"/>`, r.id, r.typ, r.target)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

var packageRelsXML = relsXML([]relationship{
	{"rId1", relBase + "officeDocument", "ppt/presentation.xml"},
	{"rId2", "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties", "docProps/core.xml"},
	{"rId3", relBase + "extended-properties", "docProps/app.xml"},
})

func contentTypesXML(layouts, slides int) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	sb.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	sb.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	override := func(name, ct string) {
		fmt.Fprintf(&sb, `<Override PartName="%s" ContentType="%s"/>`, name, ct)
	}
	override("/ppt/presentation.xml", ctBase+"presentation.main+xml")
	override("/ppt/presProps.xml", ctBase+"presProps+xml")
	override("/ppt/viewProps.xml", ctBase+"viewProps+xml")
	override("/ppt/tableStyles.xml", ctBase+"tableStyles+xml")
	override("/ppt/theme/theme1.xml", "application/vnd.openxmlformats-officedocument.theme+xml")
	override("/ppt/theme/theme2.xml", "application/vnd.openxmlformats-officedocument.theme+xml")
	override("/ppt/slideMasters/slideMaster1.xml", ctBase+"slideMaster+xml")
	override("/ppt/notesMasters/notesMaster1.xml", ctBase+"notesMaster+xml")
	for i := 1; i <= layouts; i++ {
		override(fmt.Sprintf("/ppt/slideLayouts/slideLayout%d.xml", i), ctBase+"slideLayout+xml")
	}
	for i := 1; i <= slides; i++ {
		override(fmt.Sprintf("/ppt/slides/slide%d.xml", i), ctBase+"slide+xml")
		override(fmt.Sprintf("/ppt/notesSlides/notesSlide%d.xml", i), ctBase+"notesSlide+xml")
	}
	override("/docProps/core.xml", "application/vnd.openxmlformats-package.core-properties+xml")
	override("/docProps/app.xml", "application/vnd.openxmlformats-officedocument.extended-properties+xml")
	sb.WriteString(`</Types>`)
	return sb.String()
}

func coreXML(title, author string, created time.Time) string {
	stamp := created.Format(time.RFC3339)
	return xmlHeader +
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + esc(title) + `</dc:title>` +
		`<dc:creator>` + esc(author) + `</dc:creator>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">` + stamp + `</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">` + stamp + `</dcterms:modified>` +
		`</cp:coreProperties>`
}

func appXML(slides int) string {
	return xmlHeader +
		`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">` +
		`<Application>teachassist</Application>` +
		fmt.Sprintf(`<Slides>%d</Slides><Notes>%d</Notes>`, slides, slides) +
		`</Properties>`
}

const (
	firstSlideRel  = 7
	firstSlideID   = 256
	masterID       = 2147483648
	firstLayoutID  = masterID + 1
	notesWidthEMU  = 6858000
	notesHeightEMU = 9144000
)

func presentationXML(slides int, width, height int64) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<p:presentation ` + nsPML + ` saveSubsetFonts="1">`)
	fmt.Fprintf(&sb, `<p:sldMasterIdLst><p:sldMasterId id="%d" r:id="rId1"/></p:sldMasterIdLst>`, masterID)
	sb.WriteString(`<p:notesMasterIdLst><p:notesMasterId r:id="rId2"/></p:notesMasterIdLst>`)
	if slides > 0 {
		sb.WriteString(`<p:sldIdLst>`)
		for i := 0; i < slides; i++ {
			fmt.Fprintf(&sb, `<p:sldId id="%d" r:id="rId%d"/>`, firstSlideID+i, firstSlideRel+i)
		}
		sb.WriteString(`</p:sldIdLst>`)
	}
	fmt.Fprintf(&sb, `<p:sldSz cx="%d" cy="%d"/>`, width, height)
	fmt.Fprintf(&sb, `<p:notesSz cx="%d" cy="%d"/>`, notesWidthEMU, notesHeightEMU)
	sb.WriteString(`</p:presentation>`)
	return sb.String()
}

func presentationRelsXML(slides int) string {
	rels := []relationship{
		{"rId1", relBase + "slideMaster", "slideMasters/slideMaster1.xml"},
		{"rId2", relBase + "notesMaster", "notesMasters/notesMaster1.xml"},
		{"rId3", relBase + "theme", "theme/theme1.xml"},
		{"rId4", relBase + "presProps", "presProps.xml"},
		{"rId5", relBase + "viewProps", "viewProps.xml"},
		{"rId6", relBase + "tableStyles", "tableStyles.xml"},
	}
	for i := 0; i < slides; i++ {
		rels = append(rels, relationship{
			fmt.Sprintf("rId%d", firstSlideRel+i), relBase + "slide", fmt.Sprintf("slides/slide%d.xml", i+1),
		})
	}
	return relsXML(rels)
}

var (
	presPropsXML   = xmlHeader + `<p:presentationPr ` + nsPML + `/>`
	viewPropsXML   = xmlHeader + `<p:viewPr ` + nsPML + `/>`
	tableStylesXML = xmlHeader + `<a:tblStyleLst ` + nsA + ` def="{5C22544A-7EE6-4342-B048-85BDC9FD1C3A}"/>`
)

func xfrm(r rect) string {
	return fmt.Sprintf(`<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, r.x, r.y, r.cx, r.cy)
}

func phTag(p placeholder) string {
	var attrs []string
	if p.kind != phObj {
		attrs = append(attrs, fmt.Sprintf(`type="%s"`, p.kind))
	}
	if p.idx > 0 {
		attrs = append(attrs, fmt.Sprintf(`idx="%d"`, p.idx))
	}
	if len(attrs) == 0 {
		return `<p:ph/>`
	}
	return `<p:ph ` + strings.Join(attrs, " ") + `/>`
}

// paragraphs renders one <a:p> per line; an empty text still needs one.
func paragraphs(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return `<a:p><a:endParaRPr lang="en-US" dirty="0"/></a:p>`
	}
	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			sb.WriteString(`<a:p><a:endParaRPr lang="en-US" dirty="0"/></a:p>`)
			continue
		}
		sb.WriteString(`<a:p><a:r><a:rPr lang="en-US" dirty="0"/><a:t>` + esc(line) + `</a:t></a:r></a:p>`)
	}
	return sb.String()
}

// placeholderShape writes a placeholder; at is nil on slides, which inherit
// geometry from their layout.
func placeholderShape(id int, p placeholder, at *rect, text *string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/>`, id, esc(p.name))
	sb.WriteString(`<p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr>` + phTag(p) + `</p:nvPr></p:nvSpPr>`)
	if at != nil {
		sb.WriteString(`<p:spPr>` + xfrm(*at) + `</p:spPr>`)
	} else {
		sb.WriteString(`<p:spPr/>`)
	}
	if p.kind != phPic || text != nil {
		body := ""
		if text != nil {
			body = *text
		}
		sb.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/>` + paragraphs(body) + `</p:txBody>`)
	}
	sb.WriteString(`</p:sp>`)
	return sb.String()
}

func textBoxShape(id int, at rect, text string) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="TextBox %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, id-1) +
		`<p:spPr>` + xfrm(at) + `<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>` +
		`<p:txBody><a:bodyPr wrap="square" rtlCol="0"><a:spAutoFit/></a:bodyPr><a:lstStyle/>` + paragraphs(text) + `</p:txBody></p:sp>`
}

func slideMasterXML(width, height int64) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<p:sldMaster ` + nsPML + `>`)
	sb.WriteString(`<p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree>` + groupHeader)
	title := titleRect.scale(width, height)
	body := rect{457200, 1600200, 8229600, 4525963}.scale(width, height)
	sb.WriteString(placeholderShape(2, placeholder{kind: phTitle, name: "Title Placeholder 1"}, &title, nil))
	sb.WriteString(placeholderShape(3, placeholder{kind: phBody, idx: 1, name: "Text Placeholder 2"}, &body, nil))
	sb.WriteString(`</p:spTree></p:cSld>`)
	sb.WriteString(clrMap)
	sb.WriteString(`<p:sldLayoutIdLst>`)
	for i := range builtinLayouts {
		fmt.Fprintf(&sb, `<p:sldLayoutId id="%d" r:id="rId%d"/>`, firstLayoutID+i, i+1)
	}
	sb.WriteString(`</p:sldLayoutIdLst>`)
	sb.WriteString(`<p:txStyles>`)
	sb.WriteString(`<p:titleStyle><a:lvl1pPr algn="ctr"><a:defRPr sz="4000"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill>` +
		`<a:latin typeface="+mj-lt"/></a:defRPr></a:lvl1pPr></p:titleStyle>`)
	sb.WriteString(`<p:bodyStyle><a:lvl1pPr marL="342900" indent="-342900"><a:buFont typeface="Arial"/><a:buChar char="&#8226;"/>` +
		`<a:defRPr sz="2400"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill><a:latin typeface="+mn-lt"/></a:defRPr></a:lvl1pPr></p:bodyStyle>`)
	sb.WriteString(`<p:otherStyle><a:lvl1pPr><a:defRPr sz="1800"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill>` +
		`<a:latin typeface="+mn-lt"/></a:defRPr></a:lvl1pPr></p:otherStyle>`)
	sb.WriteString(`</p:txStyles></p:sldMaster>`)
	return sb.String()
}

func slideMasterRelsXML(layouts int) string {
	rels := make([]relationship, 0, layouts+1)
	for i := 1; i <= layouts; i++ {
		rels = append(rels, relationship{
			fmt.Sprintf("rId%d", i), relBase + "slideLayout", fmt.Sprintf("../slideLayouts/slideLayout%d.xml", i),
		})
	}
	rels = append(rels, relationship{fmt.Sprintf("rId%d", layouts+1), relBase + "theme", "../theme/theme1.xml"})
	return relsXML(rels)
}

func slideLayoutXML(l layout, width, height int64) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	fmt.Fprintf(&sb, `<p:sldLayout %s type="%s" preserve="1"><p:cSld name="%s"><p:spTree>`, nsPML, l.typ, esc(l.name))
	sb.WriteString(groupHeader)
	for i, p := range l.placeholders {
		at := p.at.scale(width, height)
		sb.WriteString(placeholderShape(i+2, p, &at, nil))
	}
	sb.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`)
	return sb.String()
}

var slideLayoutRelsXML = relsXML([]relationship{
	{"rId1", relBase + "slideMaster", "../slideMasters/slideMaster1.xml"},
})

func slideXML(s Slide, l layout, width, height int64) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<p:sld ` + nsPML + `><p:cSld><p:spTree>` + groupHeader)
	id := 2
	if ph, ok := l.title(); ok {
		title := s.Title
		sb.WriteString(placeholderShape(id, ph, nil, &title))
	} else {
		sb.WriteString(textBoxShape(id, titleBox.scale(width, height), s.Title))
	}
	id++
	if s.Body != "" {
		if ph, ok := l.body(); ok {
			body := s.Body
			sb.WriteString(placeholderShape(id, ph, nil, &body))
		} else {
			sb.WriteString(textBoxShape(id, bodyBox.scale(width, height), s.Body))
		}
		id++
	}
	if s.Caption != "" {
		sb.WriteString(textBoxShape(id, captionBox.scale(width, height), s.Caption))
	}
	sb.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return sb.String()
}

func slideRelsXML(layoutNumber, slideNumber int) string {
	return relsXML([]relationship{
		{"rId1", relBase + "slideLayout", fmt.Sprintf("../slideLayouts/slideLayout%d.xml", layoutNumber)},
		{"rId2", relBase + "notesSlide", fmt.Sprintf("../notesSlides/notesSlide%d.xml", slideNumber)},
	})
}

var notesMasterXML = xmlHeader +
	`<p:notesMaster ` + nsPML + `><p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree>` +
	groupHeader +
	placeholderShape(2, placeholder{kind: "sldImg", name: "Slide Image Placeholder 1"}, &rect{1143000, 685800, 4572000, 3429000}, nil) +
	placeholderShape(3, placeholder{kind: phBody, idx: 1, name: "Notes Placeholder 2"}, &rect{685800, 4343400, 5486400, 4114800}, nil) +
	`</p:spTree></p:cSld>` + clrMap + `</p:notesMaster>`

var notesMasterRelsXML = relsXML([]relationship{
	{"rId1", relBase + "theme", "../theme/theme2.xml"},
})

func notesSlideXML(notes string) string {
	return xmlHeader +
		`<p:notes ` + nsPML + `><p:cSld><p:spTree>` + groupHeader +
		`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Slide Image Placeholder 1"/><p:cNvSpPr><a:spLocks noGrp="1" noRot="1" noChangeAspect="1"/></p:cNvSpPr>` +
		`<p:nvPr><p:ph type="sldImg"/></p:nvPr></p:nvSpPr><p:spPr/></p:sp>` +
		placeholderShape(3, placeholder{kind: phBody, idx: 1, name: "Notes Placeholder 2"}, nil, &notes) +
		`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:notes>`
}

func notesSlideRelsXML(slideNumber int) string {
	return relsXML([]relationship{
		{"rId1", relBase + "notesMaster", "../notesMasters/notesMaster1.xml"},
		{"rId2", relBase + "slide", fmt.Sprintf("../slides/slide%d.xml", slideNumber)},
	})
}

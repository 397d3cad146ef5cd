package pptx

// EMU geometry for the default 10in x 7.5in slide; scaled to the deck size.
const (
	emuPerInch    = 914400
	defaultWidth  = 10 * emuPerInch
	defaultHeight = 7.5 * emuPerInch
)

type rect struct{ x, y, cx, cy int64 }

func (r rect) scale(w, h int64) rect {
	if w == defaultWidth && h == defaultHeight {
		return r
	}
	sx := float64(w) / defaultWidth
	sy := float64(h) / defaultHeight
	return rect{
		x:  int64(float64(r.x) * sx),
		y:  int64(float64(r.y) * sy),
		cx: int64(float64(r.cx) * sx),
		cy: int64(float64(r.cy) * sy),
	}
}

// placeholder kinds as written in <p:ph type=...>; "" is a content (obj) slot.
const (
	phTitle    = "title"
	phCtrTitle = "ctrTitle"
	phSubTitle = "subTitle"
	phBody     = "body"
	phObj      = ""
	phPic      = "pic"
)

type placeholder struct {
	kind string
	idx  int
	name string
	at   rect
}

func (p placeholder) isTitle() bool {
	return p.kind == phTitle || p.kind == phCtrTitle
}

type layout struct {
	name         string
	typ          string
	placeholders []placeholder
}

func (l layout) title() (placeholder, bool) {
	for _, p := range l.placeholders {
		if p.isTitle() {
			return p, true
		}
	}
	return placeholder{}, false
}

// body returns the idx 1 text slot, if the layout has one that takes text.
func (l layout) body() (placeholder, bool) {
	for _, p := range l.placeholders {
		if p.idx == 1 && p.kind != phPic {
			return p, true
		}
	}
	return placeholder{}, false
}

var titleRect = rect{457200, 274638, 8229600, 1143000}

// builtinLayouts follows the usual Office ordering so that index 0 is the
// title slide, 1 title and content, 2 section header and 8 picture with
// caption.
var builtinLayouts = []layout{
	{name: "Title Slide", typ: "title", placeholders: []placeholder{
		{kind: phCtrTitle, name: "Title 1", at: rect{685800, 2130425, 7772400, 1470025}},
		{kind: phSubTitle, idx: 1, name: "Subtitle 2", at: rect{1371600, 3886200, 6400800, 1752600}},
	}},
	{name: "Title and Content", typ: "obj", placeholders: []placeholder{
		{kind: phTitle, name: "Title 1", at: titleRect},
		{kind: phObj, idx: 1, name: "Content Placeholder 2", at: rect{457200, 1600200, 8229600, 4525963}},
	}},
	{name: "Section Header", typ: "secHead", placeholders: []placeholder{
		{kind: phTitle, name: "Title 1", at: rect{722313, 4406900, 7772400, 1362075}},
		{kind: phBody, idx: 1, name: "Text Placeholder 2", at: rect{722313, 2906713, 7772400, 1500187}},
	}},
	{name: "Two Content", typ: "twoObj", placeholders: []placeholder{
		{kind: phTitle, name: "Title 1", at: titleRect},
		{kind: phObj, idx: 1, name: "Content Placeholder 2", at: rect{457200, 1600200, 4038600, 4525963}},
		{kind: phObj, idx: 2, name: "Content Placeholder 3", at: rect{4648200, 1600200, 4038600, 4525963}},
	}},
	{name: "Comparison", typ: "twoTxTwoObj", placeholders: []placeholder{
		{kind: phTitle, name: "Title 1", at: titleRect},
		{kind: phBody, idx: 1, name: "Text Placeholder 2", at: rect{457200, 1535113, 4040188, 639762}},
		{kind: phObj, idx: 2, name: "Content Placeholder 3", at: rect{457200, 2174875, 4040188, 3951288}},
		{kind: phBody, idx: 3, name: "Text Placeholder 4", at: rect{4645025, 1535113, 4041775, 639762}},
		{kind: phObj, idx: 4, name: "Content Placeholder 5", at: rect{4645025, 2174875, 4041775, 3951288}},
	}},
	{name: "Title Only", typ: "titleOnly", placeholders: []placeholder{
		{kind: phTitle, name: "Title 1", at: titleRect},
	}},
	{name: "Blank", typ: "blank"},
	{name: "Content with Caption", typ: "objTx", placeholders: []placeholder{
		{kind: phTitle, name: "Title 1", at: rect{457200, 273050, 3008313, 1162050}},
		{kind: phObj, idx: 1, name: "Content Placeholder 2", at: rect{3575050, 273050, 5111750, 5853113}},
		{kind: phBody, idx: 2, name: "Text Placeholder 3", at: rect{457200, 1435100, 3008313, 4691063}},
	}},
	{name: "Picture with Caption", typ: "picTx", placeholders: []placeholder{
		{kind: phTitle, name: "Title 1", at: rect{1792288, 4800600, 5486400, 566738}},
		{kind: phPic, idx: 1, name: "Picture Placeholder 2", at: rect{1792288, 612775, 5486400, 4114800}},
		{kind: phBody, idx: 2, name: "Text Placeholder 3", at: rect{1792288, 5367338, 5486400, 804862}},
	}},
}

// Fallback text boxes for layouts without a matching placeholder.
var (
	titleBox   = rect{emuPerInch / 2, emuPerInch / 2, 9 * emuPerInch, emuPerInch}
	bodyBox    = rect{emuPerInch / 2, emuPerInch * 3 / 2, 9 * emuPerInch, 5 * emuPerInch}
	captionBox = rect{emuPerInch, emuPerInch * 5 / 2, 8 * emuPerInch, emuPerInch * 11 / 2}
)

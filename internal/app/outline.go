package app

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type SlideType string

const (
	SlideTitleOnly    SlideType = "TitleOnly"
	SlideTitleText    SlideType = "Title&Text"
	SlideTitlePicture SlideType = "Title&Picture"
	SlideOther        SlideType = "Other"
)

var slideTypes = []SlideType{SlideTitleOnly, SlideTitleText, SlideTitlePicture, SlideOther}

func ParseSlideType(raw string) (SlideType, error) {
	for _, t := range slideTypes {
		if string(t) == strings.TrimSpace(raw) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown slide type %q", ErrInvalidInput, raw)
}

// knownSlideType maps Poll, Discussion and any other word the model invents
// onto Other.
func knownSlideType(raw string) SlideType {
	for _, t := range slideTypes {
		if string(t) == raw {
			return t
		}
	}
	return SlideOther
}

// hasBody reports whether the slide carries bulleted body text.
func (t SlideType) hasBody() bool {
	return t == SlideTitleText || t == SlideOther
}

// Slide is one entry of a presentation outline.
type Slide struct {
	Number      int       `json:"number"`
	Type        SlideType `json:"type"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ImagePrompt string    `json:"image_prompt"`
}

// normalize enforces the per-type field rules: TitleOnly has no content,
// Title&Picture mirrors its content into the image prompt, everything else
// has no image prompt.
func (s Slide) normalize() Slide {
	switch s.Type {
	case SlideTitleOnly:
		s.Content = ""
		s.ImagePrompt = ""
	case SlideTitlePicture:
		s.ImagePrompt = s.Content
	default:
		s.ImagePrompt = ""
	}
	return s
}

var outlineLine = regexp.MustCompile(`^(?:Slide\s*)?(\d+)[\.,]\s*(\w+(?:&\w+)?),\s*(.+)`)

// ParseOutline turns the model's "N. Type, Title, content" lines into
// slides. Lines that do not match are skipped. Unrecognised types such as
// Poll or Discussion become Other, and a leading TitleOnly slide is replaced by an introduction
// naming the subject, chapter and selected topics.
func ParseOutline(raw, subject, chapter string, topics []string) []Slide {
	slides := []Slide{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := outlineLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		number, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slideType := knownSlideType(m[2])

		var title, content string
		if slideType == SlideTitleOnly {
			title = m[3]
		} else {
			title, content, _ = strings.Cut(m[3], ",")
			content = strings.TrimSpace(content)
		}
		if m[1] == "1" && slideType == SlideTitleOnly {
			title = fmt.Sprintf("Introduction: %s - %s", subject, chapter)
			content = "Topics: " + strings.Join(topics, ", ")
		}

		slide := Slide{
			Number:  number,
			Type:    slideType,
			Title:   strings.TrimSpace(title),
			Content: content,
		}
		if slideType == SlideTitlePicture {
			slide.ImagePrompt = content
		}
		slides = append(slides, slide)
	}
	return slides
}

// SlideEdit changes one slide of a draft, addressed by its current number.
// Nil fields are left as they are. For Title&Picture slides Content and
// ImagePrompt are the same field; ImagePrompt wins when both are set.
type SlideEdit struct {
	Number      int     `json:"number"`
	Delete      bool    `json:"delete"`
	Type        *string `json:"type,omitempty"`
	Title       *string `json:"title,omitempty"`
	Content     *string `json:"content,omitempty"`
	ImagePrompt *string `json:"image_prompt,omitempty"`
}

// ApplySlideEdits returns the edited outline renumbered 1..N. Only edited
// slides are normalized, so the generated introduction keeps its topic line.
func ApplySlideEdits(slides []Slide, edits []SlideEdit) ([]Slide, error) {
	byNumber := make(map[int]SlideEdit, len(edits))
	for _, e := range edits {
		if _, dup := byNumber[e.Number]; dup {
			return nil, fmt.Errorf("%w: slide %d edited twice", ErrInvalidInput, e.Number)
		}
		byNumber[e.Number] = e
	}
	known := make(map[int]bool, len(slides))
	for _, s := range slides {
		known[s.Number] = true
	}
	for n := range byNumber {
		if !known[n] {
			return nil, fmt.Errorf("%w: no slide %d", ErrInvalidInput, n)
		}
	}

	out := make([]Slide, 0, len(slides))
	for _, s := range slides {
		e, ok := byNumber[s.Number]
		if ok {
			if e.Delete {
				continue
			}
			var err error
			if s, err = applySlideEdit(s, e); err != nil {
				return nil, err
			}
			s = s.normalize()
		}
		s.Number = len(out) + 1
		out = append(out, s)
	}
	return out, nil
}

func applySlideEdit(s Slide, e SlideEdit) (Slide, error) {
	if e.Type != nil {
		t, err := ParseSlideType(*e.Type)
		if err != nil {
			return s, err
		}
		s.Type = t
	}
	if e.Title != nil {
		s.Title = strings.TrimSpace(*e.Title)
	}
	if e.Content != nil {
		s.Content = *e.Content
	}
	if e.ImagePrompt != nil && s.Type == SlideTitlePicture {
		s.Content = *e.ImagePrompt
	}
	return s, nil
}

package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOutline = `Here is your outline:
1. TitleOnly, Welcome
2. Title&Text, Vectors, Definition and notation, with examples
3. Title&Picture, Vector addition, Diagram of two arrows tip to tail
4. Poll, Quick check, Which of these is a scalar?
Slide 5, Discussion, Wrap-up, Where do vectors show up in physics?
6. TitleOnly, Thank You`

func TestParseOutline(t *testing.T) {
	slides := ParseOutline(sampleOutline, "Math", "Algebra", []string{"Vectors", "Matrices"})
	require.Len(t, slides, 6)

	assert.Equal(t, Slide{
		Number:  1,
		Type:    SlideTitleOnly,
		Title:   "Introduction: Math - Algebra",
		Content: "Topics: Vectors, Matrices",
	}, slides[0])

	assert.Equal(t, SlideTitleText, slides[1].Type)
	assert.Equal(t, "Vectors", slides[1].Title)
	assert.Equal(t, "Definition and notation, with examples", slides[1].Content)
	assert.Empty(t, slides[1].ImagePrompt)

	assert.Equal(t, SlideTitlePicture, slides[2].Type)
	assert.Equal(t, "Diagram of two arrows tip to tail", slides[2].ImagePrompt)

	assert.Equal(t, SlideOther, slides[3].Type)
	assert.Equal(t, "Quick check", slides[3].Title)
	assert.Equal(t, SlideOther, slides[4].Type)
	assert.Equal(t, 5, slides[4].Number)
	assert.Equal(t, "Wrap-up", slides[4].Title)

	assert.Equal(t, "Thank You", slides[5].Title)
	assert.Empty(t, slides[5].Content)
}

func TestParseOutlineSkipsNoise(t *testing.T) {
	assert.Empty(t, ParseOutline("no slides here\n\n- just prose", "Math", "Algebra", nil))
}

func TestParseOutlineUnknownTypeBecomesOther(t *testing.T) {
	slides := ParseOutline("3. Quiz, Check yourself, What is 2+2", "Math", "Algebra", nil)
	require.Len(t, slides, 1)
	assert.Equal(t, SlideOther, slides[0].Type)
	assert.Equal(t, "Check yourself", slides[0].Title)
	assert.Equal(t, "What is 2+2", slides[0].Content)
	assert.True(t, slides[0].Type.hasBody())
	assert.Equal(t, 2, layoutFor(slides[0].Type))
}

func TestLayoutFor(t *testing.T) {
	assert.Equal(t, 0, layoutFor(SlideTitleOnly))
	assert.Equal(t, 1, layoutFor(SlideTitleText))
	assert.Equal(t, 8, layoutFor(SlideTitlePicture))
	assert.Equal(t, 2, layoutFor(SlideOther))
	assert.Equal(t, 2, layoutFor(SlideType("Summary")))
}

func editSlides() []Slide {
	return ParseOutline(sampleOutline, "Math", "Algebra", []string{"Vectors"})
}

func strPtr(s string) *string { return &s }

func TestApplySlideEdits(t *testing.T) {
	out, err := ApplySlideEdits(editSlides(), []SlideEdit{
		{Number: 2, Delete: true},
		{Number: 3, Type: strPtr("Title&Text")},
		{Number: 4, Title: strPtr("  Pop quiz  ")},
		{Number: 6, Content: strPtr("ignored for title-only slides")},
	})
	require.NoError(t, err)
	require.Len(t, out, 5)

	for i, s := range out {
		assert.Equal(t, i+1, s.Number)
	}
	assert.Equal(t, "Topics: Vectors", out[0].Content, "untouched slides keep their content")
	assert.Equal(t, "Vector addition", out[1].Title)
	assert.Equal(t, SlideTitleText, out[1].Type)
	assert.Equal(t, "Diagram of two arrows tip to tail", out[1].Content)
	assert.Empty(t, out[1].ImagePrompt)
	assert.Equal(t, "Pop quiz", out[2].Title)
	assert.Empty(t, out[4].Content)
}

func TestApplySlideEditsImagePrompt(t *testing.T) {
	out, err := ApplySlideEdits(editSlides(), []SlideEdit{
		{Number: 3, Content: strPtr("old"), ImagePrompt: strPtr("A watercolor of two arrows")},
	})
	require.NoError(t, err)
	assert.Equal(t, "A watercolor of two arrows", out[2].Content)
	assert.Equal(t, "A watercolor of two arrows", out[2].ImagePrompt)
}

func TestApplySlideEditsRejectsBadEdits(t *testing.T) {
	_, err := ApplySlideEdits(editSlides(), []SlideEdit{{Number: 9, Delete: true}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ApplySlideEdits(editSlides(), []SlideEdit{{Number: 2, Delete: true}, {Number: 2}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ApplySlideEdits(editSlides(), []SlideEdit{{Number: 2, Type: strPtr("Chart")}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseFlashcards(t *testing.T) {
	text := "Here are your cards\nFront: What is a vector?\nBack: A quantity with direction\n\n" +
		"Front: What is a scalar?\nnoise\nBack: A magnitude only\nFront: Unfinished"
	cards := ParseFlashcards(text)
	assert.Equal(t, []Flashcard{
		{Front: "What is a vector?", Back: "A quantity with direction"},
		{Front: "What is a scalar?", Back: "A magnitude only"},
		{Front: "Unfinished"},
	}, cards)

	assert.Equal(t,
		"Flashcard 1\nFront: What is a vector?\nBack: A quantity with direction\n\n"+
			"Flashcard 2\nFront: What is a scalar?\nBack: A magnitude only\n\n"+
			"Flashcard 3\nFront: Unfinished\nBack: ",
		FlashcardsText(cards))
}

func TestStripBulletMarkers(t *testing.T) {
	assert.Equal(t, "one\ntwo\nthree\nfour", stripBulletMarkers("- one\n* two\n\n• three\n  four  "))
}

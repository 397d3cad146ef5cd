package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"teachassist/internal/ai"
	"teachassist/internal/platform/logger"
	"teachassist/internal/pptx"
)

const (
	minLectureMinutes = 15
	maxLectureMinutes = 180
	minutesPerSlide   = 3
)

const otherLayout = 2

// Deck layout index per slide type.
var slideLayouts = map[SlideType]int{
	SlideTitleOnly:    0,
	SlideTitleText:    1,
	SlideTitlePicture: 8,
	SlideOther:        otherLayout,
}

// layoutFor falls back to the Other layout for types outside the map.
func layoutFor(t SlideType) int {
	if layout, ok := slideLayouts[t]; ok {
		return layout
	}
	return otherLayout
}

// PresentationDraft is the editable outline held between requests.
type PresentationDraft struct {
	ID             string    `json:"id"`
	Subject        string    `json:"subject"`
	Chapter        string    `json:"chapter"`
	Topics         []string  `json:"topics"`
	LectureMinutes int       `json:"lecture_minutes"`
	NumSlides      int       `json:"num_slides"`
	Outline        string    `json:"outline"`
	Slides         []Slide   `json:"slides"`
	CreatedBy      uint      `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DraftStore keeps drafts between requests. Load returns nil, nil for an
// unknown or expired id.
type DraftStore interface {
	Load(ctx context.Context, id string) (*PresentationDraft, error)
	Save(ctx context.Context, draft *PresentationDraft) error
	Delete(ctx context.Context, id string) error
}

// DeckFactory opens the deck a presentation is rendered into.
type DeckFactory func() (*pptx.Deck, error)

// TemplateDeck returns a factory for the configured template, or the
// built-in theme when path is empty.
func TemplateDeck(path string) DeckFactory {
	return func() (*pptx.Deck, error) {
		if path == "" {
			return pptx.New(), nil
		}
		return pptx.FromTemplate(path)
	}
}

type GenerateOutlineInput struct {
	Subject        string
	Chapter        string
	Topics         []string
	LectureMinutes int
	RequestedBy    uint
}

type PresentationService struct {
	rag     *RAGService
	drafts  DraftStore
	newDeck DeckFactory
	author  string
	log     *logger.Logger
}

func NewPresentationService(rag *RAGService, drafts DraftStore, newDeck DeckFactory, author string, log *logger.Logger) *PresentationService {
	if newDeck == nil {
		newDeck = TemplateDeck("")
	}
	return &PresentationService{rag: rag, drafts: drafts, newDeck: newDeck, author: author, log: log}
}

// Generate asks the model for an outline of minutes/3 slides and stores the
// parsed result as a new draft. The slide count is a hint to the model and
// is not enforced.
func (s *PresentationService) Generate(ctx context.Context, input GenerateOutlineInput) (*PresentationDraft, error) {
	subject, chapter, err := validatePair(input.Subject, input.Chapter)
	if err != nil {
		return nil, err
	}
	topics := make([]string, 0, len(input.Topics))
	for _, t := range input.Topics {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("%w: select at least one topic", ErrInvalidInput)
	}
	if input.LectureMinutes < minLectureMinutes || input.LectureMinutes > maxLectureMinutes {
		return nil, fmt.Errorf("%w: lecture length must be between %d and %d minutes",
			ErrInvalidInput, minLectureMinutes, maxLectureMinutes)
	}
	numSlides := input.LectureMinutes / minutesPerSlide

	outline, err := s.rag.Answer(ctx, outlineTask(subject, chapter, topics, numSlides))
	if err != nil {
		return nil, err
	}
	slides := ParseOutline(outline, subject, chapter, topics)
	// Model numbering can repeat or skip; edits address slides by number.
	for i := range slides {
		slides[i].Number = i + 1
	}

	now := time.Now()
	draft := &PresentationDraft{
		ID:             uuid.NewString(),
		Subject:        subject,
		Chapter:        chapter,
		Topics:         topics,
		LectureMinutes: input.LectureMinutes,
		NumSlides:      numSlides,
		Outline:        outline,
		Slides:         slides,
		CreatedBy:      input.RequestedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, fmt.Errorf("save presentation draft: %w", err)
	}
	s.log.Info("presentation outline generated", "draft", draft.ID, "requested", numSlides, "parsed", len(slides))
	return draft, nil
}

func (s *PresentationService) Get(ctx context.Context, id string) (*PresentationDraft, error) {
	draft, err := s.drafts.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load presentation draft: %w", err)
	}
	if draft == nil {
		return nil, ErrDraftNotFound
	}
	return draft, nil
}

// UpdateSlides applies edits and stores the renumbered outline.
func (s *PresentationService) UpdateSlides(ctx context.Context, id string, edits []SlideEdit) (*PresentationDraft, error) {
	draft, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	slides, err := ApplySlideEdits(draft.Slides, edits)
	if err != nil {
		return nil, err
	}
	draft.Slides = slides
	draft.UpdatedAt = time.Now()
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, fmt.Errorf("save presentation draft: %w", err)
	}
	return draft, nil
}

func (s *PresentationService) Discard(ctx context.Context, id string) error {
	if err := s.drafts.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete presentation draft: %w", err)
	}
	return nil
}

// Render builds the deck. Bullets are regenerated for text slides, picture
// slides get a placeholder naming the image prompt, and every slide gets
// speaker notes. Any failed generation call aborts the whole render.
func (s *PresentationService) Render(ctx context.Context, id string) ([]byte, error) {
	draft, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(draft.Slides) == 0 {
		return nil, fmt.Errorf("%w: presentation has no slides", ErrInvalidInput)
	}

	deck, err := s.newDeck()
	if err != nil {
		s.log.Error("presentation template load failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}
	deck.Title = fmt.Sprintf("%s - %s", draft.Subject, draft.Chapter)
	deck.Author = s.author

	for _, slide := range draft.Slides {
		out := pptx.Slide{Layout: layoutFor(slide.Type), Title: slide.Title}
		switch {
		case slide.Type.hasBody() || layoutFor(slide.Type) == otherLayout:
			bullets, err := s.rag.Complete(ctx, "slide bullets", ai.GenerateRequest{
				Prompt: bulletsPrompt(slide.Content), MaxTokens: 300, Temperature: 0.3, TopP: 1.0,
			})
			if err != nil {
				return nil, fmt.Errorf("slide %d bullets: %w", slide.Number, err)
			}
			out.Body = stripBulletMarkers(bullets)
		case slide.Type == SlideTitlePicture:
			out.Caption = fmt.Sprintf("[Suggested image: %s]", slide.ImagePrompt)
		}

		notes, err := s.rag.Complete(ctx, "speaker notes", ai.GenerateRequest{
			Prompt: speakerNotesPrompt(slide.Content), MaxTokens: 500, Temperature: 0.3, TopP: 1.0,
		})
		if err != nil {
			return nil, fmt.Errorf("slide %d notes: %w", slide.Number, err)
		}
		out.Notes = notes

		if err := deck.AddSlide(out); err != nil {
			return nil, fmt.Errorf("slide %d: %w", slide.Number, err)
		}
	}

	raw, err := deck.Bytes()
	if err != nil {
		return nil, fmt.Errorf("write presentation: %w", err)
	}
	s.log.Info("presentation rendered", "draft", id, "slides", deck.Len(), "bytes", len(raw))
	return raw, nil
}

// ConclusionSummary drafts closing bullets from the text slides of a draft.
func (s *PresentationService) ConclusionSummary(ctx context.Context, id string) (string, error) {
	draft, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	var parts []string
	for _, slide := range draft.Slides {
		if slide.Type.hasBody() {
			parts = append(parts, slide.Content)
		}
	}
	return s.rag.Complete(ctx, "conclusion", ai.GenerateRequest{
		Prompt:      conclusionPrompt(strings.Join(parts, "\n")),
		MaxTokens:   300,
		Temperature: 0.3,
		TopP:        1.0,
	})
}

// stripBulletMarkers drops "-", "*" and "•" prefixes; the deck's body style
// draws its own bullets.
func stripBulletMarkers(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		for _, marker := range []string{"- ", "* ", "• ", "•"} {
			if strings.HasPrefix(line, marker) {
				line = strings.TrimSpace(strings.TrimPrefix(line, marker))
				break
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

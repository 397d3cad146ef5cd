package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"teachassist/internal/ai"
	"teachassist/internal/docrender"
	"teachassist/internal/platform/logger"
	"teachassist/internal/storage"
)

type LectureAsset string

const (
	AssetTranscription LectureAsset = "transcription"
	AssetSummary       LectureAsset = "summary"
	AssetAssignments   LectureAsset = "assignments"
	AssetFlashcards    LectureAsset = "flashcards"
)

const (
	lectureMaxTokens   = 500
	lectureTemperature = 0.5
	// maxFlashcards bounds the sequential scan in GetFlashcards.
	maxFlashcards = 500
)

var videoExtensions = map[string]bool{".mp4": true, ".avi": true, ".mov": true}

func ParseLectureAsset(raw string) (LectureAsset, error) {
	switch a := LectureAsset(strings.ToLower(strings.TrimSpace(raw))); a {
	case AssetTranscription, AssetSummary, AssetAssignments, AssetFlashcards:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown lecture asset %q", ErrInvalidInput, raw)
}

// hasDocument reports whether the asset gets a letterhead PDF twin.
func (a LectureAsset) hasDocument() bool {
	return a == AssetSummary || a == AssetAssignments
}

func (a LectureAsset) prompt(transcript string) (string, bool) {
	switch a {
	case AssetSummary:
		return lectureSummaryPrompt(transcript), true
	case AssetAssignments:
		return assignmentsPrompt(transcript), true
	case AssetFlashcards:
		return flashcardsPrompt(transcript), true
	}
	return "", false
}

// VideoRef addresses one delivered lecture.
type VideoRef struct {
	Subject string
	Chapter string
	Video   string
}

func (r VideoRef) validate() (VideoRef, error) {
	subject, chapter, err := validatePair(r.Subject, r.Chapter)
	if err != nil {
		return r, err
	}
	video, err := validateName(r.Video)
	if err != nil {
		return r, err
	}
	return VideoRef{Subject: subject, Chapter: chapter, Video: video}, nil
}

func (r VideoRef) assetKey(asset LectureAsset, ext string) string {
	return lectureAssetKey(r.Subject, r.Chapter, r.Video, string(asset), ext)
}

// LectureAssets is the generated result for one asset kind.
type LectureAssets struct {
	Asset      LectureAsset `json:"asset"`
	Text       string       `json:"text"`
	Flashcards []Flashcard  `json:"flashcards,omitempty"`
}

// LectureService manages delivered lecture videos and the study assets
// derived from their transcripts.
type LectureService struct {
	media      storage.Store
	generator  ai.Generator
	renderer   DocumentRenderer
	presignTTL time.Duration
	log        *logger.Logger
}

func NewLectureService(
	media storage.Store,
	generator ai.Generator,
	renderer DocumentRenderer,
	presignTTL time.Duration,
	log *logger.Logger,
) *LectureService {
	if presignTTL <= 0 {
		presignTTL = time.Hour
	}
	return &LectureService{
		media:      media,
		generator:  generator,
		renderer:   renderer,
		presignTTL: presignTTL,
		log:        log,
	}
}

// ListVideos returns the video filenames directly under DeliveredLectures/.
func (s *LectureService) ListVideos(ctx context.Context, subject, chapter string) ([]string, error) {
	subject, chapter, err := validatePair(subject, chapter)
	if err != nil {
		return nil, err
	}
	prefix := lecturesPrefix(subject, chapter)
	objects, err := s.media.List(ctx, prefix)
	if err != nil {
		return nil, s.upstream("list videos", prefix, err)
	}
	videos := []string{}
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		if videoExtensions[strings.ToLower(path.Ext(name))] {
			videos = append(videos, name)
		}
	}
	return videos, nil
}

type UploadVideoInput struct {
	Subject     string
	Chapter     string
	Filename    string
	ContentType string
	Body        io.Reader
}

func (s *LectureService) UploadVideo(ctx context.Context, input UploadVideoInput) (string, error) {
	ref, err := VideoRef{Subject: input.Subject, Chapter: input.Chapter, Video: input.Filename}.validate()
	if err != nil {
		return "", err
	}
	if !videoExtensions[strings.ToLower(path.Ext(ref.Video))] {
		return "", fmt.Errorf("%w: %q is not an mp4, avi or mov file", ErrInvalidInput, ref.Video)
	}
	contentType := input.ContentType
	if contentType == "" {
		contentType = "video/" + strings.TrimPrefix(strings.ToLower(path.Ext(ref.Video)), ".")
	}
	key := videoKey(ref.Subject, ref.Chapter, ref.Video)
	if err := s.media.Upload(ctx, key, input.Body, contentType); err != nil {
		return "", s.upstream("upload video", key, err)
	}
	s.log.Info("lecture video uploaded", "key", key)
	return ref.Video, nil
}

func (s *LectureService) VideoURL(ctx context.Context, ref VideoRef) (string, error) {
	ref, err := ref.validate()
	if err != nil {
		return "", err
	}
	key := videoKey(ref.Subject, ref.Chapter, ref.Video)
	exists, err := s.media.Exists(ctx, key)
	if err != nil {
		return "", s.upstream("check video", key, err)
	}
	if !exists {
		return "", fmt.Errorf("%w: video %q", ErrNotFound, ref.Video)
	}
	link, err := s.media.PresignGet(ctx, key, s.presignTTL)
	if err != nil {
		return "", s.upstream("presign video", key, err)
	}
	return link, nil
}

// GetAsset returns a stored text asset and false when there is none.
// Flashcards come back in their export form.
func (s *LectureService) GetAsset(ctx context.Context, ref VideoRef, asset LectureAsset) (string, bool, error) {
	ref, err := ref.validate()
	if err != nil {
		return "", false, err
	}
	if asset == AssetFlashcards {
		cards, err := s.getFlashcards(ctx, ref)
		if err != nil {
			return "", false, err
		}
		return FlashcardsText(cards), len(cards) > 0, nil
	}
	key := ref.assetKey(asset, "txt")
	raw, err := s.media.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, s.upstream("read lecture asset", key, err)
	}
	return string(raw), true, nil
}

// Document returns the PDF twin of a summary or assignments asset.
func (s *LectureService) Document(ctx context.Context, ref VideoRef, asset LectureAsset) ([]byte, bool, error) {
	ref, err := ref.validate()
	if err != nil {
		return nil, false, err
	}
	if !asset.hasDocument() {
		return nil, false, fmt.Errorf("%w: %s has no document", ErrInvalidInput, asset)
	}
	key := ref.assetKey(asset, "pdf")
	raw, err := s.media.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.upstream("read lecture document", key, err)
	}
	return raw, true, nil
}

// SaveAsset stores edited text. Summary and assignments also get a PDF;
// flashcards text is parsed and stored card by card.
func (s *LectureService) SaveAsset(ctx context.Context, ref VideoRef, asset LectureAsset, text string) error {
	ref, err := ref.validate()
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: %s text is empty", ErrInvalidInput, asset)
	}
	if asset == AssetFlashcards {
		cards := ParseFlashcards(text)
		if len(cards) == 0 {
			return fmt.Errorf("%w: no Front:/Back: lines found", ErrInvalidInput)
		}
		return s.saveFlashcards(ctx, ref, cards)
	}

	var pdf []byte
	if asset.hasDocument() {
		pdf, err = s.renderer.Render(docrender.Document{
			Subject:      ref.Subject,
			Chapter:      ref.Chapter,
			HeadingLabel: "Video Name",
			Heading:      ref.Video,
			Body:         text,
		})
		if err != nil {
			return fmt.Errorf("render %s document: %w", asset, err)
		}
	}

	key := ref.assetKey(asset, "txt")
	if err := s.media.Put(ctx, key, []byte(text), "text/plain; charset=utf-8"); err != nil {
		return s.upstream("save lecture asset", key, err)
	}
	if pdf != nil {
		pdfKey := ref.assetKey(asset, "pdf")
		if err := s.media.Put(ctx, pdfKey, pdf, "application/pdf"); err != nil {
			return s.upstream("save lecture document", pdfKey, err)
		}
	}
	s.log.Info("lecture asset saved", "asset", asset, "key", key)
	return nil
}

// GenerateAsset drafts a summary, assignments list or flashcards from the
// stored transcription. Nothing is written until SaveAsset.
func (s *LectureService) GenerateAsset(ctx context.Context, ref VideoRef, asset LectureAsset) (*LectureAssets, error) {
	ref, err := ref.validate()
	if err != nil {
		return nil, err
	}
	transcript, ok, err := s.GetAsset(ctx, ref, AssetTranscription)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(transcript) == "" {
		return nil, ErrTranscriptMissing
	}
	prompt, ok := asset.prompt(transcript)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot be generated", ErrInvalidInput, asset)
	}

	text, err := s.generator.Generate(ctx, ai.GenerateRequest{
		Prompt:      prompt,
		MaxTokens:   lectureMaxTokens,
		Temperature: lectureTemperature,
		TopP:        1.0,
	})
	if err != nil {
		s.log.Error("lecture generation failed", "asset", asset, "video", ref.Video, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	out := &LectureAssets{Asset: asset, Text: strings.TrimSpace(text)}
	if asset == AssetFlashcards {
		out.Flashcards = ParseFlashcards(out.Text)
	}
	return out, nil
}

func (s *LectureService) GetFlashcards(ctx context.Context, ref VideoRef) ([]Flashcard, error) {
	ref, err := ref.validate()
	if err != nil {
		return nil, err
	}
	return s.getFlashcards(ctx, ref)
}

// SaveFlashcards writes flashcard_1..n and removes leftovers from a longer
// previous set so the scan stops at the new end.
func (s *LectureService) SaveFlashcards(ctx context.Context, ref VideoRef, cards []Flashcard) error {
	ref, err := ref.validate()
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		return fmt.Errorf("%w: no flashcards", ErrInvalidInput)
	}
	return s.saveFlashcards(ctx, ref, cards)
}

func (s *LectureService) getFlashcards(ctx context.Context, ref VideoRef) ([]Flashcard, error) {
	cards := []Flashcard{}
	for i := 1; i <= maxFlashcards; i++ {
		key := flashcardKey(ref.Subject, ref.Chapter, ref.Video, i)
		raw, err := s.media.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, s.upstream("read flashcard", key, err)
		}
		var card Flashcard
		if err := json.Unmarshal(raw, &card); err != nil {
			s.log.Warn("skipping malformed flashcard", "key", key, "error", err)
			continue
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func (s *LectureService) saveFlashcards(ctx context.Context, ref VideoRef, cards []Flashcard) error {
	for i, card := range cards {
		raw, err := json.Marshal(card)
		if err != nil {
			return fmt.Errorf("encode flashcard: %w", err)
		}
		key := flashcardKey(ref.Subject, ref.Chapter, ref.Video, i+1)
		if err := s.media.Put(ctx, key, raw, "application/json"); err != nil {
			return s.upstream("save flashcard", key, err)
		}
	}
	for i := len(cards) + 1; i <= maxFlashcards; i++ {
		key := flashcardKey(ref.Subject, ref.Chapter, ref.Video, i)
		exists, err := s.media.Exists(ctx, key)
		if err != nil {
			return s.upstream("check flashcard", key, err)
		}
		if !exists {
			break
		}
		if err := s.media.Delete(ctx, key); err != nil {
			return s.upstream("delete flashcard", key, err)
		}
	}
	s.log.Info("flashcards saved", "video", ref.Video, "count", len(cards))
	return nil
}

func (s *LectureService) upstream(op, key string, err error) error {
	s.log.Error("lecture storage call failed", "op", op, "key", key, "error", err)
	return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
}

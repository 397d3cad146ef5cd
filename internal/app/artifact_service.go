package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"teachassist/internal/docrender"
	"teachassist/internal/platform/logger"
	"teachassist/internal/storage"
)

type ArtifactKind string

const (
	KindSummary     ArtifactKind = "summary"
	KindElaboration ArtifactKind = "elaboration"
)

type artifactKind struct {
	stem string
	task func(subject, chapter, topic string) groundedTask
}

var artifactKinds = map[ArtifactKind]artifactKind{
	KindSummary:     {stem: "summary", task: summaryTask},
	KindElaboration: {stem: "Elaborate", task: elaborationTask},
}

func ParseArtifactKind(raw string) (ArtifactKind, error) {
	kind := ArtifactKind(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := artifactKinds[kind]; !ok {
		return "", fmt.Errorf("%w: unknown artifact kind %q", ErrInvalidInput, raw)
	}
	return kind, nil
}

// DocumentRenderer turns artifact text into the printable PDF twin.
type DocumentRenderer interface {
	Render(doc docrender.Document) ([]byte, error)
}

// TopicRef addresses one topic artifact.
type TopicRef struct {
	Subject string
	Chapter string
	Topic   string
}

func (r TopicRef) validate() (TopicRef, error) {
	subject, chapter, err := validatePair(r.Subject, r.Chapter)
	if err != nil {
		return r, err
	}
	topic := strings.TrimSpace(r.Topic)
	if topic == "" {
		return r, fmt.Errorf("%w: topic is empty", ErrInvalidInput)
	}
	return TopicRef{Subject: subject, Chapter: chapter, Topic: topic}, nil
}

type ArtifactStatus struct {
	Topic       string `json:"topic"`
	HasText     bool   `json:"has_text"`
	HasPDF      bool   `json:"has_pdf"`
	TextKey     string `json:"text_key"`
	DocumentKey string `json:"document_key"`
}

// ArtifactService generates and stores per-topic summaries and elaborations.
// Each artifact is a text object plus a letterhead PDF under twin keys.
type ArtifactService struct {
	artifacts  storage.Store
	catalog    *CatalogService
	rag        *RAGService
	renderer   DocumentRenderer
	presignTTL time.Duration
	log        *logger.Logger
}

func NewArtifactService(
	artifacts storage.Store,
	catalog *CatalogService,
	rag *RAGService,
	renderer DocumentRenderer,
	presignTTL time.Duration,
	log *logger.Logger,
) *ArtifactService {
	if presignTTL <= 0 {
		presignTTL = time.Hour
	}
	return &ArtifactService{
		artifacts:  artifacts,
		catalog:    catalog,
		rag:        rag,
		renderer:   renderer,
		presignTTL: presignTTL,
		log:        log,
	}
}

// Generate drafts the artifact text. Nothing is stored until Save.
func (s *ArtifactService) Generate(ctx context.Context, kind ArtifactKind, ref TopicRef) (string, error) {
	def, ref, err := s.resolve(kind, ref)
	if err != nil {
		return "", err
	}
	return s.rag.Answer(ctx, def.task(ref.Subject, ref.Chapter, ref.Topic))
}

// Save writes the text object first, then the PDF. Both must succeed; a
// failed PDF write leaves the new text next to the previous PDF.
func (s *ArtifactService) Save(ctx context.Context, kind ArtifactKind, ref TopicRef, text string) error {
	def, ref, err := s.resolve(kind, ref)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: artifact text is empty", ErrInvalidInput)
	}

	pdf, err := s.renderer.Render(docrender.Document{
		Subject:      ref.Subject,
		Chapter:      ref.Chapter,
		HeadingLabel: "Topic Name",
		Heading:      ref.Topic,
		Body:         text,
	})
	if err != nil {
		return fmt.Errorf("render %s document: %w", kind, err)
	}

	textKey := topicArtifactKey(ref.Subject, ref.Chapter, ref.Topic, def.stem, "txt")
	if err := s.artifacts.Put(ctx, textKey, []byte(text), "text/plain; charset=utf-8"); err != nil {
		return s.upstream("save artifact text", textKey, err)
	}
	pdfKey := topicArtifactKey(ref.Subject, ref.Chapter, ref.Topic, def.stem, "pdf")
	if err := s.artifacts.Put(ctx, pdfKey, pdf, "application/pdf"); err != nil {
		return s.upstream("save artifact pdf", pdfKey, err)
	}
	s.log.Info("artifact saved", "kind", kind, "key", textKey)
	return nil
}

// Get returns the stored text and false when none exists.
func (s *ArtifactService) Get(ctx context.Context, kind ArtifactKind, ref TopicRef) (string, bool, error) {
	def, ref, err := s.resolve(kind, ref)
	if err != nil {
		return "", false, err
	}
	key := topicArtifactKey(ref.Subject, ref.Chapter, ref.Topic, def.stem, "txt")
	raw, err := s.artifacts.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, s.upstream("read artifact", key, err)
	}
	return string(raw), true, nil
}

// Document returns the stored PDF bytes and false when none exists.
func (s *ArtifactService) Document(ctx context.Context, kind ArtifactKind, ref TopicRef) ([]byte, bool, error) {
	def, ref, err := s.resolve(kind, ref)
	if err != nil {
		return nil, false, err
	}
	key := topicArtifactKey(ref.Subject, ref.Chapter, ref.Topic, def.stem, "pdf")
	raw, err := s.artifacts.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.upstream("read artifact pdf", key, err)
	}
	return raw, true, nil
}

// Delete removes both twins. Unlike reads, a failure here is returned.
func (s *ArtifactService) Delete(ctx context.Context, kind ArtifactKind, ref TopicRef) error {
	def, ref, err := s.resolve(kind, ref)
	if err != nil {
		return err
	}
	for _, ext := range []string{"txt", "pdf"} {
		key := topicArtifactKey(ref.Subject, ref.Chapter, ref.Topic, def.stem, ext)
		if err := s.artifacts.Delete(ctx, key); err != nil {
			return s.upstream("delete artifact", key, err)
		}
	}
	s.log.Info("artifact deleted", "kind", kind, "topic", ref.Topic)
	return nil
}

// DocumentURL returns a presigned link to the PDF, or false if there is none.
func (s *ArtifactService) DocumentURL(ctx context.Context, kind ArtifactKind, ref TopicRef) (string, bool, error) {
	def, ref, err := s.resolve(kind, ref)
	if err != nil {
		return "", false, err
	}
	key := topicArtifactKey(ref.Subject, ref.Chapter, ref.Topic, def.stem, "pdf")
	exists, err := s.artifacts.Exists(ctx, key)
	if err != nil {
		return "", false, s.upstream("check artifact pdf", key, err)
	}
	if !exists {
		return "", false, nil
	}
	link, err := s.artifacts.PresignGet(ctx, key, s.presignTTL)
	if err != nil {
		return "", false, s.upstream("presign artifact pdf", key, err)
	}
	return link, true, nil
}

const statusConcurrency = 8

// ListStatus reports, for every topic of the chapter, which twins exist.
func (s *ArtifactService) ListStatus(ctx context.Context, kind ArtifactKind, subject, chapter string) ([]ArtifactStatus, error) {
	def, ok := artifactKinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown artifact kind %q", ErrInvalidInput, kind)
	}
	topics, err := s.catalog.GetTopics(ctx, subject, chapter)
	if err != nil {
		return nil, err
	}

	out := make([]ArtifactStatus, len(topics))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statusConcurrency)
	for i, topic := range topics {
		i, topic := i, topic
		g.Go(func() error {
			st := ArtifactStatus{
				Topic:       topic,
				TextKey:     topicArtifactKey(subject, chapter, topic, def.stem, "txt"),
				DocumentKey: topicArtifactKey(subject, chapter, topic, def.stem, "pdf"),
			}
			var err error
			if st.HasText, err = s.artifacts.Exists(gctx, st.TextKey); err != nil {
				return err
			}
			if st.HasPDF, err = s.artifacts.Exists(gctx, st.DocumentKey); err != nil {
				return err
			}
			out[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.upstream("list artifact status", subject+"/"+chapter, err)
	}
	return out, nil
}

func (s *ArtifactService) resolve(kind ArtifactKind, ref TopicRef) (artifactKind, TopicRef, error) {
	def, ok := artifactKinds[kind]
	if !ok {
		return artifactKind{}, ref, fmt.Errorf("%w: unknown artifact kind %q", ErrInvalidInput, kind)
	}
	ref, err := ref.validate()
	if err != nil {
		return artifactKind{}, ref, err
	}
	return def, ref, nil
}

func (s *ArtifactService) upstream(op, key string, err error) error {
	s.log.Error("artifact storage call failed", "op", op, "key", key, "error", err)
	return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
}

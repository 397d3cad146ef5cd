package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"teachassist/internal/pkg/pdfextract"
	"teachassist/internal/platform/logger"
	"teachassist/internal/storage"
)

// Reindexer asks the knowledge base to pick up storage changes. It must not
// block on the ingestion itself.
type Reindexer interface {
	RequestReindex(ctx context.Context, reason string) error
}

// CatalogService owns the subject/chapter/file namespace in the materials
// bucket and the per-subject topic index that sits next to it.
type CatalogService struct {
	materials  storage.Store
	artifacts  storage.Store
	rag        *RAGService
	reindexer  Reindexer
	presignTTL time.Duration
	log        *logger.Logger
	now        func() time.Time
}

func NewCatalogService(
	materials storage.Store,
	artifacts storage.Store,
	rag *RAGService,
	reindexer Reindexer,
	presignTTL time.Duration,
	log *logger.Logger,
) *CatalogService {
	if presignTTL <= 0 {
		presignTTL = time.Hour
	}
	return &CatalogService{
		materials:  materials,
		artifacts:  artifacts,
		rag:        rag,
		reindexer:  reindexer,
		presignTTL: presignTTL,
		log:        log,
		now:        time.Now,
	}
}

func (s *CatalogService) ListSubjects(ctx context.Context) ([]string, error) {
	prefixes, err := s.materials.ListPrefixes(ctx, "")
	if err != nil {
		return nil, s.upstream("list subjects", err)
	}
	return folderNames(prefixes, ""), nil
}

func (s *CatalogService) CreateSubject(ctx context.Context, name string) (string, error) {
	name, err := validateName(name)
	if err != nil {
		return "", err
	}
	exists, err := s.subjectExists(ctx, name)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%w: subject %q", ErrAlreadyExists, name)
	}
	if err := s.materials.Put(ctx, subjectPrefix(name), nil, ""); err != nil {
		return "", s.upstream("create subject", err)
	}
	s.log.Info("subject created", "subject", name)
	return name, nil
}

// DeleteSubject removes everything under the subject in both buckets. A
// re-index is requested even when a later step fails.
func (s *CatalogService) DeleteSubject(ctx context.Context, name string) error {
	name, err := validateName(name)
	if err != nil {
		return err
	}
	exists, err := s.subjectExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: subject %q", ErrNotFound, name)
	}
	// Re-index on every exit once deletion has started.
	defer s.TriggerReindex(ctx, "subject deleted: "+name)

	prefix := subjectPrefix(name)
	materials, err := s.materials.DeletePrefix(ctx, prefix)
	if err != nil {
		return s.upstream("delete subject materials", err)
	}
	artifacts, err := s.artifacts.DeletePrefix(ctx, prefix)
	if err != nil {
		return s.upstream("delete subject artifacts", err)
	}
	if err := s.materials.Delete(ctx, prefix); err != nil {
		return s.upstream("delete subject marker", err)
	}
	s.log.Info("subject deleted", "subject", name, "materials", materials, "artifacts", artifacts)
	return nil
}

func (s *CatalogService) ListChapters(ctx context.Context, subject string) ([]string, error) {
	subject, err := validateName(subject)
	if err != nil {
		return nil, err
	}
	prefix := subjectPrefix(subject)
	prefixes, err := s.materials.ListPrefixes(ctx, prefix)
	if err != nil {
		return nil, s.upstream("list chapters", err)
	}
	return folderNames(prefixes, prefix), nil
}

func (s *CatalogService) CreateChapter(ctx context.Context, subject, chapter string) (string, error) {
	subject, chapter, err := validatePair(subject, chapter)
	if err != nil {
		return "", err
	}
	exists, err := s.subjectExists(ctx, subject)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("%w: subject %q", ErrNotFound, subject)
	}
	exists, err = s.chapterExists(ctx, subject, chapter)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%w: chapter %q", ErrAlreadyExists, chapter)
	}
	if err := s.materials.Put(ctx, chapterPrefix(subject, chapter), nil, ""); err != nil {
		return "", s.upstream("create chapter", err)
	}
	s.log.Info("chapter created", "subject", subject, "chapter", chapter)
	return chapter, nil
}

// DeleteChapter removes the chapter in both buckets and drops its entries
// from the subject index so no orphan topics survive.
func (s *CatalogService) DeleteChapter(ctx context.Context, subject, chapter string) error {
	subject, chapter, err := validatePair(subject, chapter)
	if err != nil {
		return err
	}
	exists, err := s.chapterExists(ctx, subject, chapter)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: chapter %q", ErrNotFound, chapter)
	}
	defer s.TriggerReindex(ctx, "chapter deleted: "+subject+"/"+chapter)

	prefix := chapterPrefix(subject, chapter)
	if _, err := s.materials.DeletePrefix(ctx, prefix); err != nil {
		return s.upstream("delete chapter materials", err)
	}
	if _, err := s.artifacts.DeletePrefix(ctx, prefix); err != nil {
		return s.upstream("delete chapter artifacts", err)
	}
	if err := s.materials.Delete(ctx, prefix); err != nil {
		return s.upstream("delete chapter marker", err)
	}

	idx, err := s.loadIndex(ctx, subject)
	if err != nil {
		return err
	}
	if removed := idx.RemoveChapter(chapter); removed > 0 {
		if err := s.saveIndex(ctx, subject, idx); err != nil {
			return err
		}
	}
	s.log.Info("chapter deleted", "subject", subject, "chapter", chapter)
	return nil
}

// ListFiles returns the reference files directly under the chapter, skipping
// the folder marker, metadata sidecars and anything nested deeper.
func (s *CatalogService) ListFiles(ctx context.Context, subject, chapter string) ([]string, error) {
	subject, chapter, err := validatePair(subject, chapter)
	if err != nil {
		return nil, err
	}
	prefix := chapterPrefix(subject, chapter)
	objects, err := s.materials.List(ctx, prefix)
	if err != nil {
		return nil, s.upstream("list files", err)
	}
	files := []string{}
	for _, obj := range objects {
		rest := strings.TrimPrefix(obj.Key, prefix)
		if rest == "" || strings.Contains(rest, "/") || strings.HasSuffix(rest, sidecarSuffix) {
			continue
		}
		files = append(files, rest)
	}
	sort.Strings(files)
	return files, nil
}

type UploadFileInput struct {
	Subject     string
	Chapter     string
	Filename    string
	ContentType string
	Body        []byte
}

// UploadFile stores a reference file with its metadata sidecar, registers it
// in the subject index and requests a re-index.
func (s *CatalogService) UploadFile(ctx context.Context, input UploadFileInput) error {
	subject, chapter, err := validatePair(input.Subject, input.Chapter)
	if err != nil {
		return err
	}
	filename, err := validateName(input.Filename)
	if err != nil {
		return err
	}
	if strings.HasSuffix(filename, sidecarSuffix) {
		return fmt.Errorf("%w: file name must not end with %s", ErrInvalidInput, sidecarSuffix)
	}
	if len(input.Body) == 0 {
		return fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	exists, err := s.chapterExists(ctx, subject, chapter)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: chapter %q", ErrNotFound, chapter)
	}

	if strings.EqualFold(path.Ext(filename), ".pdf") {
		info, err := pdfextract.Inspect(input.Body)
		if err != nil {
			return fmt.Errorf("%w: %s is not a readable pdf: %v", ErrInvalidInput, filename, err)
		}
		if info.TextBytes == 0 {
			s.log.Warn("pdf has no extractable text", "file", filename, "pages", info.Pages)
		}
	}

	key := fileKey(subject, chapter, filename)
	if err := s.materials.Upload(ctx, key, bytes.NewReader(input.Body), input.ContentType); err != nil {
		return s.upstream("upload file", err)
	}
	if err := s.writeSidecar(ctx, subject, chapter, filename); err != nil {
		return err
	}
	if err := s.UpsertFileEntry(ctx, subject, chapter, filename, IndexAdd, ""); err != nil {
		return err
	}
	s.log.Info("file uploaded", "key", key, "bytes", len(input.Body))

	s.TriggerReindex(ctx, "file uploaded: "+key)
	return nil
}

func (s *CatalogService) DeleteFile(ctx context.Context, subject, chapter, filename string) error {
	subject, chapter, err := validatePair(subject, chapter)
	if err != nil {
		return err
	}
	if filename, err = validateName(filename); err != nil {
		return err
	}
	key := fileKey(subject, chapter, filename)
	exists, err := s.materials.Exists(ctx, key)
	if err != nil {
		return s.upstream("check file", err)
	}
	if !exists {
		return fmt.Errorf("%w: file %q", ErrNotFound, filename)
	}
	defer s.TriggerReindex(ctx, "file deleted: "+key)

	if err := s.materials.Delete(ctx, key); err != nil {
		return s.upstream("delete file", err)
	}
	if err := s.materials.Delete(ctx, sidecarKey(subject, chapter, filename)); err != nil {
		return s.upstream("delete file metadata", err)
	}
	if err := s.UpsertFileEntry(ctx, subject, chapter, filename, IndexDelete, ""); err != nil {
		return err
	}
	s.log.Info("file deleted", "key", key)
	return nil
}

// FileURL returns a time-limited download link for a reference file.
func (s *CatalogService) FileURL(ctx context.Context, subject, chapter, filename string) (string, error) {
	subject, chapter, filename, err := validateFileRef(subject, chapter, filename)
	if err != nil {
		return "", err
	}
	key := fileKey(subject, chapter, filename)
	exists, err := s.materials.Exists(ctx, key)
	if err != nil {
		return "", s.upstream("check file", err)
	}
	if !exists {
		return "", fmt.Errorf("%w: file %q", ErrNotFound, filename)
	}
	link, err := s.materials.PresignGet(ctx, key, s.presignTTL)
	if err != nil {
		return "", s.upstream("presign file", err)
	}
	return link, nil
}

// UpsertFileEntry applies add, update or delete to the subject index. A
// missing index counts as empty, but add and update need the subject to
// exist. Concurrent writers race; the last one wins.
func (s *CatalogService) UpsertFileEntry(ctx context.Context, subject, chapter, filename string, action IndexAction, topics string) error {
	subject, chapter, filename, err := validateFileRef(subject, chapter, filename)
	if err != nil {
		return err
	}
	if action != IndexDelete {
		exists, err := s.subjectExists(ctx, subject)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: subject %q", ErrNotFound, subject)
		}
	}
	idx, err := s.loadIndex(ctx, subject)
	if err != nil {
		return err
	}
	changed, err := idx.Apply(chapter, filename, action, topics)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.saveIndex(ctx, subject, idx)
}

// FileTopics returns the stored topics text of one file, "" when absent.
func (s *CatalogService) FileTopics(ctx context.Context, subject, chapter, filename string) (string, error) {
	subject, chapter, filename, err := validateFileRef(subject, chapter, filename)
	if err != nil {
		return "", err
	}
	idx, err := s.loadIndex(ctx, subject)
	if err != nil {
		return "", err
	}
	entry, ok := idx.Entry(chapter, filename)
	if !ok {
		return "", nil
	}
	return string(entry.Topics), nil
}

func (s *CatalogService) GetTopics(ctx context.Context, subject, chapter string) ([]string, error) {
	subject, chapter, err := validatePair(subject, chapter)
	if err != nil {
		return nil, err
	}
	idx, err := s.loadIndex(ctx, subject)
	if err != nil {
		return nil, err
	}
	return idx.Topics(chapter), nil
}

// GenerateFileTopics drafts a topic list for one file. It is returned for
// review and only persisted through UpsertFileEntry(update).
func (s *CatalogService) GenerateFileTopics(ctx context.Context, subject, chapter, filename string) (string, error) {
	subject, chapter, err := validatePair(subject, chapter)
	if err != nil {
		return "", err
	}
	if filename, err = validateName(filename); err != nil {
		return "", err
	}
	return s.rag.Answer(ctx, topicsTask(subject, chapter, filename))
}

// TriggerReindex is fire-and-forget: failures are logged, never returned.
func (s *CatalogService) TriggerReindex(ctx context.Context, reason string) {
	if s.reindexer == nil {
		return
	}
	if err := s.reindexer.RequestReindex(ctx, reason); err != nil {
		s.log.Warn("knowledge base re-index request failed", "reason", reason, "error", err)
	}
}

func (s *CatalogService) loadIndex(ctx context.Context, subject string) (*SubjectIndex, error) {
	raw, err := s.materials.Get(ctx, subjectIndexKey(subject))
	if errors.Is(err, storage.ErrNotFound) {
		return &SubjectIndex{Files: []FileEntry{}}, nil
	}
	if err != nil {
		return nil, s.upstream("read subject index", err)
	}
	return decodeSubjectIndex(raw)
}

func (s *CatalogService) saveIndex(ctx context.Context, subject string, idx *SubjectIndex) error {
	body, err := idx.encode()
	if err != nil {
		return err
	}
	if err := s.materials.Put(ctx, subjectIndexKey(subject), body, "application/json"); err != nil {
		return s.upstream("write subject index", err)
	}
	return nil
}

func (s *CatalogService) writeSidecar(ctx context.Context, subject, chapter, filename string) error {
	body, err := json.MarshalIndent(newFileMetadata(subject, chapter, filename, s.now()), "", "  ")
	if err != nil {
		return fmt.Errorf("encode file metadata: %w", err)
	}
	key := sidecarKey(subject, chapter, filename)
	if err := s.materials.Put(ctx, key, body, "application/json"); err != nil {
		return s.upstream("write file metadata", err)
	}

	stored, err := s.materials.Get(ctx, key)
	if err != nil || !json.Valid(stored) {
		s.log.Error("file metadata did not verify", "key", key, "error", err)
	}
	return nil
}

func (s *CatalogService) subjectExists(ctx context.Context, subject string) (bool, error) {
	subjects, err := s.ListSubjects(ctx)
	if err != nil {
		return false, err
	}
	return containsString(subjects, subject), nil
}

func (s *CatalogService) chapterExists(ctx context.Context, subject, chapter string) (bool, error) {
	chapters, err := s.ListChapters(ctx, subject)
	if err != nil {
		return false, err
	}
	return containsString(chapters, chapter), nil
}

func (s *CatalogService) upstream(op string, err error) error {
	s.log.Error("object storage call failed", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
}

func validatePair(subject, chapter string) (string, string, error) {
	subject, err := validateName(subject)
	if err != nil {
		return "", "", err
	}
	chapter, err = validateName(chapter)
	if err != nil {
		return "", "", err
	}
	return subject, chapter, nil
}

func validateFileRef(subject, chapter, filename string) (string, string, string, error) {
	subject, chapter, err := validatePair(subject, chapter)
	if err != nil {
		return "", "", "", err
	}
	if filename, err = validateName(filename); err != nil {
		return "", "", "", err
	}
	return subject, chapter, filename, nil
}

// folderNames strips parent and the trailing "/" from listed prefixes.
func folderNames(prefixes []string, parent string) []string {
	names := []string{}
	for _, p := range prefixes {
		name := strings.TrimSuffix(strings.TrimPrefix(p, parent), "/")
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

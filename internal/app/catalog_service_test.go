package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teachassist/internal/platform/logger"
	"teachassist/internal/storage"
)

type catalogFixture struct {
	catalog   *CatalogService
	materials *storage.MemoryStore
	artifacts *storage.MemoryStore
	reindexer *countingReindexer
	generator *scriptedGenerator
}

func newCatalogFixture(t *testing.T) catalogFixture {
	t.Helper()
	f := catalogFixture{
		materials: storage.NewMemoryStore("materials"),
		artifacts: storage.NewMemoryStore("artifacts"),
		reindexer: &countingReindexer{},
		generator: &scriptedGenerator{fallback: "- Vectors\n- Matrices"},
	}
	rag := NewRAGService(stubRetriever{}, f.generator, logger.Nop())
	f.catalog = NewCatalogService(f.materials, f.artifacts, rag, f.reindexer, time.Minute, logger.Nop())
	f.catalog.now = func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) }
	return f
}

func (f catalogFixture) chapter(t *testing.T, subject, chapter string) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.catalog.CreateSubject(ctx, subject); err != nil {
		require.ErrorIs(t, err, ErrAlreadyExists)
	}
	_, err := f.catalog.CreateChapter(ctx, subject, chapter)
	require.NoError(t, err)
}

func (f catalogFixture) upload(t *testing.T, subject, chapter, filename string) {
	t.Helper()
	require.NoError(t, f.catalog.UploadFile(context.Background(), UploadFileInput{
		Subject:     subject,
		Chapter:     chapter,
		Filename:    filename,
		ContentType: "text/plain",
		Body:        []byte("lecture notes"),
	}))
}

func TestCreateSubjectAndChapter(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	name, err := f.catalog.CreateSubject(ctx, "  Math ")
	require.NoError(t, err)
	assert.Equal(t, "Math", name)

	_, err = f.catalog.CreateSubject(ctx, "Math")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = f.catalog.CreateChapter(ctx, "Physics", "Optics")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.catalog.CreateChapter(ctx, "Math", "Algebra")
	require.NoError(t, err)
	_, err = f.catalog.CreateChapter(ctx, "Math", "Geometry")
	require.NoError(t, err)

	subjects, err := f.catalog.ListSubjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Math"}, subjects)

	chapters, err := f.catalog.ListChapters(ctx, "Math")
	require.NoError(t, err)
	assert.Equal(t, []string{"Algebra", "Geometry"}, chapters)
}

func TestCreateSubjectRejectsBadNames(t *testing.T) {
	f := newCatalogFixture(t)
	for _, name := range []string{"", "  ", "a/b", "..", "DeliveredLectures", "subject_metadata.json", "deliveredlectures"} {
		_, err := f.catalog.CreateSubject(context.Background(), name)
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}
}

func TestUploadFileWritesSidecarAndIndex(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	f.chapter(t, "Math", "Algebra")
	f.upload(t, "Math", "Algebra", "notes.txt")

	files, err := f.catalog.ListFiles(ctx, "Math", "Algebra")
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, files)

	raw, err := f.materials.Get(ctx, "Math/Algebra/notes.txt.metadata.json")
	require.NoError(t, err)
	var meta FileMetadata
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, "Math", meta.MetadataAttributes["subject"].Value.StringValue)
	assert.Equal(t, "Algebra", meta.MetadataAttributes["chapter"].Value.StringValue)
	require.NotNil(t, meta.MetadataAttributes["created_date"].Value.NumberValue)
	assert.Equal(t, 20240309, *meta.MetadataAttributes["created_date"].Value.NumberValue)

	topics, err := f.catalog.FileTopics(ctx, "Math", "Algebra", "notes.txt")
	require.NoError(t, err)
	assert.Empty(t, topics)
	assert.Equal(t, 1, f.reindexer.count())
}

func TestUploadFileNeedsChapter(t *testing.T) {
	f := newCatalogFixture(t)
	err := f.catalog.UploadFile(context.Background(), UploadFileInput{
		Subject: "Math", Chapter: "Algebra", Filename: "notes.txt", Body: []byte("x"),
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, f.reindexer.count())
}

func TestUpsertFileEntryActions(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	f.chapter(t, "Math", "Algebra")

	require.NoError(t, f.catalog.UpsertFileEntry(ctx, "Math", "Algebra", "a.txt", IndexAdd, ""))
	require.NoError(t, f.catalog.UpsertFileEntry(ctx, "Math", "Algebra", "a.txt", IndexAdd, ""))
	raw, err := f.materials.Get(ctx, "Math/subject_metadata.json")
	require.NoError(t, err)
	idx, err := decodeSubjectIndex(raw)
	require.NoError(t, err)
	assert.Len(t, idx.Files, 1, "add is idempotent")

	require.NoError(t, f.catalog.UpsertFileEntry(ctx, "Math", "Algebra", "a.txt", IndexUpdate, "A\n\n  B  \n"))
	topics, err := f.catalog.GetTopics(ctx, "Math", "Algebra")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, topics)

	require.NoError(t, f.catalog.UpsertFileEntry(ctx, "Math", "Algebra", "a.txt", IndexDelete, ""))
	topics, err = f.catalog.GetTopics(ctx, "Math", "Algebra")
	require.NoError(t, err)
	assert.Empty(t, topics)
}

func TestGetTopicsReadsLegacyArray(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	legacy := `{"files":[{"filename":"f.pdf","chapter":"Algebra","topics":["Vectors","Matrices"]},
		{"filename":"g.pdf","chapter":"Geometry","topics":"Circles"}]}`
	require.NoError(t, f.materials.Put(ctx, "Math/subject_metadata.json", []byte(legacy), "application/json"))

	topics, err := f.catalog.GetTopics(ctx, "Math", "Algebra")
	require.NoError(t, err)
	assert.Equal(t, []string{"Vectors", "Matrices"}, topics)

	topics, err = f.catalog.GetTopics(ctx, "Math", "Geometry")
	require.NoError(t, err)
	assert.Equal(t, []string{"Circles"}, topics)
}

func TestDeleteChapterDropsIndexEntriesAndArtifacts(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	f.chapter(t, "Math", "Algebra")
	f.chapter(t, "Math", "Geometry")
	f.upload(t, "Math", "Algebra", "a.txt")
	f.upload(t, "Math", "Geometry", "g.txt")
	require.NoError(t, f.catalog.UpsertFileEntry(ctx, "Math", "Algebra", "a.txt", IndexUpdate, "Vectors"))
	require.NoError(t, f.catalog.UpsertFileEntry(ctx, "Math", "Geometry", "g.txt", IndexUpdate, "Circles"))
	require.NoError(t, f.artifacts.Put(ctx, "Math/Algebra/Vectors/summary.txt", []byte("s"), "text/plain"))

	require.NoError(t, f.catalog.DeleteChapter(ctx, "Math", "Algebra"))

	chapters, err := f.catalog.ListChapters(ctx, "Math")
	require.NoError(t, err)
	assert.Equal(t, []string{"Geometry"}, chapters)

	topics, err := f.catalog.GetTopics(ctx, "Math", "Algebra")
	require.NoError(t, err)
	assert.Empty(t, topics)
	topics, err = f.catalog.GetTopics(ctx, "Math", "Geometry")
	require.NoError(t, err)
	assert.Equal(t, []string{"Circles"}, topics)

	exists, err := f.artifacts.Exists(ctx, "Math/Algebra/Vectors/summary.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, f.catalog.DeleteChapter(ctx, "Math", "Algebra"), ErrNotFound)
}

func TestDeleteSubjectRemovesEverything(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	f.chapter(t, "Math", "Algebra")
	f.upload(t, "Math", "Algebra", "a.txt")
	require.NoError(t, f.artifacts.Put(ctx, "Math/Algebra/Vectors/summary.pdf", []byte("%PDF"), "application/pdf"))

	require.NoError(t, f.catalog.DeleteSubject(ctx, "Math"))

	left, err := f.materials.List(ctx, "Math/")
	require.NoError(t, err)
	assert.Empty(t, left)
	left, err = f.artifacts.List(ctx, "Math/")
	require.NoError(t, err)
	assert.Empty(t, left)

	subjects, err := f.catalog.ListSubjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, subjects)
	chapters, err := f.catalog.ListChapters(ctx, "Math")
	require.NoError(t, err)
	assert.Empty(t, chapters)
	assert.ErrorIs(t, f.catalog.DeleteSubject(ctx, "Math"), ErrNotFound)
}

func TestDeleteFile(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	f.chapter(t, "Math", "Algebra")
	f.upload(t, "Math", "Algebra", "a.txt")

	require.NoError(t, f.catalog.DeleteFile(ctx, "Math", "Algebra", "a.txt"))
	files, err := f.catalog.ListFiles(ctx, "Math", "Algebra")
	require.NoError(t, err)
	assert.Empty(t, files)
	exists, err := f.materials.Exists(ctx, "Math/Algebra/a.txt.metadata.json")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, f.catalog.DeleteFile(ctx, "Math", "Algebra", "a.txt"), ErrNotFound)
}

func TestGenerateFileTopicsDoesNotPersist(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	text, err := f.catalog.GenerateFileTopics(ctx, "Math", "Algebra", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "- Vectors\n- Matrices", text)

	calls := f.generator.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 1000, calls[0].MaxTokens)
	assert.Contains(t, calls[0].Prompt, contextPreamble)

	exists, err := f.materials.Exists(ctx, "Math/subject_metadata.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTopicCallsRejectUnknownSubject(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	err := f.catalog.UpsertFileEntry(ctx, "Ghost", "X", "y.pdf", IndexUpdate, "Topic")
	assert.ErrorIs(t, err, ErrNotFound)
	subjects, err := f.catalog.ListSubjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, subjects)

	assert.ErrorIs(t, f.catalog.UpsertFileEntry(ctx, "a/b", "X", "y.pdf", IndexAdd, ""), ErrInvalidInput)
	_, err = f.catalog.FileTopics(ctx, "Math", "", "y.pdf")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.catalog.GetTopics(ctx, "", "Algebra")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.catalog.FileURL(ctx, "Math", "Algebra", "a/b")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReindexFailureIsNotReturned(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	failing := &failingReindexer{}
	f.catalog.reindexer = failing
	f.chapter(t, "Math", "Algebra")

	f.upload(t, "Math", "Algebra", "a.txt")
	require.NoError(t, f.catalog.DeleteFile(ctx, "Math", "Algebra", "a.txt"))
	require.NoError(t, f.catalog.DeleteChapter(ctx, "Math", "Algebra"))
	require.NoError(t, f.catalog.DeleteSubject(ctx, "Math"))
	assert.Equal(t, 4, failing.count())
}

func TestDeleteSubjectReindexesWhenArtifactsFail(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	f.chapter(t, "Math", "Algebra")
	f.upload(t, "Math", "Algebra", "a.txt")
	before := f.reindexer.count()

	f.catalog.artifacts = brokenPrefixStore{Store: f.artifacts}
	err := f.catalog.DeleteSubject(ctx, "Math")
	assert.ErrorIs(t, err, ErrUpstream)

	left, err := f.materials.List(ctx, "Math/Algebra/")
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.Equal(t, before+1, f.reindexer.count())
}

func TestDeleteChapterReindexesWhenArtifactsFail(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	f.chapter(t, "Math", "Algebra")
	before := f.reindexer.count()

	f.catalog.artifacts = brokenPrefixStore{Store: f.artifacts}
	assert.ErrorIs(t, f.catalog.DeleteChapter(ctx, "Math", "Algebra"), ErrUpstream)
	assert.Equal(t, before+1, f.reindexer.count())
}

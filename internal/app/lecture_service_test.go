package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teachassist/internal/platform/logger"
	"teachassist/internal/storage"
)

var lectureRef = VideoRef{Subject: "Math", Chapter: "Algebra", Video: "week1.mp4"}

func newLectureFixture(t *testing.T) (*LectureService, *storage.MemoryStore, *scriptedGenerator, *stubRenderer) {
	t.Helper()
	media := storage.NewMemoryStore("artifacts")
	gen := &scriptedGenerator{replies: map[string]string{
		"Summarize the following lecture": "The lecture covered vectors.",
		"Create 5 flashcards":             "Front: Vector\nBack: Magnitude and direction\nFront: Scalar\nBack: Magnitude only",
		"Extract any assignments":         "Problem set 1 due Friday.",
	}}
	renderer := &stubRenderer{}
	return NewLectureService(media, gen, renderer, time.Minute, logger.Nop()), media, gen, renderer
}

func TestUploadAndListVideos(t *testing.T) {
	svc, media, _, _ := newLectureFixture(t)
	ctx := context.Background()

	name, err := svc.UploadVideo(ctx, UploadVideoInput{
		Subject: "Math", Chapter: "Algebra", Filename: "week1.mp4", Body: bytes.NewReader([]byte("video")),
	})
	require.NoError(t, err)
	assert.Equal(t, "week1.mp4", name)
	assert.Equal(t, "video/mp4", media.ContentType("Math/Algebra/DeliveredLectures/week1.mp4"))

	_, err = svc.UploadVideo(ctx, UploadVideoInput{
		Subject: "Math", Chapter: "Algebra", Filename: "notes.pdf", Body: bytes.NewReader([]byte("x")),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, media.Put(ctx, "Math/Algebra/DeliveredLectures/week1.mp4/transcription.txt", []byte("t"), "text/plain"))
	require.NoError(t, media.Put(ctx, "Math/Algebra/DeliveredLectures/readme.txt", []byte("r"), "text/plain"))

	videos, err := svc.ListVideos(ctx, "Math", "Algebra")
	require.NoError(t, err)
	assert.Equal(t, []string{"week1.mp4"}, videos)

	link, err := svc.VideoURL(ctx, lectureRef)
	require.NoError(t, err)
	assert.Contains(t, link, "week1.mp4")

	_, err = svc.VideoURL(ctx, VideoRef{Subject: "Math", Chapter: "Algebra", Video: "missing.mp4"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateAssetNeedsTranscript(t *testing.T) {
	svc, _, gen, _ := newLectureFixture(t)

	_, err := svc.GenerateAsset(context.Background(), lectureRef, AssetSummary)
	assert.ErrorIs(t, err, ErrTranscriptMissing)
	assert.Empty(t, gen.calls())
}

func TestGenerateAssetFromTranscript(t *testing.T) {
	svc, media, gen, _ := newLectureFixture(t)
	ctx := context.Background()
	require.NoError(t, media.Put(ctx, "Math/Algebra/DeliveredLectures/week1.mp4/transcription.txt",
		[]byte("Today we talk about vectors."), "text/plain"))

	out, err := svc.GenerateAsset(ctx, lectureRef, AssetSummary)
	require.NoError(t, err)
	assert.Equal(t, "The lecture covered vectors.", out.Text)

	calls := gen.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 500, calls[0].MaxTokens)
	assert.Equal(t, 0.5, calls[0].Temperature)
	assert.Contains(t, calls[0].Prompt, "Today we talk about vectors.")

	out, err = svc.GenerateAsset(ctx, lectureRef, AssetFlashcards)
	require.NoError(t, err)
	assert.Equal(t, []Flashcard{
		{Front: "Vector", Back: "Magnitude and direction"},
		{Front: "Scalar", Back: "Magnitude only"},
	}, out.Flashcards)

	_, err = svc.GenerateAsset(ctx, lectureRef, AssetTranscription)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSaveAssetWritesDocument(t *testing.T) {
	svc, _, _, renderer := newLectureFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.SaveAsset(ctx, lectureRef, AssetAssignments, "Problem set 1"))
	require.Len(t, renderer.docs, 1)
	assert.Equal(t, "Video Name", renderer.docs[0].HeadingLabel)
	assert.Equal(t, "week1.mp4", renderer.docs[0].Heading)

	text, ok, err := svc.GetAsset(ctx, lectureRef, AssetAssignments)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Problem set 1", text)

	pdf, ok, err := svc.Document(ctx, lectureRef, AssetAssignments)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, pdf)

	_, _, err = svc.Document(ctx, lectureRef, AssetFlashcards)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFlashcardsRoundTrip(t *testing.T) {
	svc, media, _, _ := newLectureFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.SaveFlashcards(ctx, lectureRef, []Flashcard{
		{Front: "a", Back: "1"}, {Front: "b", Back: "2"}, {Front: "c", Back: "3"},
	}))
	cards, err := svc.GetFlashcards(ctx, lectureRef)
	require.NoError(t, err)
	assert.Len(t, cards, 3)

	require.NoError(t, svc.SaveAsset(ctx, lectureRef, AssetFlashcards, "Front: x\nBack: 9"))
	cards, err = svc.GetFlashcards(ctx, lectureRef)
	require.NoError(t, err)
	assert.Equal(t, []Flashcard{{Front: "x", Back: "9"}}, cards)

	exists, err := media.Exists(ctx, "Math/Algebra/DeliveredLectures/week1.mp4/flashcard_2.json")
	require.NoError(t, err)
	assert.False(t, exists, "stale cards are removed")

	text, ok, err := svc.GetAsset(ctx, lectureRef, AssetFlashcards)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Flashcard 1\nFront: x\nBack: 9", text)

	assert.ErrorIs(t, svc.SaveAsset(ctx, lectureRef, AssetFlashcards, "no cards here"), ErrInvalidInput)
}

func TestParseLectureAsset(t *testing.T) {
	asset, err := ParseLectureAsset("Summary")
	require.NoError(t, err)
	assert.Equal(t, AssetSummary, asset)

	_, err = ParseLectureAsset("quiz")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

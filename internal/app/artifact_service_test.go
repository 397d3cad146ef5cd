package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teachassist/internal/ai"
	"teachassist/internal/platform/logger"
)

func newArtifactFixture(t *testing.T) (*ArtifactService, catalogFixture, *stubRenderer) {
	t.Helper()
	f := newCatalogFixture(t)
	renderer := &stubRenderer{}
	rag := NewRAGService(stubRetriever{snippets: []ai.Snippet{{Text: "Vectors have magnitude and direction."}}}, f.generator, logger.Nop())
	svc := NewArtifactService(f.artifacts, f.catalog, rag, renderer, time.Minute, logger.Nop())
	return svc, f, renderer
}

func TestArtifactSaveGetDelete(t *testing.T) {
	svc, f, renderer := newArtifactFixture(t)
	ctx := context.Background()
	ref := TopicRef{Subject: "Math", Chapter: "Algebra", Topic: "Vectors"}

	_, ok, err := svc.Get(ctx, KindSummary, ref)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Save(ctx, KindSummary, ref, "  A vector has a direction.  "))
	require.Len(t, renderer.docs, 1)
	assert.Equal(t, "Topic Name", renderer.docs[0].HeadingLabel)
	assert.Equal(t, "Vectors", renderer.docs[0].Heading)

	text, ok, err := svc.Get(ctx, KindSummary, ref)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "A vector has a direction.", text)

	pdf, ok, err := svc.Document(ctx, KindSummary, ref)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, string(pdf), "%PDF")
	assert.Equal(t, "application/pdf", f.artifacts.ContentType("Math/Algebra/Vectors/summary.pdf"))

	link, ok, err := svc.DocumentURL(ctx, KindSummary, ref)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, link, "Math/Algebra/Vectors/summary.pdf")

	_, ok, err = svc.Get(ctx, KindElaboration, ref)
	require.NoError(t, err)
	assert.False(t, ok, "kinds are stored apart")

	require.NoError(t, svc.Delete(ctx, KindSummary, ref))
	_, ok, err = svc.Get(ctx, KindSummary, ref)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = svc.DocumentURL(ctx, KindSummary, ref)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArtifactElaborationKey(t *testing.T) {
	svc, f, _ := newArtifactFixture(t)
	ctx := context.Background()
	ref := TopicRef{Subject: "Math", Chapter: "Algebra", Topic: "Row/Column view"}

	require.NoError(t, svc.Save(ctx, KindElaboration, ref, "text"))
	exists, err := f.artifacts.Exists(ctx, "Math/Algebra/Row_Column view/Elaborate.txt")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestArtifactSaveRejectsEmptyText(t *testing.T) {
	svc, _, renderer := newArtifactFixture(t)
	err := svc.Save(context.Background(), KindSummary, TopicRef{Subject: "Math", Chapter: "Algebra", Topic: "Vectors"}, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, renderer.docs)
}

func TestArtifactGenerateUsesKnowledgeBase(t *testing.T) {
	svc, f, _ := newArtifactFixture(t)
	f.generator.fallback = "  Vectors summarized.  "

	text, err := svc.Generate(context.Background(), KindElaboration, TopicRef{Subject: "Math", Chapter: "Algebra", Topic: "Vectors"})
	require.NoError(t, err)
	assert.Equal(t, "Vectors summarized.", text)

	calls := f.generator.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 2000, calls[0].MaxTokens)
	assert.Contains(t, calls[0].Prompt, "- Vectors have magnitude and direction.")
	assert.Contains(t, calls[0].Prompt, `"Vectors"`)
}

func TestArtifactGenerateWrapsUpstreamErrors(t *testing.T) {
	svc, f, _ := newArtifactFixture(t)
	f.generator.err = errors.New("throttled")

	_, err := svc.Generate(context.Background(), KindSummary, TopicRef{Subject: "Math", Chapter: "Algebra", Topic: "Vectors"})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestArtifactListStatus(t *testing.T) {
	svc, f, _ := newArtifactFixture(t)
	ctx := context.Background()
	f.chapter(t, "Math", "Algebra")
	require.NoError(t, f.catalog.UpsertFileEntry(ctx, "Math", "Algebra", "a.txt", IndexUpdate, "Vectors\nMatrices"))
	require.NoError(t, svc.Save(ctx, KindSummary, TopicRef{Subject: "Math", Chapter: "Algebra", Topic: "Matrices"}, "m"))

	status, err := svc.ListStatus(ctx, KindSummary, "Math", "Algebra")
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.Equal(t, "Vectors", status[0].Topic)
	assert.False(t, status[0].HasText)
	assert.Equal(t, "Matrices", status[1].Topic)
	assert.True(t, status[1].HasText)
	assert.True(t, status[1].HasPDF)
}

func TestParseArtifactKind(t *testing.T) {
	kind, err := ParseArtifactKind(" Summary ")
	require.NoError(t, err)
	assert.Equal(t, KindSummary, kind)

	_, err = ParseArtifactKind("quiz")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

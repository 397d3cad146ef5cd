package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teachassist/internal/ai"
	"teachassist/internal/app"
	"teachassist/internal/platform/logger"
	"teachassist/internal/storage"
	"teachassist/internal/transport/http/response"
)

type noSnippets struct{}

func (noSnippets) Retrieve(context.Context, string, int) ([]ai.Snippet, error) { return nil, nil }

func newCatalogRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	generator := ai.GeneratorFunc(func(context.Context, ai.GenerateRequest) (string, error) {
		return "- Vectors", nil
	})
	rag := app.NewRAGService(noSnippets{}, generator, logger.Nop())
	catalog := app.NewCatalogService(
		storage.NewMemoryStore("materials"),
		storage.NewMemoryStore("artifacts"),
		rag,
		app.NoopReindexer{},
		time.Minute,
		logger.Nop(),
	)

	r := gin.New()
	NewCatalogHandler(catalog, 1<<20).Register(r.Group("/api/v1"))
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, response.APIResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env response.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestSubjectRoutes(t *testing.T) {
	r := newCatalogRouter(t)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/subjects", gin.H{"name": "Math"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeOK, env.Code)

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/subjects", gin.H{"name": "Math"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.CodeConflict, env.Code)

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/subjects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"Math"}, env.Data)
}

func TestCreateSubjectRejectsMissingName(t *testing.T) {
	r := newCatalogRouter(t)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/subjects", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeBadRequest, env.Code)
}

func TestChapterOfUnknownSubjectIsNotFound(t *testing.T) {
	r := newCatalogRouter(t)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/subjects/Physics/chapters", gin.H{"name": "Optics"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.CodeNotFound, env.Code)
}

func TestUploadAndListFiles(t *testing.T) {
	r := newCatalogRouter(t)
	doJSON(t, r, http.MethodPost, "/api/v1/subjects", gin.H{"name": "Math"})
	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/subjects/Math/chapters", gin.H{"name": "Algebra"})
	require.Equal(t, http.StatusOK, w.Code)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "original.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("lecture notes"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("filename", "notes.txt"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subjects/Math/chapters/Algebra/files", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/subjects/Math/chapters/Algebra/files", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"notes.txt"}, env.Data)
}

func TestUploadWithoutFileIsBadRequest(t *testing.T) {
	r := newCatalogRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subjects/Math/chapters/Algebra/files", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWriteErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		code   int
	}{
		{app.ErrInvalidInput, http.StatusBadRequest, response.CodeBadRequest},
		{app.ErrTranscriptMissing, http.StatusBadRequest, response.CodeTranscriptMissing},
		{app.ErrDraftNotFound, http.StatusNotFound, response.CodeDraftNotFound},
		{app.ErrJobNotFound, http.StatusNotFound, response.CodeJobNotFound},
		{app.ErrTemplateLoad, http.StatusInternalServerError, response.CodeTemplateLoad},
		{app.ErrUpstream, http.StatusBadGateway, response.CodeUpstream},
		{context.Canceled, http.StatusInternalServerError, response.CodeInternalServer},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		writeError(c, tc.err, "failed")

		var env response.APIResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Equal(t, tc.code, env.Code, tc.err.Error())
	}
}

func TestAttachmentQuotesFilename(t *testing.T) {
	assert.Equal(t, `attachment; filename="lecture presentation.pptx"`, attachment("lecture presentation.pptx"))
}

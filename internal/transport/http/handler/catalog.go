package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"teachassist/internal/app"
	"teachassist/internal/transport/http/response"
)

type CatalogHandler struct {
	catalog        *app.CatalogService
	maxUploadBytes int64
}

type createNameRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

type updateTopicsRequest struct {
	Topics string `json:"topics"`
}

func NewCatalogHandler(catalog *app.CatalogService, maxUploadBytes int64) *CatalogHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 << 20
	}
	return &CatalogHandler{catalog: catalog, maxUploadBytes: maxUploadBytes}
}

// Register mounts the subject, chapter, file and topic routes on rg.
func (h *CatalogHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/subjects", h.ListSubjects)
	rg.POST("/subjects", h.CreateSubject)
	rg.DELETE("/subjects/:subject", h.DeleteSubject)

	rg.GET("/subjects/:subject/chapters", h.ListChapters)
	rg.POST("/subjects/:subject/chapters", h.CreateChapter)
	rg.DELETE("/subjects/:subject/chapters/:chapter", h.DeleteChapter)
	rg.GET("/subjects/:subject/chapters/:chapter/topics", h.ChapterTopics)

	files := rg.Group("/subjects/:subject/chapters/:chapter/files")
	files.GET("", h.ListFiles)
	files.POST("", h.UploadFile)
	files.DELETE("/:filename", h.DeleteFile)
	files.GET("/:filename/url", h.FileURL)
	files.GET("/:filename/topics", h.FileTopics)
	files.PUT("/:filename/topics", h.UpdateFileTopics)
	files.POST("/:filename/topics/generate", h.GenerateFileTopics)

	rg.POST("/reindex", h.Reindex)
}

func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.catalog.ListSubjects(c.Request.Context())
	if err != nil {
		writeError(c, err, "list subjects failed")
		return
	}
	response.OK(c, subjects)
}

func (h *CatalogHandler) CreateSubject(c *gin.Context) {
	var req createNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	name, err := h.catalog.CreateSubject(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err, "create subject failed")
		return
	}
	response.OK(c, gin.H{"subject": name})
}

func (h *CatalogHandler) DeleteSubject(c *gin.Context) {
	subject := c.Param("subject")
	if err := h.catalog.DeleteSubject(c.Request.Context(), subject); err != nil {
		writeError(c, err, "delete subject failed")
		return
	}
	response.OK(c, gin.H{"deleted_subject": subject})
}

func (h *CatalogHandler) ListChapters(c *gin.Context) {
	chapters, err := h.catalog.ListChapters(c.Request.Context(), c.Param("subject"))
	if err != nil {
		writeError(c, err, "list chapters failed")
		return
	}
	response.OK(c, chapters)
}

func (h *CatalogHandler) CreateChapter(c *gin.Context) {
	var req createNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	name, err := h.catalog.CreateChapter(c.Request.Context(), c.Param("subject"), req.Name)
	if err != nil {
		writeError(c, err, "create chapter failed")
		return
	}
	response.OK(c, gin.H{"subject": c.Param("subject"), "chapter": name})
}

func (h *CatalogHandler) DeleteChapter(c *gin.Context) {
	subject, chapter := c.Param("subject"), c.Param("chapter")
	if err := h.catalog.DeleteChapter(c.Request.Context(), subject, chapter); err != nil {
		writeError(c, err, "delete chapter failed")
		return
	}
	response.OK(c, gin.H{"deleted_chapter": chapter})
}

func (h *CatalogHandler) ChapterTopics(c *gin.Context) {
	topics, err := h.catalog.GetTopics(c.Request.Context(), c.Param("subject"), c.Param("chapter"))
	if err != nil {
		writeError(c, err, "list topics failed")
		return
	}
	response.OK(c, topics)
}

func (h *CatalogHandler) ListFiles(c *gin.Context) {
	files, err := h.catalog.ListFiles(c.Request.Context(), c.Param("subject"), c.Param("chapter"))
	if err != nil {
		writeError(c, err, "list files failed")
		return
	}
	response.OK(c, files)
}

// UploadFile accepts a multipart form with "file" and an optional "filename"
// override.
func (h *CatalogHandler) UploadFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "missing file")
		return
	}
	if file.Size > h.maxUploadBytes {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeTooLarge,
			fmt.Sprintf("file too large (max %d MB)", h.maxUploadBytes>>20))
		return
	}
	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()
	body, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}

	filename := c.PostForm("filename")
	if filename == "" {
		filename = file.Filename
	}
	err = h.catalog.UploadFile(c.Request.Context(), app.UploadFileInput{
		Subject:     c.Param("subject"),
		Chapter:     c.Param("chapter"),
		Filename:    filename,
		ContentType: file.Header.Get("Content-Type"),
		Body:        body,
	})
	if err != nil {
		writeError(c, err, "upload failed")
		return
	}
	response.OK(c, gin.H{"filename": filename, "bytes": len(body)})
}

func (h *CatalogHandler) DeleteFile(c *gin.Context) {
	filename := c.Param("filename")
	if err := h.catalog.DeleteFile(c.Request.Context(), c.Param("subject"), c.Param("chapter"), filename); err != nil {
		writeError(c, err, "delete file failed")
		return
	}
	response.OK(c, gin.H{"deleted_file": filename})
}

func (h *CatalogHandler) FileURL(c *gin.Context) {
	link, err := h.catalog.FileURL(c.Request.Context(), c.Param("subject"), c.Param("chapter"), c.Param("filename"))
	if err != nil {
		writeError(c, err, "presign failed")
		return
	}
	response.OK(c, gin.H{"url": link})
}

func (h *CatalogHandler) FileTopics(c *gin.Context) {
	topics, err := h.catalog.FileTopics(c.Request.Context(), c.Param("subject"), c.Param("chapter"), c.Param("filename"))
	if err != nil {
		writeError(c, err, "read topics failed")
		return
	}
	response.OK(c, gin.H{"topics": topics})
}

func (h *CatalogHandler) UpdateFileTopics(c *gin.Context) {
	var req updateTopicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	err := h.catalog.UpsertFileEntry(c.Request.Context(),
		c.Param("subject"), c.Param("chapter"), c.Param("filename"), app.IndexUpdate, req.Topics)
	if err != nil {
		writeError(c, err, "save topics failed")
		return
	}
	response.OK(c, gin.H{"topics": req.Topics})
}

// GenerateFileTopics drafts topics for review; they are stored only through
// UpdateFileTopics.
func (h *CatalogHandler) GenerateFileTopics(c *gin.Context) {
	topics, err := h.catalog.GenerateFileTopics(c.Request.Context(), c.Param("subject"), c.Param("chapter"), c.Param("filename"))
	if err != nil {
		writeError(c, err, "generate topics failed")
		return
	}
	response.OK(c, gin.H{"topics": topics})
}

func (h *CatalogHandler) Reindex(c *gin.Context) {
	h.catalog.TriggerReindex(c.Request.Context(), "manual")
	response.OK(c, gin.H{"requested": true})
}

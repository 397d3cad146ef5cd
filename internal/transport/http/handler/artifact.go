package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"teachassist/internal/app"
	"teachassist/internal/transport/http/response"
)

type ArtifactHandler struct {
	artifacts *app.ArtifactService
}

type topicRequest struct {
	Topic string `json:"topic" binding:"required"`
}

type saveArtifactRequest struct {
	Topic string `json:"topic" binding:"required"`
	Text  string `json:"text" binding:"required"`
}

func NewArtifactHandler(artifacts *app.ArtifactService) *ArtifactHandler {
	return &ArtifactHandler{artifacts: artifacts}
}

// Register mounts routes under /subjects/:subject/chapters/:chapter/artifacts/:kind.
// Single artifacts are addressed with ?topic= since topics are free text.
func (h *ArtifactHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/subjects/:subject/chapters/:chapter/artifacts/:kind")
	g.GET("", h.ListStatus)
	g.POST("/generate", h.Generate)
	g.PUT("", h.Save)
	g.GET("/item", h.Get)
	g.DELETE("/item", h.Delete)
	g.GET("/document", h.Document)
	g.GET("/document/url", h.DocumentURL)
}

func (h *ArtifactHandler) kind(c *gin.Context) (app.ArtifactKind, bool) {
	kind, err := app.ParseArtifactKind(c.Param("kind"))
	if err != nil {
		badRequest(c, err.Error())
		return "", false
	}
	return kind, true
}

func topicRef(c *gin.Context, topic string) app.TopicRef {
	return app.TopicRef{Subject: c.Param("subject"), Chapter: c.Param("chapter"), Topic: topic}
}

func (h *ArtifactHandler) ListStatus(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	status, err := h.artifacts.ListStatus(c.Request.Context(), kind, c.Param("subject"), c.Param("chapter"))
	if err != nil {
		writeError(c, err, "list artifacts failed")
		return
	}
	response.OK(c, status)
}

func (h *ArtifactHandler) Generate(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	text, err := h.artifacts.Generate(c.Request.Context(), kind, topicRef(c, req.Topic))
	if err != nil {
		writeError(c, err, "generate failed")
		return
	}
	response.OK(c, gin.H{"topic": req.Topic, "text": text})
}

func (h *ArtifactHandler) Save(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	var req saveArtifactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	if err := h.artifacts.Save(c.Request.Context(), kind, topicRef(c, req.Topic), req.Text); err != nil {
		writeError(c, err, "save failed")
		return
	}
	response.OK(c, gin.H{"topic": req.Topic, "saved": true})
}

func (h *ArtifactHandler) Get(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	topic := c.Query("topic")
	text, found, err := h.artifacts.Get(c.Request.Context(), kind, topicRef(c, topic))
	if err != nil {
		writeError(c, err, "read failed")
		return
	}
	response.OK(c, gin.H{"topic": topic, "exists": found, "text": text})
}

func (h *ArtifactHandler) Delete(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	topic := c.Query("topic")
	if err := h.artifacts.Delete(c.Request.Context(), kind, topicRef(c, topic)); err != nil {
		writeError(c, err, "delete failed")
		return
	}
	response.OK(c, gin.H{"deleted_topic": topic})
}

func (h *ArtifactHandler) Document(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	topic := c.Query("topic")
	pdf, found, err := h.artifacts.Document(c.Request.Context(), kind, topicRef(c, topic))
	if err != nil {
		writeError(c, err, "read document failed")
		return
	}
	if !found {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "document not found")
		return
	}
	c.Header("Content-Disposition", attachment(topic+"_"+string(kind)+".pdf"))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *ArtifactHandler) DocumentURL(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	link, found, err := h.artifacts.DocumentURL(c.Request.Context(), kind, topicRef(c, c.Query("topic")))
	if err != nil {
		writeError(c, err, "presign failed")
		return
	}
	if !found {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "document not found")
		return
	}
	response.OK(c, gin.H{"url": link})
}

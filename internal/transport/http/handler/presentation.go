package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"teachassist/internal/app"
	"teachassist/internal/transport/http/middleware"
	"teachassist/internal/transport/http/response"
)

const pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

type PresentationHandler struct {
	presentations *app.PresentationService
}

type createPresentationRequest struct {
	Subject        string   `json:"subject" binding:"required"`
	Chapter        string   `json:"chapter" binding:"required"`
	Topics         []string `json:"topics" binding:"required"`
	LectureMinutes int      `json:"lecture_minutes" binding:"required"`
}

type updateSlidesRequest struct {
	Edits []app.SlideEdit `json:"edits" binding:"required"`
}

func NewPresentationHandler(presentations *app.PresentationService) *PresentationHandler {
	return &PresentationHandler{presentations: presentations}
}

func (h *PresentationHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/presentations")
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PATCH("/:id/slides", h.UpdateSlides)
	g.POST("/:id/render", h.Render)
	g.POST("/:id/conclusion", h.Conclusion)
	g.DELETE("/:id", h.Discard)
}

func (h *PresentationHandler) Create(c *gin.Context) {
	var req createPresentationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	userID, _ := middleware.UserID(c)
	draft, err := h.presentations.Generate(c.Request.Context(), app.GenerateOutlineInput{
		Subject:        req.Subject,
		Chapter:        req.Chapter,
		Topics:         req.Topics,
		LectureMinutes: req.LectureMinutes,
		RequestedBy:    userID,
	})
	if err != nil {
		writeError(c, err, "generate outline failed")
		return
	}
	response.OK(c, draft)
}

func (h *PresentationHandler) Get(c *gin.Context) {
	draft, err := h.presentations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "read presentation failed")
		return
	}
	response.OK(c, draft)
}

func (h *PresentationHandler) UpdateSlides(c *gin.Context) {
	var req updateSlidesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	draft, err := h.presentations.UpdateSlides(c.Request.Context(), c.Param("id"), req.Edits)
	if err != nil {
		writeError(c, err, "update slides failed")
		return
	}
	response.OK(c, draft)
}

func (h *PresentationHandler) Render(c *gin.Context) {
	raw, err := h.presentations.Render(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "render presentation failed")
		return
	}
	c.Header("Content-Disposition", attachment("lecture_presentation.pptx"))
	c.Data(http.StatusOK, pptxContentType, raw)
}

func (h *PresentationHandler) Conclusion(c *gin.Context) {
	text, err := h.presentations.ConclusionSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "generate conclusion failed")
		return
	}
	response.OK(c, gin.H{"conclusion": text})
}

func (h *PresentationHandler) Discard(c *gin.Context) {
	if err := h.presentations.Discard(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "discard presentation failed")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

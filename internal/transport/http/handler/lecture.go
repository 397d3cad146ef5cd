package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"teachassist/internal/app"
	"teachassist/internal/model"
	"teachassist/internal/transport/http/middleware"
	"teachassist/internal/transport/http/response"
)

// maxTranscriptionWait caps how long a request may block on a job.
const maxTranscriptionWait = 30 * time.Minute

type LectureHandler struct {
	lectures       *app.LectureService
	transcriptions *app.TranscriptionService
	maxUploadBytes int64
}

type transcribeRequest struct {
	// WaitSeconds blocks the request until the job settles or the wait ends;
	// 0 returns right after submission.
	WaitSeconds int `json:"wait_seconds"`
}

type saveAssetRequest struct {
	Text string `json:"text" binding:"required"`
}

type saveFlashcardsRequest struct {
	Flashcards []app.Flashcard `json:"flashcards" binding:"required"`
}

type transcriptionView struct {
	Job        *model.TranscriptionJob `json:"job"`
	Transcript string                  `json:"transcript,omitempty"`
}

func NewLectureHandler(lectures *app.LectureService, transcriptions *app.TranscriptionService, maxUploadBytes int64) *LectureHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 2 << 30
	}
	return &LectureHandler{lectures: lectures, transcriptions: transcriptions, maxUploadBytes: maxUploadBytes}
}

func (h *LectureHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/subjects/:subject/chapters/:chapter/lectures")
	g.GET("", h.ListVideos)
	g.POST("", h.UploadVideo)
	g.GET("/:video/url", h.VideoURL)
	g.POST("/:video/transcription", h.StartTranscription)
	g.GET("/:video/transcription", h.LatestTranscription)
	g.GET("/:video/assets/:asset", h.GetAsset)
	g.PUT("/:video/assets/:asset", h.SaveAsset)
	g.POST("/:video/assets/:asset/generate", h.GenerateAsset)
	g.GET("/:video/assets/:asset/document", h.Document)
	g.GET("/:video/flashcards", h.GetFlashcards)
	g.PUT("/:video/flashcards", h.SaveFlashcards)
	g.GET("/:video/flashcards/export", h.ExportFlashcards)

	rg.GET("/transcriptions/:id", h.GetTranscription)
	rg.POST("/transcriptions/:id/refresh", h.RefreshTranscription)
}

func videoRef(c *gin.Context) app.VideoRef {
	return app.VideoRef{Subject: c.Param("subject"), Chapter: c.Param("chapter"), Video: c.Param("video")}
}

func (h *LectureHandler) asset(c *gin.Context) (app.LectureAsset, bool) {
	asset, err := app.ParseLectureAsset(c.Param("asset"))
	if err != nil {
		badRequest(c, err.Error())
		return "", false
	}
	return asset, true
}

func waitDuration(seconds int) time.Duration {
	wait := time.Duration(seconds) * time.Second
	if wait > maxTranscriptionWait {
		wait = maxTranscriptionWait
	}
	return wait
}

func (h *LectureHandler) ListVideos(c *gin.Context) {
	videos, err := h.lectures.ListVideos(c.Request.Context(), c.Param("subject"), c.Param("chapter"))
	if err != nil {
		writeError(c, err, "list videos failed")
		return
	}
	response.OK(c, videos)
}

func (h *LectureHandler) UploadVideo(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "missing file")
		return
	}
	if file.Size > h.maxUploadBytes {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeTooLarge,
			fmt.Sprintf("video too large (max %d MB)", h.maxUploadBytes>>20))
		return
	}
	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	name, err := h.lectures.UploadVideo(c.Request.Context(), app.UploadVideoInput{
		Subject:     c.Param("subject"),
		Chapter:     c.Param("chapter"),
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Body:        f,
	})
	if err != nil {
		writeError(c, err, "upload failed")
		return
	}
	response.OK(c, gin.H{"video": name, "bytes": file.Size})
}

func (h *LectureHandler) VideoURL(c *gin.Context) {
	link, err := h.lectures.VideoURL(c.Request.Context(), videoRef(c))
	if err != nil {
		writeError(c, err, "presign failed")
		return
	}
	response.OK(c, gin.H{"url": link})
}

func (h *LectureHandler) StartTranscription(c *gin.Context) {
	var req transcribeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request payload")
			return
		}
	}
	userID, _ := middleware.UserID(c)
	ref := videoRef(c)

	var (
		job *model.TranscriptionJob
		err error
	)
	if req.WaitSeconds > 0 {
		job, err = h.transcriptions.Transcribe(c.Request.Context(), ref.Subject, ref.Chapter, ref.Video, userID, waitDuration(req.WaitSeconds))
	} else {
		job, err = h.transcriptions.Start(c.Request.Context(), ref.Subject, ref.Chapter, ref.Video, userID)
	}
	if err != nil {
		writeError(c, err, "transcription failed")
		return
	}
	response.OK(c, job)
}

// LatestTranscription returns the newest job for the video and the stored
// transcript, either of which may be absent.
func (h *LectureHandler) LatestTranscription(c *gin.Context) {
	ref := videoRef(c)
	job, err := h.transcriptions.Latest(ref.Subject, ref.Chapter, ref.Video)
	if err != nil {
		writeError(c, err, "read transcription failed")
		return
	}
	text, _, err := h.lectures.GetAsset(c.Request.Context(), ref, app.AssetTranscription)
	if err != nil {
		writeError(c, err, "read transcription failed")
		return
	}
	response.OK(c, transcriptionView{Job: job, Transcript: text})
}

func (h *LectureHandler) jobID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid job id")
		return 0, false
	}
	return uint(id), true
}

func (h *LectureHandler) GetTranscription(c *gin.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}
	job, err := h.transcriptions.Get(id)
	if err != nil {
		writeError(c, err, "read transcription job failed")
		return
	}
	response.OK(c, job)
}

func (h *LectureHandler) RefreshTranscription(c *gin.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}
	var req transcribeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request payload")
			return
		}
	}
	job, err := h.transcriptions.Refresh(c.Request.Context(), id, waitDuration(req.WaitSeconds))
	if err != nil {
		writeError(c, err, "refresh transcription failed")
		return
	}
	response.OK(c, job)
}

func (h *LectureHandler) GetAsset(c *gin.Context) {
	asset, ok := h.asset(c)
	if !ok {
		return
	}
	text, found, err := h.lectures.GetAsset(c.Request.Context(), videoRef(c), asset)
	if err != nil {
		writeError(c, err, "read asset failed")
		return
	}
	response.OK(c, gin.H{"asset": asset, "exists": found, "text": text})
}

func (h *LectureHandler) SaveAsset(c *gin.Context) {
	asset, ok := h.asset(c)
	if !ok {
		return
	}
	var req saveAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	if err := h.lectures.SaveAsset(c.Request.Context(), videoRef(c), asset, req.Text); err != nil {
		writeError(c, err, "save asset failed")
		return
	}
	response.OK(c, gin.H{"asset": asset, "saved": true})
}

func (h *LectureHandler) GenerateAsset(c *gin.Context) {
	asset, ok := h.asset(c)
	if !ok {
		return
	}
	out, err := h.lectures.GenerateAsset(c.Request.Context(), videoRef(c), asset)
	if err != nil {
		writeError(c, err, "generate asset failed")
		return
	}
	response.OK(c, out)
}

func (h *LectureHandler) Document(c *gin.Context) {
	asset, ok := h.asset(c)
	if !ok {
		return
	}
	ref := videoRef(c)
	pdf, found, err := h.lectures.Document(c.Request.Context(), ref, asset)
	if err != nil {
		writeError(c, err, "read document failed")
		return
	}
	if !found {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "document not found")
		return
	}
	c.Header("Content-Disposition", attachment(ref.Video+"_"+string(asset)+".pdf"))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *LectureHandler) GetFlashcards(c *gin.Context) {
	cards, err := h.lectures.GetFlashcards(c.Request.Context(), videoRef(c))
	if err != nil {
		writeError(c, err, "read flashcards failed")
		return
	}
	response.OK(c, cards)
}

func (h *LectureHandler) SaveFlashcards(c *gin.Context) {
	var req saveFlashcardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	if err := h.lectures.SaveFlashcards(c.Request.Context(), videoRef(c), req.Flashcards); err != nil {
		writeError(c, err, "save flashcards failed")
		return
	}
	response.OK(c, gin.H{"count": len(req.Flashcards)})
}

func (h *LectureHandler) ExportFlashcards(c *gin.Context) {
	ref := videoRef(c)
	cards, err := h.lectures.GetFlashcards(c.Request.Context(), ref)
	if err != nil {
		writeError(c, err, "read flashcards failed")
		return
	}
	if len(cards) == 0 {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "no flashcards saved")
		return
	}
	c.Header("Content-Disposition", attachment(ref.Video+"_flashcards.txt"))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(app.FlashcardsText(cards)))
}

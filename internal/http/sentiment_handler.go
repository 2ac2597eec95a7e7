package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ulasan/internal/service"
)

// SentimentHandler expone clasificacion, lotes, feedback y health.
type SentimentHandler struct {
	logger *zap.Logger
	svc    *service.SentimentService
}

func NewSentimentHandler(logger *zap.Logger, svc *service.SentimentService) *SentimentHandler {
	return &SentimentHandler{logger: logger, svc: svc}
}

// Classify maneja POST /api/classify.
func (h *SentimentHandler) Classify(c *gin.Context) {
	var req struct {
		TextInput string `json:"text_input"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid classify request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request"})
		return
	}

	res, err := h.svc.Analyze(c.Request.Context(), req.TextInput)
	if err != nil {
		respondError(c, h.logger, "classify", err)
		return
	}

	body := gin.H{
		"status":      "success",
		"sentiment":   res.Prediction.Label,
		"confidence":  res.Prediction.Confidence,
		"aspects":     res.Aspects,
		"text_length": res.TextLength,
		"timestamp":   res.Timestamp.Format(time.RFC3339),
	}
	if res.AnalysisID != nil {
		body["analysis_id"] = *res.AnalysisID
	}
	c.JSON(http.StatusOK, body)
}

// ClassifyAspects maneja POST /api/classify/aspects.
func (h *SentimentHandler) ClassifyAspects(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid aspects request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request"})
		return
	}

	aspects, err := h.svc.ClassifyAspects(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, h.logger, "classify aspects", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "aspects": aspects})
}

// BatchClassify maneja POST /api/batch-classify (multipart, campo "file").
func (h *SentimentHandler) BatchClassify(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "no file part"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, h.logger, "batch classify", err)
		return
	}
	defer f.Close()

	res, err := h.svc.BatchClassify(c.Request.Context(), fh.Filename, f)
	if err != nil {
		respondError(c, h.logger, "batch classify", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"results":  res.Results,
		"stats":    res.Stats,
		"total":    res.Total,
		"filename": fh.Filename,
	})
}

// SubmitFeedback maneja POST /api/feedback/:id.
func (h *SentimentHandler) SubmitFeedback(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid analysis id"})
		return
	}
	var req struct {
		Correction string `json:"correction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid correction label"})
		return
	}

	analysis, err := h.svc.SubmitFeedback(c.Request.Context(), id, req.Correction)
	if err != nil {
		respondError(c, h.logger, "feedback", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "feedback saved", "analysis": analysis})
}

// Health maneja GET /api/health.
func (h *SentimentHandler) Health(c *gin.Context) {
	body := gin.H{
		"status":       "healthy",
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"model_loaded": h.svc.IsReady(),
	}
	if cp, loadedAt, ok := h.svc.ActiveCheckpoint(); ok {
		body["checkpoint"] = cp.Kind
		body["loaded_at"] = loadedAt.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, body)
}

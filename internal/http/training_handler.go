package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ulasan/internal/service"
)

// TrainingHandler expone el disparo de fine-tuning, su estado y la recarga del modelo.
type TrainingHandler struct {
	logger    *zap.Logger
	svc       *service.SentimentService
	uploadDir string
}

func NewTrainingHandler(logger *zap.Logger, svc *service.SentimentService, uploadDir string) *TrainingHandler {
	return &TrainingHandler{logger: logger, svc: svc, uploadDir: uploadDir}
}

// UploadTrainData maneja POST /api/upload-train-data. El archivo se valida antes de
// responder; el entrenamiento sigue en segundo plano.
func (h *TrainingHandler) UploadTrainData(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "no file part"})
		return
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "file must be CSV"})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		respondError(c, h.logger, "upload training data", err)
		return
	}
	path := filepath.Join(h.uploadDir, "training_data_"+uuid.NewString()+".csv")
	if err := c.SaveUploadedFile(fh, path); err != nil {
		respondError(c, h.logger, "upload training data", err)
		return
	}
	defer os.Remove(path)

	runID, err := h.svc.TriggerTraining(c.Request.Context(), service.FileSource{Path: path})
	if err != nil {
		respondError(c, h.logger, "upload training data", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"status":  "success",
		"message": "File uploaded. Training started in background.",
		"run_id":  runID,
	})
}

// TrainFromCorrections maneja POST /api/train.
func (h *TrainingHandler) TrainFromCorrections(c *gin.Context) {
	runID, err := h.svc.TriggerTraining(c.Request.Context(), service.CorrectionSource{})
	if err != nil {
		respondError(c, h.logger, "train from corrections", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"status":  "success",
		"message": "Training started in background.",
		"run_id":  runID,
	})
}

// Status maneja GET /api/training-status.
func (h *TrainingHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.TrainingStatus())
}

// ReloadModel maneja POST /api/model/reload.
func (h *TrainingHandler) ReloadModel(c *gin.Context) {
	if err := h.svc.ReloadModel(c.Request.Context()); err != nil {
		respondError(c, h.logger, "reload model", err)
		return
	}
	cp, loadedAt, _ := h.svc.ActiveCheckpoint()
	c.JSON(http.StatusOK, gin.H{"status": "success", "checkpoint": cp, "loaded_at": loadedAt})
}

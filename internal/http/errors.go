package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ulasan/internal/service"
)

// statusFor traduce los errores del servicio a codigos HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrSchema),
		errors.Is(err, service.ErrInvalidLabel),
		errors.Is(err, service.ErrNoTrainingData):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAnalysisNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrTrainingInProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError escribe {"status":"error","message":...}. Los 5xx no exponen el detalle.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case status == http.StatusServiceUnavailable:
		msg = "model not available"
	case status >= http.StatusInternalServerError:
		msg = "internal error"
	}
	if status >= http.StatusInternalServerError {
		logger.Error(op+" failed", zap.Error(err))
	} else {
		logger.Warn(op+" rejected", zap.Error(err))
	}
	c.JSON(status, gin.H{"status": "error", "message": msg})
}

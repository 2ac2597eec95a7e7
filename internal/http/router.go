package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RateLimit configura el limite por IP de las rutas /api. RPS <= 0 lo desactiva.
type RateLimit struct {
	RPS   float64
	Burst int
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	sentimentH *SentimentHandler,
	trainingH *TrainingHandler,
	limit RateLimit,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(jsonContentTypeMiddleware())
	api.GET("/health", sentimentH.Health)

	limited := api.Group("")
	limited.Use(rateLimitMiddleware(limit.RPS, limit.Burst))
	limited.POST("/classify", sentimentH.Classify)
	limited.POST("/classify/aspects", sentimentH.ClassifyAspects)
	limited.POST("/batch-classify", sentimentH.BatchClassify)
	limited.POST("/feedback/:id", sentimentH.SubmitFeedback)

	limited.POST("/upload-train-data", trainingH.UploadTrainData)
	limited.POST("/train", trainingH.TrainFromCorrections)
	limited.POST("/model/reload", trainingH.ReloadModel)
	api.GET("/training-status", trainingH.Status)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

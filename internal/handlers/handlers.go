package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/deepfake-check/internal/dataurl"
	"github.com/example/deepfake-check/internal/logging"
	"github.com/example/deepfake-check/internal/usecase"
)

// MaxUploadSize caps the decoded image at 10 MiB.
const MaxUploadSize = 10 << 20

// maxRequestBody allows for base64 expansion of MaxUploadSize plus JSON framing.
const maxRequestBody = MaxUploadSize/3*4 + 4096

// Analyzer is the part of the use case the handlers depend on.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte) (*usecase.Analysis, error)
	GetMetricsSummary(ctx context.Context) (*usecase.MetricsSummary, error)
}

type uploadRequest struct {
	Image string `json:"image"`
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, uc Analyzer, logger *zap.Logger) {
	logger = logger.Named("handlers")
	router.Use(CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/upload", func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBody)

		var req uploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondError(c, http.StatusRequestEntityTooLarge, "Image too large")
				return
			}
			respondError(c, http.StatusBadRequest, "No image provided")
			return
		}
		if req.Image == "" {
			respondError(c, http.StatusBadRequest, "No image provided")
			return
		}

		image, err := dataurl.Decode(req.Image)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid image encoding")
			return
		}
		if len(image) > MaxUploadSize {
			respondError(c, http.StatusRequestEntityTooLarge, "Image too large")
			return
		}
		if !dataurl.IsImage(image) {
			respondError(c, http.StatusUnsupportedMediaType, "Unsupported image type")
			return
		}

		analysis, err := uc.Analyze(c.Request.Context(), image)
		if err != nil {
			logger.Error("analysis failed",
				zap.String("failed_operation", logging.FailedOperation(err)),
				zap.Error(err),
			)
			respondError(c, http.StatusInternalServerError, "Analysis failed")
			return
		}

		c.Header("X-Request-ID", analysis.RequestID)
		c.JSON(http.StatusOK, gin.H{
			"statusCode": http.StatusOK,
			"body": gin.H{
				"message":          "Analysis complete",
				"detection_result": analysis.Result,
			},
		})
	})

	router.GET("/metrics/summary", func(c *gin.Context) {
		summary, err := uc.GetMetricsSummary(c.Request.Context())
		if err != nil {
			logger.Error("metrics summary failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Metrics unavailable")
			return
		}
		c.JSON(http.StatusOK, summary)
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

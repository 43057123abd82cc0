package controllers

import (
	"net/http"

	"github.com/PitherGabriel/PuntodeVentaTB/apperrors"
	"github.com/PitherGabriel/PuntodeVentaTB/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
)

// respondError renders err as {"error": {kind, message, details}} with the
// status of its kind.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err)
	if appErr.Code >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "Request failed", err,
			zap.String("path", c.FullPath()), zap.String("kind", string(appErr.Kind)))
	}
	c.JSON(appErr.Code, gin.H{"error": appErr})
}

func badRequest(c *gin.Context, message string) {
	respondError(c, apperrors.Validation(message))
}

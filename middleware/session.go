package middleware

import (
	"github.com/PitherGabriel/PuntodeVentaTB/apperrors"
	"github.com/PitherGabriel/PuntodeVentaTB/config"
	"github.com/gin-gonic/gin"
)

// SessionState is the part of the terminal the session guard looks at.
type SessionState interface {
	Features() config.Features
	Authenticated() bool
}

// RequireSession rejects requests with 401 when authentication is enabled and
// no operator is signed in.
func RequireSession(state SessionState) gin.HandlerFunc {
	return func(c *gin.Context) {
		if state.Features().Auth && !state.Authenticated() {
			AbortWithError(c, apperrors.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// RequireFeature answers 404 feature_disabled for routes behind a flag that is off.
func RequireFeature(enabled bool, feature string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			AbortWithError(c, apperrors.FeatureDisabled(feature))
			return
		}
		c.Next()
	}
}

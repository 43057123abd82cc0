package controllers

import (
	"net/http"

	"github.com/PitherGabriel/PuntodeVentaTB/models"
	"github.com/gin-gonic/gin"
)

type SessionController struct {
	session SessionService
}

func NewSessionController(session SessionService) *SessionController {
	return &SessionController{session: session}
}

// Check reports whether an operator is signed in on the POS API.
func (sc *SessionController) Check(c *gin.Context) {
	user, err := sc.session.Check(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": user, "seller": user.DisplayName()})
}

func (sc *SessionController) Login(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		badRequest(c, "invalid login payload")
		return
	}

	user, err := sc.session.Login(c.Request.Context(), creds.Username, creds.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": user, "seller": user.DisplayName()})
}

// Logout ends the session. Local state is cleared even if the POS API call fails.
func (sc *SessionController) Logout(c *gin.Context) {
	if err := sc.session.Logout(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

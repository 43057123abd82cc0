package controllers

import (
	"net/http"
	"strings"

	"github.com/PitherGabriel/PuntodeVentaTB/models"
	"github.com/gin-gonic/gin"
)

// TerminalController serves the terminal state and the cart and client
// transitions. Every mutation answers with the new state so the view can
// re-render from a single response.
type TerminalController struct {
	terminal TerminalService
}

func NewTerminalController(terminal TerminalService) *TerminalController {
	return &TerminalController{terminal: terminal}
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

type changeQuantityRequest struct {
	Delta *int `json:"delta" binding:"required"`
}

// GetState returns the full terminal snapshot.
func (tc *TerminalController) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, tc.terminal.State())
}

// AddItem adds one unit of a product to the cart.
func (tc *TerminalController) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "product_id is required")
		return
	}

	line, err := tc.terminal.AddToCart(strings.TrimSpace(req.ProductID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"line": line, "state": tc.terminal.State()})
}

// UpdateItem changes a cart line by delta units; reaching zero removes it.
func (tc *TerminalController) UpdateItem(c *gin.Context) {
	var req changeQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "delta is required")
		return
	}

	if err := tc.terminal.ChangeQuantity(c.Param("id"), *req.Delta); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": tc.terminal.State()})
}

func (tc *TerminalController) RemoveItem(c *gin.Context) {
	if err := tc.terminal.RemoveFromCart(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": tc.terminal.State()})
}

// ChangeDue computes the change for the amount received. valid is false while
// the input is not a usable amount or the cart is empty.
func (tc *TerminalController) ChangeDue(c *gin.Context) {
	received := c.Query("received")
	change, ok := tc.terminal.ChangeDue(received)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"received": received, "valid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": received, "valid": true, "change": change.StringFixed(2)})
}

// SetClient replaces the client profile draft for invoiced sales.
func (tc *TerminalController) SetClient(c *gin.Context) {
	var profile models.ClientProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		badRequest(c, "invalid client payload")
		return
	}
	if err := tc.terminal.SetClient(profile); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": tc.terminal.State()})
}

func (tc *TerminalController) ClearClient(c *gin.Context) {
	if err := tc.terminal.ClearClient(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": tc.terminal.State()})
}

// DismissInvoice closes the invoice result panel.
func (tc *TerminalController) DismissInvoice(c *gin.Context) {
	tc.terminal.DismissInvoice()
	c.Status(http.StatusNoContent)
}

package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/PitherGabriel/PuntodeVentaTB/logger"
	"github.com/PitherGabriel/PuntodeVentaTB/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CheckoutController struct {
	checkout CheckoutService
	terminal TerminalService
}

func NewCheckoutController(checkout CheckoutService, terminal TerminalService) *CheckoutController {
	return &CheckoutController{checkout: checkout, terminal: terminal}
}

// SubmitSale submits the cart as a plain sale. A repeated Idempotency-Key
// returns the first receipt with Idempotent-Replayed: true.
func (cc *CheckoutController) SubmitSale(c *gin.Context) {
	key := strings.TrimSpace(c.GetHeader(headerIdempotencyKey))

	receipt, replayed, err := cc.checkout.SubmitSale(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if replayed {
		c.Header(headerReplayed, "true")
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"receipt": receipt, "state": cc.terminal.State()})
}

// SubmitInvoice submits the cart with the client profile and returns the
// authorized invoice. A client object in the body replaces the draft first.
func (cc *CheckoutController) SubmitInvoice(c *gin.Context) {
	var body struct {
		Client *models.ClientProfile `json:"client"`
	}
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid invoice payload")
		return
	}
	if body.Client != nil {
		if err := cc.terminal.SetClient(*body.Client); err != nil {
			respondError(c, err)
			return
		}
	}

	key := strings.TrimSpace(c.GetHeader(headerIdempotencyKey))
	invoice, replayed, err := cc.checkout.SubmitInvoicedSale(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}

	if len(invoice.Warnings) > 0 {
		logger.Warn(c.Request.Context(), "Invoice authorized with warnings",
			zap.String("invoice_number", invoice.Number), zap.Strings("warnings", invoice.Warnings))
	}

	status := http.StatusCreated
	if replayed {
		c.Header(headerReplayed, "true")
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"invoice": invoice, "state": cc.terminal.State()})
}

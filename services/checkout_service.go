package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/PitherGabriel/PuntodeVentaTB/apperrors"
	"github.com/PitherGabriel/PuntodeVentaTB/models"
	aws_pkg "github.com/PitherGabriel/PuntodeVentaTB/pkg/aws"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaleGateway submits sales to the POS API.
type SaleGateway interface {
	SubmitSale(ctx context.Context, req models.SaleRequest, idempotencyKey string) (*models.SaleReceipt, error)
	SubmitInvoicedSale(ctx context.Context, req models.SaleRequest, idempotencyKey string) (*models.InvoiceResult, error)
}

// IdempotencyStore keeps the outcome of completed checkouts by key.
type IdempotencyStore interface {
	GetIdempotency(ctx context.Context, key string) (string, error)
	SetIdempotency(ctx context.Context, key, value string) error
}

// storedCheckout is what the idempotency store keeps for a completed checkout.
type storedCheckout struct {
	Receipt *models.SaleReceipt   `json:"receipt,omitempty"`
	Invoice *models.InvoiceResult `json:"invoice,omitempty"`
}

// SaleEvent is published to SNS after every completed checkout.
type SaleEvent struct {
	Type          string              `json:"type"`
	SaleID        string              `json:"sale_id,omitempty"`
	InvoiceNumber string              `json:"invoice_number,omitempty"`
	Seller        string              `json:"seller"`
	Items         []models.SaleItem   `json:"items"`
	Total         string              `json:"total"`
	Alerts        []models.StockAlert `json:"alerts,omitempty"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

// LowStockEvent is published for each product left at or below its minimum stock.
type LowStockEvent struct {
	Type       string    `json:"type"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	MinStock   int       `json:"min_stock"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	EventSaleCompleted   = "sale.completed"
	EventInvoiceIssued   = "sale.invoiced"
	EventLowStock        = "inventory.low_stock"
	idempotencySale      = "sale:"
	idempotencyInvoice   = "invoice:"
	stockRejectionMarker = "stock"

	metricsTimeout = 5 * time.Second
)

// CheckoutService turns the terminal's cart into a sale on the POS API. Only
// one submission runs at a time; a second one is rejected until the first
// resolves. Local stock is decremented only after the POS API confirms.
type CheckoutService struct {
	terminal    *Terminal
	gateway     SaleGateway
	idempotency IdempotencyStore
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	metrics     aws_pkg.MetricsRecorder
	logger      *zap.Logger
}

// NewCheckoutService creates a CheckoutService. idempotency, snsClient and
// metrics are optional and may be nil.
func NewCheckoutService(
	terminal *Terminal,
	gateway SaleGateway,
	idempotency IdempotencyStore,
	snsClient aws_pkg.SNSPublisher,
	snsTopicArn string,
	metrics aws_pkg.MetricsRecorder,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		terminal:    terminal,
		gateway:     gateway,
		idempotency: idempotency,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		metrics:     metrics,
		logger:      logger,
	}
}

// SubmitSale submits the cart as a plain sale. replayed is true when the
// receipt came from the idempotency store instead of a new submission.
// Cancelling ctx after the slot is claimed does not abort the submission.
func (s *CheckoutService) SubmitSale(ctx context.Context, idempotencyKey string) (receipt *models.SaleReceipt, replayed bool, err error) {
	if stored := s.lookup(ctx, idempotencySale+idempotencyKey, idempotencyKey); stored != nil && stored.Receipt != nil {
		s.count(aws_pkg.MetricSalesReplayed, "sale")
		return stored.Receipt, true, nil
	}

	ticket, err := s.terminal.beginCheckout(false)
	if err != nil {
		return nil, false, err
	}

	// Once issued, a sale runs to completion; the client timeout bounds it.
	ctx = context.WithoutCancel(ctx)
	req := models.SaleRequest{Cart: models.ToSaleItems(ticket.lines), Seller: ticket.seller}
	start := time.Now()
	receipt, err = s.gateway.SubmitSale(ctx, req, gatewayKey(idempotencyKey))
	s.latency(start, "sale")
	if err != nil {
		s.fail(err, aws_pkg.MetricSalesFailed, "sale")
		return nil, false, err
	}

	lowStock := s.terminal.completeCheckout(ticket, receipt, nil)
	s.logger.Info("Sale completed",
		zap.String("sale_id", receipt.SaleID),
		zap.String("seller", ticket.seller),
		zap.String("total", receipt.Total.StringFixed(2)),
		zap.Int("lines", len(ticket.lines)))

	s.remember(ctx, idempotencySale+idempotencyKey, idempotencyKey, storedCheckout{Receipt: receipt})
	s.count(aws_pkg.MetricSalesCompleted, "sale")
	s.value(aws_pkg.MetricSaleAmount, receipt.Total.InexactFloat64(), "sale")
	s.publishEvent(ctx, SaleEvent{
		Type:       EventSaleCompleted,
		SaleID:     receipt.SaleID,
		Seller:     ticket.seller,
		Items:      req.Cart,
		Total:      receipt.Total.StringFixed(2),
		Alerts:     receipt.Alerts,
		OccurredAt: time.Now().UTC(),
	})
	s.publishLowStock(ctx, ticket.lines, lowStock)
	return receipt, false, nil
}

// SubmitInvoicedSale submits the cart with the terminal's client profile and
// requests an authorized electronic invoice. On failure the cart and the
// client profile are kept for a retry.
func (s *CheckoutService) SubmitInvoicedSale(ctx context.Context, idempotencyKey string) (invoice *models.InvoiceResult, replayed bool, err error) {
	if !s.terminal.Features().Invoicing {
		return nil, false, apperrors.FeatureDisabled("invoicing")
	}
	if stored := s.lookup(ctx, idempotencyInvoice+idempotencyKey, idempotencyKey); stored != nil && stored.Invoice != nil {
		s.count(aws_pkg.MetricSalesReplayed, "invoice")
		return stored.Invoice, true, nil
	}

	ticket, err := s.terminal.beginCheckout(true)
	if err != nil {
		return nil, false, err
	}

	ctx = context.WithoutCancel(ctx)
	client := ticket.client
	req := models.SaleRequest{Cart: models.ToSaleItems(ticket.lines), Seller: ticket.seller, Client: &client}
	start := time.Now()
	invoice, err = s.gateway.SubmitInvoicedSale(ctx, req, gatewayKey(idempotencyKey))
	s.latency(start, "invoice")
	if err != nil {
		s.fail(err, aws_pkg.MetricInvoicesFailed, "invoice")
		return nil, false, err
	}

	lowStock := s.terminal.completeCheckout(ticket, nil, invoice)
	s.logger.Info("Invoice issued",
		zap.String("invoice_number", invoice.Number),
		zap.String("authorization", invoice.AuthorizationNumber),
		zap.String("environment", invoice.Environment),
		zap.Strings("warnings", invoice.Warnings))

	s.remember(ctx, idempotencyInvoice+idempotencyKey, idempotencyKey, storedCheckout{Invoice: invoice})
	s.count(aws_pkg.MetricInvoicesIssued, "invoice")
	s.value(aws_pkg.MetricSaleAmount, invoice.Total.InexactFloat64(), "invoice")
	s.publishEvent(ctx, SaleEvent{
		Type:          EventInvoiceIssued,
		InvoiceNumber: invoice.Number,
		Seller:        ticket.seller,
		Items:         req.Cart,
		Total:         invoice.Total.StringFixed(2),
		OccurredAt:    time.Now().UTC(),
	})
	s.publishLowStock(ctx, ticket.lines, lowStock)
	return invoice, false, nil
}

// DismissInvoice clears the retained invoice result.
func (s *CheckoutService) DismissInvoice() {
	s.terminal.DismissInvoice()
}

// fail releases the checkout slot. A rejection about stock means the cached
// catalog disagrees with the server, so it is marked stale.
func (s *CheckoutService) fail(err error, metric, mode string) {
	stale := isStockRejection(err)
	s.terminal.abortCheckout(stale)
	s.count(metric, mode)
	s.logger.Warn("Checkout failed",
		zap.String("mode", mode),
		zap.String("kind", string(apperrors.KindOf(err))),
		zap.Bool("catalog_stale", stale),
		zap.Error(err))
}

func isStockRejection(err error) bool {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperrors.KindGatewayRejected {
		return false
	}
	if strings.Contains(strings.ToLower(appErr.Message), stockRejectionMarker) {
		return true
	}
	for _, d := range appErr.Details {
		if strings.Contains(strings.ToLower(d), stockRejectionMarker) {
			return true
		}
	}
	return false
}

// gatewayKey forwards the caller's key, or a fresh one so the POS API can
// still detect transport-level retries.
func gatewayKey(key string) string {
	if key != "" {
		return key
	}
	return uuid.NewString()
}

func (s *CheckoutService) lookup(ctx context.Context, storeKey, key string) *storedCheckout {
	if s.idempotency == nil || key == "" {
		return nil
	}
	raw, err := s.idempotency.GetIdempotency(ctx, storeKey)
	if err != nil {
		s.logger.Warn("Idempotency lookup failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if raw == "" {
		return nil
	}
	var stored storedCheckout
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Warn("Idempotency entry unreadable", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &stored
}

func (s *CheckoutService) remember(ctx context.Context, storeKey, key string, stored storedCheckout) {
	if s.idempotency == nil || key == "" {
		return
	}
	b, err := json.Marshal(stored)
	if err != nil {
		s.logger.Error("Failed to marshal idempotency entry", zap.Error(err))
		return
	}
	if err := s.idempotency.SetIdempotency(ctx, storeKey, string(b)); err != nil {
		s.logger.Warn("Failed to store idempotency entry", zap.String("key", key), zap.Error(err))
	}
}

// publishEvent marshals an event and publishes it to SNS (non-fatal on error).
func (s *CheckoutService) publishEvent(ctx context.Context, event interface{}) {
	if s.snsClient == nil || s.snsTopicArn == "" {
		return
	}
	b, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal SNS event", zap.Error(err))
		return
	}
	if err := s.snsClient.Publish(ctx, s.snsTopicArn, b); err != nil {
		s.logger.Error("Failed to publish SNS event", zap.Error(err))
		return
	}
	s.logger.Debug("Published SNS event", zap.String("topic", s.snsTopicArn))
}

// publishLowStock announces the sold products that ended at or below their minimum.
func (s *CheckoutService) publishLowStock(ctx context.Context, sold []models.CartLine, lowStock []models.Product) {
	soldIDs := make(map[string]bool, len(sold))
	for _, l := range sold {
		soldIDs[l.ProductID] = true
	}
	for _, p := range lowStock {
		if !soldIDs[p.ID] {
			continue
		}
		s.count(aws_pkg.MetricInventoryLow, "sale")
		s.publishEvent(ctx, LowStockEvent{
			Type:       EventLowStock,
			Code:       p.Code,
			Name:       p.Name,
			Quantity:   p.Quantity,
			MinStock:   p.MinStock,
			OccurredAt: time.Now().UTC(),
		})
	}
}

func (s *CheckoutService) count(metric, mode string) {
	s.record(func(ctx context.Context, m aws_pkg.MetricsRecorder) {
		_ = m.RecordCount(ctx, metric, map[string]string{"Mode": mode})
	})
}

func (s *CheckoutService) value(metric string, v float64, mode string) {
	s.record(func(ctx context.Context, m aws_pkg.MetricsRecorder) {
		_ = m.RecordValue(ctx, metric, v, map[string]string{"Mode": mode})
	})
}

func (s *CheckoutService) latency(start time.Time, mode string) {
	d := time.Since(start)
	s.record(func(ctx context.Context, m aws_pkg.MetricsRecorder) {
		_ = m.RecordLatency(ctx, aws_pkg.MetricCheckoutLatency, d, map[string]string{"Mode": mode})
	})
}

// record sends metrics in the background so CloudWatch never delays a checkout.
func (s *CheckoutService) record(fn func(ctx context.Context, m aws_pkg.MetricsRecorder)) {
	if s.metrics == nil || !s.metrics.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsTimeout)
		defer cancel()
		fn(ctx, s.metrics)
	}()
}

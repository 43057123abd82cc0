package controllers

import (
	"context"

	"github.com/PitherGabriel/PuntodeVentaTB/models"
	"github.com/PitherGabriel/PuntodeVentaTB/services"
	"github.com/shopspring/decimal"
)

// TerminalService is the terminal state owner as seen by the handlers.
type TerminalService interface {
	State() services.TerminalView
	AddToCart(productID string) (models.CartLine, error)
	ChangeQuantity(productID string, delta int) error
	RemoveFromCart(productID string) error
	ChangeDue(received string) (decimal.Decimal, bool)
	SetClient(profile models.ClientProfile) error
	ClearClient() error
	DismissInvoice()
}

type CheckoutService interface {
	SubmitSale(ctx context.Context, idempotencyKey string) (*models.SaleReceipt, bool, error)
	SubmitInvoicedSale(ctx context.Context, idempotencyKey string) (*models.InvoiceResult, bool, error)
}

type CatalogService interface {
	Refresh(ctx context.Context) ([]models.Product, error)
	Search(term string) []models.Product
	AddProduct(ctx context.Context, input models.NewProductInput) (*models.NewProduct, error)
}

type SalesService interface {
	HistoryBetween(ctx context.Context, limit int, start, end string) ([]models.SaleRecord, error)
	Summary(ctx context.Context, date string) (*models.SalesSummary, error)
	ProfitAnalysis(ctx context.Context, period models.ProfitPeriod, start, end string) (*models.ProfitReport, error)
}

type SessionService interface {
	Check(ctx context.Context) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.User, error)
	Logout(ctx context.Context) error
}

var (
	_ TerminalService = (*services.Terminal)(nil)
	_ CheckoutService = (*services.CheckoutService)(nil)
	_ CatalogService  = (*services.CatalogService)(nil)
	_ SalesService    = (*services.SalesService)(nil)
	_ SessionService  = (*services.SessionService)(nil)
)

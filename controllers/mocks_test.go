package controllers

import (
	"context"

	"github.com/PitherGabriel/PuntodeVentaTB/models"
	"github.com/PitherGabriel/PuntodeVentaTB/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock Services ---

type MockTerminal struct {
	mock.Mock
}

func (m *MockTerminal) State() services.TerminalView {
	args := m.Called()
	return args.Get(0).(services.TerminalView)
}
func (m *MockTerminal) AddToCart(productID string) (models.CartLine, error) {
	args := m.Called(productID)
	return args.Get(0).(models.CartLine), args.Error(1)
}
func (m *MockTerminal) ChangeQuantity(productID string, delta int) error {
	return m.Called(productID, delta).Error(0)
}
func (m *MockTerminal) RemoveFromCart(productID string) error {
	return m.Called(productID).Error(0)
}
func (m *MockTerminal) ChangeDue(received string) (decimal.Decimal, bool) {
	args := m.Called(received)
	return args.Get(0).(decimal.Decimal), args.Bool(1)
}
func (m *MockTerminal) SetClient(profile models.ClientProfile) error {
	return m.Called(profile).Error(0)
}
func (m *MockTerminal) ClearClient() error {
	return m.Called().Error(0)
}
func (m *MockTerminal) DismissInvoice() {
	m.Called()
}

type MockCheckout struct {
	mock.Mock
}

func (m *MockCheckout) SubmitSale(ctx context.Context, key string) (*models.SaleReceipt, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.SaleReceipt), args.Bool(1), args.Error(2)
}
func (m *MockCheckout) SubmitInvoicedSale(ctx context.Context, key string) (*models.InvoiceResult, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.InvoiceResult), args.Bool(1), args.Error(2)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Refresh(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}
func (m *MockCatalog) Search(term string) []models.Product {
	return m.Called(term).Get(0).([]models.Product)
}
func (m *MockCatalog) AddProduct(ctx context.Context, input models.NewProductInput) (*models.NewProduct, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NewProduct), args.Error(1)
}

type MockSales struct {
	mock.Mock
}

func (m *MockSales) HistoryBetween(ctx context.Context, limit int, start, end string) ([]models.SaleRecord, error) {
	args := m.Called(ctx, limit, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SaleRecord), args.Error(1)
}
func (m *MockSales) Summary(ctx context.Context, date string) (*models.SalesSummary, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SalesSummary), args.Error(1)
}
func (m *MockSales) ProfitAnalysis(ctx context.Context, period models.ProfitPeriod, start, end string) (*models.ProfitReport, error) {
	args := m.Called(ctx, period, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProfitReport), args.Error(1)
}

type MockSession struct {
	mock.Mock
}

func (m *MockSession) Check(ctx context.Context) (*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *MockSession) Login(ctx context.Context, username, password string) (*models.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *MockSession) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

package services

import (
	"context"
	"sync"
	"time"

	"github.com/PitherGabriel/PuntodeVentaTB/config"
	"github.com/PitherGabriel/PuntodeVentaTB/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// fakeGateway implements every gateway interface against in-memory data.
type fakeGateway struct {
	mu sync.Mutex

	products     []models.Product
	inventoryErr error

	saleCalls    int
	saleRequests []models.SaleRequest
	saleKeys     []string
	receipt      *models.SaleReceipt
	invoice      *models.InvoiceResult
	saleErr      error

	// release, when set, blocks sale submissions until it is closed.
	release chan struct{}
	started chan struct{}

	added  []models.NewProduct
	addErr error

	history    []models.SaleRecord
	summary    *models.SalesSummary
	report     *models.ProfitReport
	profitArgs []string

	user      *models.User
	loginErr  error
	logoutErr error
}

func (g *fakeGateway) FetchInventory(ctx context.Context) ([]models.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inventoryErr != nil {
		return nil, g.inventoryErr
	}
	return append([]models.Product(nil), g.products...), nil
}

func (g *fakeGateway) AddProduct(ctx context.Context, p models.NewProduct) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.addErr != nil {
		return g.addErr
	}
	g.added = append(g.added, p)
	g.products = append(g.products, models.Product{
		ID: p.Code, Code: p.Code, Name: p.Name, Price: p.Price, Cost: p.Cost, Quantity: p.Quantity, MinStock: p.MinStock,
	})
	return nil
}

func (g *fakeGateway) submit(ctx context.Context, req models.SaleRequest, key string) error {
	g.mu.Lock()
	g.saleCalls++
	g.saleRequests = append(g.saleRequests, req)
	g.saleKeys = append(g.saleKeys, key)
	release, started := g.release, g.started
	err := g.saleErr
	g.mu.Unlock()

	if started != nil {
		close(started)
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (g *fakeGateway) SubmitSale(ctx context.Context, req models.SaleRequest, key string) (*models.SaleReceipt, error) {
	if err := g.submit(ctx, req, key); err != nil {
		return nil, err
	}
	if g.receipt != nil {
		return g.receipt, nil
	}
	return &models.SaleReceipt{SaleID: "VTA-1", Total: decimal.NewFromInt(50), Items: len(req.Cart)}, nil
}

func (g *fakeGateway) SubmitInvoicedSale(ctx context.Context, req models.SaleRequest, key string) (*models.InvoiceResult, error) {
	if err := g.submit(ctx, req, key); err != nil {
		return nil, err
	}
	if g.invoice != nil {
		return g.invoice, nil
	}
	return &models.InvoiceResult{Number: "001-001-000000001", AuthorizationNumber: "123", Total: decimal.NewFromInt(50), Environment: "PRUEBAS"}, nil
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saleCalls
}

func (g *fakeGateway) SalesHistory(ctx context.Context, limit int) ([]models.SaleRecord, error) {
	if limit < len(g.history) {
		return g.history[len(g.history)-limit:], nil
	}
	return g.history, nil
}

func (g *fakeGateway) SalesSummary(ctx context.Context, date string) (*models.SalesSummary, error) {
	return g.summary, nil
}

func (g *fakeGateway) ProfitAnalysis(ctx context.Context, period models.ProfitPeriod, start, end string) (*models.ProfitReport, error) {
	g.profitArgs = []string{string(period), start, end}
	return g.report, nil
}

func (g *fakeGateway) CheckSession(ctx context.Context) (*models.User, error) {
	return g.user, nil
}

func (g *fakeGateway) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	if g.loginErr != nil {
		return nil, g.loginErr
	}
	g.user = &models.User{Username: creds.Username, Name: "Ana Torres"}
	return g.user, nil
}

func (g *fakeGateway) Logout(ctx context.Context) error {
	g.user = nil
	return g.logoutErr
}

// mockSNS records published messages.
type mockSNS struct {
	mu       sync.Mutex
	messages [][]byte
}

func (m *mockSNS) Publish(ctx context.Context, topicArn string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, append([]byte(nil), message...))
	return nil
}

// mockMetrics records metric names.
type mockMetrics struct {
	mu    sync.Mutex
	names []string
}

func (m *mockMetrics) add(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names = append(m.names, name)
}

func (m *mockMetrics) has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.names {
		if n == name {
			return true
		}
	}
	return false
}

func (m *mockMetrics) RecordCount(ctx context.Context, name string, _ map[string]string) error {
	m.add(name)
	return nil
}

func (m *mockMetrics) RecordLatency(ctx context.Context, name string, _ time.Duration, _ map[string]string) error {
	m.add(name)
	return nil
}

func (m *mockMetrics) RecordValue(ctx context.Context, name string, _ float64, _ map[string]string) error {
	m.add(name)
	return nil
}

func (m *mockMetrics) IsEnabled() bool { return true }

// memoryIdempotency is an in-memory IdempotencyStore.
type memoryIdempotency struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryIdempotency) GetIdempotency(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memoryIdempotency) SetIdempotency(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]string{}
	}
	m.data[key] = value
	return nil
}

func testCatalog() []models.Product {
	return []models.Product{
		{ID: "1", Code: "CAM001", Name: "Camisa", Price: decimal.RequireFromString("25.00"), Cost: decimal.NewFromInt(15), Quantity: 15, MinStock: 10},
		{ID: "2", Code: "PAN001", Name: "Pantalon", Price: decimal.RequireFromString("45.00"), Cost: decimal.NewFromInt(30), Quantity: 4, MinStock: 5},
		{ID: "3", Code: "GOR001", Name: "Gorra", Price: decimal.RequireFromString("12.50"), Quantity: 0, MinStock: 2},
	}
}

var allFeatures = config.Features{Auth: true, Invoicing: true, ProfitReport: true}

// newTestTerminal returns a terminal with the test catalog loaded and, when
// auth is on, an operator signed in.
func newTestTerminal(features config.Features) *Terminal {
	t := NewTerminal(features, "Sistema")
	t.replaceInventory(testCatalog())
	if features.Auth {
		t.signIn(models.User{Username: "ana", Name: "Ana Torres"})
	}
	return t
}

func nopLogger() *zap.Logger { return zap.NewNop() }

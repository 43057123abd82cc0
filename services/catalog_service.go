package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode"

	"github.com/PitherGabriel/PuntodeVentaTB/apperrors"
	"github.com/PitherGabriel/PuntodeVentaTB/models"
	aws_pkg "github.com/PitherGabriel/PuntodeVentaTB/pkg/aws"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogGateway reads and extends the POS API catalog.
type CatalogGateway interface {
	FetchInventory(ctx context.Context) ([]models.Product, error)
	AddProduct(ctx context.Context, p models.NewProduct) error
}

const defaultMinStock = 5

// CatalogService keeps the terminal's inventory cache in sync with the POS API.
type CatalogService struct {
	terminal *Terminal
	gateway  CatalogGateway
	metrics  aws_pkg.MetricsRecorder
	logger   *zap.Logger
	intn     func(n int) int
}

func NewCatalogService(terminal *Terminal, gateway CatalogGateway, metrics aws_pkg.MetricsRecorder, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		terminal: terminal,
		gateway:  gateway,
		metrics:  metrics,
		logger:   logger,
		intn:     rand.IntN,
	}
}

// Refresh replaces the cached catalog with the POS API's. On failure the
// previous catalog is kept and the failure is recorded on the cache.
func (s *CatalogService) Refresh(ctx context.Context) ([]models.Product, error) {
	products, err := s.gateway.FetchInventory(ctx)
	if err != nil {
		s.terminal.failInventory(err)
		s.count(aws_pkg.MetricInventoryFailures)
		s.logger.Warn("Catalog refresh failed, keeping previous catalog", zap.Error(err))
		return nil, err
	}

	s.terminal.replaceInventory(products)
	s.count(aws_pkg.MetricInventoryRefresh)
	s.logger.Debug("Catalog refreshed", zap.Int("products", len(products)))
	return s.terminal.Catalog(), nil
}

// Search matches term against product name and code, case-insensitively. A
// blank term matches nothing.
func (s *CatalogService) Search(term string) []models.Product {
	return SearchProducts(s.terminal.Catalog(), term)
}

// SearchProducts filters products whose name or code contains term.
func SearchProducts(products []models.Product, term string) []models.Product {
	out := []models.Product{}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return out
	}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.Code), term) {
			out = append(out, p)
		}
	}
	return out
}

// AddProduct validates the form, prices the product from its cost and margin,
// assigns it a code and registers it with the POS API. The catalog is
// refreshed afterwards so the new product can be sold right away.
func (s *CatalogService) AddProduct(ctx context.Context, input models.NewProductInput) (*models.NewProduct, error) {
	p, err := s.buildProduct(input)
	if err != nil {
		return nil, err
	}

	if err := s.gateway.AddProduct(ctx, p); err != nil {
		s.logger.Warn("Add product failed", zap.String("name", p.Name), zap.Error(err))
		return nil, err
	}

	s.count(aws_pkg.MetricProductsCreated)
	s.logger.Info("Product added",
		zap.String("code", p.Code),
		zap.String("name", p.Name),
		zap.String("price", p.Price.StringFixed(2)))

	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Warn("Catalog refresh after add failed", zap.String("code", p.Code), zap.Error(err))
	}
	return &p, nil
}

func (s *CatalogService) buildProduct(input models.NewProductInput) (models.NewProduct, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || strings.TrimSpace(input.Cost) == "" || strings.TrimSpace(input.MarginPercent) == "" {
		return models.NewProduct{}, apperrors.Validation("name, cost and margin percent are required")
	}

	cost, err := decimal.NewFromString(strings.TrimSpace(input.Cost))
	if err != nil || cost.IsNegative() {
		return models.NewProduct{}, apperrors.Validation("cost must be a non-negative number")
	}
	margin, err := decimal.NewFromString(strings.TrimSpace(input.MarginPercent))
	if err != nil {
		return models.NewProduct{}, apperrors.Validation("margin percent must be a number")
	}

	quantity, err := optionalInt(input.Quantity, 0)
	if err != nil {
		return models.NewProduct{}, apperrors.Validation("quantity must be a non-negative whole number")
	}
	minStock, err := optionalInt(input.MinStock, defaultMinStock)
	if err != nil {
		return models.NewProduct{}, apperrors.Validation("minimum stock must be a non-negative whole number")
	}

	return models.NewProduct{
		Code:     s.generateCode(name),
		Name:     name,
		Quantity: quantity,
		Cost:     cost,
		Price:    SalePrice(cost, margin),
		MinStock: minStock,
	}, nil
}

// SalePrice is cost increased by marginPercent, rounded to cents.
func SalePrice(cost, marginPercent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(marginPercent.Div(decimal.NewFromInt(100)))
	return cost.Mul(factor).Round(2)
}

// generateCode builds a product code from the first three characters of the
// name (whitespace removed, upper-cased) and five random digits.
func (s *CatalogService) generateCode(name string) string {
	var prefix []rune
	for _, r := range name {
		if unicode.IsSpace(r) {
			continue
		}
		prefix = append(prefix, unicode.ToUpper(r))
		if len(prefix) == 3 {
			break
		}
	}
	return fmt.Sprintf("%s%d", string(prefix), 10000+s.intn(90000))
}

func optionalInt(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid whole number %q", raw)
	}
	return n, nil
}

func (s *CatalogService) count(metric string) {
	if s.metrics == nil || !s.metrics.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsTimeout)
		defer cancel()
		_ = s.metrics.RecordCount(ctx, metric, nil)
	}()
}

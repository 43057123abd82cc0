package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"github.com/PitherGabriel/PuntodeVentaTB/apperrors"
	"github.com/PitherGabriel/PuntodeVentaTB/logger"
	"github.com/PitherGabriel/PuntodeVentaTB/models"
	"go.uber.org/zap"
)

const (
	maxResponseBytes = 4 << 20
	readRetries      = 2
	retryBackoff     = 250 * time.Millisecond
)

// POSGatewayClient talks to the remote POS API. The session cookie issued by
// /auth/login is kept in the client's cookie jar and sent on every call.
// Reads that fail with a network error are retried; writes never are.
type POSGatewayClient struct {
	baseURL string
	client  *http.Client
	retries int
	backoff time.Duration
}

// NewPOSGatewayClient creates a client for the POS API rooted at baseURL
// (for example http://localhost:5000/api).
func NewPOSGatewayClient(baseURL string, timeout time.Duration) *POSGatewayClient {
	jar, _ := cookiejar.New(nil)
	return &POSGatewayClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		retries: readRetries,
		backoff: retryBackoff,
	}
}

// FetchInventory returns the full product catalog.
func (g *POSGatewayClient) FetchInventory(ctx context.Context) ([]models.Product, error) {
	env, err := g.callOK(ctx, "load inventory", http.MethodGet, "/inventory", nil, nil, nil)
	if err != nil {
		return nil, err
	}

	var items []inventoryWire
	if err := decodeData(env, &items); err != nil {
		return nil, apperrors.Network("load inventory", err)
	}

	products := make([]models.Product, 0, len(items))
	for _, it := range items {
		products = append(products, it.toProduct())
	}
	return products, nil
}

// SubmitSale posts a plain sale. idempotencyKey is forwarded as a header when
// set so the POS API can recognise retries.
func (g *POSGatewayClient) SubmitSale(ctx context.Context, req models.SaleRequest, idempotencyKey string) (*models.SaleReceipt, error) {
	env, err := g.callOK(ctx, "submit sale", http.MethodPost, "/sale", nil, req, idempotencyHeader(idempotencyKey))
	if err != nil {
		return nil, err
	}

	receipt := &models.SaleReceipt{
		SaleID: string(env.SaleID),
		Total:  env.Total.Decimal,
		Items:  int(env.Items),
		Alerts: make([]models.StockAlert, 0, len(env.Alerts)),
	}
	for _, a := range env.Alerts {
		receipt.Alerts = append(receipt.Alerts, models.StockAlert{Product: a.Product, Remaining: a.Remaining.Decimal})
	}
	return receipt, nil
}

// SubmitInvoicedSale posts a sale that also requests an authorized electronic invoice.
func (g *POSGatewayClient) SubmitInvoicedSale(ctx context.Context, req models.SaleRequest, idempotencyKey string) (*models.InvoiceResult, error) {
	env, err := g.callOK(ctx, "submit invoiced sale", http.MethodPost, "/sale-with-invoice-sri", nil, req, idempotencyHeader(idempotencyKey))
	if err != nil {
		return nil, err
	}
	if env.Invoice == nil {
		return nil, apperrors.Network("submit invoiced sale", fmt.Errorf("response has no invoice"))
	}

	result := env.Invoice.toResult()
	return &result, nil
}

// SalesHistory returns up to limit of the most recent sale records.
func (g *POSGatewayClient) SalesHistory(ctx context.Context, limit int) ([]models.SaleRecord, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	env, err := g.callOK(ctx, "load sales history", http.MethodGet, "/sales/history", q, nil, nil)
	if err != nil {
		return nil, err
	}

	var records []saleRecordWire
	if err := decodeData(env, &records); err != nil {
		return nil, apperrors.Network("load sales history", err)
	}
	return toRecords(records), nil
}

// SalesSummary returns the day summary for date (YYYY-MM-DD), or today when date is empty.
func (g *POSGatewayClient) SalesSummary(ctx context.Context, date string) (*models.SalesSummary, error) {
	var q url.Values
	if date != "" {
		q = url.Values{"date": {date}}
	}

	env, err := g.callOK(ctx, "load sales summary", http.MethodGet, "/sales/summary", q, nil, nil)
	if err != nil {
		return nil, err
	}

	var w summaryWire
	if err := decodeData(env, &w); err != nil {
		return nil, apperrors.Network("load sales summary", err)
	}
	return &models.SalesSummary{
		Date:        w.Date,
		TotalSales:  int(w.TotalSales),
		TotalAmount: w.TotalAmount.Decimal,
		ItemsSold:   w.ItemsSold.Decimal,
		Sales:       toRecords(w.Sales),
	}, nil
}

// ProfitAnalysis returns the profit report for period. start and end are only
// sent for the custom period.
func (g *POSGatewayClient) ProfitAnalysis(ctx context.Context, period models.ProfitPeriod, start, end string) (*models.ProfitReport, error) {
	q := url.Values{"period": {string(period)}}
	if period == models.PeriodCustom {
		q.Set("start_date", start)
		q.Set("end_date", end)
	}

	env, err := g.callOK(ctx, "load profit analysis", http.MethodGet, "/sales/profit-analysis", q, nil, nil)
	if err != nil {
		return nil, err
	}

	var w profitWire
	if err := decodeData(env, &w); err != nil {
		return nil, apperrors.Network("load profit analysis", err)
	}
	report := w.toReport()
	return &report, nil
}

// AddProduct registers a new product in the catalog.
func (g *POSGatewayClient) AddProduct(ctx context.Context, p models.NewProduct) error {
	_, err := g.callOK(ctx, "add product", http.MethodPost, "/inventory/add", nil, p, nil)
	return err
}

// CheckSession returns the logged-in user, or nil when there is no session.
func (g *POSGatewayClient) CheckSession(ctx context.Context) (*models.User, error) {
	env, status, err := g.call(ctx, "check session", http.MethodGet, "/auth/check", nil, nil, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || !env.Authenticated || env.User == nil {
		return nil, nil
	}
	return env.User, nil
}

// Login opens a session with the POS API.
func (g *POSGatewayClient) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	env, err := g.callOK(ctx, "login", http.MethodPost, "/auth/login", nil, creds, nil)
	if err != nil {
		return nil, err
	}
	if env.User == nil {
		return &models.User{Username: creds.Username}, nil
	}
	return env.User, nil
}

// Logout closes the session. Any 2xx answer counts as success.
func (g *POSGatewayClient) Logout(ctx context.Context) error {
	env, status, err := g.call(ctx, "logout", http.MethodPost, "/auth/logout", nil, nil, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return apperrors.Rejected(env.failureMessage(), env.failureDetails())
	}
	return nil
}

// callOK is call plus the success flag check every business endpoint answers with.
func (g *POSGatewayClient) callOK(ctx context.Context, op, method, path string, query url.Values, body any, headers http.Header) (*envelope, error) {
	env, _, err := g.call(ctx, op, method, path, query, body, headers)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		rejected := apperrors.Rejected(env.failureMessage(), env.failureDetails())
		logger.Warn(ctx, "POS API rejected request",
			zap.String("op", op),
			zap.String("message", rejected.Message),
			zap.Strings("details", rejected.Details))
		return nil, rejected
	}
	return env, nil
}

// call performs the request and decodes the response envelope. GET requests
// are retried with a linear backoff while they fail with a network error.
func (g *POSGatewayClient) call(ctx context.Context, op, method, path string, query url.Values, body any, headers http.Header) (*envelope, int, error) {
	env, status, err := g.do(ctx, op, method, path, query, body, headers)
	if method != http.MethodGet {
		return env, status, err
	}
	for attempt := 1; attempt <= g.retries && apperrors.KindOf(err) == apperrors.KindNetwork; attempt++ {
		logger.Warn(ctx, "Retrying POS API read", zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return env, status, err
		case <-time.After(time.Duration(attempt) * g.backoff):
		}
		env, status, err = g.do(ctx, op, method, path, query, body, headers)
	}
	return env, status, err
}

// do performs one request. Transport failures, 5xx answers and bodies that
// are not a JSON envelope are network errors; a decoded envelope is returned
// to the caller along with the status.
func (g *POSGatewayClient) do(ctx context.Context, op, method, path string, query url.Values, body any, headers http.Header) (*envelope, int, error) {
	u := g.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, apperrors.New(http.StatusInternalServerError, apperrors.KindInternal, op+": encode request", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, 0, apperrors.New(http.StatusInternalServerError, apperrors.KindInternal, op+": build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logger.RequestIDFrom(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	for k, v := range headers {
		for _, vv := range v {
			req.Header.Add(k, vv)
		}
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		logger.Error(ctx, "POS API request failed", err, zap.String("op", op), zap.String("path", path))
		return nil, 0, apperrors.Network(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, apperrors.Network(op, fmt.Errorf("read response: %w", err))
	}

	logger.Debug(ctx, "POS API response",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, resp.StatusCode, apperrors.Network(op, upstreamError(resp.StatusCode, raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return nil, resp.StatusCode, apperrors.Network(op, upstreamError(resp.StatusCode, raw))
		}
		return nil, resp.StatusCode, apperrors.Network(op, fmt.Errorf("decode response: %w", err))
	}
	return &env, resp.StatusCode, nil
}

func upstreamError(status int, body []byte) error {
	if len(body) > 512 {
		body = body[:512]
	}
	return fmt.Errorf("upstream error: status=%d body=%s", status, string(body))
}

func decodeData(env *envelope, out any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func idempotencyHeader(key string) http.Header {
	if key == "" {
		return nil
	}
	return http.Header{"Idempotency-Key": {key}}
}

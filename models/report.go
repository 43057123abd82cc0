package models

import "github.com/shopspring/decimal"

// SaleRecord is one line of the sales history.
type SaleRecord struct {
	SaleID    string          `json:"sale_id"`
	Date      string          `json:"date"`
	Time      string          `json:"time"`
	Name      string          `json:"name"`
	Code      string          `json:"code"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	SaleTotal decimal.Decimal `json:"sale_total"`
	Seller    string          `json:"seller"`
}

// SalesSummary aggregates one business day.
type SalesSummary struct {
	Date        string          `json:"date"`
	TotalSales  int             `json:"total_sales"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemsSold   decimal.Decimal `json:"items_sold"`
	Sales       []SaleRecord    `json:"sales"`
}

// ProfitPeriod selects the window of a profitability report.
type ProfitPeriod string

const (
	PeriodToday  ProfitPeriod = "today"
	PeriodWeek   ProfitPeriod = "week"
	PeriodMonth  ProfitPeriod = "month"
	PeriodCustom ProfitPeriod = "custom"
)

// Valid reports whether p is one of the known periods.
func (p ProfitPeriod) Valid() bool {
	switch p {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodCustom:
		return true
	}
	return false
}

type ProductProfit struct {
	Product  string          `json:"product"`
	Code     string          `json:"code"`
	Quantity decimal.Decimal `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
	Cost     decimal.Decimal `json:"cost"`
	Profit   decimal.Decimal `json:"profit"`
}

type SellerProfit struct {
	Seller  string          `json:"seller"`
	Sales   int             `json:"sales"`
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
}

// ProfitReport is the profitability analysis for a period.
type ProfitReport struct {
	Period        string          `json:"period"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	NetProfit     decimal.Decimal `json:"net_profit"`
	Margin        decimal.Decimal `json:"margin"`
	SalesCount    int             `json:"sales_count"`
	UnitsSold     decimal.Decimal `json:"units_sold"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
	TopProducts   []ProductProfit `json:"top_products"`
	Sellers       []SellerProfit  `json:"sellers"`
}

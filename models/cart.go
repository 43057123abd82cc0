package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CartLine is one product pending sale. Code, name and price are captured when
// the product is first added.
type CartLine struct {
	ProductID string          `json:"product_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is price × quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SaleItem is the wire form of a cart line sent to the sale endpoints.
type SaleItem struct {
	Code     string          `json:"codigo"`
	Quantity int             `json:"cantidad_vendida"`
	Name     string          `json:"nombre"`
	Price    decimal.Decimal `json:"precio"`
}

// MarshalJSON sends the price as a plain JSON number with two decimals.
func (s SaleItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code     string      `json:"codigo"`
		Quantity int         `json:"cantidad_vendida"`
		Name     string      `json:"nombre"`
		Price    json.Number `json:"precio"`
	}{s.Code, s.Quantity, s.Name, json.Number(s.Price.StringFixed(2))})
}

// ToSaleItems serializes cart lines for submission.
func ToSaleItems(lines []CartLine) []SaleItem {
	items := make([]SaleItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, SaleItem{
			Code:     l.Code,
			Quantity: l.Quantity,
			Name:     l.Name,
			Price:    l.Price,
		})
	}
	return items
}

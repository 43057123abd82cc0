package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product is one catalog entry as last reported by the POS API.
type Product struct {
	ID       string          `json:"id"`
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Cost     decimal.Decimal `json:"cost"`
	Quantity int             `json:"quantity"`
	MinStock int             `json:"min_stock"`
}

// IsLowStock reports whether the on-hand quantity is at or below the threshold.
func (p Product) IsLowStock() bool {
	return p.Quantity <= p.MinStock
}

// NewProductInput is the new-product form as typed by the operator. Fields stay
// strings so a rejected submission can be shown back unchanged.
type NewProductInput struct {
	Name          string `json:"name"`
	Cost          string `json:"cost"`
	MarginPercent string `json:"margin_percent"`
	Quantity      string `json:"quantity"`
	MinStock      string `json:"min_stock"`
}

// NewProduct is the payload for POST /inventory/add.
type NewProduct struct {
	Code     string          `json:"codigo"`
	Name     string          `json:"nombre"`
	Quantity int             `json:"cantidad"`
	Cost     decimal.Decimal `json:"costo"`
	Price    decimal.Decimal `json:"precio"`
	MinStock int             `json:"minStock"`
}

// MarshalJSON sends cost and price as plain JSON numbers.
func (p NewProduct) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code     string      `json:"codigo"`
		Name     string      `json:"nombre"`
		Quantity int         `json:"cantidad"`
		Cost     json.Number `json:"costo"`
		Price    json.Number `json:"precio"`
		MinStock int         `json:"minStock"`
	}{p.Code, p.Name, p.Quantity, json.Number(p.Cost.String()), json.Number(p.Price.StringFixed(2)), p.MinStock})
}

package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SaleRequest is the body of POST /sale and POST /sale-with-invoice-sri.
type SaleRequest struct {
	Cart   []SaleItem     `json:"cart"`
	Seller string         `json:"vendedor"`
	Client *ClientProfile `json:"cliente,omitempty"`
}

// StockAlert is a low-stock notice returned with a completed sale.
type StockAlert struct {
	Product   string          `json:"product"`
	Remaining decimal.Decimal `json:"remaining"`
}

// SaleReceipt is the POS API's acknowledgement of a plain sale.
type SaleReceipt struct {
	SaleID string          `json:"sale_id"`
	Total  decimal.Decimal `json:"total"`
	Items  int             `json:"items"`
	Alerts []StockAlert    `json:"alerts"`
}

// ClientProfile identifies the buyer of an invoiced sale.
type ClientProfile struct {
	Identification string `json:"identificacion"`
	LegalName      string `json:"razon_social"`
	Address        string `json:"direccion"`
	Email          string `json:"email"`
	Phone          string `json:"telefono"`
}

// MissingRequired returns the names of required fields left blank.
func (c ClientProfile) MissingRequired() []string {
	var missing []string
	if strings.TrimSpace(c.Identification) == "" {
		missing = append(missing, "identificacion")
	}
	if strings.TrimSpace(c.LegalName) == "" {
		missing = append(missing, "razon_social")
	}
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, "email")
	}
	return missing
}

// IsZero reports whether no field has been filled in.
func (c ClientProfile) IsZero() bool {
	return c == ClientProfile{}
}

// InvoiceResult is the tax-authority authorization for an invoiced sale.
type InvoiceResult struct {
	Number              string          `json:"number"`
	AuthorizationNumber string          `json:"authorization_number"`
	Total               decimal.Decimal `json:"total"`
	AuthorizedAt        string          `json:"authorized_at"`
	Environment         string          `json:"environment"`
	Warnings            []string        `json:"warnings"`
}

// IsProduction reports whether the invoice was authorized in the production
// environment rather than the test environment.
func (r InvoiceResult) IsProduction() bool {
	return strings.EqualFold(r.Environment, "PRODUCCION")
}

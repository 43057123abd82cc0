package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PitherGabriel/PuntodeVentaTB/models"
	"github.com/shopspring/decimal"
)

// The POS API is backed by a spreadsheet, so numeric cells arrive as JSON
// numbers, numeric strings or empty strings depending on how they were typed.
// The flex* types accept all of them.

type flexDecimal struct{ decimal.Decimal }

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		f.Decimal = decimal.Zero
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" {
		f.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	f.Decimal = d
	return nil
}

type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var d flexDecimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*f = flexInt(d.IntPart())
	return nil
}

type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid identifier %s", string(b))
	}
	*f = flexString(n.String())
	return nil
}

// flexDetails accepts a list of strings or a single string.
type flexDetails []string

func (f *flexDetails) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*f = list
		return nil
	}
	var single string
	if err := json.Unmarshal(b, &single); err != nil {
		return fmt.Errorf("invalid details %s", string(b))
	}
	if single != "" {
		*f = []string{single}
	}
	return nil
}

// envelope is the common response shape of every POS API endpoint.
type envelope struct {
	Success       bool            `json:"success"`
	Data          json.RawMessage `json:"data"`
	Message       string          `json:"message"`
	Error         string          `json:"error"`
	Details       flexDetails     `json:"details"`
	DetailsAlt    flexDetails     `json:"detalles_error"`
	SaleID        flexString      `json:"sale_id"`
	Total         flexDecimal     `json:"total"`
	Items         flexInt         `json:"items"`
	Alerts        []alertWire     `json:"alerts"`
	Invoice       *invoiceWire    `json:"invoice"`
	Authenticated bool            `json:"authenticated"`
	User          *models.User    `json:"user"`
}

func (e *envelope) failureMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func (e *envelope) failureDetails() []string {
	if len(e.Details) > 0 {
		return e.Details
	}
	return e.DetailsAlt
}

type inventoryWire struct {
	ID       flexString  `json:"ID"`
	Name     string      `json:"Nombre"`
	Quantity flexInt     `json:"Cantidad"`
	Price    flexDecimal `json:"Precio"`
	Cost     flexDecimal `json:"Costo"`
	MinStock flexInt     `json:"MinStock"`
	Code     flexString  `json:"Codigo"`
}

func (w inventoryWire) toProduct() models.Product {
	return models.Product{
		ID:       string(w.ID),
		Code:     string(w.Code),
		Name:     w.Name,
		Price:    w.Price.Decimal,
		Cost:     w.Cost.Decimal,
		Quantity: int(w.Quantity),
		MinStock: int(w.MinStock),
	}
}

type alertWire struct {
	Product   string      `json:"producto"`
	Remaining flexDecimal `json:"cantidad_restante"`
}

type invoiceWire struct {
	Number              flexString  `json:"numero_factura"`
	AuthorizationNumber flexString  `json:"numero_autorizacion"`
	Total               flexDecimal `json:"total"`
	AuthorizedAt        string      `json:"fecha_autorizacion"`
	Environment         string      `json:"ambiente"`
	Warnings            flexDetails `json:"advertencias"`
}

func (w invoiceWire) toResult() models.InvoiceResult {
	return models.InvoiceResult{
		Number:              string(w.Number),
		AuthorizationNumber: string(w.AuthorizationNumber),
		Total:               w.Total.Decimal,
		AuthorizedAt:        w.AuthorizedAt,
		Environment:         w.Environment,
		Warnings:            w.Warnings,
	}
}

type saleRecordWire struct {
	SaleID    flexString  `json:"VentaID"`
	Date      flexString  `json:"Fecha"`
	Time      flexString  `json:"Hora"`
	Name      string      `json:"Nombre"`
	Code      flexString  `json:"Codigo"`
	Quantity  flexDecimal `json:"Cantidad"`
	UnitPrice flexDecimal `json:"PrecioUnitario"`
	Subtotal  flexDecimal `json:"Subtotal"`
	SaleTotal flexDecimal `json:"TotalVenta"`
	Seller    string      `json:"Vendedor"`
}

func (w saleRecordWire) toRecord() models.SaleRecord {
	return models.SaleRecord{
		SaleID:    string(w.SaleID),
		Date:      string(w.Date),
		Time:      string(w.Time),
		Name:      w.Name,
		Code:      string(w.Code),
		Quantity:  w.Quantity.Decimal,
		UnitPrice: w.UnitPrice.Decimal,
		Subtotal:  w.Subtotal.Decimal,
		SaleTotal: w.SaleTotal.Decimal,
		Seller:    w.Seller,
	}
}

func toRecords(ws []saleRecordWire) []models.SaleRecord {
	out := make([]models.SaleRecord, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toRecord())
	}
	return out
}

type summaryWire struct {
	Date        string           `json:"date"`
	TotalSales  flexInt          `json:"total_sales"`
	TotalAmount flexDecimal      `json:"total_amount"`
	ItemsSold   flexDecimal      `json:"items_sold"`
	Sales       []saleRecordWire `json:"sales"`
}

type productProfitWire struct {
	Product  string      `json:"producto"`
	Code     flexString  `json:"codigo"`
	Quantity flexDecimal `json:"cantidad"`
	Revenue  flexDecimal `json:"ingresos"`
	Cost     flexDecimal `json:"costos"`
	Profit   flexDecimal `json:"utilidad"`
}

type sellerProfitWire struct {
	Seller  string      `json:"vendedor"`
	Sales   flexInt     `json:"ventas"`
	Revenue flexDecimal `json:"ingresos"`
	Profit  flexDecimal `json:"utilidad"`
}

type profitWire struct {
	Period        string              `json:"periodo"`
	TotalRevenue  flexDecimal         `json:"total_ingresos"`
	TotalCost     flexDecimal         `json:"total_costos"`
	NetProfit     flexDecimal         `json:"utilidad_neta"`
	Margin        flexDecimal         `json:"margen_total"`
	SalesCount    flexInt             `json:"total_ventas"`
	UnitsSold     flexDecimal         `json:"total_unidades"`
	AverageTicket flexDecimal         `json:"ticket_promedio"`
	TopProducts   []productProfitWire `json:"productos_vendidos"`
	Sellers       []sellerProfitWire  `json:"vendedores"`
}

func (w profitWire) toReport() models.ProfitReport {
	r := models.ProfitReport{
		Period:        w.Period,
		TotalRevenue:  w.TotalRevenue.Decimal,
		TotalCost:     w.TotalCost.Decimal,
		NetProfit:     w.NetProfit.Decimal,
		Margin:        w.Margin.Decimal,
		SalesCount:    int(w.SalesCount),
		UnitsSold:     w.UnitsSold.Decimal,
		AverageTicket: w.AverageTicket.Decimal,
		TopProducts:   make([]models.ProductProfit, 0, len(w.TopProducts)),
		Sellers:       make([]models.SellerProfit, 0, len(w.Sellers)),
	}
	for _, p := range w.TopProducts {
		r.TopProducts = append(r.TopProducts, models.ProductProfit{
			Product:  p.Product,
			Code:     string(p.Code),
			Quantity: p.Quantity.Decimal,
			Revenue:  p.Revenue.Decimal,
			Cost:     p.Cost.Decimal,
			Profit:   p.Profit.Decimal,
		})
	}
	for _, s := range w.Sellers {
		r.Sellers = append(r.Sellers, models.SellerProfit{
			Seller:  s.Seller,
			Sales:   int(s.Sales),
			Revenue: s.Revenue.Decimal,
			Profit:  s.Profit.Decimal,
		})
	}
	return r
}

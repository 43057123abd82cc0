package services

import (
	"strings"

	"github.com/PitherGabriel/PuntodeVentaTB/apperrors"
	"github.com/PitherGabriel/PuntodeVentaTB/models"
	"github.com/shopspring/decimal"
)

// CartStore is the list of lines pending sale. Stock checks always read the
// current InventoryCache, so a refresh changes the ceiling for lines already
// in the cart. It is not safe for concurrent use; Terminal serialises access.
type CartStore struct {
	inventory *InventoryCache
	lines     []models.CartLine
}

func NewCartStore(inventory *InventoryCache) *CartStore {
	return &CartStore{inventory: inventory}
}

// AddItem adds one unit of the product, creating the line if needed.
func (s *CartStore) AddItem(productID string) (models.CartLine, error) {
	p, ok := s.inventory.Get(productID)
	if !ok {
		return models.CartLine{}, apperrors.NotFound("product " + productID)
	}
	if p.Quantity <= 0 {
		return models.CartLine{}, apperrors.OutOfStock(p.Name)
	}

	if i := s.find(productID); i >= 0 {
		if s.lines[i].Quantity >= p.Quantity {
			return models.CartLine{}, apperrors.StockExceeded(p.Name, p.Quantity)
		}
		s.lines[i].Quantity++
		return s.lines[i], nil
	}

	line := models.CartLine{
		ProductID: p.ID,
		Code:      p.Code,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  1,
	}
	s.lines = append(s.lines, line)
	return line, nil
}

// ChangeQuantity adjusts a line by delta. A result of zero or less removes the
// line; a result above the cached stock is rejected and the cart is unchanged.
func (s *CartStore) ChangeQuantity(productID string, delta int) error {
	i := s.find(productID)
	if i < 0 {
		return apperrors.NotInCart(productID)
	}

	newQty := s.lines[i].Quantity + delta
	if newQty <= 0 {
		s.RemoveItem(productID)
		return nil
	}

	available := 0
	if p, ok := s.inventory.Get(productID); ok {
		available = p.Quantity
	}
	if newQty > available {
		return apperrors.StockExceeded(s.lines[i].Name, available)
	}

	s.lines[i].Quantity = newQty
	return nil
}

// RemoveItem deletes the line for productID. Removing an absent line is a no-op.
func (s *CartStore) RemoveItem(productID string) {
	i := s.find(productID)
	if i < 0 {
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
}

// Total is the sum of price times quantity over all lines.
func (s *CartStore) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ChangeDue returns received minus the cart total, rounded to cents. A
// negative value is the amount still owed. ok is false when the cart is empty
// or received is not a non-negative number.
func (s *CartStore) ChangeDue(received string) (change decimal.Decimal, ok bool) {
	if s.IsEmpty() {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(received))
	if err != nil || amount.IsNegative() {
		return decimal.Zero, false
	}
	return amount.Sub(s.Total()).Round(2), true
}

// Lines returns a copy of the cart lines in insertion order.
func (s *CartStore) Lines() []models.CartLine {
	return append([]models.CartLine(nil), s.lines...)
}

func (s *CartStore) IsEmpty() bool { return len(s.lines) == 0 }

func (s *CartStore) Clear() { s.lines = nil }

func (s *CartStore) find(productID string) int {
	for i, l := range s.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

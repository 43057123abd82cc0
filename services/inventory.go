package services

import (
	"github.com/PitherGabriel/PuntodeVentaTB/models"
)

// InventoryCache holds the last catalog successfully fetched from the POS API.
// It is not safe for concurrent use; Terminal serialises access to it.
type InventoryCache struct {
	products []models.Product
	index    map[string]int
	loaded   bool
	lastErr  error
	stale    bool
}

func NewInventoryCache() *InventoryCache {
	return &InventoryCache{index: map[string]int{}}
}

// Replace overwrites the cache with a freshly fetched catalog and clears any
// failure or staleness flag.
func (c *InventoryCache) Replace(products []models.Product) {
	c.products = append([]models.Product(nil), products...)
	c.reindex()
	c.loaded = true
	c.lastErr = nil
	c.stale = false
}

// Fail records a failed refresh. The previous catalog stays in place.
func (c *InventoryCache) Fail(err error) {
	c.lastErr = err
}

// Snapshot returns a copy of the catalog in the order the POS API returned it.
func (c *InventoryCache) Snapshot() []models.Product {
	return append([]models.Product(nil), c.products...)
}

func (c *InventoryCache) Get(id string) (models.Product, bool) {
	i, ok := c.index[id]
	if !ok {
		return models.Product{}, false
	}
	return c.products[i], true
}

// LowStock lists products whose quantity is at or below their minimum stock.
func (c *InventoryCache) LowStock() []models.Product {
	out := []models.Product{}
	for _, p := range c.products {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	return out
}

func (c *InventoryCache) Loaded() bool { return c.loaded }

func (c *InventoryCache) Failed() bool { return c.lastErr != nil }

func (c *InventoryCache) LastError() error { return c.lastErr }

// MarkStale flags the cache as out of date with the server. Checkout refuses
// to submit until the next successful Replace.
func (c *InventoryCache) MarkStale() { c.stale = true }

func (c *InventoryCache) Stale() bool { return c.stale }

// ApplySale decrements the cached stock by the quantities in lines.
func (c *InventoryCache) ApplySale(lines []models.CartLine) {
	c.products = ApplySale(c.products, lines)
	c.reindex()
}

// Clear empties the cache, as after a logout.
func (c *InventoryCache) Clear() {
	c.products = nil
	c.index = map[string]int{}
	c.loaded = false
	c.lastErr = nil
	c.stale = false
}

func (c *InventoryCache) reindex() {
	c.index = make(map[string]int, len(c.products))
	for i, p := range c.products {
		c.index[p.ID] = i
	}
}

// ApplySale returns a new catalog with each sold quantity subtracted from the
// matching product. Products not in lines are copied unchanged and stock never
// goes below zero. The input slice is not modified.
func ApplySale(products []models.Product, lines []models.CartLine) []models.Product {
	sold := make(map[string]int, len(lines))
	for _, l := range lines {
		sold[l.ProductID] += l.Quantity
	}

	out := make([]models.Product, len(products))
	for i, p := range products {
		if qty, ok := sold[p.ID]; ok {
			p.Quantity -= qty
			if p.Quantity < 0 {
				p.Quantity = 0
			}
		}
		out[i] = p
	}
	return out
}

package services

import (
	"sync"

	"github.com/PitherGabriel/PuntodeVentaTB/apperrors"
	"github.com/PitherGabriel/PuntodeVentaTB/config"
	"github.com/PitherGabriel/PuntodeVentaTB/models"
	"github.com/shopspring/decimal"
)

// CheckoutState is the state of the single checkout slot.
type CheckoutState string

const (
	CheckoutIdle       CheckoutState = "idle"
	CheckoutSubmitting CheckoutState = "submitting"
)

// TerminalView is an immutable snapshot of the terminal for rendering.
type TerminalView struct {
	Features      config.Features       `json:"features"`
	Seller        string                `json:"seller"`
	User          *models.User          `json:"user,omitempty"`
	Authenticated bool                  `json:"authenticated"`
	Catalog       []models.Product      `json:"catalog"`
	CatalogLoaded bool                  `json:"catalog_loaded"`
	CatalogError  string                `json:"catalog_error,omitempty"`
	CatalogStale  bool                  `json:"catalog_stale"`
	LowStock      []models.Product      `json:"low_stock"`
	Cart          []models.CartLine     `json:"cart"`
	CartTotal     decimal.Decimal       `json:"cart_total"`
	CartUnits     int                   `json:"cart_units"`
	Client        models.ClientProfile  `json:"client"`
	Checkout      CheckoutState         `json:"checkout"`
	LastReceipt   *models.SaleReceipt   `json:"last_receipt,omitempty"`
	LastInvoice   *models.InvoiceResult `json:"last_invoice,omitempty"`
}

// Terminal owns all state of one POS terminal: catalog, cart, client draft,
// session and checkout slot. Every transition runs under mu; network calls
// are made by the services outside the lock.
type Terminal struct {
	mu            sync.Mutex
	features      config.Features
	defaultSeller string

	inventory *InventoryCache
	cart      *CartStore
	client    models.ClientProfile
	user      *models.User

	checkout       CheckoutState
	// signOutPending defers a sign-out that arrived while a sale was in flight.
	signOutPending bool
	lastReceipt    *models.SaleReceipt
	lastInvoice    *models.InvoiceResult
}

func NewTerminal(features config.Features, defaultSeller string) *Terminal {
	inv := NewInventoryCache()
	return &Terminal{
		features:      features,
		defaultSeller: defaultSeller,
		inventory:     inv,
		cart:          NewCartStore(inv),
		checkout:      CheckoutIdle,
	}
}

func (t *Terminal) Features() config.Features { return t.features }

// State returns a snapshot of the terminal.
func (t *Terminal) State() TerminalView {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines := t.cart.Lines()
	units := 0
	for _, l := range lines {
		units += l.Quantity
	}

	v := TerminalView{
		Features:      t.features,
		Seller:        t.sellerLocked(),
		Authenticated: t.user != nil,
		Catalog:       t.inventory.Snapshot(),
		CatalogLoaded: t.inventory.Loaded(),
		CatalogStale:  t.inventory.Stale(),
		LowStock:      t.inventory.LowStock(),
		Cart:          lines,
		CartTotal:     t.cart.Total(),
		CartUnits:     units,
		Client:        t.client,
		Checkout:      t.checkout,
	}
	if t.user != nil {
		u := *t.user
		v.User = &u
	}
	if err := t.inventory.LastError(); err != nil {
		v.CatalogError = err.Error()
	}
	if t.lastReceipt != nil {
		r := *t.lastReceipt
		v.LastReceipt = &r
	}
	if t.lastInvoice != nil {
		inv := *t.lastInvoice
		v.LastInvoice = &inv
	}
	return v
}

// Seller is the name recorded as salesperson on sales.
func (t *Terminal) Seller() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sellerLocked()
}

func (t *Terminal) sellerLocked() string {
	if t.features.Auth && t.user != nil {
		return t.user.DisplayName()
	}
	return t.defaultSeller
}

// AddToCart adds one unit of productID to the cart.
func (t *Terminal) AddToCart(productID string) (models.CartLine, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.editableLocked(); err != nil {
		return models.CartLine{}, err
	}
	return t.cart.AddItem(productID)
}

func (t *Terminal) ChangeQuantity(productID string, delta int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.editableLocked(); err != nil {
		return err
	}
	return t.cart.ChangeQuantity(productID, delta)
}

func (t *Terminal) RemoveFromCart(productID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.editableLocked(); err != nil {
		return err
	}
	t.cart.RemoveItem(productID)
	return nil
}

// CartTotal is the current cart total.
func (t *Terminal) CartTotal() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cart.Total()
}

// ChangeDue is the change owed for received against the current cart.
func (t *Terminal) ChangeDue(received string) (decimal.Decimal, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cart.ChangeDue(received)
}

// SetClient replaces the client profile draft used by invoiced sales.
func (t *Terminal) SetClient(profile models.ClientProfile) error {
	if !t.features.Invoicing {
		return apperrors.FeatureDisabled("invoicing")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.editableLocked(); err != nil {
		return err
	}
	t.client = profile
	return nil
}

func (t *Terminal) ClearClient() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.editableLocked(); err != nil {
		return err
	}
	t.client = models.ClientProfile{}
	return nil
}

// DismissInvoice drops the retained invoice result.
func (t *Terminal) DismissInvoice() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastInvoice = nil
}

// Catalog returns a copy of the cached catalog.
func (t *Terminal) Catalog() []models.Product {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inventory.Snapshot()
}

func (t *Terminal) LowStock() []models.Product {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inventory.LowStock()
}

func (t *Terminal) editableLocked() error {
	if t.checkout == CheckoutSubmitting {
		return apperrors.ErrSubmissionInProgress
	}
	return nil
}

func (t *Terminal) replaceInventory(products []models.Product) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inventory.Replace(products)
}

func (t *Terminal) failInventory(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inventory.Fail(err)
}

// checkoutTicket is what a submission carries outside the lock.
type checkoutTicket struct {
	lines  []models.CartLine
	seller string
	client models.ClientProfile
}

// beginCheckout validates the cart and claims the checkout slot.
func (t *Terminal) beginCheckout(invoiced bool) (checkoutTicket, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.checkout == CheckoutSubmitting {
		return checkoutTicket{}, apperrors.ErrSubmissionInProgress
	}
	if t.features.Auth && t.user == nil {
		return checkoutTicket{}, apperrors.ErrUnauthorized
	}
	if t.cart.IsEmpty() {
		return checkoutTicket{}, apperrors.ErrEmptyCart
	}
	if invoiced {
		if missing := t.client.MissingRequired(); len(missing) > 0 {
			return checkoutTicket{}, apperrors.MissingClientFields(missing...)
		}
	}
	if t.inventory.Stale() {
		return checkoutTicket{}, apperrors.ErrStaleInventory
	}

	t.checkout = CheckoutSubmitting
	return checkoutTicket{
		lines:  t.cart.Lines(),
		seller: t.sellerLocked(),
		client: t.client,
	}, nil
}

// abortCheckout releases the slot after a failed submission. Cart, client and
// catalog are left as they were; stale marks the catalog for refresh.
func (t *Terminal) abortCheckout(stale bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checkout = CheckoutIdle
	if stale {
		t.inventory.MarkStale()
	}
	t.applyPendingSignOutLocked()
}

// completeCheckout applies a confirmed sale: stock is decremented, the cart is
// cleared and, for an invoiced sale, the client draft is dropped and the
// invoice retained. It returns the low-stock list after the sale.
func (t *Terminal) completeCheckout(ticket checkoutTicket, receipt *models.SaleReceipt, invoice *models.InvoiceResult) []models.Product {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.inventory.ApplySale(ticket.lines)
	t.cart.Clear()
	t.checkout = CheckoutIdle
	if receipt != nil {
		t.lastReceipt = receipt
	}
	if invoice != nil {
		t.client = models.ClientProfile{}
		t.lastInvoice = invoice
	}
	lowStock := t.inventory.LowStock()
	t.applyPendingSignOutLocked()
	return lowStock
}

func (t *Terminal) signIn(user models.User) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.signOutPending = false
	t.user = &user
}

// ensureIdle fails while a checkout holds the slot.
func (t *Terminal) ensureIdle() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.editableLocked()
}

// signOut drops the session together with cart, client draft and catalog.
// While a sale is in flight the sign-out is deferred until the slot is
// released, so the submission resolves against the state it started from.
// It reports whether the sign-out was deferred.
func (t *Terminal) signOut() (deferred bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.checkout == CheckoutSubmitting {
		t.signOutPending = true
		return true
	}
	t.signOutLocked()
	return false
}

func (t *Terminal) applyPendingSignOutLocked() {
	if t.signOutPending {
		t.signOutLocked()
	}
}

func (t *Terminal) signOutLocked() {
	t.signOutPending = false
	t.user = nil
	t.cart.Clear()
	t.client = models.ClientProfile{}
	t.inventory.Clear()
	t.lastReceipt = nil
	t.lastInvoice = nil
}

// Authenticated reports whether an operator is signed in.
func (t *Terminal) Authenticated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.user != nil
}

package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an Error for callers and for the HTTP layer.
type Kind string

const (
	KindValidation           Kind = "validation"
	KindEmptyCart            Kind = "empty_cart"
	KindMissingClientField   Kind = "missing_required_client_field"
	KindOutOfStock           Kind = "out_of_stock"
	KindStockExceeded        Kind = "stock_exceeded"
	KindNotInCart            Kind = "not_in_cart"
	KindNotFound             Kind = "not_found"
	KindSubmissionInProgress Kind = "submission_in_progress"
	KindStaleInventory       Kind = "stale_inventory"
	KindNetwork              Kind = "network_error"
	KindGatewayRejected      Kind = "gateway_rejected"
	KindUnauthorized         Kind = "unauthorized"
	KindFeatureDisabled      Kind = "feature_disabled"
	KindRateLimited          Kind = "rate_limited"
	KindInternal             Kind = "internal"
)

// Error represents an application error
type Error struct {
	Code    int      `json:"-"`
	Kind    Kind     `json:"kind"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	Err     error    `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so the sentinel
// values below work with errors.Is regardless of message or details.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a new Error
func New(code int, kind Kind, message string, err error) *Error {
	return &Error{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Sentinels for errors.Is checks. Never mutate these; use the constructors.
var (
	ErrValidation           = New(http.StatusBadRequest, KindValidation, "Validation error", nil)
	ErrEmptyCart            = New(http.StatusBadRequest, KindEmptyCart, "Cart is empty", nil)
	ErrMissingClientField   = New(http.StatusBadRequest, KindMissingClientField, "Missing required client field", nil)
	ErrOutOfStock           = New(http.StatusConflict, KindOutOfStock, "Product is out of stock", nil)
	ErrStockExceeded        = New(http.StatusConflict, KindStockExceeded, "Not enough stock", nil)
	ErrNotInCart            = New(http.StatusNotFound, KindNotInCart, "Product is not in the cart", nil)
	ErrNotFound             = New(http.StatusNotFound, KindNotFound, "Not found", nil)
	ErrSubmissionInProgress = New(http.StatusConflict, KindSubmissionInProgress, "A checkout is already in progress", nil)
	ErrStaleInventory       = New(http.StatusConflict, KindStaleInventory, "Inventory must be refreshed before retrying", nil)
	ErrNetwork              = New(http.StatusBadGateway, KindNetwork, "POS API unreachable", nil)
	ErrGatewayRejected      = New(http.StatusUnprocessableEntity, KindGatewayRejected, "POS API rejected the request", nil)
	ErrUnauthorized         = New(http.StatusUnauthorized, KindUnauthorized, "Unauthorized", nil)
	ErrFeatureDisabled      = New(http.StatusNotFound, KindFeatureDisabled, "Feature disabled", nil)
	ErrRateLimited          = New(http.StatusTooManyRequests, KindRateLimited, "Rate limit exceeded. Please try again later.", nil)
	ErrInternal             = New(http.StatusInternalServerError, KindInternal, "Internal server error", nil)
)

// Validation builds a validation error caught before any network call.
func Validation(message string) *Error {
	return New(http.StatusBadRequest, KindValidation, message, nil)
}

// MissingClientFields lists the required client fields that were left blank.
func MissingClientFields(fields ...string) *Error {
	e := New(http.StatusBadRequest, KindMissingClientField, "Missing required client fields", nil)
	e.Details = fields
	return e
}

// Network wraps a transport failure talking to the POS API.
func Network(op string, err error) *Error {
	return New(http.StatusBadGateway, KindNetwork, op+" failed: POS API unreachable", err)
}

// Rejected carries the POS API's own message and details verbatim.
func Rejected(message string, details []string) *Error {
	if message == "" {
		message = "Unknown error"
	}
	e := New(http.StatusUnprocessableEntity, KindGatewayRejected, message, nil)
	e.Details = details
	return e
}

// Wrap keeps an *Error as is and turns anything else into an internal error.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(http.StatusInternalServerError, KindInternal, "Internal server error", err)
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// OutOfStock is returned when a product with no stock is added to the cart.
func OutOfStock(product string) *Error {
	return New(http.StatusConflict, KindOutOfStock, fmt.Sprintf("%s is out of stock", product), nil)
}

// StockExceeded is returned when a cart line would exceed the cached stock.
func StockExceeded(product string, available int) *Error {
	return New(http.StatusConflict, KindStockExceeded, fmt.Sprintf("only %d of %s in stock", available, product), nil)
}

// NotInCart is returned when a cart line operation names a product that is not in the cart.
func NotInCart(productID string) *Error {
	return New(http.StatusNotFound, KindNotInCart, fmt.Sprintf("product %s is not in the cart", productID), nil)
}

// NotFound is returned when a named resource does not exist.
func NotFound(what string) *Error {
	return New(http.StatusNotFound, KindNotFound, what+" not found", nil)
}

// FeatureDisabled is returned for operations behind a disabled feature flag.
func FeatureDisabled(feature string) *Error {
	return New(http.StatusNotFound, KindFeatureDisabled, feature+" is disabled", nil)
}

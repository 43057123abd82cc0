package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := Rejected("Stock insuficiente", []string{"CAM001"})

	assert.True(t, errors.Is(err, ErrGatewayRejected))
	assert.False(t, errors.Is(err, ErrNetwork))

	wrapped := fmt.Errorf("submit: %w", err)
	assert.True(t, errors.Is(wrapped, ErrGatewayRejected))
	assert.Equal(t, KindGatewayRejected, KindOf(wrapped))
}

func TestError_MessageIncludesDetailsAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Network("submit sale", cause)

	assert.Equal(t, http.StatusBadGateway, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")

	rej := Rejected("", []string{"a", "b"})
	assert.Equal(t, "Unknown error (a; b)", rej.Error())
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil))
	assert.Same(t, ErrEmptyCart, Wrap(ErrEmptyCart))

	internal := Wrap(errors.New("boom"))
	assert.Equal(t, KindInternal, internal.Kind)
	assert.Equal(t, http.StatusInternalServerError, internal.Code)
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

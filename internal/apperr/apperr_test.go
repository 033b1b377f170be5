package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"storefront/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(apperr.NotFound("cart not found")))
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(errors.New("boom")))

	wrapped := fmt.Errorf("add item: %w", apperr.InsufficientStock("only 2 left"))
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(wrapped))
	assert.True(t, apperr.Is(wrapped, apperr.KindInsufficientStock))
	assert.False(t, apperr.Is(nil, apperr.KindInsufficientStock))
}

func TestMessageOfHidesInternalCauses(t *testing.T) {
	err := apperr.Internal("failed to load cart", errors.New("pq: connection refused"))
	assert.Equal(t, "internal server error", apperr.MessageOf(err))
	assert.Contains(t, err.Error(), "connection refused")

	up := apperr.Upstream("payment processor unavailable", errors.New("timeout"))
	assert.Equal(t, "payment processor unavailable", apperr.MessageOf(up))
	assert.ErrorContains(t, errors.Unwrap(up), "timeout")
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPurchase_StartsPending(t *testing.T) {
	p, err := NewPurchase("game-1", "user-1", 59.9)

	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, PurchasePending, p.Status)
	assert.Equal(t, "game-1", p.PaymentRequest().GameID)
}

func TestNewPurchase_Invalid(t *testing.T) {
	_, err := NewPurchase("", "user-1", 10)
	assert.ErrorIs(t, err, ErrInvalidPurchase)

	_, err = NewPurchase("game-1", "user-1", -1)
	assert.ErrorIs(t, err, ErrInvalidPurchase)
}

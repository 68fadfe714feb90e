package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PurchaseStatus string

const (
	PurchasePending PurchaseStatus = "PENDING"
	PurchasePaid    PurchaseStatus = "PAID"
	PurchaseFailed  PurchaseStatus = "FAILED"
)

type Purchase struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	GameID    string         `json:"game_id"`
	Amount    float64        `json:"amount"`
	Status    PurchaseStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewPurchase crea una compra en estado PENDING.
// El paso a PAID/FAILED lo hace el proceso de pagos externo.
func NewPurchase(gameID, userID string, amount float64) (*Purchase, error) {
	gameID = strings.TrimSpace(gameID)
	userID = strings.TrimSpace(userID)
	if gameID == "" || userID == "" {
		return nil, fmt.Errorf("%w: game and user are required", ErrInvalidPurchase)
	}
	if amount < 0 {
		return nil, fmt.Errorf("%w: negative amount", ErrInvalidPurchase)
	}
	return &Purchase{
		ID:        uuid.NewString(),
		UserID:    userID,
		GameID:    gameID,
		Amount:    amount,
		Status:    PurchasePending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// PaymentRequest es el payload que el relayer envía a la cola de pagos.
type PaymentRequest struct {
	PurchaseID string    `json:"purchaseId"`
	GameID     string    `json:"gameId"`
	UserID     string    `json:"userId"`
	Amount     float64   `json:"amount"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (p *Purchase) PaymentRequest() PaymentRequest {
	return PaymentRequest{
		PurchaseID: p.ID,
		GameID:     p.GameID,
		UserID:     p.UserID,
		Amount:     p.Amount,
		CreatedAt:  p.CreatedAt,
	}
}

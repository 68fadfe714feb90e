package domain

import (
	"context"
	"errors"

	sharedDomain "github.com/davicafu/gamehub/internal/shared/domain"
)

// ---------- Errores de dominio ----------
var (
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrInvalidPurchase  = errors.New("invalid purchase")
)

// PurchaseRepository persiste compras junto con su evento de outbox.
type PurchaseRepository interface {
	// Create inserta la compra y el evento de outbox de forma atómica.
	Create(ctx context.Context, p *Purchase, evt sharedDomain.OutboxEvent) error

	// Debe devolver ErrPurchaseNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Purchase, error)
}

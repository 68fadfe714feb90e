package application

import (
	"context"
	"errors"
	"fmt"

	gameDomain "github.com/davicafu/gamehub/internal/game/domain"
	purchaseDomain "github.com/davicafu/gamehub/internal/purchase/domain"
	sharedDomain "github.com/davicafu/gamehub/internal/shared/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventRecorder es el event log visto desde los casos de uso de compras.
type EventRecorder interface {
	Record(ctx context.Context, evt sharedDomain.DomainEvent) error
}

// PurchaseService define los casos de uso de compras.
type PurchaseService struct {
	repo   purchaseDomain.PurchaseRepository
	games  gameDomain.GameRepository
	events EventRecorder
	log    *zap.Logger
}

func NewPurchaseService(repo purchaseDomain.PurchaseRepository, games gameDomain.GameRepository, events EventRecorder, log *zap.Logger) *PurchaseService {
	return &PurchaseService{repo: repo, games: games, events: events, log: log}
}

// CreatePurchase crea una compra PENDING junto con su evento de outbox para la cola de pagos.
// El importe es el precio actual del juego.
func (s *PurchaseService) CreatePurchase(ctx context.Context, gameID, userID string) (*purchaseDomain.Purchase, error) {
	if _, err := uuid.Parse(gameID); err != nil {
		return nil, fmt.Errorf("%w: %w", purchaseDomain.ErrInvalidPurchase, gameDomain.ErrInvalidGameID)
	}

	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	p, err := purchaseDomain.NewPurchase(game.ID, userID, game.Price)
	if err != nil {
		return nil, err
	}

	outboxEvent, err := sharedDomain.NewOutboxEvent(purchaseDomain.PurchaseAggregate, p.ID, purchaseDomain.PurchaseCreated, p.PaymentRequest())
	if err != nil {
		return nil, fmt.Errorf("build outbox event: %w", err)
	}

	if err := s.repo.Create(ctx, p, outboxEvent); err != nil {
		s.log.Error("Failed to create purchase", zap.String("game_id", gameID), zap.Error(err))
		return nil, err
	}

	evt := sharedDomain.NewDomainEvent(p.ID, purchaseDomain.GamePurchased, map[string]interface{}{
		"gameId": p.GameID,
		"userId": p.UserID,
		"amount": p.Amount,
		"status": string(p.Status),
	})
	if err := s.events.Record(ctx, evt); err != nil {
		// La compra ya es durable; solo se informa del fallo del log.
		s.log.Error("Failed to record purchase event", zap.String("purchase_id", p.ID), zap.Error(err))
		return p, err
	}

	s.log.Info("Purchase created", zap.String("purchase_id", p.ID), zap.String("game_id", p.GameID))
	return p, nil
}

// GetPurchase obtiene una compra por id.
func (s *PurchaseService) GetPurchase(ctx context.Context, id string) (*purchaseDomain.Purchase, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, purchaseDomain.ErrPurchaseNotFound) {
			s.log.Error("Failed to fetch purchase", zap.String("purchase_id", id), zap.Error(err))
		}
		return nil, err
	}
	return p, nil
}

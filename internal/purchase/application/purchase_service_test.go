package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	gameDomain "github.com/davicafu/gamehub/internal/game/domain"
	"github.com/davicafu/gamehub/internal/mocks"
	purchaseDomain "github.com/davicafu/gamehub/internal/purchase/domain"
	"github.com/davicafu/gamehub/internal/shared/eventlog"
)

func TestCreatePurchase_Success(t *testing.T) {
	// Arrange
	gameID := uuid.NewString()
	repo := mocks.NewInMemoryPurchaseRepo()
	store := mocks.NewInMemoryEventStore()
	games := mocks.NewInMemoryGameRepo(gameDomain.Game{ID: gameID, Price: 59.9})
	service := NewPurchaseService(repo, games, eventlog.NewAppender(store, true, zap.NewNop()), zap.NewNop())

	// Act
	p, err := service.CreatePurchase(context.Background(), gameID, "user-1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, purchaseDomain.PurchasePending, p.Status)
	assert.Equal(t, 59.9, p.Amount)

	// Verificar que se creó un evento Outbox con la petición de pago
	require.Len(t, repo.Outbox, 1)
	assert.Equal(t, purchaseDomain.PurchaseCreated, repo.Outbox[0].EventType)
	assert.Equal(t, p.ID, repo.Outbox[0].AggregateID)
	var req purchaseDomain.PaymentRequest
	require.NoError(t, json.Unmarshal(repo.Outbox[0].Payload, &req))
	assert.Equal(t, p.ID, req.PurchaseID)

	assert.Len(t, store.OfType(purchaseDomain.GamePurchased), 1)

	stored, err := service.GetPurchase(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, gameID, stored.GameID)
}

func TestCreatePurchase_UnknownGame(t *testing.T) {
	repo := mocks.NewInMemoryPurchaseRepo()
	service := NewPurchaseService(repo, mocks.NewInMemoryGameRepo(), eventlog.NewAppender(mocks.NewInMemoryEventStore(), true, zap.NewNop()), zap.NewNop())

	_, err := service.CreatePurchase(context.Background(), uuid.NewString(), "user-1")

	assert.ErrorIs(t, err, gameDomain.ErrGameNotFound)
	assert.Empty(t, repo.Outbox)
}

func TestCreatePurchase_InvalidInput(t *testing.T) {
	gameID := uuid.NewString()
	service := NewPurchaseService(mocks.NewInMemoryPurchaseRepo(), mocks.NewInMemoryGameRepo(gameDomain.Game{ID: gameID}),
		eventlog.NewAppender(mocks.NewInMemoryEventStore(), true, zap.NewNop()), zap.NewNop())

	_, err := service.CreatePurchase(context.Background(), "bad", "user-1")
	assert.ErrorIs(t, err, purchaseDomain.ErrInvalidPurchase)

	_, err = service.CreatePurchase(context.Background(), gameID, " ")
	assert.ErrorIs(t, err, purchaseDomain.ErrInvalidPurchase)
}

func TestCreatePurchase_RepoFailureSkipsEvent(t *testing.T) {
	gameID := uuid.NewString()
	repo := mocks.NewInMemoryPurchaseRepo()
	repo.Err = errors.New("transaction aborted")
	store := mocks.NewInMemoryEventStore()
	service := NewPurchaseService(repo, mocks.NewInMemoryGameRepo(gameDomain.Game{ID: gameID}), eventlog.NewAppender(store, true, zap.NewNop()), zap.NewNop())

	_, err := service.CreatePurchase(context.Background(), gameID, "user-1")

	assert.Error(t, err)
	assert.Empty(t, store.Events())
}

func TestGetPurchase_NotFound(t *testing.T) {
	service := NewPurchaseService(mocks.NewInMemoryPurchaseRepo(), mocks.NewInMemoryGameRepo(),
		eventlog.NewAppender(mocks.NewInMemoryEventStore(), true, zap.NewNop()), zap.NewNop())

	_, err := service.GetPurchase(context.Background(), "missing")

	assert.ErrorIs(t, err, purchaseDomain.ErrPurchaseNotFound)
}

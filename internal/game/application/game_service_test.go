package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/gamehub/internal/config"
	gameDomain "github.com/davicafu/gamehub/internal/game/domain"
	"github.com/davicafu/gamehub/internal/mocks"
	"github.com/davicafu/gamehub/internal/shared/eventlog"
	sharedInfraEvents "github.com/davicafu/gamehub/internal/shared/infra/events"
)

type serviceFixture struct {
	games     *mocks.InMemoryGameRepo
	store     *mocks.InMemoryEventStore
	publisher *mocks.RecordingPublisher
	purchases *mocks.InMemoryPurchaseRepo
	service   *GameService
}

func newServiceFixture(strict bool, games ...gameDomain.Game) *serviceFixture {
	f := &serviceFixture{
		games:     mocks.NewInMemoryGameRepo(games...),
		store:     mocks.NewInMemoryEventStore(),
		publisher: &mocks.RecordingPublisher{},
		purchases: mocks.NewInMemoryPurchaseRepo(),
	}
	searcher := &mocks.FakeSearcher{Games: games}
	recs := NewRecommendationService(f.purchases, f.games, searcher, nil, time.Minute, zap.NewNop())
	f.service = NewGameService(f.games, searcher, recs, eventlog.NewAppender(f.store, strict, zap.NewNop()), f.publisher, nil, zap.NewNop())
	return f
}

func TestGetGame_Found(t *testing.T) {
	id := uuid.NewString()
	f := newServiceFixture(true, gameDomain.Game{ID: id, Name: "Hades"})

	g, err := f.service.GetGame(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, "Hades", g.Name)
	assert.Len(t, f.store.OfType(gameDomain.GameFetched), 1)
}

func TestGetGame_NotFound(t *testing.T) {
	f := newServiceFixture(true)

	_, err := f.service.GetGame(context.Background(), uuid.NewString())

	assert.ErrorIs(t, err, gameDomain.ErrGameNotFound)
	assert.Len(t, f.store.OfType(gameDomain.GameNotFound), 1)
}

func TestGetGame_InvalidID(t *testing.T) {
	f := newServiceFixture(true)

	_, err := f.service.GetGame(context.Background(), "not-a-uuid")

	assert.ErrorIs(t, err, gameDomain.ErrInvalidGameID)
	assert.Empty(t, f.store.Events())
}

func TestStartGame_RecordsAndPublishes(t *testing.T) {
	// ARRANGE
	id := uuid.NewString()
	f := newServiceFixture(true, gameDomain.Game{ID: id})

	// ACT
	err := f.service.StartGame(context.Background(), id, "user-1")

	// ASSERT
	require.NoError(t, err)
	started := f.store.OfType(gameDomain.GameStarted)
	require.Len(t, started, 1)
	assert.Equal(t, id, started[0].AggregateID)

	published := f.publisher.Events()
	require.Len(t, published, 1)
	assert.Equal(t, gameDomain.GameStarted, published[0].EventType)
	assert.Equal(t, id, published[0].SubjectID)
	assert.Equal(t, "user-1", published[0].ActorID)

	// Los contadores solo los toca el worker.
	g, _ := f.games.GetByID(context.Background(), id)
	assert.Zero(t, g.PlayCount)
}

func TestQueueGame_RecordsAndPublishes(t *testing.T) {
	id := uuid.NewString()
	f := newServiceFixture(true, gameDomain.Game{ID: id})

	require.NoError(t, f.service.QueueGame(context.Background(), id, "user-1"))

	assert.Len(t, f.store.OfType(gameDomain.GameQueued), 1)
	assert.Equal(t, gameDomain.GameQueued, f.publisher.Events()[0].EventType)
}

func TestStartGame_UnknownGame(t *testing.T) {
	f := newServiceFixture(true)

	err := f.service.StartGame(context.Background(), uuid.NewString(), "user-1")

	assert.ErrorIs(t, err, gameDomain.ErrGameNotFound)
	assert.Empty(t, f.publisher.Events())
}

func TestStartGame_EventLogPolicy(t *testing.T) {
	tests := []struct {
		name        string
		strict      bool
		wantErr     bool
		wantPublish int
	}{
		{name: "strict aborts", strict: true, wantErr: true, wantPublish: 0},
		{name: "best-effort continues", strict: false, wantErr: false, wantPublish: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := uuid.NewString()
			f := newServiceFixture(tt.strict, gameDomain.Game{ID: id})
			f.store.Err = errors.New("mongo unavailable")

			err := f.service.StartGame(context.Background(), id, "user-1")

			if tt.wantErr {
				assert.ErrorIs(t, err, eventlog.ErrAppendFailed)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, f.publisher.Events(), tt.wantPublish)
		})
	}
}

func TestStartGame_UnresolvedQueueDoesNotFailRequest(t *testing.T) {
	// ARRANGE
	id := uuid.NewString()
	games := mocks.NewInMemoryGameRepo(gameDomain.Game{ID: id})
	store := mocks.NewInMemoryEventStore()
	queue := &mocks.FakeQueue{}
	publisher := sharedInfraEvents.NewQueuePublisher(queue, config.NewResolver("games events queue url"), time.Second, zap.NewNop())
	recs := NewRecommendationService(mocks.NewInMemoryPurchaseRepo(), games, &mocks.FakeSearcher{}, nil, time.Minute, zap.NewNop())
	service := NewGameService(games, &mocks.FakeSearcher{}, recs, eventlog.NewAppender(store, true, zap.NewNop()), publisher, nil, zap.NewNop())

	// ACT
	err := service.StartGame(context.Background(), id, "user-1")
	publisher.Close()

	// ASSERT
	assert.NoError(t, err)
	assert.Len(t, store.OfType(gameDomain.GameStarted), 1)
	assert.Empty(t, queue.Sent())
}

func TestStartGame_InvalidInput(t *testing.T) {
	f := newServiceFixture(true)

	assert.ErrorIs(t, f.service.StartGame(context.Background(), "bad", "user-1"), gameDomain.ErrInvalidGameID)
	assert.ErrorIs(t, f.service.StartGame(context.Background(), uuid.NewString(), ""), gameDomain.ErrInvalidUserID)
}

func TestSearchGames_NotesEvent(t *testing.T) {
	f := newServiceFixture(true,
		gameDomain.Game{ID: uuid.NewString(), Name: "Hades", Category: "roguelike"},
		gameDomain.Game{ID: uuid.NewString(), Name: "Celeste", Category: "platformer"},
	)

	res, err := f.service.SearchGames(context.Background(), gameDomain.SearchQuery{Text: "hades", PageSize: 500})

	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	assert.Equal(t, gameDomain.MaxLimit, res.PageSize)
	events := f.store.OfType(gameDomain.GameSearchExecuted)
	require.Len(t, events, 1)
	assert.Equal(t, "hades", events[0].Data["query"])
}

func TestPopularGames(t *testing.T) {
	f := newServiceFixture(true)

	_, err := f.service.PopularGames(context.Background(), 0)
	assert.ErrorIs(t, err, gameDomain.ErrInvalidLimit)

	games, err := f.service.PopularGames(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, games)
	assert.Len(t, f.store.OfType(gameDomain.GamePopularRequested), 1)
}

func TestRecommendations_FallbackEvent(t *testing.T) {
	f := newServiceFixture(true)

	rec, err := f.service.Recommendations(context.Background(), "user-1", 5)

	require.NoError(t, err)
	assert.True(t, rec.FromPopular)
	assert.Len(t, f.store.OfType(gameDomain.GameRecommendationsFallbackPopular), 1)
	assert.Empty(t, f.store.OfType(gameDomain.GameRecommendationsGenerated))
}

func TestPlayTrend_Disabled(t *testing.T) {
	f := newServiceFixture(true)

	_, err := f.service.PlayTrend(context.Background(), time.Now().Add(-time.Hour), time.Now())

	assert.ErrorIs(t, err, ErrAnalyticsDisabled)
}

package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	gameDomain "github.com/davicafu/gamehub/internal/game/domain"
	"github.com/davicafu/gamehub/internal/mocks"
	purchaseDomain "github.com/davicafu/gamehub/internal/purchase/domain"
	sharedCache "github.com/davicafu/gamehub/internal/shared/infra/platform/cache"
)

var catalog = []gameDomain.Game{
	{ID: "g-1", Name: "Hades", Category: "roguelike"},
	{ID: "g-2", Name: "Dead Cells", Category: "roguelike"},
	{ID: "g-3", Name: "Slay the Spire", Category: "roguelike"},
	{ID: "g-4", Name: "Celeste", Category: "platformer"},
	{ID: "g-5", Name: "Hollow Knight", Category: "platformer"},
}

func paid(user, game string, at time.Time) purchaseDomain.Purchase {
	return purchaseDomain.Purchase{ID: user + game + at.String(), UserID: user, GameID: game, Status: purchaseDomain.PurchasePaid, CreatedAt: at}
}

func newRecs(purchases *mocks.InMemoryPurchaseRepo, searcher *mocks.FakeSearcher, cache sharedCache.Cache) *RecommendationService {
	return NewRecommendationService(purchases, mocks.NewInMemoryGameRepo(catalog...), searcher, cache, time.Minute, zap.NewNop())
}

func TestPopular_RankedByPaidPurchasesWithTieBreak(t *testing.T) {
	// ARRANGE
	now := time.Now()
	purchases := mocks.NewInMemoryPurchaseRepo(
		paid("u1", "g-4", now), paid("u2", "g-4", now), paid("u3", "g-4", now),
		paid("u1", "g-2", now), paid("u2", "g-2", now),
		paid("u1", "g-1", now), paid("u2", "g-1", now),
		purchaseDomain.Purchase{ID: "p-pending", UserID: "u9", GameID: "g-5", Status: purchaseDomain.PurchasePending},
	)
	s := newRecs(purchases, &mocks.FakeSearcher{}, nil)

	// ACT
	games, err := s.Popular(context.Background(), 10)

	// ASSERT
	require.NoError(t, err)
	ids := gameIDs(games)
	assert.Equal(t, []string{"g-4", "g-1", "g-2"}, ids)
}

func TestPopular_LimitIsClamped(t *testing.T) {
	now := time.Now()
	purchases := mocks.NewInMemoryPurchaseRepo(paid("u1", "g-1", now), paid("u1", "g-2", now))
	s := newRecs(purchases, &mocks.FakeSearcher{}, nil)

	games, err := s.Popular(context.Background(), 0)

	require.NoError(t, err)
	assert.Len(t, games, 1)
}

func TestPopular_CacheHitSkipsStore(t *testing.T) {
	purchases := mocks.NewInMemoryPurchaseRepo()
	purchases.Err = errors.New("store down")
	cache := mocks.NewDummyCache()
	require.NoError(t, cache.Set(context.Background(), gameDomain.CacheKeyPopular(5), []gameDomain.Game{{ID: "g-9"}}, 60))
	s := newRecs(purchases, &mocks.FakeSearcher{}, cache)

	games, err := s.Popular(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, []string{"g-9"}, gameIDs(games))
}

func TestPopular_MissPopulatesCache(t *testing.T) {
	purchases := mocks.NewInMemoryPurchaseRepo(paid("u1", "g-3", time.Now()))
	cache := mocks.NewDummyCache()
	s := newRecs(purchases, &mocks.FakeSearcher{}, cache)

	_, err := s.Popular(context.Background(), 5)

	require.NoError(t, err)
	assert.Eventually(t, func() bool { return cache.Has(gameDomain.CacheKeyPopular(5)) }, time.Second, 10*time.Millisecond)
}

func TestWarmPopular_OverwritesCache(t *testing.T) {
	purchases := mocks.NewInMemoryPurchaseRepo(paid("u1", "g-3", time.Now()))
	cache := mocks.NewDummyCache()
	require.NoError(t, cache.Set(context.Background(), gameDomain.CacheKeyPopular(5), []gameDomain.Game{{ID: "stale"}}, 60))
	s := newRecs(purchases, &mocks.FakeSearcher{}, cache)

	require.NoError(t, s.WarmPopular(context.Background(), 5))

	var cached []gameDomain.Game
	hit, err := cache.Get(context.Background(), gameDomain.CacheKeyPopular(5), &cached)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"g-3"}, gameIDs(cached))
}

func TestRecommend_FallbackEqualsPopular(t *testing.T) {
	// ARRANGE
	now := time.Now()
	purchases := mocks.NewInMemoryPurchaseRepo(paid("u1", "g-4", now), paid("u2", "g-4", now), paid("u2", "g-1", now))
	s := newRecs(purchases, &mocks.FakeSearcher{Games: catalog}, nil)

	// ACT
	rec, err := s.Recommend(context.Background(), "newcomer", 3)
	popular, perr := s.Popular(context.Background(), 3)

	// ASSERT
	require.NoError(t, err)
	require.NoError(t, perr)
	assert.True(t, rec.FromPopular)
	assert.Equal(t, gameIDs(popular), gameIDs(rec.Games))
}

func TestRecommend_FallbackExcludesNonPaidPurchases(t *testing.T) {
	// ARRANGE: la única compra del usuario está pendiente y su juego es el más popular.
	now := time.Now()
	purchases := mocks.NewInMemoryPurchaseRepo(
		purchaseDomain.Purchase{ID: "p-1", UserID: "buyer", GameID: "g-4", Status: purchaseDomain.PurchasePending, CreatedAt: now},
		paid("u1", "g-4", now),
		paid("u2", "g-4", now),
		paid("u2", "g-1", now),
	)
	s := newRecs(purchases, &mocks.FakeSearcher{Games: catalog}, nil)

	// ACT
	rec, err := s.Recommend(context.Background(), "buyer", 5)

	// ASSERT
	require.NoError(t, err)
	assert.True(t, rec.FromPopular)
	assert.NotContains(t, gameIDs(rec.Games), "g-4")
	assert.Contains(t, gameIDs(rec.Games), "g-1")
}

func TestRecommend_FallbackFillsLimitAfterExclusion(t *testing.T) {
	now := time.Now()
	purchases := mocks.NewInMemoryPurchaseRepo(
		purchaseDomain.Purchase{ID: "p-1", UserID: "buyer", GameID: "g-4", Status: purchaseDomain.PurchaseFailed, CreatedAt: now},
		paid("u1", "g-4", now),
		paid("u2", "g-4", now),
		paid("u2", "g-1", now),
	)
	s := newRecs(purchases, &mocks.FakeSearcher{Games: catalog}, nil)

	rec, err := s.Recommend(context.Background(), "buyer", 1)

	require.NoError(t, err)
	assert.Equal(t, []string{"g-1"}, gameIDs(rec.Games))
}

func TestRecommend_ExcludesEverythingPurchased(t *testing.T) {
	// ARRANGE
	now := time.Now()
	purchases := mocks.NewInMemoryPurchaseRepo(
		paid("u1", "g-1", now),
		purchaseDomain.Purchase{ID: "p-2", UserID: "u1", GameID: "g-2", Status: purchaseDomain.PurchaseFailed, CreatedAt: now},
	)
	// El backend "se olvida" de excluir: la garantía debe aplicarla el servicio.
	searcher := &mocks.FakeSearcher{Games: catalog, LeakExcluded: true}
	s := newRecs(purchases, searcher, nil)

	// ACT
	rec, err := s.Recommend(context.Background(), "u1", 10)

	// ASSERT
	require.NoError(t, err)
	assert.False(t, rec.FromPopular)
	assert.Equal(t, []string{"g-3"}, gameIDs(rec.Games))
	require.Len(t, searcher.Seeds, 1)
	assert.Equal(t, "g-1", searcher.Seeds[0][0].ID)
}

func TestRecommend_Bounded(t *testing.T) {
	now := time.Now()
	purchases := mocks.NewInMemoryPurchaseRepo(paid("u1", "g-4", now))
	many := append([]gameDomain.Game{}, catalog...)
	for i := 0; i < 20; i++ {
		many = append(many, gameDomain.Game{ID: "p-" + string(rune('a'+i)), Category: "platformer"})
	}
	s := newRecs(purchases, &mocks.FakeSearcher{Games: many, LeakExcluded: true}, nil)

	rec, err := s.Recommend(context.Background(), "u1", 4)

	require.NoError(t, err)
	assert.Len(t, rec.Games, 4)
	assert.NotContains(t, gameIDs(rec.Games), "g-4")
}

func TestRecommend_InvalidUser(t *testing.T) {
	s := newRecs(mocks.NewInMemoryPurchaseRepo(), &mocks.FakeSearcher{}, nil)

	_, err := s.Recommend(context.Background(), "  ", 5)

	assert.ErrorIs(t, err, gameDomain.ErrInvalidUserID)
}

func gameIDs(games []gameDomain.Game) []string {
	ids := make([]string, 0, len(games))
	for _, g := range games {
		ids = append(ids, g.ID)
	}
	return ids
}

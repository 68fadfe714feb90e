package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	gameDomain "github.com/davicafu/gamehub/internal/game/domain"
	sharedCache "github.com/davicafu/gamehub/internal/shared/infra/platform/cache"
	sharedUtils "github.com/davicafu/gamehub/internal/shared/infra/utils"
	"go.uber.org/zap"
)

// Recommendation es el resultado de Recommend. FromPopular indica que el usuario
// no tenía historial y se devolvió el ranking de populares.
type Recommendation struct {
	Games       []gameDomain.Game `json:"games"`
	FromPopular bool              `json:"from_popular"`
}

// RecommendationService calcula el ranking de populares y las recomendaciones por usuario.
type RecommendationService struct {
	history  gameDomain.PurchaseHistory
	games    gameDomain.GameRepository
	searcher gameDomain.GameSearcher
	cache    sharedCache.Cache
	ttl      time.Duration
	log      *zap.Logger
}

// NewRecommendationService es el constructor. cache puede ser nil.
func NewRecommendationService(
	history gameDomain.PurchaseHistory,
	games gameDomain.GameRepository,
	searcher gameDomain.GameSearcher,
	cache sharedCache.Cache,
	ttl time.Duration,
	log *zap.Logger,
) *RecommendationService {
	return &RecommendationService{
		history:  history,
		games:    games,
		searcher: searcher,
		cache:    cache,
		ttl:      ttl,
		log:      log,
	}
}

// Popular devuelve los juegos con más compras pagadas, como mucho limit (acotado a 1..100).
// Cache-aside sobre games:popular:<limit>.
func (s *RecommendationService) Popular(ctx context.Context, limit int) ([]gameDomain.Game, error) {
	limit = gameDomain.ClampLimit(limit)
	key := gameDomain.CacheKeyPopular(limit)

	if s.cache != nil {
		var cached []gameDomain.Game
		if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
			s.log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	games, err := s.computePopular(ctx, limit)
	if err != nil {
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, key, games, s.ttl, s.log)
	return games, nil
}

// WarmPopular recalcula el ranking y sobrescribe la caché. Lo lanza el scheduler.
func (s *RecommendationService) WarmPopular(ctx context.Context, limit int) error {
	limit = gameDomain.ClampLimit(limit)
	games, err := s.computePopular(ctx, limit)
	if err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Set(ctx, gameDomain.CacheKeyPopular(limit), games, int(s.ttl.Seconds())); err != nil {
		return fmt.Errorf("warm popular cache: %w", err)
	}
	s.log.Debug("Popular ranking cache warmed", zap.Int("limit", limit), zap.Int("games", len(games)))
	return nil
}

func (s *RecommendationService) computePopular(ctx context.Context, limit int) ([]gameDomain.Game, error) {
	var counts []gameDomain.GameCount
	err := sharedUtils.Retry(ctx, 3, 100*time.Millisecond, func() error {
		var errRetry error
		counts, errRetry = s.history.TopPaidGames(ctx, limit)
		return errRetry
	})
	if err != nil {
		return nil, fmt.Errorf("top paid games: %w", err)
	}
	if len(counts) == 0 {
		return []gameDomain.Game{}, nil
	}

	ids := make([]string, 0, len(counts))
	for _, c := range counts {
		ids = append(ids, c.GameID)
	}
	found, err := s.games.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load popular games: %w", err)
	}

	// Se respeta el orden del ranking; los juegos que ya no existen se descartan.
	byID := make(map[string]gameDomain.Game, len(found))
	for _, g := range found {
		byID[g.ID] = g
	}
	games := make([]gameDomain.Game, 0, len(ids))
	for _, id := range ids {
		if g, ok := byID[id]; ok {
			games = append(games, g)
		}
	}
	return truncate(games, limit), nil
}

// Recommend devuelve juegos parecidos a las últimas compras pagadas del usuario,
// sin ninguno que ya haya comprado. Sin historial devuelve exactamente Popular(limit).
func (s *RecommendationService) Recommend(ctx context.Context, userID string, limit int) (Recommendation, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Recommendation{}, gameDomain.ErrInvalidUserID
	}
	limit = gameDomain.ClampLimit(limit)

	recent, err := s.history.RecentPaidGameIDs(ctx, userID, gameDomain.RecommendationSeedSize)
	if err != nil {
		return Recommendation{}, fmt.Errorf("recent purchases: %w", err)
	}
	purchased, err := s.history.PurchasedGameIDs(ctx, userID)
	if err != nil {
		return Recommendation{}, fmt.Errorf("purchased games: %w", err)
	}
	if len(recent) == 0 {
		return s.popularFallback(ctx, purchased, limit)
	}

	seeds, err := s.games.GetByIDs(ctx, sharedUtils.Unique(recent))
	if err != nil {
		return Recommendation{}, fmt.Errorf("load seed games: %w", err)
	}

	candidates, err := s.searcher.MoreLikeThis(ctx, seeds, purchased, limit)
	if err != nil {
		return Recommendation{}, fmt.Errorf("similar games: %w", err)
	}

	// El backend ya excluye, pero la garantía se aplica aquí.
	return Recommendation{Games: exclude(candidates, purchased, limit)}, nil
}

// popularFallback sirve el ranking global a quien no tiene compras pagadas. Sin ninguna
// compra es exactamente Popular(limit); si hay compras en otro estado se quitan esos juegos,
// pidiendo al ranking los suficientes para seguir llenando el límite.
func (s *RecommendationService) popularFallback(ctx context.Context, purchased []string, limit int) (Recommendation, error) {
	if len(purchased) == 0 {
		games, err := s.Popular(ctx, limit)
		if err != nil {
			return Recommendation{}, err
		}
		return Recommendation{Games: games, FromPopular: true}, nil
	}

	games, err := s.Popular(ctx, gameDomain.ClampLimit(limit+len(purchased)))
	if err != nil {
		return Recommendation{}, err
	}
	return Recommendation{Games: exclude(games, purchased, limit), FromPopular: true}, nil
}

// exclude quita los juegos comprados y los duplicados, conservando el orden.
func exclude(candidates []gameDomain.Game, purchased []string, limit int) []gameDomain.Game {
	excluded := make(map[string]bool, len(purchased))
	for _, id := range purchased {
		excluded[id] = true
	}
	games := make([]gameDomain.Game, 0, limit)
	for _, g := range candidates {
		if excluded[g.ID] {
			continue
		}
		excluded[g.ID] = true
		games = append(games, g)
	}
	return truncate(games, limit)
}

func truncate(games []gameDomain.Game, limit int) []gameDomain.Game {
	if len(games) > limit {
		return games[:limit]
	}
	return games
}

package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gameDomain "github.com/davicafu/gamehub/internal/game/domain"
	sharedDomain "github.com/davicafu/gamehub/internal/shared/domain"
	sharedUtils "github.com/davicafu/gamehub/internal/shared/infra/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrAnalyticsDisabled = errors.New("play analytics not configured")
	ErrInvalidRange      = errors.New("invalid date range")
)

// EventRecorder es el event log visto desde los casos de uso.
// Record aplica la política configurada; Note es siempre best-effort.
type EventRecorder interface {
	Record(ctx context.Context, evt sharedDomain.DomainEvent) error
	Note(ctx context.Context, evt sharedDomain.DomainEvent)
}

// GameService define los casos de uso del catálogo.
type GameService struct {
	games     gameDomain.GameRepository
	searcher  gameDomain.GameSearcher
	recs      *RecommendationService
	events    EventRecorder
	publisher gameDomain.EventPublisher
	analytics gameDomain.PlayAnalytics
	log       *zap.Logger
}

// NewGameService es el constructor. analytics puede ser nil.
func NewGameService(
	games gameDomain.GameRepository,
	searcher gameDomain.GameSearcher,
	recs *RecommendationService,
	events EventRecorder,
	publisher gameDomain.EventPublisher,
	analytics gameDomain.PlayAnalytics,
	log *zap.Logger,
) *GameService {
	return &GameService{
		games:     games,
		searcher:  searcher,
		recs:      recs,
		events:    events,
		publisher: publisher,
		analytics: analytics,
		log:       log,
	}
}

// GetGame obtiene un juego con reintentos ante errores transitorios.
func (s *GameService) GetGame(ctx context.Context, id string) (*gameDomain.Game, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, gameDomain.ErrInvalidGameID
	}

	var game *gameDomain.Game
	err := sharedUtils.Retry(ctx, 3, 100*time.Millisecond, func() error {
		var errRetry error
		game, errRetry = s.games.GetByID(ctx, id)
		return errRetry
	}, gameDomain.ErrGameNotFound)

	if err != nil {
		if errors.Is(err, gameDomain.ErrGameNotFound) {
			s.log.Warn("Game not found", zap.String("game_id", id))
			s.events.Note(ctx, sharedDomain.NewDomainEvent(id, gameDomain.GameNotFound, nil))
		} else {
			s.log.Error("Failed to fetch game", zap.String("game_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.events.Note(ctx, sharedDomain.NewDomainEvent(id, gameDomain.GameFetched, map[string]interface{}{"name": game.Name}))
	return game, nil
}

// SearchGames es la búsqueda paginada de texto libre.
func (s *GameService) SearchGames(ctx context.Context, q gameDomain.SearchQuery) (gameDomain.SearchResult, error) {
	q = q.Normalize()
	q.Text = strings.TrimSpace(q.Text)
	q.Category = strings.TrimSpace(q.Category)

	res, err := s.searcher.Search(ctx, q)
	if err != nil {
		s.log.Error("Game search failed", zap.String("query", q.Text), zap.Error(err))
		return gameDomain.SearchResult{}, err
	}
	if res.Items == nil {
		res.Items = []gameDomain.Game{}
	}

	s.events.Note(ctx, sharedDomain.NewDomainEvent(sharedDomain.NoAggregateID, gameDomain.GameSearchExecuted, map[string]interface{}{
		"query":    q.Text,
		"category": q.Category,
		"page":     q.Page,
		"pageSize": q.PageSize,
		"total":    res.Total,
	}))
	return res, nil
}

// StartGame registra que un usuario empieza una partida y lo notifica a la cola.
// Los contadores los actualiza el worker al consumir el mensaje.
func (s *GameService) StartGame(ctx context.Context, gameID, userID string) error {
	return s.activity(ctx, gameDomain.GameStarted, gameID, userID)
}

// QueueGame registra que un usuario se pone en cola para un juego.
func (s *GameService) QueueGame(ctx context.Context, gameID, userID string) error {
	return s.activity(ctx, gameDomain.GameQueued, gameID, userID)
}

func (s *GameService) activity(ctx context.Context, eventType, gameID, userID string) error {
	if _, err := uuid.Parse(gameID); err != nil {
		return gameDomain.ErrInvalidGameID
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return gameDomain.ErrInvalidUserID
	}

	if _, err := s.games.GetByID(ctx, gameID); err != nil {
		return err
	}

	data := map[string]interface{}{"gameId": gameID, "userId": userID}
	if err := s.events.Record(ctx, sharedDomain.NewDomainEvent(gameID, eventType, data)); err != nil {
		s.log.Error("Failed to record game activity", zap.String("event_type", eventType), zap.Error(err))
		return err
	}

	// Fire-and-forget: la petición no espera ni falla por la cola.
	s.publisher.Publish(ctx, eventType, gameID, userID, data)
	return nil
}

// PopularGames devuelve el ranking de juegos más comprados.
func (s *GameService) PopularGames(ctx context.Context, limit int) ([]gameDomain.Game, error) {
	if limit < 1 {
		return nil, gameDomain.ErrInvalidLimit
	}
	games, err := s.recs.Popular(ctx, limit)
	if err != nil {
		s.log.Error("Failed to compute popular games", zap.Error(err))
		return nil, err
	}

	s.events.Note(ctx, sharedDomain.NewDomainEvent(sharedDomain.NoAggregateID, gameDomain.GamePopularRequested, map[string]interface{}{
		"limit": gameDomain.ClampLimit(limit),
		"count": len(games),
	}))
	return games, nil
}

// Recommendations devuelve recomendaciones para userID.
func (s *GameService) Recommendations(ctx context.Context, userID string, limit int) (Recommendation, error) {
	if limit < 1 {
		return Recommendation{}, gameDomain.ErrInvalidLimit
	}
	rec, err := s.recs.Recommend(ctx, userID, limit)
	if err != nil {
		if !errors.Is(err, gameDomain.ErrInvalidUserID) {
			s.log.Error("Failed to compute recommendations", zap.String("user_id", userID), zap.Error(err))
		}
		return Recommendation{}, err
	}

	eventType := sharedUtils.Ternary(rec.FromPopular, gameDomain.GameRecommendationsFallbackPopular, gameDomain.GameRecommendationsGenerated)
	s.events.Note(ctx, sharedDomain.NewDomainEvent(sharedDomain.NoAggregateID, eventType, map[string]interface{}{
		"userId": userID,
		"limit":  gameDomain.ClampLimit(limit),
		"count":  len(rec.Games),
	}))
	return rec, nil
}

// PlayTrend es la serie diaria de partidas entre from y to.
func (s *GameService) PlayTrend(ctx context.Context, from, to time.Time) ([]gameDomain.DailyPlays, error) {
	if s.analytics == nil {
		return nil, ErrAnalyticsDisabled
	}
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, fmt.Errorf("%w: from=%s to=%s", ErrInvalidRange, from, to)
	}
	trend, err := s.analytics.DailyPlays(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if trend == nil {
		trend = []gameDomain.DailyPlays{}
	}
	return trend, nil
}

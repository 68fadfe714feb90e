package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ---------- Errores de dominio ----------
var (
	ErrGameNotFound  = errors.New("game not found")
	ErrInvalidGameID = errors.New("invalid game id")
	ErrInvalidUserID = errors.New("invalid user id")
	ErrInvalidLimit  = errors.New("limit must be >= 1")
)

// ---------- Interfaces (Ports) ----------

// GameRepository lee el catálogo.
type GameRepository interface {
	// Debe devolver ErrGameNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Game, error)

	// GetByIDs devuelve los juegos existentes, sin orden garantizado.
	GetByIDs(ctx context.Context, ids []string) ([]Game, error)
}

// GameCounters son los contadores agregados. Solo los muta el consumidor de la cola.
type GameCounters interface {
	// Deben devolver ErrGameNotFound si el juego no existe.
	IncrementPlayCount(ctx context.Context, id string, at time.Time) error
	IncrementQueueCount(ctx context.Context, id string, at time.Time) error
}

// GameSearcher es la capacidad de búsqueda de texto / similitud del backend.
type GameSearcher interface {
	Search(ctx context.Context, q SearchQuery) (SearchResult, error)

	// MoreLikeThis busca juegos parecidos a seeds, sin devolver ningún id de exclude.
	MoreLikeThis(ctx context.Context, seeds []Game, exclude []string, limit int) ([]Game, error)
}

// PurchaseHistory expone lo que el recomendador necesita de las compras.
type PurchaseHistory interface {
	// RecentPaidGameIDs: juegos de las n compras PAID más recientes del usuario.
	RecentPaidGameIDs(ctx context.Context, userID string, n int) ([]string, error)

	// PurchasedGameIDs: todos los juegos que el usuario ha comprado, en cualquier estado.
	PurchasedGameIDs(ctx context.Context, userID string) ([]string, error)

	// TopPaidGames agrupa compras PAID por juego, count desc, desempate por game id asc.
	TopPaidGames(ctx context.Context, limit int) ([]GameCount, error)
}

// PlayRecorder es el sink de analítica de partidas.
type PlayRecorder interface {
	RecordPlays(ctx context.Context, plays []PlayRecord) error
}

type PlayAnalytics interface {
	DailyPlays(ctx context.Context, from, to time.Time) ([]DailyPlays, error)
}

// EventPublisher notifica a la cola sin bloquear ni fallar.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, subjectID, actorID string, data map[string]interface{})
}

// ---------- Helpers comunes (cache keys, etc.) ----------

// CacheKeyPopular forma una key consistente para el ranking de populares.
func CacheKeyPopular(limit int) string {
	return fmt.Sprintf("games:popular:%d", limit)
}

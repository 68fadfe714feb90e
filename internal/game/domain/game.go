package domain

import (
	"time"
)

const (
	MaxLimit        = 100
	DefaultPageSize = 20
	// RecommendationSeedSize es cuántas compras recientes alimentan la recomendación.
	RecommendationSeedSize = 10
)

type Game struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Price        float64    `json:"price"`
	PlayCount    int64      `json:"play_count"`
	LastPlayedAt *time.Time `json:"last_played_at,omitempty"`
	QueueCount   int64      `json:"queue_count"`
	LastQueuedAt *time.Time `json:"last_queued_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// GameCount es una fila del ranking de compras pagadas.
type GameCount struct {
	GameID string `json:"game_id"`
	Count  int64  `json:"count"`
}

// SearchQuery es una búsqueda de texto libre paginada.
type SearchQuery struct {
	Text     string
	Category string
	Page     int
	PageSize int
}

// Normalize deja page >= 1 y pageSize en 1..MaxLimit.
func (q SearchQuery) Normalize() SearchQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	q.PageSize = ClampLimit(q.PageSize)
	return q
}

// Skip es el desplazamiento de la página.
func (q SearchQuery) Skip() int {
	return (q.Page - 1) * q.PageSize
}

type SearchResult struct {
	Items    []Game `json:"items"`
	Total    int64  `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// PlayRecord es una partida registrada en el sink de analítica.
type PlayRecord struct {
	GameID    string
	UserID    string
	MessageID string
	PlayedAt  time.Time
}

type DailyPlays struct {
	Day           time.Time `json:"day"`
	Plays         uint64    `json:"plays"`
	UniquePlayers uint64    `json:"unique_players"`
}

// ClampLimit acota un límite a 1..MaxLimit.
func ClampLimit(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

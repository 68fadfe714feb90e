package domain

import (
	"context"
	"time"
)

// ProcessedMarker registra que un mensaje de la cola (por su delivery id) ya se procesó.
type ProcessedMarker struct {
	MessageID   string
	EventType   string
	SubjectID   string
	ProcessedAt time.Time
}

// IdempotencyStore es la puerta de idempotencia del consumidor.
// La unicidad la garantiza el propio almacén (insert-if-absent), nunca un lock de aplicación.
type IdempotencyStore interface {
	// TryInsertMarker devuelve true si el marcador se creó, false si ya existía.
	TryInsertMarker(ctx context.Context, m ProcessedMarker) (bool, error)

	// ReleaseMarker elimina el marcador de un mensaje cuyos efectos no llegaron a aplicarse,
	// para que la re-entrega vuelva a intentarlo.
	ReleaseMarker(ctx context.Context, messageID string) error
}

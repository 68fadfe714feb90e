package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent representa un evento pendiente de publicar en la cola.
type OutboxEvent struct {
	ID            uuid.UUID       `json:"id"`
	AggregateType string          `json:"aggregate_type"` // ej. "purchase"
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"` // ej. "purchase.created"
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
	Processed     bool            `json:"processed"` // si ya se publicó
}

// NewOutboxEvent serializa el payload en el momento de crear el evento,
// así el relayer no necesita conocer los tipos concretos.
func NewOutboxEvent(aggregateType, aggregateID, eventType string, payload interface{}) (OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return OutboxEvent{}, err
	}
	return OutboxEvent{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       raw,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// OutboxRepository define el contrato para acceder a la tabla outbox.
// Es una interfaz más pequeña que la de un repositorio de dominio completo,
// conteniendo solo los métodos que el worker necesita.
type OutboxRepository interface {
	FetchPendingOutbox(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error
}

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// NoAggregateID identifica eventos de sistema que no pertenecen a ningún agregado.
var NoAggregateID = uuid.Nil.String()

var ErrInvalidEvent = errors.New("invalid domain event")

// DomainEvent es un registro inmutable del event log.
// Nunca se modifica ni se borra; el orden dentro de un agregado lo dan Seq y Timestamp.
type DomainEvent struct {
	ID          uuid.UUID              `json:"id"`
	AggregateID string                 `json:"aggregate_id"`
	Type        string                 `json:"type"`
	Timestamp   time.Time              `json:"timestamp"`
	Seq         int                    `json:"seq"`
	Data        map[string]interface{} `json:"data"`
}

// NewDomainEvent crea un evento listo para añadir al log.
func NewDomainEvent(aggregateID, eventType string, data map[string]interface{}) DomainEvent {
	if aggregateID == "" {
		aggregateID = NoAggregateID
	}
	return DomainEvent{
		ID:          uuid.New(),
		AggregateID: aggregateID,
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		Seq:         1,
		Data:        data,
	}
}

// Validate comprueba las precondiciones del append.
func (e DomainEvent) Validate() error {
	if e.Type == "" {
		return errors.Join(ErrInvalidEvent, errors.New("empty event type"))
	}
	if e.AggregateID == "" {
		return errors.Join(ErrInvalidEvent, errors.New("empty aggregate id"))
	}
	return nil
}

// EventStore persiste eventos de dominio. Solo admite añadir.
type EventStore interface {
	Append(ctx context.Context, evt DomainEvent) error
}

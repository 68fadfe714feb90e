package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	gameDomain "github.com/davicafu/gamehub/internal/game/domain"
	sharedDomain "github.com/davicafu/gamehub/internal/shared/domain"
	sharedEvents "github.com/davicafu/gamehub/internal/shared/events"
	sharedInfraEvents "github.com/davicafu/gamehub/internal/shared/infra/events"
	sharedBus "github.com/davicafu/gamehub/internal/shared/infra/platform/bus"
)

// EventAppender es el event log visto desde el consumidor.
type EventAppender interface {
	Append(ctx context.Context, evt sharedDomain.DomainEvent) error
}

// HandlerFunc aplica los efectos de un tipo de evento.
type HandlerFunc func(ctx context.Context, msg sharedEvents.GameEventMessage, delivery sharedBus.Message) error

// GameConsumer procesa los mensajes de la cola de eventos de juego con efecto único:
// el marcador por delivery id hace de puerta, y solo quien lo inserta aplica los efectos.
type GameConsumer struct {
	markers  sharedDomain.IdempotencyStore
	events   EventAppender
	counters gameDomain.GameCounters
	plays    gameDomain.PlayRecorder
	handlers map[string]HandlerFunc
	timeout  time.Duration
	now      func() time.Time
	log      *zap.Logger
}

// NewGameConsumer es el constructor. plays puede ser nil si no hay analítica.
func NewGameConsumer(
	markers sharedDomain.IdempotencyStore,
	events EventAppender,
	counters gameDomain.GameCounters,
	plays gameDomain.PlayRecorder,
	log *zap.Logger,
) *GameConsumer {
	c := &GameConsumer{
		markers:  markers,
		events:   events,
		counters: counters,
		plays:    plays,
		timeout:  5 * time.Second,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log,
	}
	c.handlers = map[string]HandlerFunc{
		gameDomain.GameStarted: c.handleGameStarted,
		gameDomain.GameQueued:  c.handleGameQueued,
	}
	return c
}

// Process es el punto de entrada para cada entrega de la cola.
func (c *GameConsumer) Process(ctx context.Context, delivery sharedBus.Message) error {
	msg, err := sharedEvents.DecodeGameEventMessage(delivery.Body)
	if err != nil {
		c.log.Warn("Failed to decode game event message", zap.String("message_id", delivery.ID), zap.Error(err))
		return err
	}
	if delivery.ID == "" {
		return fmt.Errorf("%w: missing delivery id", sharedEvents.ErrMalformedMessage)
	}

	processedAt := c.now()

	// Puerta de idempotencia: insert-if-absent en el almacén.
	inserted, err := c.markers.TryInsertMarker(ctx, sharedDomain.ProcessedMarker{
		MessageID:   delivery.ID,
		EventType:   msg.EventType,
		SubjectID:   msg.SubjectID,
		ProcessedAt: processedAt,
	})
	if err != nil {
		return fmt.Errorf("insert processed marker: %w", err)
	}
	if !inserted {
		c.log.Info("Duplicate delivery ignored",
			zap.String("message_id", delivery.ID),
			zap.String("event_type", msg.EventType),
		)
		return nil
	}

	handler, ok := c.handlers[msg.EventType]
	if !ok {
		c.log.Info("Unknown game event type ignored",
			zap.String("event_type", msg.EventType),
			zap.String("message_id", delivery.ID),
		)
	} else {
		hctx, cancel := context.WithTimeout(ctx, c.timeout)
		err := handler(hctx, msg, delivery)
		cancel()
		if err != nil {
			c.release(ctx, delivery.ID)
			return fmt.Errorf("handle %s: %w", msg.EventType, err)
		}
	}

	// El evento Processed solo se registra tras aplicar los efectos: una re-entrega
	// por fallo del handler no deja un segundo registro.
	if err := c.events.Append(ctx, processedEvent(msg, delivery.ID, processedAt)); err != nil {
		c.release(ctx, delivery.ID)
		return fmt.Errorf("append processed event: %w", err)
	}
	if !ok {
		return nil
	}

	c.log.Info("Game event processed",
		zap.String("event_type", msg.EventType),
		zap.String("game_id", msg.SubjectID),
		zap.String("message_id", delivery.ID),
	)
	return nil
}

// release libera el marcador para que la re-entrega vuelva a aplicar los efectos.
func (c *GameConsumer) release(ctx context.Context, messageID string) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()
	if err := c.markers.ReleaseMarker(rctx, messageID); err != nil {
		c.log.Error("Failed to release processed marker", zap.String("message_id", messageID), zap.Error(err))
	}
}

func (c *GameConsumer) handleGameStarted(ctx context.Context, msg sharedEvents.GameEventMessage, delivery sharedBus.Message) error {
	at := c.activityTime(msg)
	applied, err := c.applyCounter(ctx, msg, func(ctx context.Context, id string) error {
		return c.counters.IncrementPlayCount(ctx, id, at)
	})
	if err != nil || !applied {
		return err
	}

	if c.plays != nil {
		play := gameDomain.PlayRecord{GameID: msg.SubjectID, UserID: msg.ActorID, MessageID: delivery.ID, PlayedAt: at}
		if err := c.plays.RecordPlays(ctx, []gameDomain.PlayRecord{play}); err != nil {
			c.log.Warn("Play analytics record failed", zap.String("game_id", msg.SubjectID), zap.Error(err))
		}
	}
	return nil
}

func (c *GameConsumer) handleGameQueued(ctx context.Context, msg sharedEvents.GameEventMessage, _ sharedBus.Message) error {
	at := c.activityTime(msg)
	_, err := c.applyCounter(ctx, msg, func(ctx context.Context, id string) error {
		return c.counters.IncrementQueueCount(ctx, id, at)
	})
	return err
}

// applyCounter ignora (con warning) sujetos inválidos o inexistentes: reintentar no los arregla.
func (c *GameConsumer) applyCounter(ctx context.Context, msg sharedEvents.GameEventMessage, apply func(ctx context.Context, id string) error) (bool, error) {
	if _, err := uuid.Parse(msg.SubjectID); err != nil {
		c.log.Warn("Game event with invalid subject id", zap.String("event_type", msg.EventType), zap.String("game_id", msg.SubjectID))
		return false, nil
	}
	if err := apply(ctx, msg.SubjectID); err != nil {
		if errors.Is(err, gameDomain.ErrGameNotFound) {
			c.log.Warn("Game event for unknown game", zap.String("event_type", msg.EventType), zap.String("game_id", msg.SubjectID))
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *GameConsumer) activityTime(msg sharedEvents.GameEventMessage) time.Time {
	if msg.Timestamp.IsZero() {
		return c.now()
	}
	return msg.Timestamp.UTC()
}

func processedEvent(msg sharedEvents.GameEventMessage, messageID string, processedAt time.Time) sharedDomain.DomainEvent {
	evt := sharedDomain.NewDomainEvent(msg.SubjectID, gameDomain.ProcessedType(msg.EventType), map[string]interface{}{
		"originalEventType": msg.EventType,
		"gameId":            msg.SubjectID,
		"userId":            msg.ActorID,
		"originalTimestamp": msg.Timestamp,
		"processedAt":       processedAt,
		"messageId":         messageID,
		"data":              msg.Data,
	})
	evt.Timestamp = processedAt
	return evt
}

var _ sharedInfraEvents.MessageHandler = (*GameConsumer)(nil)

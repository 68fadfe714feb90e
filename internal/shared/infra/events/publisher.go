package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	sharedEvents "github.com/davicafu/gamehub/internal/shared/events"
	sharedBus "github.com/davicafu/gamehub/internal/shared/infra/platform/bus"
	"go.uber.org/zap"
)

// AddressResolver resuelve la dirección de la cola (config.Resolver lo implementa).
type AddressResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// QueuePublisher envía sobres GameEventMessage a la cola en modo "dispara y olvida".
// Publish nunca falla ni bloquea: la durabilidad la da el event log, no este camino.
type QueuePublisher struct {
	queue   sharedBus.MessageQueue
	address AddressResolver
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

func NewQueuePublisher(queue sharedBus.MessageQueue, address AddressResolver, timeout time.Duration, log *zap.Logger) *QueuePublisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &QueuePublisher{
		queue:   queue,
		address: address,
		timeout: timeout,
		log:     log,
	}
}

// Publish lanza el envío en una goroutine y retorna inmediatamente.
func (p *QueuePublisher) Publish(ctx context.Context, eventType, subjectID, actorID string, data map[string]interface{}) {
	msg := sharedEvents.NewGameEventMessage(eventType, subjectID, actorID, data)

	// Conserva los valores del contexto pero no su cancelación.
	detached := context.WithoutCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.log.Error("Queue publish panicked", zap.String("event_type", eventType), zap.Any("panic", r))
			}
		}()

		sendCtx, cancel := context.WithTimeout(detached, p.timeout)
		defer cancel()

		if err := p.send(sendCtx, msg); err != nil {
			p.log.Warn("Queue publish skipped",
				zap.String("event_type", eventType),
				zap.String("subject_id", subjectID),
				zap.Error(err),
			)
		}
	}()
}

func (p *QueuePublisher) send(ctx context.Context, msg sharedEvents.GameEventMessage) error {
	queueURL, err := p.address.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolve queue: %w", err)
	}

	body, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	attrs := map[string]string{
		"eventType": msg.EventType,
		"subjectId": msg.SubjectID,
	}
	if err := p.queue.Send(ctx, queueURL, body, attrs); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	p.log.Debug("Queue message published",
		zap.String("event_type", msg.EventType),
		zap.String("subject_id", msg.SubjectID),
	)
	return nil
}

// Close espera a que terminen los envíos en curso.
func (p *QueuePublisher) Close() {
	p.wg.Wait()
}

package relayer

import (
	"context"
	"fmt"
	"time"

	sharedDomain "github.com/davicafu/gamehub/internal/shared/domain"
	sharedBus "github.com/davicafu/gamehub/internal/shared/infra/platform/bus"
	"go.uber.org/zap"
)

// AddressResolver resuelve la cola destino de un tipo de evento.
type AddressResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// Worker publica los eventos pendientes de la outbox en su cola.
// El payload ya está serializado y se envía tal cual.
type Worker struct {
	repo      sharedDomain.OutboxRepository
	queue     sharedBus.MessageQueue
	routes    map[string]AddressResolver
	interval  time.Duration
	batchSize int
	log       *zap.Logger
}

// NewOutboxWorker recibe routes: tipo de evento → cola destino.
func NewOutboxWorker(
	repo sharedDomain.OutboxRepository,
	queue sharedBus.MessageQueue,
	routes map[string]AddressResolver,
	interval time.Duration,
	batchSize int,
	log *zap.Logger,
) *Worker {
	return &Worker{
		repo:      repo,
		queue:     queue,
		routes:    routes,
		interval:  interval,
		batchSize: batchSize,
		log:       log,
	}
}

// Start inicia el bucle de polling del worker. Bloquea hasta que ctx se cancela.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("🚀 Outbox worker started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("🛑 Outbox worker stopped")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

func (w *Worker) ProcessBatch(ctx context.Context) {
	events, err := w.repo.FetchPendingOutbox(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("⚠️ Failed to fetch pending outbox events", zap.Error(err))
		return
	}
	if len(events) > 0 {
		w.log.Debug(fmt.Sprintf("📬 %d outbox events to relay", len(events)))
	}

	for _, evt := range events {
		if ctx.Err() != nil {
			return
		}
		w.publishAndMark(ctx, evt)
	}
}

func (w *Worker) publishAndMark(ctx context.Context, evt sharedDomain.OutboxEvent) {
	route, ok := w.routes[evt.EventType]
	if !ok {
		w.log.Error("No route for outbox event type", zap.String("event_type", evt.EventType))
		return
	}

	queueURL, err := route.Resolve(ctx)
	if err != nil {
		w.log.Warn("⚠️ Outbox destination not resolved", zap.String("event_type", evt.EventType), zap.Error(err))
		return // Se reintenta en el siguiente ciclo
	}

	attrs := map[string]string{
		"eventType":   evt.EventType,
		"aggregateId": evt.AggregateID,
		"outboxId":    evt.ID.String(),
	}
	if err := w.queue.Send(ctx, queueURL, evt.Payload, attrs); err != nil {
		w.log.Warn("⚠️ Failed to relay outbox event",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return // No lo marcamos como procesado para que se reintente
	}

	// Un fallo aquí provoca un reenvío: el consumidor de pagos debe ser idempotente por outboxId.
	if err := w.repo.MarkOutboxProcessed(ctx, evt.ID); err != nil {
		w.log.Warn("⚠️ Failed to mark outbox event as processed",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
	} else {
		w.log.Info("✅ Outbox event relayed", zap.String("event_id", evt.ID.String()), zap.String("event_type", evt.EventType))
	}
}

package events

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	sharedDomain "github.com/davicafu/gamehub/internal/shared/domain"
	sharedEvents "github.com/davicafu/gamehub/internal/shared/events"
	sharedBus "github.com/davicafu/gamehub/internal/shared/infra/platform/bus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MessageDeadLettered se registra en el event log al descartar un mensaje venenoso.
const MessageDeadLettered = "MessageDeadLettered"

// MessageHandler procesa una entrega. Un error deja el mensaje en la cola.
type MessageHandler interface {
	Process(ctx context.Context, msg sharedBus.Message) error
}

// MessageHandlerFunc adapta una función a MessageHandler.
type MessageHandlerFunc func(ctx context.Context, msg sharedBus.Message) error

func (f MessageHandlerFunc) Process(ctx context.Context, msg sharedBus.Message) error {
	return f(ctx, msg)
}

// EventAppender es donde se registran los mensajes descartados.
type EventAppender interface {
	Append(ctx context.Context, evt sharedDomain.DomainEvent) error
}

type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateDraining:
		return "DRAINING"
	case StateStopped:
		return "STOPPED"
	default:
		return "IDLE"
	}
}

type ConsumerConfig struct {
	MaxMessages       int32
	WaitTime          time.Duration
	VisibilityTimeout time.Duration
	IdleInterval      time.Duration // espera tras un poll vacío
	ErrorBackoff      time.Duration // espera tras un error de Receive
	Concurrency       int           // mensajes de un lote procesados a la vez
	// MaxReceiveCount: a partir de cuántas entregas un mensaje ilegible se descarta.
	// 0 desactiva el descarte y deja todo a la política de la cola.
	MaxReceiveCount int
	AckTimeout      time.Duration
}

func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		MaxMessages:       10,
		WaitTime:          20 * time.Second,
		VisibilityTimeout: 60 * time.Second,
		IdleInterval:      5 * time.Second,
		ErrorBackoff:      5 * time.Second,
		Concurrency:       1,
		MaxReceiveCount:   5,
		AckTimeout:        5 * time.Second,
	}
}

type ConsumerStats struct {
	Polls        uint64 `json:"polls"`
	Received     uint64 `json:"received"`
	Processed    uint64 `json:"processed"`
	Failed       uint64 `json:"failed"`
	Deleted      uint64 `json:"deleted"`
	DeadLettered uint64 `json:"dead_lettered"`
}

type consumerCounters struct {
	polls, received, processed, failed, deleted, deadLettered atomic.Uint64
}

// QueueConsumer hace long-polling de la cola y entrega cada mensaje al handler.
// Borra un mensaje solo si se procesó bien; si no, la visibilidad expira y la cola lo re-entrega.
type QueueConsumer struct {
	queue       sharedBus.MessageQueue
	queueURL    string
	handler     MessageHandler
	deadLetters EventAppender
	cfg         ConsumerConfig
	log         *zap.Logger

	state atomic.Int32
	stats consumerCounters
}

func NewQueueConsumer(
	queue sharedBus.MessageQueue,
	queueURL string,
	handler MessageHandler,
	deadLetters EventAppender,
	cfg ConsumerConfig,
	log *zap.Logger,
) *QueueConsumer {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxMessages < 1 {
		cfg.MaxMessages = 10
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = 5 * time.Second
	}
	return &QueueConsumer{
		queue:       queue,
		queueURL:    queueURL,
		handler:     handler,
		deadLetters: deadLetters,
		cfg:         cfg,
		log:         log,
	}
}

// Run bloquea hasta que ctx se cancela. La cancelación no es un error.
func (c *QueueConsumer) Run(ctx context.Context) error {
	c.state.Store(int32(StateRunning))
	c.log.Info("🎧 Queue consumer started",
		zap.String("queue", c.queueURL),
		zap.Int32("max_messages", c.cfg.MaxMessages),
		zap.Duration("wait_time", c.cfg.WaitTime),
		zap.Duration("visibility_timeout", c.cfg.VisibilityTimeout),
	)
	defer func() {
		c.state.Store(int32(StateStopped))
		c.log.Info("🛑 Queue consumer stopped", zap.String("queue", c.queueURL))
	}()

	opts := sharedBus.ReceiveOptions{
		MaxMessages:       c.cfg.MaxMessages,
		WaitTime:          c.cfg.WaitTime,
		VisibilityTimeout: c.cfg.VisibilityTimeout,
	}

	for ctx.Err() == nil {
		c.stats.polls.Add(1)
		msgs, err := c.queue.Receive(ctx, c.queueURL, opts)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			c.log.Warn("⚠️ Queue receive failed, backing off",
				zap.Duration("backoff", c.cfg.ErrorBackoff),
				zap.Error(err),
			)
			if !sleepCtx(ctx, c.cfg.ErrorBackoff) {
				break
			}
			continue
		}

		if len(msgs) == 0 {
			if !sleepCtx(ctx, c.cfg.IdleInterval) {
				break
			}
			continue
		}

		c.stats.received.Add(uint64(len(msgs)))
		c.processBatch(ctx, msgs)
	}

	c.state.Store(int32(StateDraining))
	return nil
}

// processBatch procesa los mensajes de forma independiente; un fallo no afecta al resto.
// Si ctx se cancela, los mensajes aún no empezados se abandonan a la re-entrega.
func (c *QueueConsumer) processBatch(ctx context.Context, msgs []sharedBus.Message) {
	var g errgroup.Group
	g.SetLimit(c.cfg.Concurrency)

	for _, msg := range msgs {
		if ctx.Err() != nil {
			c.log.Info("Shutdown requested, abandoning rest of batch")
			break
		}
		g.Go(func() error {
			c.handle(ctx, msg)
			return nil
		})
	}
	_ = g.Wait()
}

func (c *QueueConsumer) handle(ctx context.Context, msg sharedBus.Message) {
	err := c.handler.Process(ctx, msg)
	if err == nil {
		c.stats.processed.Add(1)
		c.ack(ctx, msg)
		return
	}

	c.stats.failed.Add(1)
	if c.isPoison(msg, err) {
		c.deadLetter(ctx, msg, err)
		return
	}

	c.log.Warn("Message processing failed, left for redelivery",
		zap.String("message_id", msg.ID),
		zap.Int("receive_count", msg.ReceiveCount),
		zap.Error(err),
	)
}

// isPoison: un mensaje ilegible se descarta al alcanzar MaxReceiveCount entregas.
// Si el transporte no informa el contador no hay forma de saber cuántas van y se descarta ya.
func (c *QueueConsumer) isPoison(msg sharedBus.Message, err error) bool {
	if c.cfg.MaxReceiveCount <= 0 || !errors.Is(err, sharedEvents.ErrMalformedMessage) {
		return false
	}
	return msg.ReceiveCount == 0 || msg.ReceiveCount >= c.cfg.MaxReceiveCount
}

func (c *QueueConsumer) deadLetter(ctx context.Context, msg sharedBus.Message, cause error) {
	if c.deadLetters != nil {
		evt := sharedDomain.NewDomainEvent(sharedDomain.NoAggregateID, MessageDeadLettered, map[string]interface{}{
			"messageId":    msg.ID,
			"receiveCount": msg.ReceiveCount,
			"body":         string(msg.Body),
			"error":        cause.Error(),
		})
		if err := c.deadLetters.Append(ctx, evt); err != nil {
			c.log.Warn("Dead-letter record failed, message kept", zap.String("message_id", msg.ID), zap.Error(err))
			return
		}
	}

	c.log.Error("☠️ Poison message dead-lettered",
		zap.String("message_id", msg.ID),
		zap.Int("receive_count", msg.ReceiveCount),
		zap.Error(cause),
	)
	c.stats.deadLettered.Add(1)
	c.ack(ctx, msg)
}

// ack borra el mensaje con un contexto propio: los efectos ya están aplicados
// y no queremos que el apagado deje sin confirmar un mensaje procesado.
func (c *QueueConsumer) ack(ctx context.Context, msg sharedBus.Message) {
	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.AckTimeout)
	defer cancel()

	if err := c.queue.Delete(ackCtx, c.queueURL, msg.ReceiptHandle); err != nil {
		c.log.Warn("Message delete failed, it will be redelivered",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return
	}
	c.stats.deleted.Add(1)
}

func (c *QueueConsumer) State() State {
	return State(c.state.Load())
}

func (c *QueueConsumer) Stats() ConsumerStats {
	return ConsumerStats{
		Polls:        c.stats.polls.Load(),
		Received:     c.stats.received.Load(),
		Processed:    c.stats.processed.Load(),
		Failed:       c.stats.failed.Load(),
		Deleted:      c.stats.deleted.Load(),
		DeadLettered: c.stats.deadLettered.Load(),
	}
}

// sleepCtx espera d o hasta que ctx se cancele. Devuelve false si se canceló.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

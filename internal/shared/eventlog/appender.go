package eventlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	sharedDomain "github.com/davicafu/gamehub/internal/shared/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrAppendFailed = errors.New("event log append failed")

// Appender añade eventos de dominio al log. No transforma nada.
type Appender struct {
	store  sharedDomain.EventStore
	strict bool
	log    *zap.Logger
}

// NewAppender crea el appender. Con strict=true, Record propaga los fallos de escritura
// y la operación que lo invoca se aborta; con false solo se registran en el log.
func NewAppender(store sharedDomain.EventStore, strict bool, log *zap.Logger) *Appender {
	return &Appender{store: store, strict: strict, log: log}
}

// Append valida y persiste un evento. Siempre devuelve el error al llamador.
func (a *Appender) Append(ctx context.Context, evt sharedDomain.DomainEvent) error {
	if evt.ID == uuid.Nil {
		evt.ID = uuid.New()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if evt.Seq == 0 {
		evt.Seq = 1
	}
	if err := evt.Validate(); err != nil {
		return err
	}

	if err := a.store.Append(ctx, evt); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAppendFailed, evt.Type, err)
	}
	return nil
}

// Record aplica la política configurada.
func (a *Appender) Record(ctx context.Context, evt sharedDomain.DomainEvent) error {
	err := a.Append(ctx, evt)
	if err == nil {
		return nil
	}
	if a.strict || errors.Is(err, sharedDomain.ErrInvalidEvent) {
		return err
	}
	a.log.Warn("Event log append skipped",
		zap.String("event_type", evt.Type),
		zap.String("aggregate_id", evt.AggregateID),
		zap.Error(err),
	)
	return nil
}

// Note es siempre best-effort; para eventos de telemetría de lectura.
func (a *Appender) Note(ctx context.Context, evt sharedDomain.DomainEvent) {
	if err := a.Append(ctx, evt); err != nil {
		a.log.Warn("Event log append skipped",
			zap.String("event_type", evt.Type),
			zap.String("aggregate_id", evt.AggregateID),
			zap.Error(err),
		)
	}
}

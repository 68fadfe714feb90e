package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sharedDomain "github.com/davicafu/gamehub/internal/shared/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// EventStorePostgres guarda el event log en la tabla events (data en JSONB).
type EventStorePostgres struct {
	db *sql.DB
}

func NewEventStorePostgres(db *sql.DB) *EventStorePostgres {
	return &EventStorePostgres{db: db}
}

func (s *EventStorePostgres) Append(ctx context.Context, evt sharedDomain.DomainEvent) error {
	data, err := json.Marshal(evt.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (id, aggregate_id, type, timestamp, seq, data) VALUES ($1,$2,$3,$4,$5,$6)`,
		evt.ID, evt.AggregateID, evt.Type, evt.Timestamp, evt.Seq, data,
	)
	return err
}

var _ sharedDomain.EventStore = (*EventStorePostgres)(nil)

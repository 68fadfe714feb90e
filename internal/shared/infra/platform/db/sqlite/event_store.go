package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sharedDomain "github.com/davicafu/gamehub/internal/shared/domain"

	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	_ "modernc.org/sqlite"
)

// EventStoreSQLite es el event log para despliegues locales.
type EventStoreSQLite struct {
	db *sql.DB
}

func NewEventStoreSQLite(db *sql.DB) *EventStoreSQLite {
	return &EventStoreSQLite{db: db}
}

func (s *EventStoreSQLite) Append(ctx context.Context, evt sharedDomain.DomainEvent) error {
	data, err := json.Marshal(evt.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (id, aggregate_id, type, timestamp, seq, data) VALUES (?,?,?,?,?,?)`,
		evt.ID.String(), evt.AggregateID, evt.Type, evt.Timestamp, evt.Seq, string(data),
	)
	return err
}

// CountByType es una consulta de soporte para diagnóstico y tests.
func (s *EventStoreSQLite) CountByType(ctx context.Context, eventType string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE type = ?`, eventType).Scan(&n)
	return n, err
}

var _ sharedDomain.EventStore = (*EventStoreSQLite)(nil)

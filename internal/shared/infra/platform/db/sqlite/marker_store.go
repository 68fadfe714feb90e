package sqlite

import (
	"context"
	"database/sql"

	sharedDomain "github.com/davicafu/gamehub/internal/shared/domain"
)

// MarkerStoreSQLite delega la unicidad en la PK de processed_messages.
type MarkerStoreSQLite struct {
	db *sql.DB
}

func NewMarkerStoreSQLite(db *sql.DB) *MarkerStoreSQLite {
	return &MarkerStoreSQLite{db: db}
}

func (s *MarkerStoreSQLite) TryInsertMarker(ctx context.Context, m sharedDomain.ProcessedMarker) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO processed_messages (message_id, event_type, subject_id, processed_at)
		 VALUES (?,?,?,?) ON CONFLICT (message_id) DO NOTHING`,
		m.MessageID, m.EventType, m.SubjectID, m.ProcessedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *MarkerStoreSQLite) ReleaseMarker(ctx context.Context, messageID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM processed_messages WHERE message_id = ?`, messageID)
	return err
}

var _ sharedDomain.IdempotencyStore = (*MarkerStoreSQLite)(nil)

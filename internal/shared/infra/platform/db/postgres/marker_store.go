package postgres

import (
	"context"
	"database/sql"

	sharedDomain "github.com/davicafu/gamehub/internal/shared/domain"
)

// MarkerStorePostgres delega la unicidad en la PK de processed_messages.
type MarkerStorePostgres struct {
	db *sql.DB
}

func NewMarkerStorePostgres(db *sql.DB) *MarkerStorePostgres {
	return &MarkerStorePostgres{db: db}
}

func (s *MarkerStorePostgres) TryInsertMarker(ctx context.Context, m sharedDomain.ProcessedMarker) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO processed_messages (message_id, event_type, subject_id, processed_at)
		 VALUES ($1,$2,$3,$4) ON CONFLICT (message_id) DO NOTHING`,
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

func (s *MarkerStorePostgres) ReleaseMarker(ctx context.Context, messageID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM processed_messages WHERE message_id=$1`, messageID)
	return err
}

var _ sharedDomain.IdempotencyStore = (*MarkerStorePostgres)(nil)

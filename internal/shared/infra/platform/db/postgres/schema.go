package postgres

import "database/sql"

// ------------------ Inicialización ------------------

func InitPostgres(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		aggregate_id TEXT NOT NULL,
		type TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		seq INTEGER NOT NULL,
		data JSONB
	)`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_events_aggregate ON events (aggregate_id, timestamp)`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS processed_messages (
		message_id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		processed_at TIMESTAMPTZ NOT NULL
	)`)
	return err
}

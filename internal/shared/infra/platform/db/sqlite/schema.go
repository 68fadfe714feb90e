package sqlite

import "database/sql"

// InitSQLite crea las tablas del event log y de marcadores si no existen.
func InitSQLite(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS events (
            id TEXT PRIMARY KEY,
            aggregate_id TEXT NOT NULL,
            type TEXT NOT NULL,
            timestamp DATETIME NOT NULL,
            seq INTEGER NOT NULL,
            data TEXT
        );
        CREATE INDEX IF NOT EXISTS idx_events_aggregate ON events (aggregate_id, timestamp);
        CREATE TABLE IF NOT EXISTS processed_messages (
            message_id TEXT PRIMARY KEY,
            event_type TEXT NOT NULL,
            subject_id TEXT NOT NULL,
            processed_at DATETIME NOT NULL
        );
    `)
	return err
}

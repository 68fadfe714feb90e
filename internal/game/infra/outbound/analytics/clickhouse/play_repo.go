package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	gameDomain "github.com/davicafu/gamehub/internal/game/domain"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// PlayAnalyticsRepo implementa PlayRecorder y PlayAnalytics para ClickHouse.
type PlayAnalyticsRepo struct {
	db *sql.DB
}

// NewPlayAnalyticsRepo es el constructor.
func NewPlayAnalyticsRepo(addr string, dbName string) (*PlayAnalyticsRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &PlayAnalyticsRepo{db: conn}, nil
}

// RecordPlays inserta un lote de partidas. ClickHouse funciona mejor con inserciones en lotes.
func (r *PlayAnalyticsRepo) RecordPlays(ctx context.Context, plays []gameDomain.PlayRecord) error {
	if len(plays) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO game_plays (game_id, user_id, message_id, played_at)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, p := range plays {
		if _, err := stmt.ExecContext(ctx, p.GameID, p.UserID, p.MessageID, p.PlayedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to exec statement for play %s: %w", p.MessageID, err)
		}
	}

	return tx.Commit()
}

// DailyPlays agrega partidas y jugadores únicos por día en [from, to].
// La tabla es ReplacingMergeTree por message_id: una re-entrega no duplica tras el merge,
// y uniqExact(message_id) lo corrige antes del merge.
func (r *PlayAnalyticsRepo) DailyPlays(ctx context.Context, from, to time.Time) ([]gameDomain.DailyPlays, error) {
	query := `
		SELECT
			toStartOfDay(played_at) AS day,
			uniqExact(message_id) AS plays,
			uniqExact(user_id) AS unique_players
		FROM game_plays
		WHERE played_at BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trend []gameDomain.DailyPlays
	for rows.Next() {
		var d gameDomain.DailyPlays
		if err := rows.Scan(&d.Day, &d.Plays, &d.UniquePlayers); err != nil {
			return nil, err
		}
		trend = append(trend, d)
	}
	return trend, rows.Err()
}

// InitSchema crea la tabla en ClickHouse si no existe.
// Se particiona por mes y se ordena por juego y fecha, el patrón de consulta habitual.
func (r *PlayAnalyticsRepo) InitSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS game_plays (
			game_id    String,
			user_id    String,
			message_id String,
			played_at  DateTime64(3)
		) ENGINE = ReplacingMergeTree()
		PARTITION BY toYYYYMM(played_at)
		ORDER BY (game_id, played_at, message_id);
	`
	_, err := r.db.Exec(query)
	return err
}

func (r *PlayAnalyticsRepo) Close() error {
	return r.db.Close()
}

// Verificación estática de la interfaz.
var (
	_ gameDomain.PlayRecorder  = (*PlayAnalyticsRepo)(nil)
	_ gameDomain.PlayAnalytics = (*PlayAnalyticsRepo)(nil)
)

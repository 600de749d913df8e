package postgres

import (
	"context"

	"github.com/JVdev14/ache-pre-os/internal/core/domain"
)

// SearchEventRepo implements ports.SearchEventRepository.
type SearchEventRepo struct {
	db *DB
}

func NewSearchEventRepo(db *DB) *SearchEventRepo {
	return &SearchEventRepo{db: db}
}

func (r *SearchEventRepo) Insert(ctx context.Context, event *domain.SearchEvent) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO search_events (id, user_id, query, kind, source, result_count, latency_ms, lat, lon, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, event.ID, nilIfEmpty(event.UserID), event.Query, event.Kind, event.Source,
		event.ResultCount, event.LatencyMs, event.Location.Lat, event.Location.Lon, event.CreatedAt)
	return err
}

func (r *SearchEventRepo) RecentByUser(ctx context.Context, userID string, limit int) ([]domain.SearchEvent, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, COALESCE(user_id::text, ''), query, kind, source, result_count, latency_ms, lat, lon, created_at
		FROM search_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.SearchEvent
	for rows.Next() {
		var e domain.SearchEvent
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Query, &e.Kind, &e.Source,
			&e.ResultCount, &e.LatencyMs, &e.Location.Lat, &e.Location.Lon, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

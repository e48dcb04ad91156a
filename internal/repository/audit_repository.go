package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"farmmarket/internal/models"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Record stores an event once; replays of the same stream entry are ignored.
func (r *AuditRepository) Record(ctx context.Context, event models.AuditEvent) error {
	const query = `
		INSERT INTO audit_events (id, type, subject_id, actor_id, payload, occurred_at, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO NOTHING
	`
	payload := event.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Type,
		event.SubjectID,
		event.ActorID,
		string(payload),
		event.OccurredAt,
	)
	return err
}

func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]models.AuditEvent, error) {
	const query = `
		SELECT id, type, subject_id, actor_id, payload, occurred_at, recorded_at
		FROM audit_events
		ORDER BY recorded_at DESC, id DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.AuditEvent{}
	for rows.Next() {
		var e models.AuditEvent
		var payload []byte
		if err := rows.Scan(
			&e.ID,
			&e.Type,
			&e.SubjectID,
			&e.ActorID,
			&payload,
			&e.OccurredAt,
			&e.RecordedAt,
		); err != nil {
			return nil, err
		}
		e.Payload = payload
		events = append(events, e)
	}
	return events, rows.Err()
}

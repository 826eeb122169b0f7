package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearfund/backend/domain"
	"github.com/clearfund/backend/repository"
)

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository returns a Postgres-backed implementation of EventRepository.
func NewEventRepository(pool *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) Append(ctx context.Context, ev domain.Event) error {
	const query = `
	INSERT INTO ledger_events (sequence, event_id, campaign_id, kind, payload, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (sequence) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		int64(ev.Sequence),
		ev.ID,
		int64(ev.CampaignID),
		string(ev.Kind),
		[]byte(ev.Payload),
		ev.CreatedAt,
	)
	return err
}

func (r *eventRepository) List(ctx context.Context, filter repository.EventFilter) ([]domain.Event, error) {
	const query = `
	SELECT sequence, event_id, campaign_id, kind, payload, created_at
	FROM ledger_events
	WHERE ($1 = 0 OR campaign_id = $1)
	  AND sequence > $2
	ORDER BY sequence ASC
	LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, int64(filter.CampaignID), int64(filter.AfterSeq), clampLimit(filter.Limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			ev       domain.Event
			seq, cid int64
			kind     string
			payload  []byte
		)
		if err := rows.Scan(&seq, &ev.ID, &cid, &kind, &payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Sequence = uint64(seq)
		ev.CampaignID = uint64(cid)
		ev.Kind = domain.EventKind(kind)
		ev.Payload = json.RawMessage(payload)
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *eventRepository) MaxSequence(ctx context.Context) (uint64, error) {
	const query = `SELECT COALESCE(MAX(sequence), 0) FROM ledger_events`
	var seq int64
	if err := r.pool.QueryRow(ctx, query).Scan(&seq); err != nil {
		return 0, err
	}
	return uint64(seq), nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"hostelhub/internal/common/types"
	"hostelhub/internal/rental/domain"
)

// OutboxRepository implements domain.OutboxRepository using PostgreSQL.
// This implements the outbox pattern for reliable event publishing.
//
// Events are written to the outbox within the same transaction as domain changes,
// then published asynchronously by a separate process (outbox publisher).
type OutboxRepository struct {
	db DBTX
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(db DBTX) *OutboxRepository {
	return &OutboxRepository{db: db}
}

const insertOutboxSQL = `
INSERT INTO rental.outbox (event_id, event_type, correlation_id, payload, occurred_at)
VALUES ($1, $2, $3, $4, $5)`

// Append adds an event to the outbox.
// It persists the event payload and metadata as part of the current transaction.
func (r *OutboxRepository) Append(ctx context.Context, entry *domain.OutboxEntry) error {
	_, err := r.db.Exec(ctx, insertOutboxSQL,
		entry.ID.String(),
		entry.EventType,
		string(entry.CorrelationID),
		entry.Payload,
		timeToTimestamptz(entry.OccurredAt),
	)
	return err
}

const fetchUnpublishedSQL = `
SELECT event_id, event_type, correlation_id, payload, occurred_at, published_at
FROM rental.outbox
WHERE published_at IS NULL
ORDER BY occurred_at
LIMIT $1
FOR UPDATE SKIP LOCKED`

// FetchUnpublished retrieves unpublished events for publishing.
// It locks rows with FOR UPDATE SKIP LOCKED to support concurrent publishers,
// ordering by occurred_at to maintain event ordering.
func (r *OutboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEntry, error) {
	rows, err := r.db.Query(ctx, fetchUnpublishedSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.OutboxEntry
	for rows.Next() {
		var (
			eventID, eventType, correlationID string
			payload                           []byte
			occurredAt, publishedAt           pgtype.Timestamptz
		)
		if err := rows.Scan(&eventID, &eventType, &correlationID, &payload, &occurredAt, &publishedAt); err != nil {
			return nil, err
		}

		occurred, err := timestamptzToTime(occurredAt)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid occurred_at: %v", domain.ErrCorruptData, err)
		}
		published, err := timestamptzToTimePtr(publishedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid published_at: %v", domain.ErrCorruptData, err)
		}

		entries = append(entries, &domain.OutboxEntry{
			ID:            types.EventID(eventID),
			EventType:     eventType,
			CorrelationID: types.CorrelationID(correlationID),
			Payload:       payload,
			OccurredAt:    occurred,
			PublishedAt:   published,
		})
	}
	return entries, rows.Err()
}

const markPublishedSQL = `
UPDATE rental.outbox
SET published_at = $1
WHERE event_id = ANY($2)`

// MarkPublished marks events as published.
// It is a no-op when the input list is empty.
func (r *OutboxRepository) MarkPublished(ctx context.Context, ids []types.EventID) error {
	if len(ids) == 0 {
		return nil
	}

	stringIDs := make([]string, len(ids))
	for i, id := range ids {
		stringIDs[i] = id.String()
	}

	_, err := r.db.Exec(ctx, markPublishedSQL, timeToTimestamptz(time.Now()), stringIDs)
	return err
}

// Verify interface implementation.
var _ domain.OutboxRepository = (*OutboxRepository)(nil)

package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DLQManager retries failed deliveries and quarantines entries that exhaust
// their retry budget. Redrive works by clearing the published marker on the
// original outbox row so the dispatcher picks it up again.
type DLQManager struct {
	pool       *pgxpool.Pool
	maxRetries int
	baseDelay  time.Duration
}

// NewDLQManager constructs a DLQManager with the provided pool and retry
// configuration.
func NewDLQManager(pool *pgxpool.Pool, maxRetries int, baseDelay time.Duration) *DLQManager {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	if baseDelay <= 0 {
		baseDelay = time.Minute
	}
	return &DLQManager{pool: pool, maxRetries: maxRetries, baseDelay: baseDelay}
}

// RunOnce processes a batch of due DLQ entries and returns the count of
// successfully redriven messages.
func (m *DLQManager) RunOnce(ctx context.Context, batchSize int) (int, error) {
	const query = `SELECT dlq_id, event_id, topic, retry_count
                    FROM outbox_dlq
                   WHERE quarantined_at IS NULL AND (next_retry_at IS NULL OR next_retry_at <= NOW())
                   ORDER BY failed_at
                   LIMIT $1`

	rows, err := m.pool.Query(ctx, query, batchSize)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type entry struct {
		ID         int64
		EventID    int64
		Topic      string
		RetryCount int
	}

	entries := make([]entry, 0)
	for rows.Next() {
		var e entry
		if scanErr := rows.Scan(&e.ID, &e.EventID, &e.Topic, &e.RetryCount); scanErr != nil {
			err = errors.Join(err, scanErr)
			continue
		}
		entries = append(entries, e)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return 0, errors.Join(err, rowsErr)
	}

	redriven := 0
	for _, e := range entries {
		hit, procErr := m.handleEntry(ctx, e.ID, e.EventID, e.Topic, e.RetryCount)
		if procErr != nil {
			err = errors.Join(err, procErr)
			continue
		}
		if hit {
			redriven++
		}
	}
	return redriven, err
}

func (m *DLQManager) handleEntry(ctx context.Context, dlqID, eventID int64, topic string, retryCount int) (bool, error) {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if retryCount >= m.maxRetries {
		if _, err := tx.Exec(ctx,
			`UPDATE outbox_dlq SET quarantined_at = NOW(), quarantine_reason = $1 WHERE dlq_id = $2`,
			"retry limit reached", dlqID,
		); err != nil {
			return false, err
		}
		dlqQuarantinedCounter.WithLabelValues(topic).Inc()
		return false, tx.Commit(ctx)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE outbox SET published_at = NULL, claimed_at = NULL WHERE event_id = $1`,
		eventID,
	)
	if err != nil {
		return false, err
	}

	if tag.RowsAffected() == 0 {
		// The source row is gone; nothing left to redrive.
		if _, err := tx.Exec(ctx,
			`UPDATE outbox_dlq SET quarantined_at = NOW(), quarantine_reason = $1 WHERE dlq_id = $2`,
			"outbox row missing", dlqID,
		); err != nil {
			return false, err
		}
		dlqQuarantinedCounter.WithLabelValues(topic).Inc()
		return false, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE outbox_dlq
           SET retry_count = retry_count + 1,
               last_attempt_at = NOW(),
               next_retry_at = NOW() + $1::interval
         WHERE dlq_id = $2`,
		m.backoffDelay(retryCount+1), dlqID,
	); err != nil {
		return false, err
	}

	dlqRedrivenCounter.WithLabelValues(topic).Inc()
	return true, tx.Commit(ctx)
}

// Resolve removes DLQ entries whose outbox rows have since been published,
// closing the loop after a successful redrive.
func (m *DLQManager) Resolve(ctx context.Context) (int, error) {
	tag, err := m.pool.Exec(ctx,
		`DELETE FROM outbox_dlq d
          USING outbox o
          WHERE d.event_id = o.event_id
            AND o.published_at IS NOT NULL
            AND d.retry_count > 0
            AND d.quarantined_at IS NULL`,
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// backoffDelay calculates exponential backoff capped at one hour.
func (m *DLQManager) backoffDelay(attempt int) time.Duration {
	delay := time.Duration(1<<uint(attempt-1)) * m.baseDelay
	if delay > time.Hour {
		delay = time.Hour
	}
	return delay
}

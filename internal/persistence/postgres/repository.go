// Package postgres implements the record store adapter on pgx. Lifecycle
// transitions are applied as single conditional updates so concurrent
// transitions on one record id resolve to exactly one winner.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/shiftlog/internal/domain"
	"example.com/shiftlog/internal/events"
	"example.com/shiftlog/internal/observability"
)

const recordColumns = `record_id, operator_id, operator_name, operator_email, name, detail, shift, state, started_at, paused_at, resumed_at, ended_at, duration_minutes, date, created_at`

// Repository provides Postgres-backed persistence for activity records and
// outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create persists a new record and its outbox events in one transaction.
// The id is assigned here, at the store boundary.
func (r *Repository) Create(ctx context.Context, rec domain.ActivityRecord) (string, error) {
	rec.ID = uuid.NewString()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", storeErr(err)
	}
	defer tx.Rollback(ctx)

	const insertRecord = `INSERT INTO activity_records (` + recordColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	if _, err := tx.Exec(ctx, insertRecord,
		rec.ID,
		rec.OperatorID,
		rec.OperatorName,
		rec.OperatorEmail,
		rec.Name,
		nullIfEmpty(rec.Detail),
		nullIfEmpty(rec.Shift),
		rec.State,
		rec.StartedAt,
		rec.PausedAt,
		rec.ResumedAt,
		rec.EndedAt,
		rec.DurationMinutes,
		rec.Date,
		rec.CreatedAt,
	); err != nil {
		return "", storeErr(err)
	}

	if err := insertOutbox(ctx, tx, "record.started", rec.ID, rec.OperatorID, rec.CreatedAt, events.RecordStarted{
		RecordID:      rec.ID,
		OperatorID:    rec.OperatorID,
		OperatorName:  rec.OperatorName,
		OperatorEmail: rec.OperatorEmail,
		Name:          rec.Name,
		Detail:        rec.Detail,
		Shift:         rec.Shift,
		StartedAt:     rec.StartedAt,
		Date:          rec.Date,
		CreatedAt:     rec.CreatedAt,
	}); err != nil {
		return "", err
	}

	if err := insertOutbox(ctx, tx, "record.state_changed", rec.ID, rec.ID, rec.CreatedAt, events.RecordStateChanged{
		RecordID:   rec.ID,
		OperatorID: rec.OperatorID,
		State:      string(rec.State),
		OccurredAt: rec.CreatedAt,
	}); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", storeErr(err)
	}

	observability.RecordPersisted(rec.CreatedAt)
	return rec.ID, nil
}

// Get retrieves a record by id. A missing id yields (nil, nil).
func (r *Repository) Get(ctx context.Context, id string) (*domain.ActivityRecord, error) {
	const query = `SELECT ` + recordColumns + ` FROM activity_records WHERE record_id=$1`

	row := r.pool.QueryRow(ctx, query, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr(err)
	}
	return rec, nil
}

// Transition applies a lifecycle change atomically: the update only lands
// when the current state is one of from. A losing racer gets
// domain.ErrInvalidTransition and the record stays untouched.
func (r *Repository) Transition(ctx context.Context, id string, from []domain.State, change domain.TransitionChange) (*domain.ActivityRecord, error) {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storeErr(err)
	}
	defer tx.Rollback(ctx)

	const update = `UPDATE activity_records SET
            state            = $2,
            paused_at        = COALESCE($3, paused_at),
            resumed_at       = COALESCE($4, resumed_at),
            ended_at         = COALESCE($5, ended_at),
            duration_minutes = COALESCE($6, duration_minutes)
        WHERE record_id = $1 AND state = ANY($7)
        RETURNING ` + recordColumns

	row := tx.QueryRow(ctx, update, id, change.State, change.PausedAt, change.ResumedAt, change.EndedAt, change.DurationMinutes, states)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyRejection(ctx, id)
		}
		return nil, storeErr(err)
	}

	occurred := time.Now().UTC()
	if err := insertOutbox(ctx, tx, "record.state_changed", rec.ID, rec.ID, occurred, events.RecordStateChanged{
		RecordID:        rec.ID,
		OperatorID:      rec.OperatorID,
		State:           string(rec.State),
		PausedAt:        change.PausedAt,
		ResumedAt:       change.ResumedAt,
		EndedAt:         change.EndedAt,
		DurationMinutes: change.DurationMinutes,
		OccurredAt:      occurred,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr(err)
	}

	observability.RecordPersisted(occurred)
	return rec, nil
}

// classifyRejection distinguishes a missing record from a state conflict
// after a conditional update matched zero rows.
func (r *Repository) classifyRejection(ctx context.Context, id string) error {
	var state string
	err := r.pool.QueryRow(ctx, `SELECT state FROM activity_records WHERE record_id=$1`, id).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrRecordNotFound
	}
	if err != nil {
		return storeErr(err)
	}
	return fmt.Errorf("%w: record is %s", domain.ErrInvalidTransition, state)
}

// ListByOperatorDate returns one operator's records for a calendar date,
// newest first.
func (r *Repository) ListByOperatorDate(ctx context.Context, operatorID, date string) ([]domain.ActivityRecord, error) {
	const query = `SELECT ` + recordColumns + ` FROM activity_records
        WHERE operator_id=$1 AND date=$2 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, operatorID, date)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// ListAll returns every record ordered by creation, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]domain.ActivityRecord, error) {
	const query = `SELECT ` + recordColumns + ` FROM activity_records ORDER BY created_at DESC, record_id DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]domain.ActivityRecord, error) {
	results := make([]domain.ActivityRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		results = append(results, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return results, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*domain.ActivityRecord, error) {
	var (
		rec    domain.ActivityRecord
		detail *string
		shift  *string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.OperatorID,
		&rec.OperatorName,
		&rec.OperatorEmail,
		&rec.Name,
		&detail,
		&shift,
		&rec.State,
		&rec.StartedAt,
		&rec.PausedAt,
		&rec.ResumedAt,
		&rec.EndedAt,
		&rec.DurationMinutes,
		&rec.Date,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	if detail != nil {
		rec.Detail = *detail
	}
	if shift != nil {
		rec.Shift = *shift
	}
	return &rec, nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, eventType, aggregateID, partitionKey string, occurredAt time.Time, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta := eventCatalog[eventType]
	if meta.Topic == "" {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	dedupeKey := fmt.Sprintf("%s:%s:%s", aggregateID, eventType, occurredAt.Format(time.RFC3339Nano))

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	if _, err := tx.Exec(ctx, stmt,
		"activity_record",
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		partitionKey,
		body,
		dedupeKey,
	); err != nil {
		return storeErr(err)
	}
	return nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	"record.started": {
		Topic:         "record_events",
		SchemaSubject: "record_events-value",
	},
	"record.state_changed": {
		Topic:         "record_state_changed",
		SchemaSubject: "record_state_changed-value",
	},
}

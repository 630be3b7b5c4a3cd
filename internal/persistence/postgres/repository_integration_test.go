//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/shiftlog/internal/domain"
)

func startDatabase(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("shiftlog"),
		postgrescontainer.WithUsername("shiftlog"),
		postgrescontainer.WithPassword("shiftlog"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func seedRecord(operator string) domain.ActivityRecord {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.ActivityRecord{
		OperatorID:    operator,
		OperatorName:  "Ana Torres",
		OperatorEmail: operator + "@example.com",
		Name:          "Atención tickets soporte",
		Detail:        "integración",
		Shift:         "dia",
		State:         domain.StateInProgress,
		StartedAt:     now,
		Date:          now.Format("2006-01-02"),
		CreatedAt:     now,
	}
}

func TestRepositoryLifecycleRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	repo := NewRepository(pool)

	id, err := repo.Create(ctx, seedRecord("op-1"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	stored, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, domain.StateInProgress, stored.State)
	require.Nil(t, stored.DurationMinutes)

	pausedAt := time.Now().UTC().Truncate(time.Microsecond)
	paused, err := repo.Transition(ctx, id, []domain.State{domain.StateInProgress}, domain.TransitionChange{
		State:    domain.StatePaused,
		PausedAt: &pausedAt,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatePaused, paused.State)
	require.NotNil(t, paused.PausedAt)

	endedAt := pausedAt.Add(20 * time.Minute)
	minutes := 20
	done, err := repo.Transition(ctx, id, []domain.State{domain.StateInProgress, domain.StatePaused}, domain.TransitionChange{
		State:           domain.StateCompleted,
		EndedAt:         &endedAt,
		DurationMinutes: &minutes,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StateCompleted, done.State)
	require.NotNil(t, done.DurationMinutes)
	require.Equal(t, 20, *done.DurationMinutes)
}

func TestRepositoryRejectsGuardedTransitions(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	repo := NewRepository(pool)

	id, err := repo.Create(ctx, seedRecord("op-1"))
	require.NoError(t, err)

	endedAt := time.Now().UTC()
	minutes := 5
	_, err = repo.Transition(ctx, id, []domain.State{domain.StateInProgress, domain.StatePaused}, domain.TransitionChange{
		State:           domain.StateCompleted,
		EndedAt:         &endedAt,
		DurationMinutes: &minutes,
	})
	require.NoError(t, err)

	// The record is terminal now: every further transition loses.
	pausedAt := time.Now().UTC()
	_, err = repo.Transition(ctx, id, []domain.State{domain.StateInProgress}, domain.TransitionChange{
		State:    domain.StatePaused,
		PausedAt: &pausedAt,
	})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = repo.Transition(ctx, "00000000-0000-0000-0000-000000000000", []domain.State{domain.StateInProgress}, domain.TransitionChange{
		State:    domain.StatePaused,
		PausedAt: &pausedAt,
	})
	require.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestRepositoryWritesOutboxRows(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	repo := NewRepository(pool)

	id, err := repo.Create(ctx, seedRecord("op-1"))
	require.NoError(t, err)

	var count int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_id = $1 AND published_at IS NULL`, id,
	).Scan(&count))
	require.Equal(t, 2, count, "create must enqueue started and state_changed events")

	pausedAt := time.Now().UTC()
	_, err = repo.Transition(ctx, id, []domain.State{domain.StateInProgress}, domain.TransitionChange{
		State:    domain.StatePaused,
		PausedAt: &pausedAt,
	})
	require.NoError(t, err)

	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_id = $1 AND event_type = 'record.state_changed'`, id,
	).Scan(&count))
	require.Equal(t, 2, count)
}

func TestRepositoryListByOperatorDate(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	repo := NewRepository(pool)

	first := seedRecord("op-1")
	second := seedRecord("op-1")
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	other := seedRecord("op-2")

	_, err := repo.Create(ctx, first)
	require.NoError(t, err)
	secondID, err := repo.Create(ctx, second)
	require.NoError(t, err)
	_, err = repo.Create(ctx, other)
	require.NoError(t, err)

	records, err := repo.ListByOperatorDate(ctx, "op-1", first.Date)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, secondID, records[0].ID, "newest record first")

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	files := []string{
		"../../../db/postgres/migrations/0001_init.up.sql",
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, rel := range files {
		path := resolvePath(t, rel)
		contents, readErr := os.ReadFile(path)
		require.NoError(t, readErr)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoError(t, execErr)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}

package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"testing"
	"time"
)

// fakeRepo implements RecordRepository in memory with the same transition
// guard semantics as the Postgres adapter.
type fakeRepo struct {
	records map[string]ActivityRecord
	nextID  int
	failing bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[string]ActivityRecord)}
}

func (r *fakeRepo) Create(_ context.Context, rec ActivityRecord) (string, error) {
	if r.failing {
		return "", fmt.Errorf("%w: create failed", ErrStoreUnavailable)
	}
	r.nextID++
	id := "rec-" + strconv.Itoa(r.nextID)
	rec.ID = id
	r.records[id] = rec
	return id, nil
}

func (r *fakeRepo) Get(_ context.Context, id string) (*ActivityRecord, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	copied := rec
	return &copied, nil
}

func (r *fakeRepo) Transition(_ context.Context, id string, from []State, change TransitionChange) (*ActivityRecord, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}

	allowed := false
	for _, state := range from {
		if rec.State == state {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: record is %s", ErrInvalidTransition, rec.State)
	}

	rec.State = change.State
	if change.PausedAt != nil {
		rec.PausedAt = change.PausedAt
	}
	if change.ResumedAt != nil {
		rec.ResumedAt = change.ResumedAt
	}
	if change.EndedAt != nil {
		rec.EndedAt = change.EndedAt
	}
	if change.DurationMinutes != nil {
		rec.DurationMinutes = change.DurationMinutes
	}
	r.records[id] = rec
	copied := rec
	return &copied, nil
}

func (r *fakeRepo) ListByOperatorDate(_ context.Context, operatorID, date string) ([]ActivityRecord, error) {
	out := make([]ActivityRecord, 0)
	for _, rec := range r.records {
		if rec.OperatorID == operatorID && rec.Date == date {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) ListAll(_ context.Context) ([]ActivityRecord, error) {
	out := make([]ActivityRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testOperator = Operator{ID: "op-1", Name: "Ana Torres", Email: "ana@example.com"}

func TestStartCreatesInProgressRecord(t *testing.T) {
	repo := newFakeRepo()
	started := time.Date(2025, time.March, 10, 9, 15, 0, 0, time.UTC)
	svc := NewService(repo, WithClock(fixedClock(started)))

	rec, err := svc.Start(context.Background(), StartInput{
		Operator: testOperator,
		Shift:    "dia",
		Name:     "Atención tickets soporte",
		Detail:   "cola llena",
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if rec.ID == "" {
		t.Fatal("expected record id to be assigned")
	}
	if rec.State != StateInProgress {
		t.Fatalf("expected in_progress got %s", rec.State)
	}
	if rec.Date != "2025-03-10" {
		t.Fatalf("unexpected date %s", rec.Date)
	}
	if rec.DurationMinutes != nil {
		t.Fatal("duration must be unset until completion")
	}
	if rec.DisplayTitle() != "Atención tickets soporte: cola llena" {
		t.Fatalf("unexpected title %q", rec.DisplayTitle())
	}
}

func TestStartRequiresName(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Start(context.Background(), StartInput{Operator: testOperator, Name: "   "})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestStartAllowsConcurrentOpenRecords(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	for _, name := range []string{"Revisión de logs", "Atención tickets soporte"} {
		if _, err := svc.Start(context.Background(), StartInput{Operator: testOperator, Name: name}); err != nil {
			t.Fatalf("start %q failed: %v", name, err)
		}
	}

	records, err := svc.AllRecords(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 open records got %d", len(records))
	}
	for _, rec := range records {
		if !rec.Open() {
			t.Fatalf("expected record %s to be open", rec.ID)
		}
	}
}

func TestPauseResumeFinishFlow(t *testing.T) {
	repo := newFakeRepo()
	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	now := start
	svc := NewService(repo, WithClock(func() time.Time { return now }))

	rec, err := svc.Start(context.Background(), StartInput{Operator: testOperator, Name: "Generación de reportes"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	now = start.Add(10 * time.Minute)
	paused, err := svc.Pause(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if paused.State != StatePaused || paused.PausedAt == nil {
		t.Fatalf("unexpected paused record %+v", paused)
	}

	now = start.Add(25 * time.Minute)
	resumed, err := svc.Resume(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if resumed.State != StateInProgress || resumed.ResumedAt == nil {
		t.Fatalf("unexpected resumed record %+v", resumed)
	}

	now = start.Add(45 * time.Minute)
	done, err := svc.Finish(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if done.State != StateCompleted {
		t.Fatalf("expected completed got %s", done.State)
	}
	// Duration spans start to end regardless of pauses.
	if done.DurationMinutes == nil || *done.DurationMinutes != 45 {
		t.Fatalf("unexpected duration %v", done.DurationMinutes)
	}
	if done.EndedAt == nil || !done.EndedAt.Equal(now) {
		t.Fatalf("unexpected ended_at %v", done.EndedAt)
	}
}

func TestFinishFromPausedState(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	rec, err := svc.Start(context.Background(), StartInput{Operator: testOperator, Name: "Informe monitoreo"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := svc.Pause(context.Background(), rec.ID); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if _, err := svc.Finish(context.Background(), rec.ID); err != nil {
		t.Fatalf("finish from paused failed: %v", err)
	}
}

func TestCompletedIsTerminal(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	rec, err := svc.Start(context.Background(), StartInput{Operator: testOperator, Name: "Revisión de logs"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := svc.Finish(context.Background(), rec.ID); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	if _, err := svc.Pause(context.Background(), rec.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on pause got %v", err)
	}
	if _, err := svc.Resume(context.Background(), rec.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on resume got %v", err)
	}
	if _, err := svc.Finish(context.Background(), rec.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on second finish got %v", err)
	}

	got, err := repo.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.State != StateCompleted {
		t.Fatalf("rejected transitions must not change state, got %s", got.State)
	}
}

func TestPauseUnknownRecord(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Pause(context.Background(), "missing")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestResumeRequiresPausedState(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	rec, err := svc.Start(context.Background(), StartInput{Operator: testOperator, Name: "Correo de carga cobranzas"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if _, err := svc.Resume(context.Background(), rec.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition got %v", err)
	}
}

func TestStartSurfacesStoreFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.failing = true
	svc := NewService(repo)

	_, err := svc.Start(context.Background(), StartInput{Operator: testOperator, Name: "Revisión de logs"})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable got %v", err)
	}
}

func TestSummarizeDaySpansAllShifts(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	svc := NewService(repo, WithClock(func() time.Time { return now }))

	first, err := svc.Start(context.Background(), StartInput{Operator: testOperator, Shift: "velada", Name: "Monitoreo servicios nocturnos"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	now = now.Add(30 * time.Minute)
	if _, err := svc.Finish(context.Background(), first.ID); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	second, err := svc.Start(context.Background(), StartInput{Operator: testOperator, Shift: "dia", Name: "Atención tickets soporte"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	now = now.Add(15 * time.Minute)
	if _, err := svc.Finish(context.Background(), second.ID); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	// Still open, must not count toward minutes.
	if _, err := svc.Start(context.Background(), StartInput{Operator: testOperator, Shift: "dia", Name: "Revisión de logs"}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	summary, err := svc.SummarizeDay(context.Background(), testOperator.ID, "2025-03-10")
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if summary.Total != 3 {
		t.Fatalf("expected 3 records got %d", summary.Total)
	}
	if summary.TotalMinutes != 45 {
		t.Fatalf("expected 45 minutes across shifts got %d", summary.TotalMinutes)
	}
}

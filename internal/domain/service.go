package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"example.com/shiftlog/internal/observability"
)

// TransitionChange carries the fields a lifecycle transition writes. The
// store applies it atomically, guarded by the allowed source states.
type TransitionChange struct {
	State           State
	PausedAt        *time.Time
	ResumedAt       *time.Time
	EndedAt         *time.Time
	DurationMinutes *int
}

// RecordRepository captures the store adapter contract the lifecycle needs.
// Transition must be atomic relative to concurrent calls on the same id:
// when the current state is not in from, it fails with ErrInvalidTransition
// and leaves the record untouched.
type RecordRepository interface {
	Create(ctx context.Context, rec ActivityRecord) (string, error)
	Get(ctx context.Context, id string) (*ActivityRecord, error)
	Transition(ctx context.Context, id string, from []State, change TransitionChange) (*ActivityRecord, error)
	ListByOperatorDate(ctx context.Context, operatorID, date string) ([]ActivityRecord, error)
	ListAll(ctx context.Context) ([]ActivityRecord, error)
}

// Service owns the activity lifecycle state machine:
// in_progress <-> paused -> completed (terminal).
type Service struct {
	repo RecordRepository
	now  func() time.Time
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithClock overrides the wall clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService constructs a Service.
func NewService(repo RecordRepository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartInput captures the payload for starting a new activity.
type StartInput struct {
	Operator Operator
	Shift    string
	Name     string
	Detail   string
	// TZOffsetMinutes is the operator's UTC offset, used to pin the record's
	// calendar date to the operator's local day.
	TZOffsetMinutes int
}

// Start creates a new in_progress record. There is deliberately no
// uniqueness check against the operator's other open records: interruption
// heavy shift work means several activities can be open at once.
func (s *Service) Start(ctx context.Context, input StartInput) (*ActivityRecord, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: activity name is required", ErrValidation)
	}
	if strings.TrimSpace(input.Operator.ID) == "" {
		return nil, fmt.Errorf("%w: operator id is required", ErrValidation)
	}

	now := s.now().UTC()
	rec := ActivityRecord{
		OperatorID:    input.Operator.ID,
		OperatorName:  input.Operator.Name,
		OperatorEmail: input.Operator.Email,
		Name:          strings.TrimSpace(input.Name),
		Detail:        strings.TrimSpace(input.Detail),
		Shift:         input.Shift,
		State:         StateInProgress,
		StartedAt:     now,
		Date:          DateIn(now, input.TZOffsetMinutes),
		CreatedAt:     now,
	}

	id, err := s.repo.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id

	observability.RecordTransition("start", "applied")
	return &rec, nil
}

// Pause moves an in_progress record to paused.
func (s *Service) Pause(ctx context.Context, id string) (*ActivityRecord, error) {
	now := s.now().UTC()
	rec, err := s.repo.Transition(ctx, id, []State{StateInProgress}, TransitionChange{
		State:    StatePaused,
		PausedAt: &now,
	})
	return s.observed("pause", rec, err)
}

// Resume moves a paused record back to in_progress.
func (s *Service) Resume(ctx context.Context, id string) (*ActivityRecord, error) {
	now := s.now().UTC()
	rec, err := s.repo.Transition(ctx, id, []State{StatePaused}, TransitionChange{
		State:     StateInProgress,
		ResumedAt: &now,
	})
	return s.observed("resume", rec, err)
}

// Finish completes an open record, setting endedAt and the once-only
// duration. Completed records are immutable afterwards.
func (s *Service) Finish(ctx context.Context, id string) (*ActivityRecord, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrRecordNotFound
	}

	end := s.now().UTC()
	minutes := DurationBetween(current.StartedAt, end)

	rec, err := s.repo.Transition(ctx, id, []State{StateInProgress, StatePaused}, TransitionChange{
		State:           StateCompleted,
		EndedAt:         &end,
		DurationMinutes: &minutes,
	})
	return s.observed("finish", rec, err)
}

// DayRecords lists the operator's records for one calendar date.
func (s *Service) DayRecords(ctx context.Context, operatorID, date string) ([]ActivityRecord, error) {
	return s.repo.ListByOperatorDate(ctx, operatorID, date)
}

// AllRecords returns every record, newest first, for the admin views.
func (s *Service) AllRecords(ctx context.Context) ([]ActivityRecord, error) {
	return s.repo.ListAll(ctx)
}

// DaySummary aggregates the operator's day for the dashboard tiles.
type DaySummary struct {
	Total        int
	TotalMinutes int
}

// SummarizeDay counts the operator's records for a date and sums completed
// durations across all shifts.
func (s *Service) SummarizeDay(ctx context.Context, operatorID, date string) (DaySummary, error) {
	records, err := s.repo.ListByOperatorDate(ctx, operatorID, date)
	if err != nil {
		return DaySummary{}, err
	}

	summary := DaySummary{Total: len(records)}
	for _, rec := range records {
		if rec.DurationMinutes != nil {
			summary.TotalMinutes += *rec.DurationMinutes
		}
	}
	return summary, nil
}

func (s *Service) observed(action string, rec *ActivityRecord, err error) (*ActivityRecord, error) {
	if err != nil {
		result := "error"
		switch {
		case errors.Is(err, ErrInvalidTransition):
			result = "rejected"
		case errors.Is(err, ErrRecordNotFound):
			result = "not_found"
		}
		observability.RecordTransition(action, result)
		return nil, err
	}
	observability.RecordTransition(action, "applied")
	return rec, nil
}

// Package domain defines the activity record lifecycle for shiftlog.
package domain

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrInvalidTransition is returned when a lifecycle operation is attempted
	// from a state that does not permit it. The record is left unchanged.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	// ErrRecordNotFound is returned when a record cannot be located.
	ErrRecordNotFound = errors.New("activity record not found")
	// ErrValidation is returned when required input is missing or malformed,
	// before any store mutation happens.
	ErrValidation = errors.New("validation failed")
	// ErrStoreUnavailable wraps store adapter failures. Retry policy belongs
	// to the adapter, not to this package.
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// State represents the lifecycle state of an activity record.
type State string

const (
	StateInProgress State = "in_progress"
	StatePaused     State = "paused"
	StateCompleted  State = "completed"
)

// Operator is the identity snapshot captured on each record at creation time.
// Renaming an operator later never rewrites past records.
type Operator struct {
	ID    string
	Name  string
	Email string
}

// ActivityRecord is one unit of logged work.
type ActivityRecord struct {
	ID            string
	OperatorID    string
	OperatorName  string
	OperatorEmail string
	// Name is the display title. Detail is the optional free-text note that
	// legacy reports embedded in the title behind a ": " separator; it stays
	// a separate field everywhere except the text rendering boundary.
	Name   string
	Detail string
	// Shift is a catalog id, or empty for records started outside any shift.
	Shift     string
	State     State
	StartedAt time.Time
	// PausedAt and ResumedAt track the latest pause/resume only. They are
	// informational and never enter duration math.
	PausedAt  *time.Time
	ResumedAt *time.Time
	EndedAt   *time.Time
	// DurationMinutes is set exactly once, on completion.
	DurationMinutes *int
	// Date is the operator-local calendar day (YYYY-MM-DD) the record was
	// started on. Derived once at creation; a record spanning midnight keeps
	// its start date.
	Date      string
	CreatedAt time.Time
}

// Open reports whether the record still accepts transitions.
func (r ActivityRecord) Open() bool {
	return r.State == StateInProgress || r.State == StatePaused
}

// Completed reports whether the record reached its terminal state.
func (r ActivityRecord) Completed() bool {
	return r.State == StateCompleted
}

// DisplayTitle renders the legacy single-string title, re-applying the
// ": detail" convention expected by reports and exports.
func (r ActivityRecord) DisplayTitle() string {
	return EncodeTitle(r.Name, r.Detail)
}

// DurationBetween computes whole minutes between start and end, rounded to
// the nearest minute and clamped to zero. It never returns a negative value.
func DurationBetween(start, end time.Time) int {
	minutes := int(math.Round(end.Sub(start).Minutes()))
	if minutes < 0 {
		return 0
	}
	return minutes
}

// DateIn formats the calendar date of ts shifted by the operator's UTC offset
// in minutes. Offset zero means the server clock is authoritative.
func DateIn(ts time.Time, tzOffsetMinutes int) string {
	if tzOffsetMinutes != 0 {
		ts = ts.UTC().Add(time.Duration(tzOffsetMinutes) * time.Minute)
	}
	return ts.Format("2006-01-02")
}

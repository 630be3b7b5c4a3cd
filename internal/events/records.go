// Package events defines the payloads published for record changes. The
// consumer rebuilds record-set snapshots from them.
package events

import "time"

// RecordStarted is emitted when a new activity record is created.
type RecordStarted struct {
	RecordID      string    `json:"record_id"`
	OperatorID    string    `json:"operator_id"`
	OperatorName  string    `json:"operator_name"`
	OperatorEmail string    `json:"operator_email"`
	Name          string    `json:"name"`
	Detail        string    `json:"detail,omitempty"`
	Shift         string    `json:"shift,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	Date          string    `json:"date"`
	CreatedAt     time.Time `json:"created_at"`
}

// RecordStateChanged is emitted on every lifecycle transition. Optional
// fields carry only what the transition wrote.
type RecordStateChanged struct {
	RecordID        string     `json:"record_id"`
	OperatorID      string     `json:"operator_id"`
	State           string     `json:"state"`
	PausedAt        *time.Time `json:"paused_at,omitempty"`
	ResumedAt       *time.Time `json:"resumed_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	OccurredAt      time.Time  `json:"occurred_at"`
}

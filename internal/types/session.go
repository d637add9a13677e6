// Package types provides type definitions for structured data used throughout the career simulator.
package types

import (
	"time"

	"github.com/google/uuid"
)

// EmploymentStatus represents where a session is in the hiring lifecycle.
type EmploymentStatus string

// Employment status constants
const (
	StatusUnemployed   EmploymentStatus = "unemployed"
	StatusInterviewing EmploymentStatus = "interviewing"
	StatusEmployed     EmploymentStatus = "employed"
)

// SessionStats holds denormalized counters for a session. They are updated
// transactionally alongside ledger appends so reads never recompute history.
type SessionStats struct {
	TasksCompleted        int     `json:"tasks_completed"`
	TasksFailed           int     `json:"tasks_failed"`
	TasksSinceLastMeeting int     `json:"tasks_since_last_meeting"`
	MeetingsAttended      int     `json:"meetings_attended"`
	MeetingsCompleted     int     `json:"meetings_completed"`
	MeetingScoreAvg       float64 `json:"meeting_score_avg"`
	InterviewsFailed      int     `json:"interviews_failed"`
}

// Session is one player's persistent career-progression state. It is owned
// by the session engine and mutated only through its transition functions.
type Session struct {
	ID           uuid.UUID        `json:"id"`
	PlayerID     uuid.UUID        `json:"player_id"`
	Profession   string           `json:"profession"`
	Level        int              `json:"level"`
	XPTotal      int              `json:"xp_total"`
	Employment   EmploymentStatus `json:"employment"`
	CurrentJobID *uuid.UUID       `json:"current_job_id,omitempty"`
	Stats        SessionStats     `json:"stats"`
	// EventCounter increases monotonically with every inbound event the
	// engine processes for this session.
	EventCounter int64 `json:"event_counter"`
	// Version is the optimistic concurrency stamp. Conditional updates
	// that lose the race surface a retryable conflict.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LedgerEntry is an immutable XP-affecting record. The session's XP total is
// always the sum of its ledger entries, never an independently mutated field.
type LedgerEntry struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	EventID   int64     `json:"event_id"`
	XPDelta   int       `json:"xp_delta"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// TriggerRecord is an idempotency marker written before any generation side
// effect, keyed by (session, source event, trigger kind). A retried request
// that finds its record already present skips the generation.
type TriggerRecord struct {
	SessionID     uuid.UUID `json:"session_id"`
	SourceEventID string    `json:"source_event_id"`
	Kind          string    `json:"kind"`
	CreatedAt     time.Time `json:"created_at"`
}

package types

import (
	"time"

	"github.com/google/uuid"
)

// MeetingType identifies the kind of meeting scheduled for a session.
type MeetingType string

// Meeting type constants
const (
	MeetingOneOnOne        MeetingType = "one_on_one"
	MeetingTeam            MeetingType = "team_meeting"
	MeetingStakeholder     MeetingType = "stakeholder_presentation"
	MeetingPerformance     MeetingType = "performance_review"
	MeetingProjectUpdate   MeetingType = "project_update"
	MeetingFeedbackSession MeetingType = "feedback_session"
)

// MeetingStatus represents the lifecycle state of a meeting.
type MeetingStatus string

// Meeting status constants. Completed and abandoned are terminal.
const (
	MeetingScheduled MeetingStatus = "scheduled"
	MeetingActive    MeetingStatus = "active"
	MeetingCompleted MeetingStatus = "completed"
	MeetingAbandoned MeetingStatus = "abandoned"
)

// Meeting belongs to exactly one session. Score is set only once the meeting
// reaches a terminal state.
type Meeting struct {
	ID        uuid.UUID     `json:"id"`
	SessionID uuid.UUID     `json:"session_id"`
	Type      MeetingType   `json:"type"`
	Status    MeetingStatus `json:"status"`
	Title     string        `json:"title"`
	Topics    []string      `json:"topics"`
	// Score is the participation score (0-100), nil until completion.
	Score *int `json:"score,omitempty"`
	// Responses counts the player turns taken while active; ScoreTotal sums
	// their contribution ratings. The final score is their average.
	Responses   int       `json:"responses"`
	ScoreTotal  int       `json:"score_total"`
	ActionItems []string  `json:"action_items,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Terminal reports whether the meeting can no longer change state.
func (m *Meeting) Terminal() bool {
	return m.Status == MeetingCompleted || m.Status == MeetingAbandoned
}

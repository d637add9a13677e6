package types

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a work task.
type TaskStatus string

// Task status constants. Passed is terminal; a passed task never changes again.
const (
	TaskActive    TaskStatus = "active"
	TaskSubmitted TaskStatus = "submitted"
	TaskPassed    TaskStatus = "passed"
	TaskFailed    TaskStatus = "failed"
)

// TaskOrigin records how a task came to exist.
type TaskOrigin string

// Task origin constants
const (
	OriginGenerated       TaskOrigin = "generated"
	OriginMeetingFollowup TaskOrigin = "meeting_followup"
)

// TaskFormat identifies the structured answer format a task expects.
type TaskFormat string

// Task format constants
const (
	FormatFreeText       TaskFormat = "free_text"
	FormatMultipleChoice TaskFormat = "multiple_choice"
	FormatFillInBlank    TaskFormat = "fill_in_blank"
	FormatMatching       TaskFormat = "matching"
	FormatCodeReview     TaskFormat = "code_review"
	FormatPrioritization TaskFormat = "prioritization"
)

// Task is a unit of work belonging to exactly one session.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	SessionID   uuid.UUID  `json:"session_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Format      TaskFormat `json:"format"`
	Rubric      Rubric     `json:"rubric"`
	Status      TaskStatus `json:"status"`
	// Attempts only ever increases.
	Attempts  int        `json:"attempts"`
	Origin    TaskOrigin `json:"origin"`
	XPValue   int        `json:"xp_value"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Terminal reports whether the task can no longer change state.
func (t *Task) Terminal() bool {
	return t.Status == TaskPassed
}

package types

import (
	"time"

	"github.com/google/uuid"
)

// OfferStatus represents the lifecycle state of a job offer.
type OfferStatus string

// Offer status constants
const (
	OfferListed       OfferStatus = "listed"
	OfferInterviewing OfferStatus = "interviewing"
	OfferAccepted     OfferStatus = "accepted"
	OfferRejected     OfferStatus = "rejected"
)

// InterviewQuestion is a single question with its grading rubric. Questions
// are immutable once attached to an offer.
type InterviewQuestion struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
	Rubric Rubric `json:"rubric"`
}

// InterviewAnswer is one submitted answer keyed to its question.
type InterviewAnswer struct {
	QuestionID string `json:"question_id" validate:"required"`
	Text       string `json:"text" validate:"required"`
}

// JobOffer is a generated listing plus its interview questions. The listing
// fields never change after issue; only Status moves.
type JobOffer struct {
	ID          uuid.UUID           `json:"id"`
	SessionID   uuid.UUID           `json:"session_id"`
	Profession  string              `json:"profession"`
	Title       string              `json:"title"`
	Company     string              `json:"company"`
	Description string              `json:"description"`
	Level       int                 `json:"level"`
	Questions   []InterviewQuestion `json:"questions,omitempty"`
	Status      OfferStatus         `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

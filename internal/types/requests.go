package types

import "github.com/go-playground/validator/v10"

// CreateSessionRequest starts a new career run for the authenticated player.
type CreateSessionRequest struct {
	Profession string `json:"profession" validate:"required,min=2"`
}

// StartInterviewRequest begins interviewing against a generated listing.
type StartInterviewRequest struct {
	OfferID string `json:"offer_id" validate:"required,uuid"`
}

// SubmitInterviewRequest carries the answers for every interview question.
type SubmitInterviewRequest struct {
	Answers []InterviewAnswer `json:"answers" validate:"required,min=1,dive"`
}

// SubmitTaskRequest carries a task solution in the task's answer format.
type SubmitTaskRequest struct {
	Answer Answer `json:"answer"`
}

// MeetingResponseRequest carries one spoken or typed response inside an
// active meeting.
type MeetingResponseRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

// Validate validates the CreateSessionRequest using the validator.
func (r *CreateSessionRequest) Validate() error {
	return validator.New().Struct(r)
}

// Validate validates the StartInterviewRequest using the validator.
func (r *StartInterviewRequest) Validate() error {
	return validator.New().Struct(r)
}

// Validate validates the SubmitInterviewRequest using the validator.
func (r *SubmitInterviewRequest) Validate() error {
	return validator.New().Struct(r)
}

// Validate validates the MeetingResponseRequest using the validator.
func (r *MeetingResponseRequest) Validate() error {
	return validator.New().Struct(r)
}

// Package gen implements the content generator client. Every payload coming
// back from the model is validated against its JSON Schema before it is
// trusted; a payload that fails validation is retried once and then surfaced
// as a GenerationError.
package gen

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jonathan/career-sim/internal/llm"
	"github.com/jonathan/career-sim/internal/prompts"
	"github.com/jonathan/career-sim/internal/trigger"
	"github.com/jonathan/career-sim/internal/types"
	"github.com/jonathan/career-sim/schemas"
)

// Kind identifies a generated payload shape. Each kind maps to a schema file
// and a prompt template.
type Kind string

// Payload kinds
const (
	KindJobListing         Kind = "job_listing"
	KindInterviewQuestions Kind = "interview_questions"
	KindTask               Kind = "task"
	KindMeeting            Kind = "meeting"
	KindMeetingResponse    Kind = "meeting_response"
)

// maxAttempts bounds generation retries per request.
const maxAttempts = 2

// retryBackoff is the pause before the second attempt. Variable so tests can
// shorten it.
var retryBackoff = 2 * time.Second

// JobListingPayload is the validated shape of a generated job listing.
type JobListingPayload struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
	Level       int    `json:"level"`
}

// QuestionsPayload is the validated shape of a generated interview set.
type QuestionsPayload struct {
	Questions []types.InterviewQuestion `json:"questions"`
}

// TaskPayload is the validated shape of a generated work task.
type TaskPayload struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Format      types.TaskFormat `json:"format"`
	XPValue     int              `json:"xp_value"`
	Rubric      types.Rubric     `json:"rubric"`
}

// MeetingPayload is the validated shape of a generated meeting.
type MeetingPayload struct {
	Title       string            `json:"title"`
	Type        types.MeetingType `json:"type"`
	Topics      []string          `json:"topics"`
	OpeningLine string            `json:"opening_line,omitempty"`
}

// MeetingResponsePayload is the validated shape of one conversational turn in
// an active meeting.
type MeetingResponsePayload struct {
	Reply             string   `json:"reply"`
	ContributionScore int      `json:"contribution_score"`
	ActionItems       []string `json:"action_items,omitempty"`
	WrapUp            bool     `json:"wrap_up,omitempty"`
}

// Generator produces game content through an LLM client.
type Generator struct {
	client llm.Client
}

// NewGenerator creates a Generator backed by the given LLM client.
func NewGenerator(client llm.Client) *Generator {
	return &Generator{client: client}
}

// GenerateJobListing produces a job listing for the profession at the given
// level.
func (g *Generator) GenerateJobListing(ctx context.Context, profession string, level int) (*JobListingPayload, error) {
	var payload JobListingPayload
	err := g.generate(ctx, KindJobListing, "job-listing", map[string]string{
		"Profession": profession,
		"Level":      strconv.Itoa(level),
	}, &payload)
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

// GenerateInterviewQuestions produces the interview question set for a
// listing, each question carrying its grading rubric.
func (g *Generator) GenerateInterviewQuestions(ctx context.Context, profession, title string, level, count int) (*QuestionsPayload, error) {
	var payload QuestionsPayload
	err := g.generate(ctx, KindInterviewQuestions, "interview-questions", map[string]string{
		"Profession": profession,
		"Title":      title,
		"Level":      strconv.Itoa(level),
		"Count":      strconv.Itoa(count),
	}, &payload)
	if err != nil {
		return nil, err
	}
	if len(payload.Questions) == 0 {
		return nil, &GenerationError{Kind: KindInterviewQuestions, Message: "empty question set"}
	}
	return &payload, nil
}

// GenerateTask produces a work task. Complexity and a short performance
// summary bias the difficulty of the generated content.
func (g *Generator) GenerateTask(ctx context.Context, profession string, level int, complexity trigger.Complexity, performance string) (*TaskPayload, error) {
	if performance == "" {
		performance = "no recent history"
	}
	var payload TaskPayload
	err := g.generate(ctx, KindTask, "task", map[string]string{
		"Profession":  profession,
		"Level":       strconv.Itoa(level),
		"Complexity":  string(complexity),
		"Performance": performance,
	}, &payload)
	if err != nil {
		return nil, err
	}
	if payload.XPValue <= 0 {
		payload.XPValue = defaultTaskXP(complexity)
	}
	return &payload, nil
}

// GenerateMeeting produces a meeting of the given type with discussion
// topics. The context string describes why the meeting was triggered.
func (g *Generator) GenerateMeeting(ctx context.Context, profession string, level int, meetingType types.MeetingType, reason string) (*MeetingPayload, error) {
	if reason == "" {
		reason = "routine check-in"
	}
	var payload MeetingPayload
	err := g.generate(ctx, KindMeeting, "meeting", map[string]string{
		"Profession":  profession,
		"Level":       strconv.Itoa(level),
		"MeetingType": string(meetingType),
		"Context":     reason,
	}, &payload)
	if err != nil {
		return nil, err
	}
	// The model occasionally invents its own type name; the requested type
	// is authoritative.
	payload.Type = meetingType
	return &payload, nil
}

// GenerateMeetingResponse produces the colleague's reply to one player turn
// in an active meeting, with a contribution score for that turn.
func (g *Generator) GenerateMeetingResponse(ctx context.Context, meetingType types.MeetingType, topic, playerInput string) (*MeetingResponsePayload, error) {
	var payload MeetingResponsePayload
	err := g.generate(ctx, KindMeetingResponse, "meeting-response", map[string]string{
		"MeetingType": string(meetingType),
		"Topic":       topic,
		"PlayerInput": playerInput,
	}, &payload)
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

// Close releases the underlying LLM client.
func (g *Generator) Close() error {
	return g.client.Close()
}

// generate runs the prompt for the given kind, validates the response against
// the kind's schema, and unmarshals it into out. One retry on any failure.
func (g *Generator) generate(ctx context.Context, kind Kind, promptKey string, vars map[string]string, out interface{}) error {
	template, err := prompts.Get("generation.json", promptKey)
	if err != nil {
		return &GenerationError{Kind: kind, Message: "prompt template missing", Cause: err}
	}
	prompt := prompts.Format(template, vars)

	schema, err := schemas.Get(string(kind))
	if err != nil {
		return &GenerationError{Kind: kind, Message: "schema missing", Cause: err}
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return &GenerationError{Kind: kind, Message: "context cancelled during retry", Cause: ctx.Err()}
			case <-time.After(retryBackoff):
			}
		}

		raw, err := g.client.GenerateJSON(ctx, prompt, tierFor(kind))
		if err != nil {
			lastErr = err
			continue
		}

		if err := schemas.ValidateJSONString(schema, raw); err != nil {
			lastErr = fmt.Errorf("response failed schema validation: %w", err)
			continue
		}

		if err := json.Unmarshal([]byte(raw), out); err != nil {
			lastErr = fmt.Errorf("failed to unmarshal response: %w", err)
			continue
		}

		return nil
	}

	return &GenerationError{Kind: kind, Message: "exhausted retries", Cause: lastErr}
}

// tierFor selects the model tier per kind. Interview sets carry the most
// structure and get the advanced tier; conversational turns stay on lite for
// latency.
func tierFor(kind Kind) llm.ModelTier {
	switch kind {
	case KindInterviewQuestions:
		return llm.TierAdvanced
	case KindMeetingResponse:
		return llm.TierLite
	default:
		return llm.TierStandard
	}
}

func defaultTaskXP(complexity trigger.Complexity) int {
	switch complexity {
	case trigger.ComplexityHard:
		return 60
	case trigger.ComplexityMedium:
		return 40
	default:
		return 25
	}
}

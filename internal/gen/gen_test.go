package gen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-sim/internal/llm"
	"github.com/jonathan/career-sim/internal/trigger"
	"github.com/jonathan/career-sim/internal/types"
)

// fakeLLM returns scripted responses in order, then repeats the last one.
type fakeLLM struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
	tiers     []llm.ModelTier
}

func (f *fakeLLM) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.GenerateJSON(ctx, prompt, tier)
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.tiers = append(f.tiers, tier)
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return f.responses[i], err
}

func (f *fakeLLM) Close() error { return nil }

func init() {
	retryBackoff = 0
}

func TestGenerateJobListing(t *testing.T) {
	fake := &fakeLLM{responses: []string{
		`{"title": "iOS Engineer", "company": "Appworks", "description": "Build the flagship app.", "level": 2}`,
	}}
	g := NewGenerator(fake)

	payload, err := g.GenerateJobListing(context.Background(), "ios_engineer", 2)
	require.NoError(t, err)
	assert.Equal(t, "iOS Engineer", payload.Title)
	assert.Equal(t, "Appworks", payload.Company)
	assert.Equal(t, 2, payload.Level)
	assert.Equal(t, 1, fake.calls)
	assert.Contains(t, fake.prompts[0], "ios_engineer")
	assert.Contains(t, fake.prompts[0], "level 2")
}

func TestGenerateJobListing_RetriesOnInvalidPayload(t *testing.T) {
	fake := &fakeLLM{responses: []string{
		`{"company": "Appworks"}`,
		`{"title": "iOS Engineer", "company": "Appworks", "description": "Build the flagship app."}`,
	}}
	g := NewGenerator(fake)

	payload, err := g.GenerateJobListing(context.Background(), "ios_engineer", 1)
	require.NoError(t, err)
	assert.Equal(t, "iOS Engineer", payload.Title)
	assert.Equal(t, 2, fake.calls)
}

func TestGenerateJobListing_ExhaustsRetries(t *testing.T) {
	fake := &fakeLLM{responses: []string{`not json at all`}}
	g := NewGenerator(fake)

	_, err := g.GenerateJobListing(context.Background(), "ios_engineer", 1)
	require.Error(t, err)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, KindJobListing, genErr.Kind)
	assert.Equal(t, 2, fake.calls)
}

func TestGenerateJobListing_ClientError(t *testing.T) {
	upstream := errors.New("model unavailable")
	fake := &fakeLLM{
		responses: []string{"", ""},
		errs:      []error{upstream, upstream},
	}
	g := NewGenerator(fake)

	_, err := g.GenerateJobListing(context.Background(), "ios_engineer", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, upstream)
}

func TestGenerateInterviewQuestions(t *testing.T) {
	fake := &fakeLLM{responses: []string{`{
		"questions": [
			{"id": "q1", "prompt": "Explain retain cycles.", "rubric": {"key_concepts": [{"concept": "weak references", "weight": 1.0}]}},
			{"id": "q2", "prompt": "What is GCD?", "rubric": {"key_concepts": [{"concept": "dispatch queues", "weight": 1.0}]}}
		]
	}`}}
	g := NewGenerator(fake)

	payload, err := g.GenerateInterviewQuestions(context.Background(), "ios_engineer", "iOS Engineer", 2, 2)
	require.NoError(t, err)
	require.Len(t, payload.Questions, 2)
	assert.Equal(t, "q1", payload.Questions[0].ID)
	assert.Equal(t, "weak references", payload.Questions[0].Rubric.KeyConcepts[0].Concept)
	assert.Equal(t, llm.TierAdvanced, fake.tiers[0])
}

func TestGenerateTask_DefaultsXPWhenMissing(t *testing.T) {
	fake := &fakeLLM{responses: []string{
		`{"title": "Fix the crash", "description": "The app crashes on launch.", "format": "free_text", "rubric": {"key_concepts": [{"concept": "stack trace", "weight": 1.0}]}}`,
	}}
	g := NewGenerator(fake)

	payload, err := g.GenerateTask(context.Background(), "ios_engineer", 1, trigger.ComplexityHard, "")
	require.NoError(t, err)
	assert.Equal(t, types.FormatFreeText, payload.Format)
	assert.Equal(t, 60, payload.XPValue)
	assert.Contains(t, fake.prompts[0], "no recent history")
}

func TestGenerateTask_RejectsUnknownFormat(t *testing.T) {
	fake := &fakeLLM{responses: []string{
		`{"title": "t", "description": "d", "format": "essay"}`,
	}}
	g := NewGenerator(fake)

	_, err := g.GenerateTask(context.Background(), "ios_engineer", 1, trigger.ComplexityEasy, "")
	require.Error(t, err)

	var genErr *GenerationError
	assert.ErrorAs(t, err, &genErr)
}

func TestGenerateMeeting_ForcesRequestedType(t *testing.T) {
	fake := &fakeLLM{responses: []string{
		`{"title": "Sprint sync", "type": "team_meeting", "topics": ["velocity", "blockers"]}`,
	}}
	g := NewGenerator(fake)

	payload, err := g.GenerateMeeting(context.Background(), "ios_engineer", 2, types.MeetingProjectUpdate, "two tasks shipped")
	require.NoError(t, err)
	assert.Equal(t, types.MeetingProjectUpdate, payload.Type)
	assert.Equal(t, []string{"velocity", "blockers"}, payload.Topics)
}

func TestGenerateMeetingResponse(t *testing.T) {
	fake := &fakeLLM{responses: []string{
		`{"reply": "Good point about the release branch.", "contribution_score": 85, "action_items": ["cut the branch"], "wrap_up": true}`,
	}}
	g := NewGenerator(fake)

	payload, err := g.GenerateMeetingResponse(context.Background(), types.MeetingOneOnOne, "release planning", "We should cut the branch today.")
	require.NoError(t, err)
	assert.Equal(t, 85, payload.ContributionScore)
	assert.True(t, payload.WrapUp)
	assert.Equal(t, llm.TierLite, fake.tiers[0])
}

func TestGenerateMeetingResponse_RequiresScore(t *testing.T) {
	fake := &fakeLLM{responses: []string{`{"reply": "Sure."}`}}
	g := NewGenerator(fake)

	_, err := g.GenerateMeetingResponse(context.Background(), types.MeetingOneOnOne, "topic", "input")
	require.Error(t, err)
}

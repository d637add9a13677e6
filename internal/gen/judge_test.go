package gen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-sim/internal/types"
)

func TestJudgeAnswer(t *testing.T) {
	fake := &fakeLLM{responses: []string{
		`{"score": 82, "gibberish": false, "off_topic": false, "feedback": "solid coverage"}`,
	}}
	judge := NewJudge(fake)

	rubric := types.Rubric{KeyConcepts: []types.KeyConcept{
		{Concept: "weak references", Weight: 0.6, Synonyms: []string{"weak self"}},
		{Concept: "retain cycle", Weight: 0.4},
	}}

	verdict, err := judge.JudgeAnswer(context.Background(), "Explain retain cycles.", "Use weak references to break them.", rubric)
	require.NoError(t, err)
	assert.True(t, verdict.HasScore)
	assert.Equal(t, 82, verdict.Score)
	assert.False(t, verdict.Gibberish)
	assert.Equal(t, "solid coverage", verdict.Feedback)

	assert.Contains(t, fake.prompts[0], "weak references (also: weak self)")
	assert.Contains(t, fake.prompts[0], "retain cycle")
}

func TestJudgeAnswer_MissingScore(t *testing.T) {
	fake := &fakeLLM{responses: []string{
		`{"gibberish": false, "off_topic": false, "feedback": "could not rate"}`,
	}}
	judge := NewJudge(fake)

	verdict, err := judge.JudgeAnswer(context.Background(), "q", "a", types.Rubric{})
	require.NoError(t, err)
	assert.False(t, verdict.HasScore)
}

func TestJudgeAnswer_FlagsGibberish(t *testing.T) {
	fake := &fakeLLM{responses: []string{
		`{"score": 5, "gibberish": true, "off_topic": false, "feedback": "not a real answer"}`,
	}}
	judge := NewJudge(fake)

	verdict, err := judge.JudgeAnswer(context.Background(), "q", "asdf qwer", types.Rubric{})
	require.NoError(t, err)
	assert.True(t, verdict.Gibberish)
}

func TestJudgeAnswer_BadJSON(t *testing.T) {
	fake := &fakeLLM{responses: []string{`I think the answer deserves a 90.`}}
	judge := NewJudge(fake)

	_, err := judge.JudgeAnswer(context.Background(), "q", "a", types.Rubric{})
	require.Error(t, err)
}

func TestFormatConcepts_Empty(t *testing.T) {
	assert.Equal(t, "general correctness and clarity", formatConcepts(nil))
}

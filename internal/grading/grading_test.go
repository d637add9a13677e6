package grading

import (
	"context"
	"strings"
	"testing"

	"github.com/jonathan/career-sim/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJudge returns a scripted verdict without calling any collaborator.
type fakeJudge struct {
	verdict Verdict
	err     error
	calls   int
}

func (f *fakeJudge) JudgeAnswer(_ context.Context, _, _ string, _ types.Rubric) (*Verdict, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	v := f.verdict
	return &v, nil
}

// longAnswer builds a free-text answer with the given word count containing
// the given phrases.
func longAnswer(words int, phrases ...string) string {
	parts := append([]string{}, phrases...)
	for len(strings.Fields(strings.Join(parts, " "))) < words {
		parts = append(parts, "detail")
	}
	return strings.Join(parts, " ")
}

func TestGradeAnswer_ShortAnswerAlwaysFails(t *testing.T) {
	policy := NewPolicy(&fakeJudge{verdict: Verdict{Score: 100, HasScore: true}})

	answers := []string{
		"",
		"short",
		"this answer has exactly nineteen words in it which is just one fewer than the minimum required threshold",
	}
	for _, text := range answers {
		result, err := policy.GradeAnswer(context.Background(), types.FormatFreeText, "q", types.Answer{Text: text}, types.Rubric{})
		require.NoError(t, err)
		assert.False(t, result.Passed, "short answer must fail: %q", text)
		assert.LessOrEqual(t, result.Score, 30, "short answer score must be capped: %q", text)
		assert.Equal(t, "insufficient detail", result.Feedback)
	}
}

func TestGradeAnswer_ShortAnswerSkipsJudge(t *testing.T) {
	judge := &fakeJudge{verdict: Verdict{Score: 100, HasScore: true}}
	policy := NewPolicy(judge)

	_, err := policy.GradeAnswer(context.Background(), types.FormatFreeText, "q", types.Answer{Text: "too short"}, types.Rubric{})
	require.NoError(t, err)
	assert.Zero(t, judge.calls, "local rules must run before any collaborator call")
}

func TestGradeAnswer_GibberishCapped(t *testing.T) {
	policy := NewPolicy(&fakeJudge{verdict: Verdict{Gibberish: true}})

	answer := types.Answer{Text: longAnswer(40)}
	result, err := policy.GradeAnswer(context.Background(), types.FormatFreeText, "q", answer, types.Rubric{})
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.LessOrEqual(t, result.Score, 30)
}

func TestGradeAnswer_AmbiguousVerdictFailsWithZero(t *testing.T) {
	cases := []Verdict{
		{HasScore: false},
		{HasScore: true, Score: -5},
		{HasScore: true, Score: 130},
	}
	for _, verdict := range cases {
		policy := NewPolicy(&fakeJudge{verdict: verdict})
		answer := types.Answer{Text: longAnswer(40, "observability", "latency")}
		rubric := types.Rubric{KeyConcepts: []types.KeyConcept{{Concept: "observability"}, {Concept: "latency"}}}

		result, err := policy.GradeAnswer(context.Background(), types.FormatFreeText, "q", answer, rubric)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Score, "ambiguous verdict must auto-fail, not guess")
		assert.False(t, result.Passed)
	}
}

func TestGradeAnswer_CoverageFloorCapsScore(t *testing.T) {
	policy := NewPolicy(&fakeJudge{verdict: Verdict{Score: 100, HasScore: true}})

	// One of three concepts covered: coverage 0.33, below the 0.6 floor.
	rubric := types.Rubric{KeyConcepts: []types.KeyConcept{
		{Concept: "sharding"}, {Concept: "replication"}, {Concept: "failover"},
	}}
	answer := types.Answer{Text: longAnswer(40, "sharding")}

	result, err := policy.GradeAnswer(context.Background(), types.FormatFreeText, "q", answer, rubric)
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.LessOrEqual(t, result.Score, 55)
}

func TestGradeAnswer_FullCoverageWithStrongVerdictPasses(t *testing.T) {
	policy := NewPolicy(&fakeJudge{verdict: Verdict{Score: 90, HasScore: true}})

	rubric := types.Rubric{KeyConcepts: []types.KeyConcept{
		{Concept: "sharding"}, {Concept: "replication", Synonyms: []string{"replica"}},
	}}
	answer := types.Answer{Text: longAnswer(45, "sharding", "replica sets")}

	result, err := policy.GradeAnswer(context.Background(), types.FormatFreeText, "q", answer, rubric)
	require.NoError(t, err)
	// 0.6*100 + 0.4*90 = 96.
	assert.Equal(t, 96, result.Score)
	assert.True(t, result.Passed)
}

func TestGradeAnswer_NoJudgeUsesCoverageOnly(t *testing.T) {
	policy := NewPolicy(nil)

	rubric := types.Rubric{KeyConcepts: []types.KeyConcept{{Concept: "indexing"}}}
	answer := types.Answer{Text: longAnswer(30, "indexing strategy")}

	result, err := policy.GradeAnswer(context.Background(), types.FormatFreeText, "q", answer, rubric)
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.True(t, result.Passed)
}

func TestGradeInterview_AverageThreshold(t *testing.T) {
	// Scores [90, 85, 40] average 71.67: pass.
	passing := GradeInterview([]Result{{Score: 90}, {Score: 85}, {Score: 40}})
	assert.True(t, passing.Passed)
	assert.InDelta(t, 71.67, passing.Average, 0.01)

	// Average below 70 fails.
	failing := GradeInterview([]Result{{Score: 90}, {Score: 20}, {Score: 95}})
	assert.False(t, failing.Passed)

	// Exactly 70.00 passes.
	boundary := GradeInterview([]Result{{Score: 60}, {Score: 80}})
	assert.Equal(t, 70.0, boundary.Average)
	assert.True(t, boundary.Passed)

	// Just under the boundary fails.
	under := GradeInterview([]Result{{Score: 60}, {Score: 79}})
	assert.False(t, under.Passed)
}

func TestGradeInterview_AutoFailIncludedInAverage(t *testing.T) {
	// An auto-failed question keeps its capped score and does not force an
	// overall fail when the average still clears 70.
	result := GradeInterview([]Result{{Score: 30, Passed: false}, {Score: 95}, {Score: 90}})
	assert.InDelta(t, 71.67, result.Average, 0.01)
	assert.True(t, result.Passed)
}

func TestGradeInterview_EmptyFails(t *testing.T) {
	assert.False(t, GradeInterview(nil).Passed)
}

package gen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/career-sim/internal/grading"
	"github.com/jonathan/career-sim/internal/llm"
	"github.com/jonathan/career-sim/internal/prompts"
	"github.com/jonathan/career-sim/internal/types"
)

// LLMJudge grades free-text answers with the model. It implements
// grading.Judge.
type LLMJudge struct {
	client llm.Client
}

// NewJudge creates an LLMJudge backed by the given client.
func NewJudge(client llm.Client) *LLMJudge {
	return &LLMJudge{client: client}
}

// judgeResponse is the raw shape the judge prompt asks for. Score is a
// pointer so a missing field is distinguishable from zero.
type judgeResponse struct {
	Score     *float64 `json:"score"`
	Gibberish bool     `json:"gibberish"`
	OffTopic  bool     `json:"off_topic"`
	Feedback  string   `json:"feedback"`
}

// JudgeAnswer rates a free-text answer against the rubric's key concepts.
func (j *LLMJudge) JudgeAnswer(ctx context.Context, question, answer string, rubric types.Rubric) (*grading.Verdict, error) {
	template, err := prompts.Get("judge.json", "judge-answer")
	if err != nil {
		return nil, fmt.Errorf("failed to load judge prompt: %w", err)
	}
	prompt := prompts.Format(template, map[string]string{
		"Question": question,
		"Answer":   answer,
		"Concepts": formatConcepts(rubric.KeyConcepts),
	})

	raw, err := j.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, fmt.Errorf("judge call failed: %w", err)
	}

	var resp judgeResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse judge response: %w", err)
	}

	verdict := &grading.Verdict{
		Gibberish: resp.Gibberish,
		OffTopic:  resp.OffTopic,
		Feedback:  resp.Feedback,
	}
	if resp.Score != nil {
		verdict.Score = int(*resp.Score)
		verdict.HasScore = true
	}
	return verdict, nil
}

// formatConcepts renders key concepts as a readable list for the prompt.
func formatConcepts(concepts []types.KeyConcept) string {
	if len(concepts) == 0 {
		return "general correctness and clarity"
	}
	parts := make([]string, 0, len(concepts))
	for _, c := range concepts {
		if len(c.Synonyms) > 0 {
			parts = append(parts, fmt.Sprintf("%s (also: %s)", c.Concept, strings.Join(c.Synonyms, ", ")))
		} else {
			parts = append(parts, c.Concept)
		}
	}
	return strings.Join(parts, "; ")
}

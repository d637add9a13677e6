// Package grading provides the deterministic grading policy for submitted
// answers. Local rules always run before any holistic judgment from the
// content collaborator, and the policy biases toward strictness when the
// collaborator's output is unusable.
package grading

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/career-sim/internal/types"
)

const (
	// minWordCount is the floor below which free-text answers auto-fail.
	minWordCount = 20
	// autoFailCap is the maximum score an auto-failed answer can receive.
	autoFailCap = 30
	// passScore is the score at or above which a single answer passes.
	passScore = 70
	// conceptCoverageFloor is the weighted key-concept presence an answer
	// must reach before holistic scoring can lift it into passing range.
	conceptCoverageFloor = 0.6
	// coverageCapBelowFloor caps answers that miss the concept floor.
	coverageCapBelowFloor = 55
)

// Result is the outcome of grading a single answer.
type Result struct {
	Score    int    `json:"score"`
	Passed   bool   `json:"passed"`
	Feedback string `json:"feedback"`
}

// Verdict is the holistic assessment returned by the content collaborator.
type Verdict struct {
	Score     int    `json:"score"`
	HasScore  bool   `json:"has_score"`
	OffTopic  bool   `json:"off_topic"`
	Gibberish bool   `json:"gibberish"`
	Feedback  string `json:"feedback"`
}

// Judge produces a holistic assessment of a free-text answer. The grading
// policy treats it as a fallible collaborator: local rules are applied first
// and an unusable verdict downgrades to automatic fail, never a guessed pass.
type Judge interface {
	JudgeAnswer(ctx context.Context, question, answer string, rubric types.Rubric) (*Verdict, error)
}

// Policy grades answers against rubrics. A nil judge restricts grading to
// the deterministic local rules, which is how unit tests exercise it.
type Policy struct {
	judge Judge
}

// NewPolicy creates a grading policy. judge may be nil.
func NewPolicy(judge Judge) *Policy {
	return &Policy{judge: judge}
}

// GradeAnswer grades one answer against its rubric. Format-specific answers
// are graded by exact/partial-credit rules; free text goes through word-count
// and concept-coverage rules before any holistic judgment. Voice-submitted
// answers arrive as text and are graded identically.
func (p *Policy) GradeAnswer(ctx context.Context, format types.TaskFormat, question string, answer types.Answer, rubric types.Rubric) (Result, error) {
	switch format {
	case types.FormatMultipleChoice:
		return gradeMultipleChoice(answer, rubric), nil
	case types.FormatFillInBlank:
		return gradeFillInBlank(answer, rubric), nil
	case types.FormatMatching:
		return gradeMatching(answer, rubric), nil
	case types.FormatCodeReview:
		return gradeCodeReview(answer, rubric), nil
	case types.FormatPrioritization:
		return gradePrioritization(answer, rubric), nil
	default:
		return p.gradeFreeText(ctx, question, answer.Text, rubric)
	}
}

// gradeFreeText applies the deterministic local rules, then combines concept
// coverage with the collaborator's holistic assessment when one is available.
func (p *Policy) gradeFreeText(ctx context.Context, question, text string, rubric types.Rubric) (Result, error) {
	wc := wordCount(text)
	if wc < minWordCount {
		score := wc * autoFailCap / minWordCount
		return Result{
			Score:    score,
			Passed:   false,
			Feedback: "insufficient detail",
		}, nil
	}

	coverage := conceptCoverage(text, rubric.KeyConcepts)
	coverageScore := int(coverage * 100)

	if p.judge == nil {
		return finalizeFreeText(coverageScore, coverage, "graded on key concept coverage"), nil
	}

	verdict, err := p.judge.JudgeAnswer(ctx, question, text, rubric)
	if err != nil {
		return Result{}, fmt.Errorf("failed to judge answer: %w", err)
	}

	if verdict.OffTopic || verdict.Gibberish {
		score := coverageScore
		if score > autoFailCap {
			score = autoFailCap
		}
		return Result{Score: score, Passed: false, Feedback: "answer judged off-topic"}, nil
	}

	if !verdict.HasScore || verdict.Score < 0 || verdict.Score > 100 {
		// Ambiguous collaborator output: automatic fail rather than a
		// guessed pass.
		return Result{Score: 0, Passed: false, Feedback: "grading result was ambiguous"}, nil
	}

	combined := int(0.6*float64(coverageScore) + 0.4*float64(verdict.Score))
	feedback := verdict.Feedback
	if feedback == "" {
		feedback = "graded on key concept coverage and overall quality"
	}
	return finalizeFreeText(combined, coverage, feedback), nil
}

// finalizeFreeText applies the concept-coverage floor and pass threshold.
func finalizeFreeText(score int, coverage float64, feedback string) Result {
	if coverage < conceptCoverageFloor && score > coverageCapBelowFloor {
		score = coverageCapBelowFloor
	}
	return Result{
		Score:    score,
		Passed:   score >= passScore,
		Feedback: feedback,
	}
}

// InterviewResult is the aggregate outcome across a multi-question interview.
type InterviewResult struct {
	Results []Result `json:"results"`
	Average float64  `json:"average"`
	Passed  bool     `json:"passed"`
}

// GradeInterview aggregates per-question results. The interview passes when
// the average score is at least 70. Auto-failed questions keep their capped
// score and count toward the average; there is no per-question floor.
func GradeInterview(results []Result) InterviewResult {
	if len(results) == 0 {
		return InterviewResult{Passed: false}
	}
	sum := 0
	for _, r := range results {
		sum += r.Score
	}
	avg := float64(sum) / float64(len(results))
	return InterviewResult{
		Results: results,
		Average: avg,
		Passed:  avg >= float64(passScore),
	}
}

// wordCount counts whitespace-separated words.
func wordCount(text string) int {
	return len(strings.Fields(text))
}

// conceptCoverage returns the weighted fraction of key concepts present in
// the answer. Concepts match case-insensitively on the concept phrase or any
// synonym. No concepts means full coverage.
func conceptCoverage(text string, concepts []types.KeyConcept) float64 {
	if len(concepts) == 0 {
		return 1.0
	}
	lower := strings.ToLower(text)
	var totalWeight, matched float64
	for _, c := range concepts {
		weight := c.Weight
		if weight <= 0 {
			weight = 1.0
		}
		totalWeight += weight
		if conceptPresent(lower, c) {
			matched += weight
		}
	}
	if totalWeight == 0 {
		return 1.0
	}
	return matched / totalWeight
}

func conceptPresent(lowerText string, c types.KeyConcept) bool {
	if strings.Contains(lowerText, strings.ToLower(c.Concept)) {
		return true
	}
	for _, syn := range c.Synonyms {
		if strings.Contains(lowerText, strings.ToLower(syn)) {
			return true
		}
	}
	return false
}

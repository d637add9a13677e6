package grading

import (
	"fmt"
	"strings"

	"github.com/jonathan/career-sim/internal/types"
)

// gradeMultipleChoice is binary: the right choice scores 100, anything else 0.
func gradeMultipleChoice(answer types.Answer, rubric types.Rubric) Result {
	if answer.ChoiceIndex == nil {
		return Result{Score: 0, Passed: false, Feedback: "no choice submitted"}
	}
	if *answer.ChoiceIndex == rubric.CorrectChoice {
		return Result{Score: 100, Passed: true, Feedback: "correct"}
	}
	return Result{Score: 0, Passed: false, Feedback: "incorrect choice"}
}

// gradeFillInBlank grants proportional credit per correctly filled slot.
// Slots are compared positionally, case-insensitively, ignoring surrounding
// whitespace.
func gradeFillInBlank(answer types.Answer, rubric types.Rubric) Result {
	if len(rubric.Blanks) == 0 {
		return Result{Score: 0, Passed: false, Feedback: "rubric has no blanks"}
	}
	correct := 0
	for i, expected := range rubric.Blanks {
		if i >= len(answer.Blanks) {
			break
		}
		if strings.EqualFold(strings.TrimSpace(answer.Blanks[i]), strings.TrimSpace(expected)) {
			correct++
		}
	}
	score := correct * 100 / len(rubric.Blanks)
	return Result{
		Score:    score,
		Passed:   score >= passScore,
		Feedback: feedbackRatio(correct, len(rubric.Blanks), "blanks"),
	}
}

// gradeMatching grants proportional credit per correct left/right pair.
func gradeMatching(answer types.Answer, rubric types.Rubric) Result {
	if len(rubric.Pairs) == 0 {
		return Result{Score: 0, Passed: false, Feedback: "rubric has no pairs"}
	}
	correct := 0
	for _, pair := range rubric.Pairs {
		if got, ok := answer.Pairs[pair.Left]; ok && strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(pair.Right)) {
			correct++
		}
	}
	score := correct * 100 / len(rubric.Pairs)
	return Result{
		Score:    score,
		Passed:   score >= passScore,
		Feedback: feedbackRatio(correct, len(rubric.Pairs), "pairs"),
	}
}

// gradeCodeReview credits each correctly identified defect. A defect counts
// as identified when the submission mentions it case-insensitively.
func gradeCodeReview(answer types.Answer, rubric types.Rubric) Result {
	if len(rubric.Defects) == 0 {
		return Result{Score: 0, Passed: false, Feedback: "rubric has no defects"}
	}
	found := 0
	for _, defect := range rubric.Defects {
		for _, submitted := range answer.DefectsFound {
			if strings.Contains(strings.ToLower(submitted), strings.ToLower(defect)) {
				found++
				break
			}
		}
	}
	score := found * 100 / len(rubric.Defects)
	return Result{
		Score:    score,
		Passed:   score >= passScore,
		Feedback: feedbackRatio(found, len(rubric.Defects), "defects"),
	}
}

// gradePrioritization scores the submitted ordering by rank displacement
// against the reference ordering (normalized Spearman footrule): a perfect
// ordering scores 100 and a fully reversed one scores 0. Missing items count
// as maximally displaced.
func gradePrioritization(answer types.Answer, rubric types.Rubric) Result {
	n := len(rubric.ReferenceOrder)
	if n == 0 {
		return Result{Score: 0, Passed: false, Feedback: "rubric has no reference order"}
	}
	if n == 1 {
		if len(answer.Ordering) == 1 && strings.EqualFold(answer.Ordering[0], rubric.ReferenceOrder[0]) {
			return Result{Score: 100, Passed: true, Feedback: "correct ordering"}
		}
		return Result{Score: 0, Passed: false, Feedback: "incorrect ordering"}
	}

	submittedRank := make(map[string]int, len(answer.Ordering))
	for i, item := range answer.Ordering {
		submittedRank[strings.ToLower(item)] = i
	}

	totalDisplacement := 0
	for refRank, item := range rubric.ReferenceOrder {
		gotRank, ok := submittedRank[strings.ToLower(item)]
		if !ok {
			gotRank = n - 1 - refRank // worst case position
		}
		d := refRank - gotRank
		if d < 0 {
			d = -d
		}
		totalDisplacement += d
	}

	// Maximum total displacement for n items is floor(n^2/2).
	maxDisplacement := n * n / 2
	score := 100 - totalDisplacement*100/maxDisplacement
	if score < 0 {
		score = 0
	}
	return Result{
		Score:    score,
		Passed:   score >= passScore,
		Feedback: "scored by rank agreement with the reference ordering",
	}
}

func feedbackRatio(got, total int, noun string) string {
	return fmt.Sprintf("matched %d of %d %s", got, total, noun)
}

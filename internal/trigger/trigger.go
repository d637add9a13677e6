// Package trigger decides, from observable session signals, what new events
// must be generated when an activity completes. Evaluation is pure: it reads
// an in-memory snapshot and an injected random source, and returns a bounded
// list of pending generation intents. Idempotency records and the actual
// generation calls are the engine's responsibility.
package trigger

import (
	"github.com/google/uuid"

	"github.com/jonathan/career-sim/internal/types"
)

// Kind identifies a trigger rule, and doubles as the trigger-record key
// component that makes retried events idempotent.
type Kind string

// Trigger kinds
const (
	KindFeedbackMeeting  Kind = "feedback_meeting"
	KindReviewMeeting    Kind = "review_meeting"
	KindFollowupTasks    Kind = "followup_tasks"
	KindReplenishTask    Kind = "replenish_task"
	KindReplenishMeeting Kind = "replenish_meeting"
	KindPromotion        Kind = "promotion"
)

// Complexity biases generated follow-up work.
type Complexity string

// Complexity levels
const (
	ComplexityEasy   Complexity = "easy"
	ComplexityMedium Complexity = "medium"
	ComplexityHard   Complexity = "hard"
)

// EventKind identifies the completed activity being evaluated.
type EventKind string

// Event kinds
const (
	EventTaskPassed       EventKind = "task_passed"
	EventTaskFailed       EventKind = "task_failed"
	EventMeetingCompleted EventKind = "meeting_completed"
)

// Event is the completed activity driving evaluation. SourceID must be
// stable across retries of the same inbound request (it is derived from the
// entity, not from a per-request counter).
type Event struct {
	Kind         EventKind
	SourceID     string
	TaskAttempts int
	MeetingType  types.MeetingType
	MeetingScore int
	ActionItems  int
}

// Snapshot is the read-only session view evaluation runs over.
type Snapshot struct {
	SessionID             uuid.UUID
	Level                 int
	ActiveTasks           int
	ActiveMeetings        int
	TasksSinceLastMeeting int
	MeetingsCompleted     int
	MeetingScoreAvg       float64
}

// PendingGeneration is one intended generation side effect. Intents are
// processed once per inbound request and never re-trigger recursively within
// the same cycle, which bounds cascade depth to one by construction.
type PendingGeneration struct {
	Kind          Kind
	SourceEventID string
	MeetingType   types.MeetingType
	TaskCount     int
	Complexity    Complexity
}

const (
	// failureAttemptsThreshold is the attempt count at which a failed task
	// always schedules a feedback meeting.
	failureAttemptsThreshold = 2

	// Streak window for the review-meeting rule.
	streakMin = 2
	streakMax = 4

	// Review-meeting probability ramp, scaled by level.
	reviewBaseProbability  = 0.4
	reviewLevelStep        = 0.05
	reviewMaxProbability   = 0.7
	maxFollowupTasks       = 3
	lowScoreFollowupCutoff = 40
)

// Evaluate applies the trigger rules in precedence order and returns the
// pending generations the event warrants. Dashboard deficits are not handled
// here; the replenishment scheduler runs after trigger evaluation and only
// fills what this cycle left unsatisfied.
func Evaluate(snap Snapshot, event Event, rng Rand) []PendingGeneration {
	var pending []PendingGeneration

	switch event.Kind {
	case EventTaskFailed:
		// Rule 1: repeated failure always earns a feedback session.
		if event.TaskAttempts >= failureAttemptsThreshold {
			pending = append(pending, PendingGeneration{
				Kind:          KindFeedbackMeeting,
				SourceEventID: event.SourceID,
				MeetingType:   types.MeetingFeedbackSession,
			})
		}

	case EventTaskPassed:
		// Rule 2: a completion streak since the last meeting rolls for a
		// review meeting, likelier at higher levels.
		streak := snap.TasksSinceLastMeeting
		if streak >= streakMin && streak <= streakMax {
			if rng.Float64() < reviewProbability(snap.Level) {
				pending = append(pending, PendingGeneration{
					Kind:          KindReviewMeeting,
					SourceEventID: event.SourceID,
					MeetingType:   reviewMeetingType(rng),
				})
			}
		}

	case EventMeetingCompleted:
		// Rule 3: meeting outcomes spawn 0-3 follow-up tasks, more and
		// harder ones after strong participation.
		count := followupCount(event)
		if count > 0 {
			pending = append(pending, PendingGeneration{
				Kind:          KindFollowupTasks,
				SourceEventID: event.SourceID,
				TaskCount:     count,
				Complexity:    followupComplexity(event.MeetingScore),
			})
		}
	}

	return pending
}

// reviewProbability ramps from 0.4 at level 1 by 0.05 per level, capped at 0.7.
func reviewProbability(level int) float64 {
	p := reviewBaseProbability + reviewLevelStep*float64(level-1)
	if p > reviewMaxProbability {
		p = reviewMaxProbability
	}
	return p
}

// reviewMeetingType picks between the two review-style meetings.
func reviewMeetingType(rng Rand) types.MeetingType {
	if rng.Intn(2) == 0 {
		return types.MeetingProjectUpdate
	}
	return types.MeetingTeam
}

// followupCount derives the follow-up task count from action items and
// participation score. A weak score suppresses follow-up work.
func followupCount(event Event) int {
	count := event.ActionItems
	if count > maxFollowupTasks {
		count = maxFollowupTasks
	}
	if count == 0 {
		count = event.MeetingScore / 35
		if count > maxFollowupTasks {
			count = maxFollowupTasks
		}
	}
	if event.MeetingScore < lowScoreFollowupCutoff && count > 1 {
		count = 1
	}
	return count
}

func followupComplexity(score int) Complexity {
	switch {
	case score >= 80:
		return ComplexityHard
	case score >= 50:
		return ComplexityMedium
	default:
		return ComplexityEasy
	}
}

const (
	// Promotion gate and probability.
	promotionMinMeetings = 3
	promotionMinAvg      = 80.0
	promotionProbability = 0.15
)

// PromotionEligible reports whether a session qualifies for a promotion
// check: at least three completed meetings averaging at least 80.
func PromotionEligible(snap Snapshot) bool {
	return snap.MeetingsCompleted >= promotionMinMeetings && snap.MeetingScoreAvg >= promotionMinAvg
}

// RollPromotion fires a promotion with a fixed low probability for an
// eligible session. It never fires for an ineligible one.
func RollPromotion(snap Snapshot, sourceEventID string, rng Rand) (PendingGeneration, bool) {
	if !PromotionEligible(snap) {
		return PendingGeneration{}, false
	}
	if rng.Float64() >= promotionProbability {
		return PendingGeneration{}, false
	}
	return PendingGeneration{Kind: KindPromotion, SourceEventID: sourceEventID}, true
}

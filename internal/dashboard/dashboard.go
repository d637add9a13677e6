// Package dashboard keeps a session's active work queue within target
// bounds. It is the backstop that guarantees the dashboard never starves
// when upstream triggers under-fire.
package dashboard

import (
	"github.com/jonathan/career-sim/internal/trigger"
)

// Invariant targets: active tasks in [3,5], active meetings in [1,2].
const (
	MinActiveTasks    = 3
	MaxActiveTasks    = 5
	MinActiveMeetings = 1
	MaxActiveMeetings = 2

	// meetingFillProbability throttles meeting top-ups so the dashboard
	// does not saturate with meetings.
	meetingFillProbability = 0.5
)

// Replenish computes the generation intents needed to bring the dashboard
// back to its targets. pendingTasks and pendingMeetings are counts already
// satisfied earlier in this cycle by higher-precedence triggers; deficits
// they cover are not filled twice. Task deficits are always filled; a
// meeting deficit is filled with probability 0.5 per pass.
func Replenish(snap trigger.Snapshot, pendingTasks, pendingMeetings int, sourceEventID string, rng trigger.Rand) []trigger.PendingGeneration {
	var out []trigger.PendingGeneration

	tasksNeeded := MinActiveTasks - snap.ActiveTasks - pendingTasks
	if tasksNeeded > 0 {
		out = append(out, trigger.PendingGeneration{
			Kind:          trigger.KindReplenishTask,
			SourceEventID: sourceEventID,
			TaskCount:     tasksNeeded,
			Complexity:    trigger.ComplexityMedium,
		})
	}

	meetingsNeeded := MinActiveMeetings - snap.ActiveMeetings - pendingMeetings
	if meetingsNeeded > 0 && rng.Float64() < meetingFillProbability {
		out = append(out, trigger.PendingGeneration{
			Kind:          trigger.KindReplenishMeeting,
			SourceEventID: sourceEventID,
		})
	}

	return out
}

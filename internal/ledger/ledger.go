// Package ledger provides XP accumulation and level computation for sessions.
// All functions are pure: the ledger is the sole source of truth for XP, and
// every total and level must be re-derivable from the entries alone.
package ledger

import (
	"fmt"

	"github.com/jonathan/career-sim/internal/types"
)

// ErrInvalidXPAmount indicates a negative XP delta, which is a programming
// defect rather than a recoverable input error.
type ErrInvalidXPAmount struct {
	Amount int
}

func (e *ErrInvalidXPAmount) Error() string {
	return fmt.Sprintf("invalid xp amount: %d (must be non-negative)", e.Amount)
}

// levelThresholds[n] is the XP required to hold level n+1. The table is
// strictly non-decreasing; levels beyond the table extrapolate linearly.
var levelThresholds = []int{0, 100, 250, 450, 700, 1000, 1350, 1750, 2200, 2700}

// extrapolationStep is the XP gap between levels past the threshold table.
const extrapolationStep = 550

// Apply validates an XP delta against the current total and returns the new
// total plus whether the addition crossed a level boundary.
func Apply(currentTotal, amount int) (newTotal int, leveledUp bool, err error) {
	if amount < 0 {
		return currentTotal, false, &ErrInvalidXPAmount{Amount: amount}
	}
	newTotal = currentTotal + amount
	leveledUp = ComputeLevel(newTotal) > ComputeLevel(currentTotal)
	return newTotal, leveledUp, nil
}

// ComputeLevel returns the level for an XP total. It is a pure non-decreasing
// step function; negative totals clamp to level 1.
func ComputeLevel(xpTotal int) int {
	if xpTotal < 0 {
		return 1
	}
	for i := len(levelThresholds) - 1; i >= 0; i-- {
		if xpTotal >= levelThresholds[i] {
			if i == len(levelThresholds)-1 {
				// Past the table: one level per extrapolationStep XP.
				extra := (xpTotal - levelThresholds[i]) / extrapolationStep
				return i + 1 + extra
			}
			return i + 1
		}
	}
	return 1
}

// ThresholdFor returns the XP required to reach the given level.
func ThresholdFor(level int) int {
	if level <= 1 {
		return 0
	}
	if level <= len(levelThresholds) {
		return levelThresholds[level-1]
	}
	return levelThresholds[len(levelThresholds)-1] + (level-len(levelThresholds))*extrapolationStep
}

// ReplayTotal sums a session's ledger entries. Replaying the same entries
// from empty always yields the same total, so stored totals are auditable.
func ReplayTotal(entries []types.LedgerEntry) int {
	total := 0
	for _, e := range entries {
		total += e.XPDelta
	}
	return total
}

// meetingBaseXP maps meeting types to their base XP award.
var meetingBaseXP = map[types.MeetingType]int{
	types.MeetingOneOnOne:        30,
	types.MeetingTeam:            40,
	types.MeetingStakeholder:     60,
	types.MeetingPerformance:     50,
	types.MeetingProjectUpdate:   35,
	types.MeetingFeedbackSession: 25,
}

// MeetingXP computes the XP award for a meeting given its participation
// score (0-100). The formula is base * (0.5 + score/100), rounded down.
// Leaving early awards half of that value.
func MeetingXP(meetingType types.MeetingType, score int, leftEarly bool) int {
	base, ok := meetingBaseXP[meetingType]
	if !ok {
		base = 30
	}
	xp := int(float64(base) * (0.5 + float64(score)/100.0))
	if leftEarly {
		xp /= 2
	}
	return xp
}

// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/career-sim/internal/ledger"
	"github.com/jonathan/career-sim/internal/session"
	"github.com/jonathan/career-sim/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSession outputs a human-readable summary of the session's career state.
func (p *Printer) PrintSession(s *types.Session) {
	if s == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Profession:  %s\n", s.Profession))
	sb.WriteString(fmt.Sprintf("Status:      %s\n", s.Employment))
	sb.WriteString(fmt.Sprintf("Level:       %d\n", s.Level))
	sb.WriteString(fmt.Sprintf("XP:          %d / %d to next level\n", s.XPTotal, ledger.ThresholdFor(s.Level+1)))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Tasks:       %d passed, %d failed\n", s.Stats.TasksCompleted, s.Stats.TasksFailed))
	sb.WriteString(fmt.Sprintf("Meetings:    %d attended", s.Stats.MeetingsAttended))
	if s.Stats.MeetingsAttended > 0 {
		sb.WriteString(fmt.Sprintf(" (avg %.1f)", s.Stats.MeetingScoreAvg))
	}
	sb.WriteString("\n")
	if s.Stats.InterviewsFailed > 0 {
		sb.WriteString(fmt.Sprintf("Interviews:  %d failed\n", s.Stats.InterviewsFailed))
	}

	p.printBox("CAREER SESSION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDashboard outputs the active work queue: tasks plus scheduled or
// active meetings.
func (p *Printer) PrintDashboard(view *session.DashboardView) {
	if view == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Active tasks: %d\n\n", len(view.Tasks)))

	count := min(len(view.Tasks), maxItemsToShow)
	for i := 0; i < count; i++ {
		task := view.Tasks[i]
		title := task.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		sb.WriteString(fmt.Sprintf("• %s\n", title))
		sb.WriteString(fmt.Sprintf("  [%s] %d XP", task.Format, task.XPValue))
		if task.Origin == types.OriginMeetingFollowup {
			sb.WriteString(" (follow-up)")
		}
		sb.WriteString("\n")
	}
	if len(view.Tasks) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more tasks\n", len(view.Tasks)-maxItemsToShow))
	}

	if len(view.Meetings) > 0 {
		sb.WriteString(fmt.Sprintf("\nMeetings: %d\n", len(view.Meetings)))
		for _, m := range view.Meetings {
			title := m.Title
			if len(title) > 35 {
				title = title[:32] + "..."
			}
			sb.WriteString(fmt.Sprintf("• %s (%s, %s)\n", title, m.Type, m.Status))
		}
	}

	p.printBox("DASHBOARD", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintOffers outputs the job listings returned by a search.
func (p *Printer) PrintOffers(offers []types.JobOffer) {
	if len(offers) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d listings:\n\n", len(offers)))

	for i, offer := range offers {
		title := offer.Title
		if len(title) > 45 {
			title = title[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, title))
		sb.WriteString(fmt.Sprintf("    %s (level %d)\n", offer.Company, offer.Level))
		if i < len(offers)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("JOB LISTINGS", sb.String())
}

// PrintInterviewOutcome outputs the per-question grades and the final
// hiring decision.
func (p *Printer) PrintInterviewOutcome(outcome *session.InterviewOutcome) {
	if outcome == nil {
		return
	}

	var sb strings.Builder

	for i, r := range outcome.Result.Results {
		mark := "✗"
		if r.Passed {
			mark = "✓"
		}
		sb.WriteString(fmt.Sprintf("%s Q%d: %d/100\n", mark, i+1, r.Score))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Average: %.1f\n", outcome.Result.Average))

	if outcome.Result.Passed {
		sb.WriteString(fmt.Sprintf("HIRED at %s", outcome.Offer.Company))
		if len(outcome.InitialTasks) > 0 {
			sb.WriteString(fmt.Sprintf("\n%d starting tasks assigned", len(outcome.InitialTasks)))
		}
	} else {
		sb.WriteString("Not hired this time")
	}

	p.printBox("INTERVIEW RESULT", sb.String())
}

// PrintTaskOutcome outputs the grade for one task submission and any
// follow-on work it triggered.
func (p *Printer) PrintTaskOutcome(outcome *session.TaskOutcome) {
	if outcome == nil {
		return
	}

	var sb strings.Builder

	mark := "✗ FAILED"
	if outcome.Result.Passed {
		mark = "✓ PASSED"
	}
	sb.WriteString(fmt.Sprintf("%s  score %d/100\n", mark, outcome.Result.Score))

	feedback := outcome.Result.Feedback
	if feedback != "" {
		if len(feedback) > 50 {
			feedback = feedback[:47] + "..."
		}
		sb.WriteString(fmt.Sprintf("  %s\n", feedback))
	}
	sb.WriteString("\n")

	if outcome.XPAwarded > 0 {
		sb.WriteString(fmt.Sprintf("+%d XP", outcome.XPAwarded))
		if outcome.LeveledUp {
			sb.WriteString(fmt.Sprintf("  → LEVEL %d!", outcome.Session.Level))
		}
		sb.WriteString("\n")
	}
	writeFollowOn(&sb, outcome.NewTasks, outcome.NewMeetings)

	p.printBox("TASK RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMeetingOutcome outputs the settled meeting score and anything the
// meeting spawned.
func (p *Printer) PrintMeetingOutcome(outcome *session.MeetingOutcome) {
	if outcome == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Meeting: %s\n", outcome.Meeting.Type))
	sb.WriteString(fmt.Sprintf("Score:   %d/100", outcome.Score))
	if outcome.Meeting.Status == types.MeetingAbandoned {
		sb.WriteString(" (left early)")
	}
	sb.WriteString("\n")

	if outcome.XPAwarded > 0 {
		sb.WriteString(fmt.Sprintf("+%d XP", outcome.XPAwarded))
		if outcome.LeveledUp {
			sb.WriteString(fmt.Sprintf("  → LEVEL %d!", outcome.Session.Level))
		}
		sb.WriteString("\n")
	}
	writeFollowOn(&sb, outcome.NewTasks, outcome.NewMeetings)

	p.printBox("MEETING RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintEventCheck outputs the result of a random-event roll. Quiet rolls
// print nothing.
func (p *Printer) PrintEventCheck(check *session.EventCheck) {
	if check == nil || (!check.Promoted && check.SwitchOffer == nil) {
		return
	}

	var sb strings.Builder

	if check.Promoted {
		sb.WriteString(fmt.Sprintf("🎉 PROMOTED to level %d\n", check.Session.Level))
		sb.WriteString(fmt.Sprintf("+%d XP bonus\n", check.XPAwarded))
	}
	if check.SwitchOffer != nil {
		sb.WriteString(fmt.Sprintf("Recruiter outreach: %s\n", check.SwitchOffer.Title))
		sb.WriteString(fmt.Sprintf("  %s (level %d)\n", check.SwitchOffer.Company, check.SwitchOffer.Level))
	}

	p.printBox("RANDOM EVENTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintLedger outputs the most recent XP ledger entries.
func (p *Printer) PrintLedger(entries []types.LedgerEntry) {
	if len(entries) == 0 {
		return
	}

	var sb strings.Builder
	total := 0
	for _, e := range entries {
		total += e.XPDelta
	}
	sb.WriteString(fmt.Sprintf("%d entries, %d XP total:\n\n", len(entries), total))

	count := min(len(entries), maxItemsToShow)
	for i := 0; i < count; i++ {
		entry := entries[i]
		reason := entry.Reason
		if len(reason) > 40 {
			reason = reason[:37] + "..."
		}
		sb.WriteString(fmt.Sprintf("%+5d  %s\n", entry.XPDelta, reason))
	}
	if len(entries) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more entries", len(entries)-maxItemsToShow))
	}

	p.printBox("XP LEDGER", strings.TrimSuffix(sb.String(), "\n"))
}

func writeFollowOn(sb *strings.Builder, tasks []types.Task, meetings []types.Meeting) {
	for _, t := range tasks {
		title := t.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		sb.WriteString(fmt.Sprintf("New task: %s\n", title))
	}
	for _, m := range meetings {
		sb.WriteString(fmt.Sprintf("New meeting: %s (%s)\n", m.Title, m.Type))
	}
}

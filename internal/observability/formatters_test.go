package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/career-sim/internal/grading"
	"github.com/jonathan/career-sim/internal/session"
	"github.com/jonathan/career-sim/internal/types"
)

func TestPrintSession(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	s := &types.Session{
		Profession: "data engineer",
		Employment: types.StatusEmployed,
		Level:      2,
		XPTotal:    150,
		Stats: types.SessionStats{
			TasksCompleted:   4,
			TasksFailed:      1,
			MeetingsAttended: 2,
			MeetingScoreAvg:  85,
		},
	}

	p.PrintSession(s)
	output := buf.String()

	assert.Contains(t, output, "CAREER SESSION")
	assert.Contains(t, output, "data engineer")
	assert.Contains(t, output, "employed")
	assert.Contains(t, output, "4 passed, 1 failed")
	assert.Contains(t, output, "avg 85.0")
}

func TestPrintSession_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSession(nil)

	assert.Empty(t, buf.String())
}

func TestPrintDashboard(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	view := &session.DashboardView{
		Session: &types.Session{},
		Tasks: []types.Task{
			{Title: "Design the ingest schema", Format: types.FormatFreeText, XPValue: 40},
			{Title: "Review the backfill PR", Format: types.FormatCodeReview, XPValue: 50, Origin: types.OriginMeetingFollowup},
		},
		Meetings: []types.Meeting{
			{Title: "Sprint check-in", Type: types.MeetingTeam, Status: types.MeetingScheduled},
		},
	}

	p.PrintDashboard(view)
	output := buf.String()

	assert.Contains(t, output, "DASHBOARD")
	assert.Contains(t, output, "Active tasks: 2")
	assert.Contains(t, output, "Design the ingest schema")
	assert.Contains(t, output, "follow-up")
	assert.Contains(t, output, "Sprint check-in")
}

func TestPrintOffers(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	offers := []types.JobOffer{
		{Title: "Senior Data Engineer", Company: "Initech", Level: 2},
		{Title: "Data Platform Engineer", Company: "Globex", Level: 1},
	}

	p.PrintOffers(offers)
	output := buf.String()

	assert.Contains(t, output, "JOB LISTINGS")
	assert.Contains(t, output, "Found 2 listings")
	assert.Contains(t, output, "Initech")
	assert.Contains(t, output, "Globex")
}

func TestPrintOffers_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintOffers(nil)

	assert.Empty(t, buf.String())
}

func TestPrintInterviewOutcome_Hired(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	outcome := &session.InterviewOutcome{
		Result: grading.InterviewResult{
			Results: []grading.Result{
				{Score: 85, Passed: true},
				{Score: 72, Passed: true},
			},
			Average: 78.5,
			Passed:  true,
		},
		Offer:        &types.JobOffer{Company: "Initech"},
		InitialTasks: []types.Task{{}, {}, {}},
	}

	p.PrintInterviewOutcome(outcome)
	output := buf.String()

	assert.Contains(t, output, "INTERVIEW RESULT")
	assert.Contains(t, output, "✓ Q1: 85/100")
	assert.Contains(t, output, "Average: 78.5")
	assert.Contains(t, output, "HIRED at Initech")
	assert.Contains(t, output, "3 starting tasks")
}

func TestPrintInterviewOutcome_Rejected(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	outcome := &session.InterviewOutcome{
		Result: grading.InterviewResult{
			Results: []grading.Result{{Score: 30}},
			Average: 30,
		},
		Offer: &types.JobOffer{Company: "Initech"},
	}

	p.PrintInterviewOutcome(outcome)
	output := buf.String()

	assert.Contains(t, output, "✗ Q1: 30/100")
	assert.Contains(t, output, "Not hired this time")
}

func TestPrintTaskOutcome(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	outcome := &session.TaskOutcome{
		Task:      &types.Task{},
		Result:    grading.Result{Score: 82, Passed: true, Feedback: "Solid coverage of the rubric."},
		XPAwarded: 40,
		LeveledUp: true,
		Session:   &types.Session{Level: 2},
		NewTasks:  []types.Task{{Title: "Tune the nightly job"}},
	}

	p.PrintTaskOutcome(outcome)
	output := buf.String()

	assert.Contains(t, output, "TASK RESULT")
	assert.Contains(t, output, "✓ PASSED  score 82/100")
	assert.Contains(t, output, "+40 XP")
	assert.Contains(t, output, "LEVEL 2")
	assert.Contains(t, output, "New task: Tune the nightly job")
}

func TestPrintMeetingOutcome_LeftEarly(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	outcome := &session.MeetingOutcome{
		Meeting:   &types.Meeting{Type: types.MeetingOneOnOne, Status: types.MeetingAbandoned},
		Score:     80,
		XPAwarded: 19,
		Session:   &types.Session{Level: 1},
	}

	p.PrintMeetingOutcome(outcome)
	output := buf.String()

	assert.Contains(t, output, "MEETING RESULT")
	assert.Contains(t, output, "80/100 (left early)")
	assert.Contains(t, output, "+19 XP")
}

func TestPrintEventCheck_Quiet(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintEventCheck(&session.EventCheck{Session: &types.Session{}})

	assert.Empty(t, buf.String())
}

func TestPrintEventCheck_Promotion(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	check := &session.EventCheck{
		Promoted:  true,
		XPAwarded: 60,
		Session:   &types.Session{Level: 3},
	}

	p.PrintEventCheck(check)
	output := buf.String()

	assert.Contains(t, output, "RANDOM EVENTS")
	assert.Contains(t, output, "PROMOTED to level 3")
	assert.Contains(t, output, "+60 XP bonus")
}

func TestPrintLedger(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	entries := []types.LedgerEntry{
		{XPDelta: 40, Reason: "task passed"},
		{XPDelta: 42, Reason: "meeting completed"},
	}

	p.PrintLedger(entries)
	output := buf.String()

	assert.Contains(t, output, "XP LEDGER")
	assert.Contains(t, output, "2 entries, 82 XP total")
	assert.Contains(t, output, "task passed")
	assert.Contains(t, output, "meeting completed")
}

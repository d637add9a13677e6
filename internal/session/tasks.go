package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-sim/internal/grading"
	"github.com/jonathan/career-sim/internal/ledger"
	"github.com/jonathan/career-sim/internal/trigger"
	"github.com/jonathan/career-sim/internal/types"
)

// TaskOutcome is the result of grading one task submission, including
// whatever follow-on work the submission triggered.
type TaskOutcome struct {
	Task        *types.Task     `json:"task"`
	Result      grading.Result  `json:"result"`
	XPAwarded   int             `json:"xp_awarded"`
	LeveledUp   bool            `json:"leveled_up"`
	Session     *types.Session  `json:"session"`
	NewTasks    []types.Task    `json:"new_tasks,omitempty"`
	NewMeetings []types.Meeting `json:"new_meetings,omitempty"`
}

// SubmitTask grades a task solution and settles the attempt: a pass awards
// the task's XP and may trigger a review meeting; a repeat failure always
// triggers a feedback meeting. Either way the dashboard is topped back up
// before the transition commits.
func (e *Engine) SubmitTask(ctx context.Context, taskID uuid.UUID, answer types.Answer) (*TaskOutcome, error) {
	task, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &NotFoundError{Resource: "task", ID: taskID.String()}
	}
	if task.Terminal() {
		return nil, &ValidationError{Message: "task has already passed"}
	}
	wasActive := task.Status == types.TaskActive

	session, err := e.GetSession(ctx, task.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Employment != types.StatusEmployed {
		return nil, &ValidationError{Message: "session is not employed"}
	}

	result, err := e.grader.GradeAnswer(ctx, task.Format, task.Description, answer, task.Rubric)
	if err != nil {
		return nil, err
	}

	eventID := nextEvent(session)
	task.Attempts++
	task.UpdatedAt = time.Now()

	mutation := &types.Mutation{Session: session}
	outcome := &TaskOutcome{Task: task, Result: result}

	var event trigger.Event
	if result.Passed {
		task.Status = types.TaskPassed
		session.Stats.TasksCompleted++
		session.Stats.TasksSinceLastMeeting++

		newTotal, leveledUp, err := ledger.Apply(session.XPTotal, task.XPValue)
		if err != nil {
			return nil, err
		}
		session.XPTotal = newTotal
		session.Level = ledger.ComputeLevel(newTotal)
		outcome.XPAwarded = task.XPValue
		outcome.LeveledUp = leveledUp

		reason := fmt.Sprintf("task passed: %s", task.Title)
		mutation.LedgerEntries = append(mutation.LedgerEntries, ledgerEntry(session, eventID, task.XPValue, reason))

		event = trigger.Event{
			Kind:     trigger.EventTaskPassed,
			SourceID: taskEventID(task, "passed"),
		}
	} else {
		task.Status = types.TaskFailed
		session.Stats.TasksFailed++

		event = trigger.Event{
			Kind:         trigger.EventTaskFailed,
			SourceID:     taskEventID(task, "failed"),
			TaskAttempts: task.Attempts,
		}
	}
	mutation.UpsertTasks = append(mutation.UpsertTasks, *task)

	snap, err := e.snapshot(ctx, session)
	if err != nil {
		return nil, err
	}
	if wasActive {
		// The submitted task is no longer active either way.
		snap.ActiveTasks--
	}

	pending := trigger.Evaluate(snap, event, e.rng)
	newTasks, newMeetings, err := e.processPending(ctx, session, pending)
	if err != nil {
		return nil, err
	}

	newTasks, newMeetings, err = e.replenish(ctx, session, snap, event.SourceID, newTasks, newMeetings)
	if err != nil {
		return nil, err
	}
	outcome.NewTasks = newTasks
	outcome.NewMeetings = newMeetings

	mutation.UpsertTasks = append(mutation.UpsertTasks, newTasks...)
	mutation.UpsertMeetings = append(mutation.UpsertMeetings, newMeetings...)

	if err := e.store.Commit(ctx, mutation); err != nil {
		return nil, err
	}

	outcome.Session = session
	return outcome, nil
}

// taskEventID derives a stable source-event key from the task state, so a
// retried submit of the same attempt maps to the same trigger records.
func taskEventID(t *types.Task, outcome string) string {
	return fmt.Sprintf("task:%s:attempt:%d:%s", t.ID, t.Attempts, outcome)
}

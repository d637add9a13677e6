package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-sim/internal/ledger"
	"github.com/jonathan/career-sim/internal/trigger"
	"github.com/jonathan/career-sim/internal/types"
)

// StartMeeting moves a scheduled meeting to active.
func (e *Engine) StartMeeting(ctx context.Context, meetingID uuid.UUID) (*types.Meeting, error) {
	meeting, session, err := e.loadMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.Status != types.MeetingScheduled {
		return nil, &ValidationError{Message: "meeting is not scheduled"}
	}

	nextEvent(session)
	meeting.Status = types.MeetingActive
	meeting.UpdatedAt = time.Now()

	mutation := &types.Mutation{Session: session, UpsertMeetings: []types.Meeting{*meeting}}
	if err := e.store.Commit(ctx, mutation); err != nil {
		return nil, err
	}
	return meeting, nil
}

// MeetingTurn is one conversational exchange inside an active meeting.
type MeetingTurn struct {
	Reply   string         `json:"reply"`
	WrapUp  bool           `json:"wrap_up"`
	Meeting *types.Meeting `json:"meeting"`
}

// RespondMeeting submits one player turn: the colleague replies, the turn's
// contribution rating accumulates into the meeting's running score, and any
// raised action items attach to the meeting.
func (e *Engine) RespondMeeting(ctx context.Context, meetingID uuid.UUID, text string) (*MeetingTurn, error) {
	req := types.MeetingResponseRequest{Text: text}
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	meeting, session, err := e.loadMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.Status != types.MeetingActive {
		return nil, &ValidationError{Message: "meeting is not active"}
	}

	genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	payload, err := e.generator.GenerateMeetingResponse(genCtx, meeting.Type, currentTopic(meeting), text)
	if err != nil {
		return nil, err
	}

	nextEvent(session)
	meeting.Responses++
	meeting.ScoreTotal += clampScore(payload.ContributionScore)
	meeting.ActionItems = append(meeting.ActionItems, payload.ActionItems...)
	meeting.UpdatedAt = time.Now()

	mutation := &types.Mutation{Session: session, UpsertMeetings: []types.Meeting{*meeting}}
	if err := e.store.Commit(ctx, mutation); err != nil {
		return nil, err
	}

	return &MeetingTurn{Reply: payload.Reply, WrapUp: payload.WrapUp, Meeting: meeting}, nil
}

// MeetingOutcome is the result of finishing a meeting, by completion or by
// walking out.
type MeetingOutcome struct {
	Meeting     *types.Meeting  `json:"meeting"`
	Score       int             `json:"score"`
	XPAwarded   int             `json:"xp_awarded"`
	LeveledUp   bool            `json:"leveled_up"`
	Session     *types.Session  `json:"session"`
	NewTasks    []types.Task    `json:"new_tasks,omitempty"`
	NewMeetings []types.Meeting `json:"new_meetings,omitempty"`
}

// CompleteMeeting finishes an active meeting: the participation score
// settles, XP is awarded, and the meeting's action items can spawn follow-up
// tasks.
func (e *Engine) CompleteMeeting(ctx context.Context, meetingID uuid.UUID) (*MeetingOutcome, error) {
	return e.finishMeeting(ctx, meetingID, false)
}

// LeaveMeeting abandons an active meeting early: half XP, no follow-up
// work.
func (e *Engine) LeaveMeeting(ctx context.Context, meetingID uuid.UUID) (*MeetingOutcome, error) {
	return e.finishMeeting(ctx, meetingID, true)
}

func (e *Engine) finishMeeting(ctx context.Context, meetingID uuid.UUID, leftEarly bool) (*MeetingOutcome, error) {
	meeting, session, err := e.loadMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.Status != types.MeetingActive {
		return nil, &ValidationError{Message: "meeting is not active"}
	}

	score := meetingScore(meeting)
	eventID := nextEvent(session)

	outcomeWord := "completed"
	if leftEarly {
		meeting.Status = types.MeetingAbandoned
		outcomeWord = "abandoned"
	} else {
		meeting.Status = types.MeetingCompleted
	}
	meeting.Score = &score
	meeting.UpdatedAt = time.Now()

	xp := ledger.MeetingXP(meeting.Type, score, leftEarly)
	newTotal, leveledUp, err := ledger.Apply(session.XPTotal, xp)
	if err != nil {
		return nil, err
	}
	session.XPTotal = newTotal
	session.Level = ledger.ComputeLevel(newTotal)

	// Attended either way; the average reflects the settled score. Only a
	// meeting seen through to the end counts toward promotion.
	attended := session.Stats.MeetingsAttended
	session.Stats.MeetingScoreAvg = (session.Stats.MeetingScoreAvg*float64(attended) + float64(score)) / float64(attended+1)
	session.Stats.MeetingsAttended = attended + 1
	if !leftEarly {
		session.Stats.MeetingsCompleted++
	}
	session.Stats.TasksSinceLastMeeting = 0

	reason := fmt.Sprintf("meeting %s: %s", outcomeWord, meeting.Title)
	mutation := &types.Mutation{
		Session:        session,
		UpsertMeetings: []types.Meeting{*meeting},
		LedgerEntries:  []types.LedgerEntry{ledgerEntry(session, eventID, xp, reason)},
	}

	outcome := &MeetingOutcome{
		Meeting:   meeting,
		Score:     score,
		XPAwarded: xp,
		LeveledUp: leveledUp,
	}

	sourceID := meetingEventID(meeting, outcomeWord)
	snap, err := e.snapshot(ctx, session)
	if err != nil {
		return nil, err
	}
	// The finished meeting no longer occupies a dashboard slot.
	snap.ActiveMeetings--
	snap.TasksSinceLastMeeting = 0
	snap.MeetingsCompleted = session.Stats.MeetingsCompleted
	snap.MeetingScoreAvg = session.Stats.MeetingScoreAvg

	var newTasks []types.Task
	var newMeetings []types.Meeting
	if !leftEarly {
		// Only a completed meeting spawns follow-up work.
		event := trigger.Event{
			Kind:         trigger.EventMeetingCompleted,
			SourceID:     sourceID,
			MeetingType:  meeting.Type,
			MeetingScore: score,
			ActionItems:  len(meeting.ActionItems),
		}
		pending := trigger.Evaluate(snap, event, e.rng)
		newTasks, newMeetings, err = e.processPending(ctx, session, pending)
		if err != nil {
			return nil, err
		}
	}

	newTasks, newMeetings, err = e.replenish(ctx, session, snap, sourceID, newTasks, newMeetings)
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

// loadMeeting fetches a meeting plus its owning session, enforcing that the
// session is employed.
func (e *Engine) loadMeeting(ctx context.Context, meetingID uuid.UUID) (*types.Meeting, *types.Session, error) {
	meeting, err := e.store.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, nil, err
	}
	if meeting == nil {
		return nil, nil, &NotFoundError{Resource: "meeting", ID: meetingID.String()}
	}

	session, err := e.GetSession(ctx, meeting.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Employment != types.StatusEmployed {
		return nil, nil, &ValidationError{Message: "session is not employed"}
	}
	return meeting, session, nil
}

// meetingScore settles the participation score from the accumulated turn
// ratings. A meeting with no responses scores zero.
func meetingScore(m *types.Meeting) int {
	if m.Responses == 0 {
		return 0
	}
	return m.ScoreTotal / m.Responses
}

// currentTopic picks the discussion topic for the next turn, advancing
// through the ordered list one topic per response.
func currentTopic(m *types.Meeting) string {
	if len(m.Topics) == 0 {
		return "general discussion"
	}
	i := m.Responses
	if i >= len(m.Topics) {
		i = len(m.Topics) - 1
	}
	return m.Topics[i]
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// meetingEventID derives a stable source-event key from the meeting's final
// state, so a retried completion maps to the same trigger records.
func meetingEventID(m *types.Meeting, outcome string) string {
	return fmt.Sprintf("meeting:%s:%s", m.ID, outcome)
}

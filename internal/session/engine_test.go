package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-sim/internal/gen"
	"github.com/jonathan/career-sim/internal/trigger"
	"github.com/jonathan/career-sim/internal/types"
)

var errConflict = errors.New("session was modified concurrently")

// fakeStore is an in-memory Store with the same optimistic-version commit
// semantics as the real one.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*types.Session
	tasks    map[uuid.UUID]types.Task
	meetings map[uuid.UUID]types.Meeting
	offers   map[uuid.UUID]types.JobOffer
	ledger   map[uuid.UUID][]types.LedgerEntry
	records  map[string]types.TriggerRecord

	commits   int
	commitErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[uuid.UUID]*types.Session),
		tasks:    make(map[uuid.UUID]types.Task),
		meetings: make(map[uuid.UUID]types.Meeting),
		offers:   make(map[uuid.UUID]types.JobOffer),
		ledger:   make(map[uuid.UUID][]types.LedgerEntry),
		records:  make(map[string]types.TriggerRecord),
	}
}

func (f *fakeStore) CreateSession(ctx context.Context, playerID uuid.UUID, profession string) (*types.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &types.Session{
		ID:         uuid.New(),
		PlayerID:   playerID,
		Profession: profession,
		Level:      1,
		Employment: types.StatusUnemployed,
		Version:    1,
	}
	f.sessions[s.ID] = s
	cp := *s
	return &cp, nil
}

func (f *fakeStore) GetSession(ctx context.Context, id uuid.UUID) (*types.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) GetTask(ctx context.Context, id uuid.UUID) (*types.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := t
	return &cp, nil
}

func (f *fakeStore) GetMeeting(ctx context.Context, id uuid.UUID) (*types.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meetings[id]
	if !ok {
		return nil, nil
	}
	cp := m
	return &cp, nil
}

func (f *fakeStore) GetJobOffer(ctx context.Context, id uuid.UUID) (*types.JobOffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.offers[id]
	if !ok {
		return nil, nil
	}
	cp := o
	return &cp, nil
}

func (f *fakeStore) ListTasksByStatus(ctx context.Context, sessionID uuid.UUID, status types.TaskStatus) ([]types.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.Task
	for _, t := range f.tasks {
		if t.SessionID == sessionID && t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) ListMeetingsByStatus(ctx context.Context, sessionID uuid.UUID, status types.MeetingStatus) ([]types.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.Meeting
	for _, m := range f.meetings {
		if m.SessionID == sessionID && m.Status == status {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) ListOffersByStatus(ctx context.Context, sessionID uuid.UUID, status types.OfferStatus) ([]types.JobOffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.JobOffer
	for _, o := range f.offers {
		if o.SessionID == sessionID && o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) ListLedger(ctx context.Context, sessionID uuid.UUID) ([]types.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.LedgerEntry(nil), f.ledger[sessionID]...), nil
}

func (f *fakeStore) InsertTriggerRecord(ctx context.Context, rec types.TriggerRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%s|%s|%s", rec.SessionID, rec.SourceEventID, rec.Kind)
	if _, exists := f.records[key]; exists {
		return false, nil
	}
	f.records[key] = rec
	return true, nil
}

func (f *fakeStore) Commit(ctx context.Context, m *types.Mutation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		err := f.commitErr
		f.commitErr = nil
		return err
	}
	stored, ok := f.sessions[m.Session.ID]
	if !ok || stored.Version != m.Session.Version {
		return errConflict
	}
	cp := *m.Session
	cp.Version++
	f.sessions[cp.ID] = &cp
	for _, t := range m.UpsertTasks {
		f.tasks[t.ID] = t
	}
	for _, mt := range m.UpsertMeetings {
		f.meetings[mt.ID] = mt
	}
	for _, o := range m.UpsertOffers {
		f.offers[o.ID] = o
	}
	f.ledger[cp.ID] = append(f.ledger[cp.ID], m.LedgerEntries...)
	f.commits++
	return nil
}

// scriptedGen returns canned content and counts calls.
type scriptedGen struct {
	mu            sync.Mutex
	listingCalls  int
	questionCalls int
	taskCalls     int
	meetingCalls  int
	responseCalls int

	response gen.MeetingResponsePayload
	genErr   error
}

func (g *scriptedGen) GenerateJobListing(ctx context.Context, profession string, level int) (*gen.JobListingPayload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listingCalls++
	if g.genErr != nil {
		return nil, g.genErr
	}
	return &gen.JobListingPayload{
		Title:       "Senior " + profession,
		Company:     "Initech",
		Description: "A challenging role.",
		Level:       level,
	}, nil
}

func (g *scriptedGen) GenerateInterviewQuestions(ctx context.Context, profession, title string, level, count int) (*gen.QuestionsPayload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.questionCalls++
	if g.genErr != nil {
		return nil, g.genErr
	}
	questions := make([]types.InterviewQuestion, count)
	for i := range questions {
		questions[i] = types.InterviewQuestion{
			ID:     fmt.Sprintf("q%d", i+1),
			Prompt: fmt.Sprintf("Question %d about architecture.", i+1),
			Rubric: types.Rubric{KeyConcepts: []types.KeyConcept{
				{Concept: "architecture", Weight: 1.0},
			}},
		}
	}
	return &gen.QuestionsPayload{Questions: questions}, nil
}

func (g *scriptedGen) GenerateTask(ctx context.Context, profession string, level int, complexity trigger.Complexity, performance string) (*gen.TaskPayload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.taskCalls++
	if g.genErr != nil {
		return nil, g.genErr
	}
	return &gen.TaskPayload{
		Title:       "Generated task",
		Description: "Describe how you would improve the build pipeline.",
		Format:      types.FormatFreeText,
		XPValue:     40,
		Rubric: types.Rubric{KeyConcepts: []types.KeyConcept{
			{Concept: "pipeline", Weight: 1.0},
		}},
	}, nil
}

func (g *scriptedGen) GenerateMeeting(ctx context.Context, profession string, level int, meetingType types.MeetingType, reason string) (*gen.MeetingPayload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.meetingCalls++
	if g.genErr != nil {
		return nil, g.genErr
	}
	return &gen.MeetingPayload{
		Title:  "Generated meeting",
		Type:   meetingType,
		Topics: []string{"status", "next steps"},
	}, nil
}

func (g *scriptedGen) GenerateMeetingResponse(ctx context.Context, meetingType types.MeetingType, topic, playerInput string) (*gen.MeetingResponsePayload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responseCalls++
	if g.genErr != nil {
		return nil, g.genErr
	}
	return &g.response, nil
}

// longAnswer is a free-text answer comfortably past the word-count floor
// that covers the scripted rubric concepts.
func longAnswer(concept string) string {
	return strings.Repeat(fmt.Sprintf("I would focus on the %s with careful attention to detail and clear reasoning. ", concept), 4)
}

// noLuck suppresses every probabilistic roll.
func noLuck() trigger.Rand { return trigger.NewFixed(0.99) }

// allLuck makes every probabilistic roll fire.
func allLuck() trigger.Rand { return trigger.NewFixed(0.0) }

func employedSession(t *testing.T, store *fakeStore) *types.Session {
	t.Helper()
	s, err := store.CreateSession(context.Background(), uuid.New(), "ios_engineer")
	require.NoError(t, err)
	store.mu.Lock()
	stored := store.sessions[s.ID]
	stored.Employment = types.StatusEmployed
	jobID := uuid.New()
	stored.CurrentJobID = &jobID
	cp := *stored
	store.mu.Unlock()
	return &cp
}

func addActiveTask(store *fakeStore, sessionID uuid.UUID, xp int) types.Task {
	task := types.Task{
		ID:          uuid.New(),
		SessionID:   sessionID,
		Title:       "Existing task",
		Description: "Explain the pipeline improvements you shipped.",
		Format:      types.FormatFreeText,
		Rubric: types.Rubric{KeyConcepts: []types.KeyConcept{
			{Concept: "pipeline", Weight: 1.0},
		}},
		Status:  types.TaskActive,
		XPValue: xp,
	}
	store.mu.Lock()
	store.tasks[task.ID] = task
	store.mu.Unlock()
	return task
}

func addActiveMeeting(store *fakeStore, sessionID uuid.UUID, scoreTotal, responses int, actionItems []string) types.Meeting {
	meeting := types.Meeting{
		ID:          uuid.New(),
		SessionID:   sessionID,
		Type:        types.MeetingOneOnOne,
		Status:      types.MeetingActive,
		Title:       "Weekly one on one",
		Topics:      []string{"growth", "blockers"},
		Responses:   responses,
		ScoreTotal:  scoreTotal,
		ActionItems: actionItems,
	}
	store.mu.Lock()
	store.meetings[meeting.ID] = meeting
	store.mu.Unlock()
	return meeting
}

func TestEndToEnd_InterviewToEmployment(t *testing.T) {
	store := newFakeStore()
	generator := &scriptedGen{}
	engine := NewEngine(store, generator, nil, noLuck())
	ctx := context.Background()

	session, err := engine.CreateSession(ctx, uuid.New(), "ios_engineer")
	require.NoError(t, err)
	assert.Equal(t, types.StatusUnemployed, session.Employment)
	assert.Equal(t, 1, session.Level)

	offers, err := engine.RequestJobSearch(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, offers, 3)

	offer, err := engine.StartInterview(ctx, session.ID, offers[0].ID)
	require.NoError(t, err)
	require.Len(t, offer.Questions, 3)

	updated, err := engine.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusInterviewing, updated.Employment)

	answers := make([]types.InterviewAnswer, 0, len(offer.Questions))
	for _, q := range offer.Questions {
		answers = append(answers, types.InterviewAnswer{QuestionID: q.ID, Text: longAnswer("architecture")})
	}

	outcome, err := engine.SubmitInterview(ctx, session.ID, offer.ID, answers)
	require.NoError(t, err)
	assert.True(t, outcome.Result.Passed)
	assert.GreaterOrEqual(t, outcome.Result.Average, 70.0)

	assert.Equal(t, types.StatusEmployed, outcome.Session.Employment)
	require.NotNil(t, outcome.Session.CurrentJobID)
	assert.Equal(t, offer.ID, *outcome.Session.CurrentJobID)

	// Dashboard seeded within bounds; the offer itself awards no XP.
	assert.GreaterOrEqual(t, len(outcome.InitialTasks), 3)
	assert.LessOrEqual(t, len(outcome.InitialTasks), 5)
	assert.Equal(t, 0, outcome.Session.XPTotal)
	assert.Equal(t, 1, outcome.Session.Level)

	view, err := engine.Dashboard(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, view.Tasks, len(outcome.InitialTasks))
}

func TestSubmitInterview_FailReturnsToUnemployed(t *testing.T) {
	store := newFakeStore()
	generator := &scriptedGen{}
	engine := NewEngine(store, generator, nil, noLuck())
	ctx := context.Background()

	session, err := engine.CreateSession(ctx, uuid.New(), "ios_engineer")
	require.NoError(t, err)

	offers, err := engine.RequestJobSearch(ctx, session.ID)
	require.NoError(t, err)
	offer, err := engine.StartInterview(ctx, session.ID, offers[0].ID)
	require.NoError(t, err)

	// All answers below the word-count floor auto-fail.
	answers := make([]types.InterviewAnswer, 0, len(offer.Questions))
	for _, q := range offer.Questions {
		answers = append(answers, types.InterviewAnswer{QuestionID: q.ID, Text: "too short"})
	}

	outcome, err := engine.SubmitInterview(ctx, session.ID, offer.ID, answers)
	require.NoError(t, err)
	assert.False(t, outcome.Result.Passed)
	assert.Equal(t, types.StatusUnemployed, outcome.Session.Employment)
	assert.Equal(t, 1, outcome.Session.Stats.InterviewsFailed)
	assert.Equal(t, types.OfferRejected, outcome.Offer.Status)
	assert.Empty(t, outcome.InitialTasks)
}

func TestSubmitInterview_RejectsUnknownQuestion(t *testing.T) {
	store := newFakeStore()
	generator := &scriptedGen{}
	engine := NewEngine(store, generator, nil, noLuck())
	ctx := context.Background()

	session, err := engine.CreateSession(ctx, uuid.New(), "ios_engineer")
	require.NoError(t, err)
	offers, err := engine.RequestJobSearch(ctx, session.ID)
	require.NoError(t, err)
	offer, err := engine.StartInterview(ctx, session.ID, offers[0].ID)
	require.NoError(t, err)

	answers := []types.InterviewAnswer{{QuestionID: "nope", Text: longAnswer("architecture")}}
	_, err = engine.SubmitInterview(ctx, session.ID, offer.ID, answers)
	require.Error(t, err)

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	// Rejected before any mutation: still interviewing, no grading happened.
	current, err := engine.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusInterviewing, current.Employment)
}

func TestSubmitTask_PassAwardsXPAndReplenishes(t *testing.T) {
	store := newFakeStore()
	generator := &scriptedGen{}
	engine := NewEngine(store, generator, nil, noLuck())
	ctx := context.Background()

	session := employedSession(t, store)
	task := addActiveTask(store, session.ID, 40)
	addActiveTask(store, session.ID, 40)
	addActiveTask(store, session.ID, 40)

	outcome, err := engine.SubmitTask(ctx, task.ID, types.Answer{Text: longAnswer("pipeline")})
	require.NoError(t, err)
	assert.True(t, outcome.Result.Passed)
	assert.Equal(t, types.TaskPassed, outcome.Task.Status)
	assert.Equal(t, 1, outcome.Task.Attempts)
	assert.Equal(t, 40, outcome.XPAwarded)
	assert.Equal(t, 40, outcome.Session.XPTotal)
	assert.Equal(t, 1, outcome.Session.Stats.TasksCompleted)
	assert.Equal(t, 1, outcome.Session.Stats.TasksSinceLastMeeting)

	// Two active tasks remain after the pass; replenishment restores three.
	require.Len(t, outcome.NewTasks, 1)
	active, err := store.ListTasksByStatus(ctx, session.ID, types.TaskActive)
	require.NoError(t, err)
	assert.Len(t, active, 3)

	entries, err := store.ListLedger(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 40, entries[0].XPDelta)
}

func TestSubmitTask_TerminalTaskRejected(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, &scriptedGen{}, nil, noLuck())
	ctx := context.Background()

	session := employedSession(t, store)
	task := addActiveTask(store, session.ID, 40)
	store.mu.Lock()
	passed := store.tasks[task.ID]
	passed.Status = types.TaskPassed
	store.tasks[task.ID] = passed
	store.mu.Unlock()

	_, err := engine.SubmitTask(ctx, task.ID, types.Answer{Text: longAnswer("pipeline")})
	require.Error(t, err)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSubmitTask_RepeatFailureSchedulesFeedbackMeeting(t *testing.T) {
	store := newFakeStore()
	generator := &scriptedGen{}
	engine := NewEngine(store, generator, nil, noLuck())
	ctx := context.Background()

	session := employedSession(t, store)
	task := addActiveTask(store, session.ID, 40)
	addActiveTask(store, session.ID, 40)
	addActiveTask(store, session.ID, 40)
	addActiveMeeting(store, session.ID, 0, 0, nil)

	// First failure: attempts reaches 1, no feedback meeting yet.
	_, err := engine.SubmitTask(ctx, task.ID, types.Answer{Text: "gibberish"})
	require.NoError(t, err)
	assert.Equal(t, 0, generator.meetingCalls)

	// Second failure: attempts reaches 2, feedback meeting fires.
	outcome, err := engine.SubmitTask(ctx, task.ID, types.Answer{Text: "gibberish"})
	require.NoError(t, err)
	assert.Equal(t, types.TaskFailed, outcome.Task.Status)
	assert.Equal(t, 2, outcome.Task.Attempts)
	require.Len(t, outcome.NewMeetings, 1)
	assert.Equal(t, types.MeetingFeedbackSession, outcome.NewMeetings[0].Type)
}

func TestSubmitTask_RetryIsIdempotent(t *testing.T) {
	store := newFakeStore()
	generator := &scriptedGen{}
	engine := NewEngine(store, generator, nil, noLuck())
	ctx := context.Background()

	session := employedSession(t, store)
	task := addActiveTask(store, session.ID, 40)
	addActiveTask(store, session.ID, 40)
	addActiveTask(store, session.ID, 40)
	addActiveMeeting(store, session.ID, 0, 0, nil)

	store.mu.Lock()
	failing := store.tasks[task.ID]
	failing.Attempts = 1
	store.tasks[task.ID] = failing
	preTask := store.tasks[task.ID]
	preSession := *store.sessions[session.ID]
	store.mu.Unlock()

	outcome, err := engine.SubmitTask(ctx, task.ID, types.Answer{Text: "gibberish"})
	require.NoError(t, err)
	require.Len(t, outcome.NewMeetings, 1)
	meetingsAfterFirst := generator.meetingCalls

	// Simulate a client retry of the same request: restore the pre-submit
	// entity state, as if the response to the first call was lost.
	store.mu.Lock()
	store.tasks[task.ID] = preTask
	restored := preSession
	store.sessions[session.ID] = &restored
	store.mu.Unlock()

	retry, err := engine.SubmitTask(ctx, task.ID, types.Answer{Text: "gibberish"})
	require.NoError(t, err)

	// Same source event, same trigger key: no second generation.
	assert.Empty(t, retry.NewMeetings)
	assert.Equal(t, meetingsAfterFirst, generator.meetingCalls)

	feedbackRecords := 0
	store.mu.Lock()
	for _, rec := range store.records {
		if rec.Kind == string(trigger.KindFeedbackMeeting) {
			feedbackRecords++
		}
	}
	store.mu.Unlock()
	assert.Equal(t, 1, feedbackRecords)
}

func TestMeetingLifecycle_CompleteAwardsXPAndFollowups(t *testing.T) {
	store := newFakeStore()
	generator := &scriptedGen{
		response: gen.MeetingResponsePayload{
			Reply:             "Good thinking.",
			ContributionScore: 90,
			ActionItems:       []string{"write the migration plan", "profile the startup path"},
		},
	}
	engine := NewEngine(store, generator, nil, noLuck())
	ctx := context.Background()

	session := employedSession(t, store)
	addActiveTask(store, session.ID, 40)
	addActiveTask(store, session.ID, 40)
	addActiveTask(store, session.ID, 40)

	meeting := addActiveMeeting(store, session.ID, 0, 0, nil)
	store.mu.Lock()
	scheduled := store.meetings[meeting.ID]
	scheduled.Status = types.MeetingScheduled
	store.meetings[meeting.ID] = scheduled
	store.mu.Unlock()

	started, err := engine.StartMeeting(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MeetingActive, started.Status)

	turn, err := engine.RespondMeeting(ctx, meeting.ID, "I suggest we stage the migration behind a flag.")
	require.NoError(t, err)
	assert.Equal(t, "Good thinking.", turn.Reply)
	assert.Equal(t, 1, turn.Meeting.Responses)

	turn, err = engine.RespondMeeting(ctx, meeting.ID, "Startup profiling comes next.")
	require.NoError(t, err)
	assert.Equal(t, 2, turn.Meeting.Responses)
	assert.Len(t, turn.Meeting.ActionItems, 4)

	outcome, err := engine.CompleteMeeting(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MeetingCompleted, outcome.Meeting.Status)
	assert.Equal(t, 90, outcome.Score)

	// one_on_one base 30 at score 90: floor(30 * 1.4) = 42.
	assert.Equal(t, 42, outcome.XPAwarded)
	assert.Equal(t, 42, outcome.Session.XPTotal)
	assert.Equal(t, 1, outcome.Session.Stats.MeetingsAttended)
	assert.InDelta(t, 90.0, outcome.Session.Stats.MeetingScoreAvg, 0.01)
	assert.Equal(t, 0, outcome.Session.Stats.TasksSinceLastMeeting)

	// Strong score and action items spawn hard follow-up tasks, capped at 3.
	require.Len(t, outcome.NewTasks, 3)
	for _, task := range outcome.NewTasks {
		assert.Equal(t, types.OriginMeetingFollowup, task.Origin)
	}
}

func TestLeaveMeeting_HalfXPNoFollowups(t *testing.T) {
	store := newFakeStore()
	generator := &scriptedGen{}
	engine := NewEngine(store, generator, nil, noLuck())
	ctx := context.Background()

	session := employedSession(t, store)
	addActiveTask(store, session.ID, 40)
	addActiveTask(store, session.ID, 40)
	addActiveTask(store, session.ID, 40)
	meeting := addActiveMeeting(store, session.ID, 160, 2, []string{"follow up"})

	outcome, err := engine.LeaveMeeting(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MeetingAbandoned, outcome.Meeting.Status)
	assert.Equal(t, 80, outcome.Score)

	// one_on_one base 30 at score 80: floor(30 * 1.3) = 39, halved to 19.
	assert.Equal(t, 19, outcome.XPAwarded)
	assert.Empty(t, outcome.NewTasks)
	assert.Equal(t, 0, generator.taskCalls)
}

func TestCheckRandomEvents_PromotionGating(t *testing.T) {
	ctx := context.Background()

	t.Run("ineligible with two completed meetings never fires", func(t *testing.T) {
		store := newFakeStore()
		engine := NewEngine(store, &scriptedGen{}, nil, allLuck())

		session := employedSession(t, store)
		store.mu.Lock()
		s := store.sessions[session.ID]
		s.Stats.MeetingsAttended = 2
		s.Stats.MeetingsCompleted = 2
		s.Stats.MeetingScoreAvg = 100
		store.mu.Unlock()

		check, err := engine.CheckRandomEvents(ctx, session.ID)
		require.NoError(t, err)
		assert.False(t, check.Promoted)
	})

	t.Run("abandoned meetings do not count toward eligibility", func(t *testing.T) {
		store := newFakeStore()
		engine := NewEngine(store, &scriptedGen{}, nil, allLuck())

		session := employedSession(t, store)
		addActiveTask(store, session.ID, 40)
		addActiveTask(store, session.ID, 40)
		addActiveTask(store, session.ID, 40)

		first := addActiveMeeting(store, session.ID, 100, 1, nil)
		second := addActiveMeeting(store, session.ID, 100, 1, nil)
		walkout := addActiveMeeting(store, session.ID, 100, 1, nil)

		_, err := engine.CompleteMeeting(ctx, first.ID)
		require.NoError(t, err)
		_, err = engine.CompleteMeeting(ctx, second.ID)
		require.NoError(t, err)
		_, err = engine.LeaveMeeting(ctx, walkout.ID)
		require.NoError(t, err)

		current, err := engine.GetSession(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, current.Stats.MeetingsAttended)
		assert.Equal(t, 2, current.Stats.MeetingsCompleted)
		assert.InDelta(t, 100.0, current.Stats.MeetingScoreAvg, 0.01)

		check, err := engine.CheckRandomEvents(ctx, session.ID)
		require.NoError(t, err)
		assert.False(t, check.Promoted)
	})

	t.Run("eligible at three meetings averaging 80 fires on a lucky roll", func(t *testing.T) {
		store := newFakeStore()
		engine := NewEngine(store, &scriptedGen{}, nil, allLuck())

		session := employedSession(t, store)
		store.mu.Lock()
		s := store.sessions[session.ID]
		s.Stats.MeetingsAttended = 3
		s.Stats.MeetingsCompleted = 3
		s.Stats.MeetingScoreAvg = 80
		store.mu.Unlock()

		check, err := engine.CheckRandomEvents(ctx, session.ID)
		require.NoError(t, err)
		assert.True(t, check.Promoted)
		assert.Equal(t, 2, check.Session.Level)

		entries, err := store.ListLedger(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "promotion", entries[0].Reason)
	})

	t.Run("eligible but unlucky roll does not fire", func(t *testing.T) {
		store := newFakeStore()
		engine := NewEngine(store, &scriptedGen{}, nil, noLuck())

		session := employedSession(t, store)
		store.mu.Lock()
		s := store.sessions[session.ID]
		s.Stats.MeetingsAttended = 3
		s.Stats.MeetingsCompleted = 3
		s.Stats.MeetingScoreAvg = 95
		store.mu.Unlock()

		check, err := engine.CheckRandomEvents(ctx, session.ID)
		require.NoError(t, err)
		assert.False(t, check.Promoted)
	})
}

func TestCheckRandomEvents_SwitchOffer(t *testing.T) {
	store := newFakeStore()
	generator := &scriptedGen{}
	engine := NewEngine(store, generator, nil, allLuck())
	ctx := context.Background()

	session := employedSession(t, store)

	check, err := engine.CheckRandomEvents(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, check.SwitchOffer)
	assert.Equal(t, 2, check.SwitchOffer.Level)
	assert.Equal(t, types.OfferListed, check.SwitchOffer.Status)

	// Accepting the switch re-enters interviewing with stats intact.
	offer, err := engine.AcceptOffer(ctx, session.ID, check.SwitchOffer.ID)
	require.NoError(t, err)
	assert.Equal(t, types.OfferInterviewing, offer.Status)

	current, err := engine.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusInterviewing, current.Employment)
}

func TestSubmitTask_ConflictPropagates(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, &scriptedGen{}, nil, noLuck())
	ctx := context.Background()

	session := employedSession(t, store)
	task := addActiveTask(store, session.ID, 40)
	addActiveTask(store, session.ID, 40)
	addActiveTask(store, session.ID, 40)
	addActiveMeeting(store, session.ID, 0, 0, nil)

	store.commitErr = errConflict

	_, err := engine.SubmitTask(ctx, task.ID, types.Answer{Text: longAnswer("pipeline")})
	require.Error(t, err)
	assert.ErrorIs(t, err, errConflict)

	// Nothing committed: the stored task is untouched.
	stored, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskActive, stored.Status)
	assert.Equal(t, 0, stored.Attempts)
}

func TestGenerationFailure_NothingCommitted(t *testing.T) {
	store := newFakeStore()
	generator := &scriptedGen{genErr: errors.New("model unavailable")}
	engine := NewEngine(store, generator, nil, noLuck())
	ctx := context.Background()

	session := employedSession(t, store)
	task := addActiveTask(store, session.ID, 40)
	addActiveMeeting(store, session.ID, 0, 0, nil)

	// Only one active task: replenishment must generate, which fails.
	_, err := engine.SubmitTask(ctx, task.ID, types.Answer{Text: longAnswer("pipeline")})
	require.Error(t, err)

	stored, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskActive, stored.Status)

	current, err := engine.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, current.XPTotal)
	assert.Equal(t, 0, store.commits)
}

func TestEventCounter_Monotonic(t *testing.T) {
	store := newFakeStore()
	generator := &scriptedGen{}
	engine := NewEngine(store, generator, nil, noLuck())
	ctx := context.Background()

	session, err := engine.CreateSession(ctx, uuid.New(), "ios_engineer")
	require.NoError(t, err)

	var last int64
	for i := 0; i < 3; i++ {
		_, err := engine.RequestJobSearch(ctx, session.ID)
		require.NoError(t, err)
		current, err := engine.GetSession(ctx, session.ID)
		require.NoError(t, err)
		assert.Greater(t, current.EventCounter, last)
		last = current.EventCounter
	}
}
